package api

import (
	"net/http"
	"strconv"

	"github.com/salvalabdesarollo-source/dashboard/internal/scan"
)

// The staff/doctor/clinic resources are plain paginated listings; all the
// interesting filtering lives on the scans resource.

func listUsersHandler(svc *scan.Service, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit := pageParams(r, defaultLimit)
		items, total, err := svc.ListUsers(r.Context(), page, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		if items == nil {
			items = []scan.User{}
		}
		writeJSON(w, http.StatusOK, newListResponse(items, page, limit, total))
	}
}

func listDoctorsHandler(svc *scan.Service, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit := pageParams(r, defaultLimit)
		items, total, err := svc.ListDoctors(r.Context(), page, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		if items == nil {
			items = []scan.Doctor{}
		}
		writeJSON(w, http.StatusOK, newListResponse(items, page, limit, total))
	}
}

func listClinicsHandler(svc *scan.Service, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, limit := pageParams(r, defaultLimit)
		items, total, err := svc.ListClinics(r.Context(), page, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		if items == nil {
			items = []scan.Clinic{}
		}
		writeJSON(w, http.StatusOK, newListResponse(items, page, limit, total))
	}
}

func pageParams(r *http.Request, defaultLimit int) (page, limit int) {
	page, limit = 1, defaultLimit
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = n
	}
	return page, limit
}
