package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/salvalabdesarollo-source/dashboard/internal/scan"
)

func listScansHandler(svc *scan.Service, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := ParseListQuery(r.URL.Query(), defaultLimit)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
			return
		}

		items, total, err := svc.List(r.Context(), q)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		if items == nil {
			items = []scan.Scan{}
		}
		writeJSON(w, http.StatusOK, newListResponse(items, q.Page, q.Limit, total))
	}
}

func getScanHandler(svc *scan.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		sc, err := svc.Get(r.Context(), id)
		if err != nil {
			handleScanError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sc)
	}
}

func createScanHandler(svc *scan.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.DateTime.IsZero() {
			writeError(w, http.StatusBadRequest, "validation", "date/time required")
			return
		}
		if req.CreatedBy == uuid.Nil {
			writeError(w, http.StatusBadRequest, "validation", "creator required")
			return
		}
		if req.DoctorID == uuid.Nil {
			writeError(w, http.StatusBadRequest, "validation", "doctor required")
			return
		}

		sc, err := svc.Create(r.Context(), scan.NewScan{
			DateTime:   req.DateTime,
			Detail:     req.Detail,
			CreatedBy:  req.CreatedBy,
			AssignedTo: req.AssignedTo,
			DoctorID:   req.DoctorID,
		})
		if err != nil {
			handleScanError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sc)
	}
}

func updateScanHandler(svc *scan.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		var req UpdateScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		sc, err := svc.Update(r.Context(), id, scan.Patch{
			DateTime: req.DateTime,
			Detail:   req.Detail,
			DoctorID: req.DoctorID,
		})
		if err != nil {
			handleScanError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sc)
	}
}

func assignScanHandler(svc *scan.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		var req AssignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.UserID == uuid.Nil {
			writeError(w, http.StatusBadRequest, "validation", "userId required")
			return
		}

		sc, err := svc.Assign(r.Context(), id, req.UserID)
		if err != nil {
			handleScanError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sc)
	}
}

func unassignScanHandler(svc *scan.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		sc, err := svc.Unassign(r.Context(), id)
		if err != nil {
			handleScanError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sc)
	}
}

func confirmScanHandler(svc *scan.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		sc, err := svc.Confirm(r.Context(), id)
		if err != nil {
			handleScanError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sc)
	}
}

func cancelScanHandler(svc *scan.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		sc, err := svc.Cancel(r.Context(), id)
		if err != nil {
			handleScanError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sc)
	}
}

func markScannedHandler(svc *scan.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		actor, err := uuid.Parse(r.Header.Get("X-Acting-User"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_actor", "X-Acting-User must be a valid user id")
			return
		}

		sc, err := svc.MarkScanned(r.Context(), id, actor)
		if err != nil {
			handleScanError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sc)
	}
}

// occupiedSlotsHandler reports the instants already booked on a given date,
// as RFC 3339 tokens. The optional exclude parameter keeps an edited scan
// from blocking its own slot.
func occupiedSlotsHandler(svc *scan.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		var exclude *uuid.UUID
		if v := r.URL.Query().Get("exclude"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_exclude", "exclude must be a valid scan id")
				return
			}
			exclude = &id
		}

		instants, err := svc.Occupied(r.Context(), date, exclude)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		tokens := make([]string, 0, len(instants))
		for _, t := range instants {
			tokens = append(tokens, t.UTC().Format(time.RFC3339))
		}
		writeJSON(w, http.StatusOK, tokens)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_scan_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func handleScanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scan.ErrScanNotFound):
		writeError(w, http.StatusNotFound, "scan_not_found", err.Error())
	case errors.Is(err, scan.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, scan.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, scan.ErrInvalidSlot):
		writeError(w, http.StatusUnprocessableEntity, "invalid_slot", err.Error())
	case errors.Is(err, scan.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, scan.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", err.Error())
	case errors.Is(err, scan.ErrAlreadyAssigned):
		writeError(w, http.StatusConflict, "already_assigned", err.Error())
	case errors.Is(err, scan.ErrAlreadyConfirmed):
		writeError(w, http.StatusConflict, "already_confirmed", err.Error())
	case errors.Is(err, scan.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, "already_cancelled", err.Error())
	case errors.Is(err, scan.ErrAlreadyScanned):
		writeError(w, http.StatusConflict, "already_scanned", err.Error())
	case errors.Is(err, scan.ErrScannedImmutable):
		writeError(w, http.StatusConflict, "scanned_immutable", err.Error())
	case errors.Is(err, scan.ErrCancelledReadOnly):
		writeError(w, http.StatusConflict, "cancelled_read_only", err.Error())
	case errors.Is(err, scan.ErrNotAssignee):
		writeError(w, http.StatusForbidden, "not_assignee", err.Error())
	case errors.Is(err, scan.ErrNotConfirmed):
		writeError(w, http.StatusConflict, "not_confirmed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
