package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type CreateScanRequest struct {
	DateTime   time.Time  `json:"dateTime"`
	Detail     *string    `json:"detail"`
	CreatedBy  uuid.UUID  `json:"createdBy"`
	AssignedTo *uuid.UUID `json:"assignedTo"`
	DoctorID   uuid.UUID  `json:"requestedByDoctor"`
}

type UpdateScanRequest struct {
	DateTime *time.Time `json:"dateTime"`
	Detail   *string    `json:"detail"`
	DoctorID *uuid.UUID `json:"requestedByDoctor"`
}

type AssignRequest struct {
	UserID uuid.UUID `json:"userId"`
}

// ListResponse is the pagination envelope every list endpoint returns.
type ListResponse struct {
	Data      any `json:"data"`
	Page      int `json:"page"`
	Limit     int `json:"limit"`
	Total     int `json:"total"`
	PageCount int `json:"pageCount"`
}

func newListResponse(data any, page, limit, total int) ListResponse {
	if page < 1 {
		page = 1
	}
	pageCount := 0
	if limit > 0 {
		pageCount = (total + limit - 1) / limit
	}
	return ListResponse{Data: data, Page: page, Limit: limit, Total: total, PageCount: pageCount}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
