// Package client is the dashboard's side of the collaborator API: resource
// reads with page/limit/filter conventions, single-resource writes, the
// occupied-slots query and the push-channel stream.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salvalabdesarollo-source/dashboard/internal/scan"
)

// Filter operators understood by the collaborator's list endpoints.
const (
	OpEq       = "$eq"
	OpGte      = "$gte"
	OpLte      = "$lte"
	OpContains = "$contL"
)

// Filter is one field||operator||value triple.
type Filter struct {
	Field string
	Op    string
	Value string
}

func (f Filter) encode() string {
	return f.Field + "||" + f.Op + "||" + f.Value
}

type Client struct {
	base string
	http *http.Client

	// Actor is sent as X-Acting-User on every request; the collaborator
	// uses it for actor-gated actions like mark-scanned.
	Actor uuid.UUID
}

func New(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// APIError carries the server's human-readable message for an unsuccessful
// response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// CreateScanParams are the fields sent when booking a scan.
type CreateScanParams struct {
	DateTime   time.Time  `json:"dateTime"`
	Detail     *string    `json:"detail,omitempty"`
	CreatedBy  uuid.UUID  `json:"createdBy"`
	AssignedTo *uuid.UUID `json:"assignedTo,omitempty"`
	DoctorID   uuid.UUID  `json:"requestedByDoctor"`
}

// UpdateScanParams is a partial edit; nil fields are untouched.
type UpdateScanParams struct {
	DateTime *time.Time `json:"dateTime,omitempty"`
	Detail   *string    `json:"detail,omitempty"`
	DoctorID *uuid.UUID `json:"requestedByDoctor,omitempty"`
}

func (c *Client) ListScans(ctx context.Context, page, limit int, filters []Filter) (*Page[scan.Scan], error) {
	q := listQuery(page, limit, filters)
	var p Page[scan.Scan]
	if err := c.do(ctx, http.MethodGet, "/scans?"+q.Encode(), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetScan(ctx context.Context, id uuid.UUID) (*scan.Scan, error) {
	var sc scan.Scan
	if err := c.do(ctx, http.MethodGet, "/scans/"+id.String(), nil, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (c *Client) CreateScan(ctx context.Context, p CreateScanParams) (*scan.Scan, error) {
	var sc scan.Scan
	if err := c.do(ctx, http.MethodPost, "/scans", p, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (c *Client) UpdateScan(ctx context.Context, id uuid.UUID, p UpdateScanParams) (*scan.Scan, error) {
	var sc scan.Scan
	if err := c.do(ctx, http.MethodPatch, "/scans/"+id.String(), p, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (c *Client) AssignScan(ctx context.Context, id, userID uuid.UUID) (*scan.Scan, error) {
	body := map[string]uuid.UUID{"userId": userID}
	var sc scan.Scan
	if err := c.do(ctx, http.MethodPost, "/scans/"+id.String()+"/assign", body, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (c *Client) UnassignScan(ctx context.Context, id uuid.UUID) (*scan.Scan, error) {
	var sc scan.Scan
	if err := c.do(ctx, http.MethodPost, "/scans/"+id.String()+"/unassign", nil, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (c *Client) ConfirmScan(ctx context.Context, id uuid.UUID) (*scan.Scan, error) {
	var sc scan.Scan
	if err := c.do(ctx, http.MethodPost, "/scans/"+id.String()+"/confirm", nil, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (c *Client) CancelScan(ctx context.Context, id uuid.UUID) (*scan.Scan, error) {
	var sc scan.Scan
	if err := c.do(ctx, http.MethodPost, "/scans/"+id.String()+"/cancel", nil, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (c *Client) MarkScanned(ctx context.Context, id uuid.UUID) (*scan.Scan, error) {
	var sc scan.Scan
	if err := c.do(ctx, http.MethodPost, "/scans/"+id.String()+"/scanned", nil, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// OccupiedSlots returns the absolute time tokens already booked on the
// given date, optionally excluding one scan.
func (c *Client) OccupiedSlots(ctx context.Context, date time.Time, exclude *uuid.UUID) ([]string, error) {
	q := url.Values{}
	q.Set("date", date.Format("2006-01-02"))
	if exclude != nil {
		q.Set("exclude", exclude.String())
	}
	var tokens []string
	if err := c.do(ctx, http.MethodGet, "/scans/occupied?"+q.Encode(), nil, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (c *Client) ListUsers(ctx context.Context, page, limit int) (*Page[scan.User], error) {
	var p Page[scan.User]
	if err := c.do(ctx, http.MethodGet, "/users?"+listQuery(page, limit, nil).Encode(), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListDoctors(ctx context.Context, page, limit int) (*Page[scan.Doctor], error) {
	var p Page[scan.Doctor]
	if err := c.do(ctx, http.MethodGet, "/doctors?"+listQuery(page, limit, nil).Encode(), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListClinics(ctx context.Context, page, limit int) (*Page[scan.Clinic], error) {
	var p Page[scan.Clinic]
	if err := c.do(ctx, http.MethodGet, "/clinics?"+listQuery(page, limit, nil).Encode(), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func listQuery(page, limit int, filters []Filter) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	for _, f := range filters {
		q.Add("filter", f.encode())
	}
	return q
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Actor != uuid.Nil {
		req.Header.Set("X-Acting-User", c.Actor.String())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}

// decodeAPIError pulls the human-readable message out of whichever error
// shape the server used.
func decodeAPIError(status int, data []byte) error {
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
		Message string `json:"message"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Code = body.Error
		switch {
		case body.Details != "":
			apiErr.Message = body.Details
		case body.Message != "":
			apiErr.Message = body.Message
		case body.Error != "":
			apiErr.Message = body.Error
		}
	}
	return apiErr
}
