package scan

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusUnconfirmed Status = "unconfirmed"
	StatusConfirmed   Status = "confirmed"
	StatusCancelled   Status = "cancelled"
)

type Role string

const (
	RoleAdministrator Role = "Administrator"
	RoleScanner       Role = "Scanner"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Clinic struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Doctor struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Clinic    *Clinic   `json:"clinic,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Scan is one scheduled scan appointment. DateTime is the UTC instant the
// scan is booked at and is the single source of truth for its scheduling
// position; it always lands on a half-hour slot start when booked through
// the dashboard. AssignedTo is nil while nobody has claimed the scan.
type Scan struct {
	ID         uuid.UUID `json:"id"`
	DateTime   time.Time `json:"dateTime"`
	Detail     *string   `json:"detail,omitempty"`
	CreatedBy  User      `json:"createdBy"`
	AssignedTo *User     `json:"assignedTo"`
	Doctor     Doctor    `json:"requestedByDoctor"`
	IsScanned  bool      `json:"isScanned"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Editable reports whether the scan may still go through the edit path.
// Cancelled scans are frozen and scanned ones can no longer be rescheduled.
func (s *Scan) Editable() bool {
	return s.Status != StatusCancelled && !s.IsScanned
}

// ClinicID returns the id of the referring doctor's clinic, if any.
func (s *Scan) ClinicID() *uuid.UUID {
	if s.Doctor.Clinic == nil {
		return nil
	}
	id := s.Doctor.Clinic.ID
	return &id
}
