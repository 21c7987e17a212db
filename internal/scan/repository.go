package scan

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDoctorNotFound = errors.New("doctor not found")
	ErrClinicNotFound = errors.New("clinic not found")
	ErrScanNotFound   = errors.New("scan not found")
)

// ListQuery is the normalized form of a paginated, filtered scan listing.
// Nil pointer fields mean "no constraint".
type ListQuery struct {
	AssignedTo     *uuid.UUID
	CreatedBy      *uuid.UUID
	Doctor         *uuid.UUID
	Clinic         *uuid.UUID
	From           *time.Time // dateTime >=
	To             *time.Time // dateTime <=
	IsScanned      *bool
	Status         *Status
	DetailContains *string

	Page  int // 1-based
	Limit int
}

func (q ListQuery) Offset() int {
	page := q.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * q.Limit
}

// NewScan carries the fields the server accepts at creation time.
type NewScan struct {
	DateTime   time.Time
	Detail     *string
	CreatedBy  uuid.UUID
	AssignedTo *uuid.UUID
	DoctorID   uuid.UUID
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	DateTime *time.Time
	Detail   *string
	DoctorID *uuid.UUID
	Status   *Status
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	ListUsers(ctx context.Context, page, limit int) ([]User, int, error)
	ListDoctors(ctx context.Context, page, limit int) ([]Doctor, int, error)
	ListClinics(ctx context.Context, page, limit int) ([]Clinic, int, error)

	GetScanByID(ctx context.Context, id uuid.UUID) (*Scan, error)
	ListScans(ctx context.Context, q ListQuery) ([]Scan, int, error)

	// OccupiedInstants returns the instants of every non-cancelled scan in
	// [from, to), optionally excluding one scan (so an edit does not block
	// its own slot).
	OccupiedInstants(ctx context.Context, from, to time.Time, exclude *uuid.UUID) ([]time.Time, error)

	// ScanAtInstant is the conflict check: the non-cancelled scan already
	// booked exactly at the given instant, if any.
	ScanAtInstant(ctx context.Context, at time.Time, exclude *uuid.UUID) (*Scan, error)

	CreateScan(ctx context.Context, n NewScan) (*Scan, error)
	UpdateScan(ctx context.Context, id uuid.UUID, p Patch) (*Scan, error)
	SetAssignee(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*Scan, error)
	SetScanned(ctx context.Context, id uuid.UUID) (*Scan, error)
}
