package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salvalabdesarollo-source/dashboard/internal/redisclient"
	"github.com/salvalabdesarollo-source/dashboard/internal/slots"
)

var (
	ErrSlotTaken         = errors.New("slot already has a booked scan")
	ErrSlotBeingBooked   = errors.New("slot is currently being booked, please retry")
	ErrInvalidSlot       = errors.New("requested time is not a bookable slot")
	ErrAlreadyAssigned   = errors.New("scan is already assigned")
	ErrAlreadyConfirmed  = errors.New("scan is already confirmed")
	ErrAlreadyCancelled  = errors.New("scan is already cancelled")
	ErrAlreadyScanned    = errors.New("scan is already marked as scanned")
	ErrNotAssignee       = errors.New("only the assigned user can mark a scan as scanned")
	ErrNotConfirmed      = errors.New("only a confirmed scan can be marked as scanned")
	ErrScannedImmutable  = errors.New("a scanned appointment cannot be cancelled")
	ErrCancelledReadOnly = errors.New("a cancelled scan cannot be edited")
)

// Publisher broadcasts an encoded push frame after a successful write.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// Service holds all server-side booking and lifecycle rules. Slot conflicts
// are decided here, under a per-slot distributed lock, regardless of what
// any client computed from its advisory occupied-slot read.
type Service struct {
	repo   Repository
	locker redisclient.Locker
	bus    Publisher
	loc    *time.Location
	log    *zap.Logger
}

func NewService(repo Repository, locker redisclient.Locker, bus Publisher, loc *time.Location, log *zap.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo:   repo,
		locker: locker,
		bus:    bus,
		loc:    loc,
		log:    log,
	}
}

// Create books a new scan. The requested instant must land on a generated
// slot start for its business day, and the slot must not already hold a
// non-cancelled scan.
func (s *Service) Create(ctx context.Context, n NewScan) (*Scan, error) {
	if _, err := s.repo.GetUserByID(ctx, n.CreatedBy); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load creator: %w", err)
	}
	if _, err := s.repo.GetDoctorByID(ctx, n.DoctorID); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if !slots.ValidStart(n.DateTime.In(s.loc)) {
		return nil, ErrInvalidSlot
	}

	var created *Scan

	err := s.locker.WithSlotLock(ctx, n.DateTime, func(lockCtx context.Context) error {
		// Re-check the slot inside the critical section.
		existing, err := s.repo.ScanAtInstant(lockCtx, n.DateTime, nil)
		if err != nil && !errors.Is(err, ErrScanNotFound) {
			return fmt.Errorf("check slot conflict: %w", err)
		}
		if existing != nil {
			return ErrSlotTaken
		}

		created, err = s.repo.CreateScan(lockCtx, n)
		if err != nil {
			return fmt.Errorf("create scan: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.publish(ctx, EventCreated, created)
	return created, nil
}

// Update applies a partial edit. Cancelled scans are frozen, and a scanned
// scan can no longer be rescheduled or handed to another doctor.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p Patch) (*Scan, error) {
	sc, err := s.repo.GetScanByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load scan: %w", err)
	}

	if sc.Status == StatusCancelled {
		return nil, ErrCancelledReadOnly
	}
	if sc.IsScanned && (p.DateTime != nil || p.DoctorID != nil) {
		return nil, ErrAlreadyScanned
	}
	if p.Status != nil {
		// Status changes go through Confirm/Cancel so their guards apply.
		return nil, fmt.Errorf("status cannot be changed through edit")
	}

	if p.DoctorID != nil {
		if _, err := s.repo.GetDoctorByID(ctx, *p.DoctorID); err != nil {
			if errors.Is(err, ErrDoctorNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("load doctor: %w", err)
		}
	}

	if p.DateTime != nil && !p.DateTime.Equal(sc.DateTime) {
		if !slots.ValidStart(p.DateTime.In(s.loc)) {
			return nil, ErrInvalidSlot
		}

		var updated *Scan
		err = s.locker.WithSlotLock(ctx, *p.DateTime, func(lockCtx context.Context) error {
			existing, err := s.repo.ScanAtInstant(lockCtx, *p.DateTime, &id)
			if err != nil && !errors.Is(err, ErrScanNotFound) {
				return fmt.Errorf("check slot conflict: %w", err)
			}
			if existing != nil {
				return ErrSlotTaken
			}
			updated, err = s.repo.UpdateScan(lockCtx, id, p)
			return err
		})
		if err != nil {
			if errors.Is(err, redisclient.ErrLockNotAcquired) {
				return nil, ErrSlotBeingBooked
			}
			return nil, err
		}
		s.publish(ctx, EventUpdated, updated)
		return updated, nil
	}

	updated, err := s.repo.UpdateScan(ctx, id, p)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventUpdated, updated)
	return updated, nil
}

// Assign claims the scan for the given user. Only unassigned scans can be
// claimed.
func (s *Service) Assign(ctx context.Context, id, userID uuid.UUID) (*Scan, error) {
	sc, err := s.repo.GetScanByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load scan: %w", err)
	}
	if sc.AssignedTo != nil {
		return nil, ErrAlreadyAssigned
	}
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	updated, err := s.repo.SetAssignee(ctx, id, &userID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventAssigned, updated)
	return updated, nil
}

// Unassign clears the assignee, whoever currently holds the scan. Scanned
// scans keep their assignee permanently.
func (s *Service) Unassign(ctx context.Context, id uuid.UUID) (*Scan, error) {
	sc, err := s.repo.GetScanByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load scan: %w", err)
	}
	if sc.IsScanned {
		return nil, ErrAlreadyScanned
	}

	updated, err := s.repo.SetAssignee(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventUnassigned, updated)
	return updated, nil
}

func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Scan, error) {
	sc, err := s.repo.GetScanByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load scan: %w", err)
	}
	if sc.Status == StatusConfirmed {
		return nil, ErrAlreadyConfirmed
	}

	status := StatusConfirmed
	updated, err := s.repo.UpdateScan(ctx, id, Patch{Status: &status})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventUpdated, updated)
	return updated, nil
}

// Cancel rejects the scan. A scanned scan can never be cancelled, whatever
// its status.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Scan, error) {
	sc, err := s.repo.GetScanByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load scan: %w", err)
	}
	if sc.IsScanned {
		return nil, ErrScannedImmutable
	}
	if sc.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	status := StatusCancelled
	updated, err := s.repo.UpdateScan(ctx, id, Patch{Status: &status})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventUpdated, updated)
	return updated, nil
}

// MarkScanned flips the one-way scanned flag. Only the current assignee may
// do so, and only on a confirmed, not yet scanned scan.
func (s *Service) MarkScanned(ctx context.Context, id, actorID uuid.UUID) (*Scan, error) {
	sc, err := s.repo.GetScanByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load scan: %w", err)
	}
	if sc.IsScanned {
		return nil, ErrAlreadyScanned
	}
	if sc.AssignedTo == nil || sc.AssignedTo.ID != actorID {
		return nil, ErrNotAssignee
	}
	if sc.Status != StatusConfirmed {
		return nil, ErrNotConfirmed
	}

	updated, err := s.repo.SetScanned(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventScanned, updated)
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Scan, error) {
	return s.repo.GetScanByID(ctx, id)
}

func (s *Service) List(ctx context.Context, q ListQuery) ([]Scan, int, error) {
	if q.Limit <= 0 {
		q.Limit = 25
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return s.repo.ListScans(ctx, q)
}

// Occupied returns the instants already booked on the business day that
// contains the given date, optionally excluding one scan.
func (s *Service) Occupied(ctx context.Context, date time.Time, exclude *uuid.UUID) ([]time.Time, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)
	return s.repo.OccupiedInstants(ctx, day, day.AddDate(0, 0, 1), exclude)
}

func (s *Service) ListUsers(ctx context.Context, page, limit int) ([]User, int, error) {
	return s.repo.ListUsers(ctx, page, limit)
}

func (s *Service) ListDoctors(ctx context.Context, page, limit int) ([]Doctor, int, error) {
	return s.repo.ListDoctors(ctx, page, limit)
}

func (s *Service) ListClinics(ctx context.Context, page, limit int) ([]Clinic, int, error) {
	return s.repo.ListClinics(ctx, page, limit)
}

// publish never fails the write: the DB is authoritative and a dropped
// event only delays other clients until their next refresh.
func (s *Service) publish(ctx context.Context, event string, sc *Scan) {
	if s.bus == nil || sc == nil {
		return
	}

	frame, err := NewFrame(event, sc)
	if err != nil {
		s.log.Warn("build push frame failed",
			zap.String("event", event),
			zap.String("scan_id", sc.ID.String()),
			zap.Error(err))
		return
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		s.log.Warn("encode push frame failed",
			zap.String("event", event),
			zap.String("scan_id", sc.ID.String()),
			zap.Error(err))
		return
	}

	if err := s.bus.Publish(ctx, payload); err != nil {
		s.log.Warn("publish push event failed",
			zap.String("event", event),
			zap.String("scan_id", sc.ID.String()),
			zap.Error(err))
	}
}
