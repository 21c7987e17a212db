package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/salvalabdesarollo-source/dashboard/internal/client"
	"github.com/salvalabdesarollo-source/dashboard/internal/scan"
	"github.com/salvalabdesarollo-source/dashboard/internal/slots"
)

// BookingState is where the creation/edit form currently is.
type BookingState int

const (
	StateIdle BookingState = iota
	StateDateChosen
	StateSlotPickerOpen
	StateSlotChosen
	StateSubmitting
	StateSuccess
	StateFailed
)

var (
	ErrDateTimeRequired = errors.New("date/time required")
	ErrCreatorRequired  = errors.New("creator required")
	ErrDoctorRequired   = errors.New("doctor required")

	ErrSlotNotOffered    = errors.New("slot is not part of the chosen day")
	ErrSlotOccupied      = errors.New("slot is already booked")
	ErrNotEditable       = errors.New("scan can no longer be edited")
	ErrWorkflowClosed    = errors.New("booking form was closed")
	ErrNoDateChosen      = errors.New("choose a date first")
	ErrAlreadySubmitting = errors.New("submission already in flight")
)

// BookingAPI is the slice of the collaborator the workflow writes through.
type BookingAPI interface {
	CreateScan(ctx context.Context, p client.CreateScanParams) (*scan.Scan, error)
	UpdateScan(ctx context.Context, id uuid.UUID, p client.UpdateScanParams) (*scan.Scan, error)
}

// Booking is one instance of the creation/edit form. It walks
// Idle -> DateChosen -> SlotPickerOpen -> SlotChosen -> Submitting and
// never mutates any store itself: on success the owning view refreshes
// from the collaborator so server-assigned fields are authoritative.
//
// The acting identity is injected once at construction and never re-read
// mid-workflow. Booking is not safe for concurrent use; it belongs to one
// view's event loop.
type Booking struct {
	api      BookingAPI
	resolver *Resolver
	viewer   scan.User
	loc      *time.Location

	state    BookingState
	date     time.Time
	slotSet  []slots.Slot
	occupied OccupiedSet
	occErr   error

	slot     string
	doctorID *uuid.UUID
	detail   *string
	editing  *uuid.UUID

	closed bool
	err    error
}

func NewBooking(api BookingAPI, resolver *Resolver, viewer scan.User, loc *time.Location) *Booking {
	if loc == nil {
		loc = time.Local
	}
	return &Booking{
		api:      api,
		resolver: resolver,
		viewer:   viewer,
		loc:      loc,
		state:    StateIdle,
		occupied: OccupiedSet{},
	}
}

// StartEdit pre-populates the form from an existing scan. Scanned and
// cancelled scans refuse the edit path outright.
func (b *Booking) StartEdit(ctx context.Context, sc *scan.Scan) error {
	if !sc.Editable() {
		return ErrNotEditable
	}

	id := sc.ID
	b.editing = &id
	b.detail = sc.Detail
	docID := sc.Doctor.ID
	b.doctorID = &docID

	local := sc.DateTime.In(b.loc)
	if err := b.ChooseDate(ctx, local); err != nil {
		return err
	}
	return b.ChooseSlot(local.Format("15:04"))
}

// ChooseDate picks the booking day, regenerates the slot calendar and
// refreshes occupancy. A previously chosen slot survives only while it is
// still offered and still free.
func (b *Booking) ChooseDate(ctx context.Context, date time.Time) error {
	if b.closed {
		return ErrWorkflowClosed
	}

	b.date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, b.loc)
	b.slotSet = slots.Generate(b.date)
	b.state = StateDateChosen

	b.occupied, b.occErr = b.resolver.Resolve(ctx, b.date, b.editing)
	b.invalidateSlot()
	return b.occErr
}

// RefreshOccupancy re-reads the occupied set for the chosen date, used
// when the operator wants fresher availability without changing the date.
func (b *Booking) RefreshOccupancy(ctx context.Context) error {
	if b.date.IsZero() {
		return ErrNoDateChosen
	}
	b.occupied, b.occErr = b.resolver.Resolve(ctx, b.date, b.editing)
	b.invalidateSlot()
	return b.occErr
}

// OpenSlotPicker exposes the pickable slot list for the chosen date.
func (b *Booking) OpenSlotPicker() error {
	if b.date.IsZero() {
		return ErrNoDateChosen
	}
	b.state = StateSlotPickerOpen
	return nil
}

// Selectable reports whether a slot value can be picked right now: it must
// be offered by the calendar and absent from the occupied set.
func (b *Booking) Selectable(value string) bool {
	return slots.Contains(b.slotSet, value) && !b.occupied.Has(value)
}

// ChooseSlot picks a slot start time.
func (b *Booking) ChooseSlot(value string) error {
	if b.closed {
		return ErrWorkflowClosed
	}
	if !slots.Contains(b.slotSet, value) {
		return ErrSlotNotOffered
	}
	if b.occupied.Has(value) {
		return ErrSlotOccupied
	}
	b.slot = value
	b.state = StateSlotChosen
	return nil
}

func (b *Booking) SetDoctor(id uuid.UUID) {
	b.doctorID = &id
}

func (b *Booking) SetDetail(detail string) {
	if detail == "" {
		b.detail = nil
		return
	}
	b.detail = &detail
}

// Submit validates locally, then writes through the collaborator. A
// validation failure never reaches the network. On success the form
// resets; the caller refreshes its store from the server. On failure the
// form keeps its state so the operator can correct and retry.
func (b *Booking) Submit(ctx context.Context) (*scan.Scan, error) {
	if b.closed {
		return nil, ErrWorkflowClosed
	}
	if b.state == StateSubmitting {
		return nil, ErrAlreadySubmitting
	}
	if b.date.IsZero() || b.slot == "" {
		return nil, ErrDateTimeRequired
	}
	if b.viewer.ID == uuid.Nil {
		return nil, ErrCreatorRequired
	}
	if b.doctorID == nil {
		return nil, ErrDoctorRequired
	}

	b.state = StateSubmitting
	instant := b.instant()

	var sc *scan.Scan
	var err error
	if b.editing != nil {
		sc, err = b.api.UpdateScan(ctx, *b.editing, client.UpdateScanParams{
			DateTime: &instant,
			Detail:   b.detail,
			DoctorID: b.doctorID,
		})
	} else {
		sc, err = b.api.CreateScan(ctx, client.CreateScanParams{
			DateTime:  instant,
			Detail:    b.detail,
			CreatedBy: b.viewer.ID,
			DoctorID:  *b.doctorID,
		})
	}

	if b.closed {
		// The form went away while the request was in flight; the result
		// is dropped and no state is touched.
		return nil, ErrWorkflowClosed
	}
	if err != nil {
		b.state = StateFailed
		b.err = err
		return nil, err
	}

	b.reset()
	b.state = StateSuccess
	return sc, nil
}

// Close discards the form. In-flight requests are left to complete and
// their results ignored.
func (b *Booking) Close() {
	b.closed = true
}

func (b *Booking) State() BookingState { return b.state }
func (b *Booking) Date() time.Time     { return b.date }
func (b *Booking) Slot() string        { return b.slot }
func (b *Booking) Slots() []slots.Slot { return b.slotSet }
func (b *Booking) Occupied() OccupiedSet {
	return b.occupied
}

// OccupancyErr is the last resolver failure, surfaced so the operator
// never mistakes "fetch failed" for "day fully free".
func (b *Booking) OccupancyErr() error { return b.occErr }

// Err is the last submission failure.
func (b *Booking) Err() error { return b.err }

func (b *Booking) instant() time.Time {
	t, _ := time.Parse("15:04", b.slot)
	return time.Date(b.date.Year(), b.date.Month(), b.date.Day(),
		t.Hour(), t.Minute(), 0, 0, b.loc).UTC()
}

// invalidateSlot drops the chosen slot when it is no longer offered or has
// become occupied.
func (b *Booking) invalidateSlot() {
	if b.slot == "" {
		return
	}
	if !slots.Contains(b.slotSet, b.slot) || b.occupied.Has(b.slot) {
		b.slot = ""
		if b.state == StateSlotChosen {
			b.state = StateDateChosen
		}
	}
}

func (b *Booking) reset() {
	b.date = time.Time{}
	b.slotSet = nil
	b.occupied = OccupiedSet{}
	b.occErr = nil
	b.slot = ""
	b.doctorID = nil
	b.detail = nil
	b.editing = nil
	b.err = nil
}
