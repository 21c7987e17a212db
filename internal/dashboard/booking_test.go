package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salvalabdesarollo-source/dashboard/internal/client"
	"github.com/salvalabdesarollo-source/dashboard/internal/scan"
)

type fakeBookingAPI struct {
	created *client.CreateScanParams
	updated *client.UpdateScanParams
	editID  uuid.UUID
	err     error
}

func (f *fakeBookingAPI) CreateScan(_ context.Context, p client.CreateScanParams) (*scan.Scan, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &p
	return &scan.Scan{ID: uuid.New(), DateTime: p.DateTime}, nil
}

func (f *fakeBookingAPI) UpdateScan(_ context.Context, id uuid.UUID, p client.UpdateScanParams) (*scan.Scan, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.editID = id
	f.updated = &p
	return &scan.Scan{ID: id}, nil
}

// wednesday is an ordinary weekday with the full 08:00 to 19:30 slot range.
var wednesday = time.Date(2026, time.September, 2, 0, 0, 0, 0, time.UTC)

func newTestBooking(api *fakeBookingAPI, lister *fakeOccupiedLister) (*Booking, scan.User) {
	viewer := scan.User{ID: uuid.New(), Username: "admin", Role: scan.RoleAdministrator}
	resolver := NewResolver(lister, time.UTC)
	return NewBooking(api, resolver, viewer, time.UTC), viewer
}

func TestBookingHappyPath(t *testing.T) {
	api := &fakeBookingAPI{}
	b, viewer := newTestBooking(api, &fakeOccupiedLister{})

	require.NoError(t, b.ChooseDate(context.Background(), wednesday))
	assert.Equal(t, StateDateChosen, b.State())
	assert.Len(t, b.Slots(), 24)

	require.NoError(t, b.OpenSlotPicker())
	require.NoError(t, b.ChooseSlot("09:30"))
	assert.Equal(t, StateSlotChosen, b.State())

	doctorID := uuid.New()
	b.SetDoctor(doctorID)
	b.SetDetail("knee MRI")

	sc, err := b.Submit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sc)
	assert.Equal(t, StateSuccess, b.State())

	require.NotNil(t, api.created)
	assert.Equal(t, time.Date(2026, time.September, 2, 9, 30, 0, 0, time.UTC), api.created.DateTime)
	assert.Equal(t, viewer.ID, api.created.CreatedBy)
	assert.Equal(t, doctorID, api.created.DoctorID)
	require.NotNil(t, api.created.Detail)
	assert.Equal(t, "knee MRI", *api.created.Detail)
}

func TestBookingOccupiedSlotNotSelectable(t *testing.T) {
	api := &fakeBookingAPI{}
	b, _ := newTestBooking(api, &fakeOccupiedLister{tokens: []string{"2026-09-02T09:00:00Z"}})

	require.NoError(t, b.ChooseDate(context.Background(), wednesday))

	assert.False(t, b.Selectable("09:00"))
	assert.True(t, b.Selectable("09:30"))

	assert.ErrorIs(t, b.ChooseSlot("09:00"), ErrSlotOccupied)
	require.NoError(t, b.ChooseSlot("09:30"))

	b.SetDoctor(uuid.New())
	_, err := b.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.September, 2, 9, 30, 0, 0, time.UTC), api.created.DateTime)
}

func TestBookingRejectsSlotOutsideCalendar(t *testing.T) {
	b, _ := newTestBooking(&fakeBookingAPI{}, &fakeOccupiedLister{})

	require.NoError(t, b.ChooseDate(context.Background(), wednesday))
	assert.ErrorIs(t, b.ChooseSlot("09:45"), ErrSlotNotOffered)
	assert.ErrorIs(t, b.ChooseSlot("20:00"), ErrSlotNotOffered)

	// Sunday offers no slots at all.
	sunday := time.Date(2026, time.September, 6, 0, 0, 0, 0, time.UTC)
	require.NoError(t, b.ChooseDate(context.Background(), sunday))
	assert.Empty(t, b.Slots())
	assert.ErrorIs(t, b.ChooseSlot("09:30"), ErrSlotNotOffered)
}

func TestBookingValidationBlocksSubmit(t *testing.T) {
	api := &fakeBookingAPI{}
	b, _ := newTestBooking(api, &fakeOccupiedLister{})

	_, err := b.Submit(context.Background())
	assert.ErrorIs(t, err, ErrDateTimeRequired)

	require.NoError(t, b.ChooseDate(context.Background(), wednesday))
	_, err = b.Submit(context.Background())
	assert.ErrorIs(t, err, ErrDateTimeRequired)

	require.NoError(t, b.ChooseSlot("09:30"))
	_, err = b.Submit(context.Background())
	assert.ErrorIs(t, err, ErrDoctorRequired)

	// Nothing reached the collaborator.
	assert.Nil(t, api.created)
}

func TestBookingSubmitWithoutViewer(t *testing.T) {
	api := &fakeBookingAPI{}
	resolver := NewResolver(&fakeOccupiedLister{}, time.UTC)
	b := NewBooking(api, resolver, scan.User{}, time.UTC)

	require.NoError(t, b.ChooseDate(context.Background(), wednesday))
	require.NoError(t, b.ChooseSlot("09:30"))
	b.SetDoctor(uuid.New())

	_, err := b.Submit(context.Background())
	assert.ErrorIs(t, err, ErrCreatorRequired)
	assert.Nil(t, api.created)
}

func TestBookingFailureKeepsStateForRetry(t *testing.T) {
	boom := errors.New("slot is already booked")
	api := &fakeBookingAPI{err: boom}
	b, _ := newTestBooking(api, &fakeOccupiedLister{})

	require.NoError(t, b.ChooseDate(context.Background(), wednesday))
	require.NoError(t, b.ChooseSlot("09:30"))
	b.SetDoctor(uuid.New())

	_, err := b.Submit(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, b.State())
	assert.ErrorIs(t, b.Err(), boom)

	// The chosen slot and date survive so the operator can adjust and retry.
	assert.Equal(t, "09:30", b.Slot())
	assert.False(t, b.Date().IsZero())

	api.err = nil
	require.NoError(t, b.ChooseSlot("10:00"))
	_, err = b.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, b.State())
}

func TestBookingOccupancyFetchFailureSurfaces(t *testing.T) {
	boom := errors.New("collaborator unreachable")
	b, _ := newTestBooking(&fakeBookingAPI{}, &fakeOccupiedLister{err: boom})

	err := b.ChooseDate(context.Background(), wednesday)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, b.OccupancyErr(), boom)

	// The day renders as free but the error is never silently dropped.
	assert.Empty(t, b.Occupied())
	assert.True(t, b.Selectable("09:30"))
}

func TestBookingDateChangeInvalidatesStaleSlot(t *testing.T) {
	lister := &fakeOccupiedLister{}
	b, _ := newTestBooking(&fakeBookingAPI{}, lister)

	require.NoError(t, b.ChooseDate(context.Background(), wednesday))
	require.NoError(t, b.ChooseSlot("15:00"))

	// Saturday ends at 13:30, so 15:00 is no longer on offer.
	saturday := time.Date(2026, time.September, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, b.ChooseDate(context.Background(), saturday))
	assert.Empty(t, b.Slot())
	assert.Equal(t, StateDateChosen, b.State())
}

func TestBookingRefreshOccupancyInvalidatesTakenSlot(t *testing.T) {
	lister := &fakeOccupiedLister{}
	b, _ := newTestBooking(&fakeBookingAPI{}, lister)

	require.NoError(t, b.ChooseDate(context.Background(), wednesday))
	require.NoError(t, b.ChooseSlot("09:30"))

	lister.tokens = []string{"2026-09-02T09:30:00Z"}
	require.NoError(t, b.RefreshOccupancy(context.Background()))
	assert.Empty(t, b.Slot())
}

func TestBookingEditPath(t *testing.T) {
	api := &fakeBookingAPI{}
	lister := &fakeOccupiedLister{}
	b, _ := newTestBooking(api, lister)

	detail := "follow-up"
	existing := scan.Scan{
		ID:       uuid.New(),
		DateTime: time.Date(2026, time.September, 2, 9, 30, 0, 0, time.UTC),
		Detail:   &detail,
		Doctor:   scan.Doctor{ID: uuid.New()},
		Status:   scan.StatusConfirmed,
	}

	require.NoError(t, b.StartEdit(context.Background(), &existing))
	assert.Equal(t, "09:30", b.Slot())

	// The edited scan must not block its own slot.
	require.NotNil(t, lister.exclude)
	assert.Equal(t, existing.ID, *lister.exclude)

	require.NoError(t, b.ChooseSlot("10:00"))
	_, err := b.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, existing.ID, api.editID)
	require.NotNil(t, api.updated)
	require.NotNil(t, api.updated.DateTime)
	assert.Equal(t, time.Date(2026, time.September, 2, 10, 0, 0, 0, time.UTC), *api.updated.DateTime)
	require.NotNil(t, api.updated.Detail)
	assert.Equal(t, "follow-up", *api.updated.Detail)
}

func TestBookingEditRefusesFrozenScans(t *testing.T) {
	b, _ := newTestBooking(&fakeBookingAPI{}, &fakeOccupiedLister{})

	cancelled := scan.Scan{ID: uuid.New(), Status: scan.StatusCancelled}
	assert.ErrorIs(t, b.StartEdit(context.Background(), &cancelled), ErrNotEditable)

	scanned := scan.Scan{ID: uuid.New(), Status: scan.StatusConfirmed, IsScanned: true}
	assert.ErrorIs(t, b.StartEdit(context.Background(), &scanned), ErrNotEditable)
}

func TestBookingClosedFormDropsEverything(t *testing.T) {
	api := &fakeBookingAPI{}
	b, _ := newTestBooking(api, &fakeOccupiedLister{})

	require.NoError(t, b.ChooseDate(context.Background(), wednesday))
	require.NoError(t, b.ChooseSlot("09:30"))
	b.SetDoctor(uuid.New())

	b.Close()
	_, err := b.Submit(context.Background())
	assert.ErrorIs(t, err, ErrWorkflowClosed)
	assert.ErrorIs(t, b.ChooseDate(context.Background(), wednesday), ErrWorkflowClosed)
	assert.ErrorIs(t, b.ChooseSlot("10:00"), ErrWorkflowClosed)
}

func TestBookingOpenSlotPickerNeedsDate(t *testing.T) {
	b, _ := newTestBooking(&fakeBookingAPI{}, &fakeOccupiedLister{})
	assert.ErrorIs(t, b.OpenSlotPicker(), ErrNoDateChosen)
	assert.ErrorIs(t, b.RefreshOccupancy(context.Background()), ErrNoDateChosen)
}
