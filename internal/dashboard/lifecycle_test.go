package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salvalabdesarollo-source/dashboard/internal/scan"
)

type fakeLifecycleAPI struct {
	mu      sync.Mutex
	calls   []string
	release chan struct{}
}

func (f *fakeLifecycleAPI) record(name string, id uuid.UUID) (*scan.Scan, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	return &scan.Scan{ID: id}, nil
}

func (f *fakeLifecycleAPI) AssignScan(_ context.Context, id, _ uuid.UUID) (*scan.Scan, error) {
	return f.record("assign", id)
}
func (f *fakeLifecycleAPI) UnassignScan(_ context.Context, id uuid.UUID) (*scan.Scan, error) {
	return f.record("unassign", id)
}
func (f *fakeLifecycleAPI) ConfirmScan(_ context.Context, id uuid.UUID) (*scan.Scan, error) {
	return f.record("confirm", id)
}
func (f *fakeLifecycleAPI) CancelScan(_ context.Context, id uuid.UUID) (*scan.Scan, error) {
	return f.record("cancel", id)
}
func (f *fakeLifecycleAPI) MarkScanned(_ context.Context, id uuid.UUID) (*scan.Scan, error) {
	return f.record("scanned", id)
}

func (f *fakeLifecycleAPI) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestControllerAssignToSelf(t *testing.T) {
	api := &fakeLifecycleAPI{}
	me := scan.User{ID: uuid.New(), Role: scan.RoleScanner}
	c := NewController(api, me)

	sc := scan.Scan{ID: uuid.New(), Status: scan.StatusUnconfirmed}
	got, err := c.AssignToSelf(context.Background(), &sc)
	require.NoError(t, err)
	assert.Equal(t, sc.ID, got.ID)
	assert.Equal(t, []string{"assign"}, api.called())
}

func TestControllerAssignGuards(t *testing.T) {
	api := &fakeLifecycleAPI{}
	me := scan.User{ID: uuid.New(), Role: scan.RoleScanner}

	other := scan.User{ID: uuid.New()}
	taken := scan.Scan{ID: uuid.New(), AssignedTo: &other}
	c := NewController(api, me)
	_, err := c.AssignToSelf(context.Background(), &taken)
	assert.ErrorIs(t, err, ErrScanAlreadyAssigned)

	anon := NewController(api, scan.User{})
	free := scan.Scan{ID: uuid.New()}
	_, err = anon.AssignToSelf(context.Background(), &free)
	assert.ErrorIs(t, err, ErrActorRequired)

	assert.Empty(t, api.called())
}

func TestControllerCancelScannedAlwaysRejected(t *testing.T) {
	api := &fakeLifecycleAPI{}
	c := NewController(api, scan.User{ID: uuid.New()})

	for _, status := range []scan.Status{scan.StatusUnconfirmed, scan.StatusConfirmed} {
		sc := scan.Scan{ID: uuid.New(), Status: status, IsScanned: true}
		_, err := c.Cancel(context.Background(), &sc)
		assert.ErrorIs(t, err, ErrCancelScanned)
		assert.EqualError(t, err, "a scanned appointment cannot be cancelled")
	}
	assert.Empty(t, api.called())
}

func TestControllerCancelGuards(t *testing.T) {
	api := &fakeLifecycleAPI{}
	c := NewController(api, scan.User{ID: uuid.New()})

	gone := scan.Scan{ID: uuid.New(), Status: scan.StatusCancelled}
	_, err := c.Cancel(context.Background(), &gone)
	assert.ErrorIs(t, err, ErrScanAlreadyGone)

	live := scan.Scan{ID: uuid.New(), Status: scan.StatusConfirmed}
	_, err = c.Cancel(context.Background(), &live)
	require.NoError(t, err)
	assert.Equal(t, []string{"cancel"}, api.called())
}

func TestControllerConfirmGuards(t *testing.T) {
	api := &fakeLifecycleAPI{}
	c := NewController(api, scan.User{ID: uuid.New()})

	active := scan.Scan{ID: uuid.New(), Status: scan.StatusConfirmed}
	_, err := c.Confirm(context.Background(), &active)
	assert.ErrorIs(t, err, ErrScanAlreadyActive)

	fresh := scan.Scan{ID: uuid.New(), Status: scan.StatusUnconfirmed}
	_, err = c.Confirm(context.Background(), &fresh)
	require.NoError(t, err)
}

func TestControllerUnassignScannedRejected(t *testing.T) {
	api := &fakeLifecycleAPI{}
	me := scan.User{ID: uuid.New()}
	c := NewController(api, me)

	sc := scan.Scan{ID: uuid.New(), Status: scan.StatusConfirmed, IsScanned: true, AssignedTo: &me}
	_, err := c.Unassign(context.Background(), &sc)
	assert.ErrorIs(t, err, ErrUnassignScanned)
	assert.Empty(t, api.called())
}

func TestControllerMarkScannedGuards(t *testing.T) {
	api := &fakeLifecycleAPI{}
	me := scan.User{ID: uuid.New(), Role: scan.RoleScanner}
	c := NewController(api, me)

	done := scan.Scan{ID: uuid.New(), Status: scan.StatusConfirmed, IsScanned: true, AssignedTo: &me}
	_, err := c.MarkScanned(context.Background(), &done)
	assert.ErrorIs(t, err, ErrScanAlreadyScanned)

	other := scan.User{ID: uuid.New()}
	notMine := scan.Scan{ID: uuid.New(), Status: scan.StatusConfirmed, AssignedTo: &other}
	_, err = c.MarkScanned(context.Background(), &notMine)
	assert.ErrorIs(t, err, ErrScanNotAssignedToMe)

	unconfirmed := scan.Scan{ID: uuid.New(), Status: scan.StatusUnconfirmed, AssignedTo: &me}
	_, err = c.MarkScanned(context.Background(), &unconfirmed)
	assert.ErrorIs(t, err, ErrScanNotConfirmed)

	ready := scan.Scan{ID: uuid.New(), Status: scan.StatusConfirmed, AssignedTo: &me}
	_, err = c.MarkScanned(context.Background(), &ready)
	require.NoError(t, err)
	assert.Equal(t, []string{"scanned"}, api.called())
}

func TestControllerSingleFlight(t *testing.T) {
	api := &fakeLifecycleAPI{release: make(chan struct{})}
	me := scan.User{ID: uuid.New()}
	c := NewController(api, me)

	first := scan.Scan{ID: uuid.New(), Status: scan.StatusUnconfirmed}
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		_, err := c.Confirm(context.Background(), &first)
		done <- err
	}()
	<-started
	require.Eventually(t, c.Busy, time.Second, time.Millisecond)

	// A second action while the first is in flight is refused locally.
	second := scan.Scan{ID: uuid.New(), Status: scan.StatusConfirmed}
	_, err := c.Cancel(context.Background(), &second)
	assert.ErrorIs(t, err, ErrBusy)

	close(api.release)
	require.NoError(t, <-done)
	assert.False(t, c.Busy())

	// The controller is usable again afterwards.
	api.release = nil
	_, err = c.Cancel(context.Background(), &second)
	require.NoError(t, err)
}
