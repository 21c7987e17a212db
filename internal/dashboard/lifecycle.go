package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/salvalabdesarollo-source/dashboard/internal/scan"
)

var (
	ErrBusy                = errors.New("another action is still in flight")
	ErrActorRequired       = errors.New("acting user is not known")
	ErrScanAlreadyAssigned = errors.New("scan is already assigned")
	ErrScanNotAssignedToMe = errors.New("scan is not assigned to you")
	ErrScanNotConfirmed    = errors.New("scan must be confirmed before scanning")
	ErrScanAlreadyScanned  = errors.New("scan is already marked as scanned")
	ErrScanAlreadyActive   = errors.New("scan is already confirmed")
	ErrScanAlreadyGone     = errors.New("scan is already cancelled")
	ErrCancelScanned       = errors.New("a scanned appointment cannot be cancelled")
	ErrUnassignScanned     = errors.New("a scanned appointment keeps its assignee")
)

// LifecycleAPI is the slice of the collaborator the controller writes
// through.
type LifecycleAPI interface {
	AssignScan(ctx context.Context, id, userID uuid.UUID) (*scan.Scan, error)
	UnassignScan(ctx context.Context, id uuid.UUID) (*scan.Scan, error)
	ConfirmScan(ctx context.Context, id uuid.UUID) (*scan.Scan, error)
	CancelScan(ctx context.Context, id uuid.UUID) (*scan.Scan, error)
	MarkScanned(ctx context.Context, id uuid.UUID) (*scan.Scan, error)
}

// Controller runs the lifecycle actions on behalf of one operator. Guards
// run client-side first for fast feedback; the server re-checks them
// authoritatively. Nothing is applied optimistically: the updated scan
// comes back from the server and the caller patches or refreshes its
// store with it.
//
// Only one action runs at a time per controller; a second action while
// one is in flight fails with ErrBusy. That mutual exclusion is
// client-local and does not stop other operators racing for the same scan.
type Controller struct {
	api   LifecycleAPI
	actor scan.User

	mu   sync.Mutex
	busy bool
}

func NewController(api LifecycleAPI, actor scan.User) *Controller {
	return &Controller{api: api, actor: actor}
}

// AssignToSelf claims an unassigned scan for the acting operator.
func (c *Controller) AssignToSelf(ctx context.Context, sc *scan.Scan) (*scan.Scan, error) {
	if c.actor.ID == uuid.Nil {
		return nil, ErrActorRequired
	}
	if sc.AssignedTo != nil {
		return nil, ErrScanAlreadyAssigned
	}
	return c.run(func() (*scan.Scan, error) {
		return c.api.AssignScan(ctx, sc.ID, c.actor.ID)
	})
}

// Unassign releases the scan, even when it is held by someone else.
// Scanned scans keep their assignee.
func (c *Controller) Unassign(ctx context.Context, sc *scan.Scan) (*scan.Scan, error) {
	if sc.IsScanned {
		return nil, ErrUnassignScanned
	}
	return c.run(func() (*scan.Scan, error) {
		return c.api.UnassignScan(ctx, sc.ID)
	})
}

// Confirm moves the scan to confirmed.
func (c *Controller) Confirm(ctx context.Context, sc *scan.Scan) (*scan.Scan, error) {
	if sc.Status == scan.StatusConfirmed {
		return nil, ErrScanAlreadyActive
	}
	return c.run(func() (*scan.Scan, error) {
		return c.api.ConfirmScan(ctx, sc.ID)
	})
}

// Cancel rejects the scan. A scanned scan can never be cancelled, whatever
// its status; the rejection happens here with a user-visible message
// before any network call.
func (c *Controller) Cancel(ctx context.Context, sc *scan.Scan) (*scan.Scan, error) {
	if sc.IsScanned {
		return nil, ErrCancelScanned
	}
	if sc.Status == scan.StatusCancelled {
		return nil, ErrScanAlreadyGone
	}
	return c.run(func() (*scan.Scan, error) {
		return c.api.CancelScan(ctx, sc.ID)
	})
}

// MarkScanned flips the one-way scanned flag. Only the current assignee
// may, and only on a confirmed scan.
func (c *Controller) MarkScanned(ctx context.Context, sc *scan.Scan) (*scan.Scan, error) {
	if sc.IsScanned {
		return nil, ErrScanAlreadyScanned
	}
	if sc.AssignedTo == nil || sc.AssignedTo.ID != c.actor.ID {
		return nil, ErrScanNotAssignedToMe
	}
	if sc.Status != scan.StatusConfirmed {
		return nil, ErrScanNotConfirmed
	}
	return c.run(func() (*scan.Scan, error) {
		return c.api.MarkScanned(ctx, sc.ID)
	})
}

// Busy reports whether an action is currently in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *Controller) run(fn func() (*scan.Scan, error)) (*scan.Scan, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.busy = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	return fn()
}
