package dashboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/salvalabdesarollo-source/dashboard/internal/client"
)

// View ties one store, one filter and one push subscription together. The
// agenda view shows a single day; the list view shows one filtered page.
// Each view owns its store exclusively.
type View struct {
	api   *client.Client
	kind  ViewKind
	store *Store
	rec   *Reconciler
	log   *zap.Logger
	limit int
	page  int

	mu       sync.Mutex
	filter   Filter
	refilter chan struct{}
}

// NewAgendaView shows every scan of one calendar day in loc.
func NewAgendaView(api *client.Client, base Filter, day time.Time, loc *time.Location, log *zap.Logger) *View {
	v := &View{
		api:      api,
		kind:     AgendaView,
		store:    NewStore(AgendaView, 0),
		log:      log,
		limit:    0,
		page:     1,
		filter:   base.ForDay(day, loc),
		refilter: make(chan struct{}, 1),
	}
	v.rec = NewReconciler(v.store, v.Filter, log)
	return v
}

// NewListView shows one filtered page, limit entries at most.
func NewListView(api *client.Client, f Filter, page, limit int, log *zap.Logger) *View {
	v := &View{
		api:      api,
		kind:     ListView,
		store:    NewStore(ListView, limit),
		log:      log,
		limit:    limit,
		page:     page,
		filter:   f,
		refilter: make(chan struct{}, 1),
	}
	v.rec = NewReconciler(v.store, v.Filter, log)
	return v
}

func (v *View) Store() *Store { return v.store }

// Filter is the view's current predicate, shared by the fetch path and
// the reconciler.
func (v *View) Filter() *Filter {
	v.mu.Lock()
	defer v.mu.Unlock()
	f := v.filter
	return &f
}

// SetFilter swaps the predicate and forces the push subscription to be
// torn down and recreated, keeping the reconciler's match closure current.
func (v *View) SetFilter(f Filter) {
	v.mu.Lock()
	v.filter = f
	v.mu.Unlock()

	select {
	case v.refilter <- struct{}{}:
	default:
	}
}

// Refresh re-fetches the view's page from the collaborator and replaces
// the store wholesale, so server-assigned fields are authoritative.
func (v *View) Refresh(ctx context.Context) error {
	f := v.Filter()

	limit := v.limit
	if limit == 0 {
		// A day holds at most 24 slots, so one large page covers the
		// agenda.
		limit = 100
	}
	page, err := v.api.ListScans(ctx, v.page, limit, f.Triples())
	if err != nil {
		return err
	}
	v.store.Replace(page.Items)
	return nil
}

// Listen keeps one push-channel connection for the view's lifetime,
// reconciling every frame. The connection is recreated whenever the filter
// changes and closed when ctx is cancelled.
func (v *View) Listen(ctx context.Context) error {
	for {
		stream, err := v.api.Stream(ctx)
		if err != nil {
			return err
		}

		resubscribe := false
		for !resubscribe {
			select {
			case <-ctx.Done():
				_ = stream.Close()
				return ctx.Err()
			case <-v.refilter:
				resubscribe = true
			case frame, ok := <-stream.Frames():
				if !ok {
					if err := stream.Err(); err != nil {
						return err
					}
					resubscribe = true
					break
				}
				// Errors are already logged; a bad frame never stops
				// the subscription.
				_ = v.rec.Apply(frame)
			}
		}
		_ = stream.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
