package dashboard

import (
	"go.uber.org/zap"

	"github.com/salvalabdesarollo-source/dashboard/internal/scan"
)

// Reconciler applies inbound push events to a view's store. Every frame is
// first normalized to a canonical change, then resolved against the view's
// filter predicate:
//
//	no match, not stored  -> no-op
//	no match, stored      -> remove (it scrolled out of view)
//	match, not stored     -> insert
//	match, stored         -> replace in place
//
// The filter is read through a provider so a view that rebuilds its
// predicate is immediately reflected here.
type Reconciler struct {
	store  *Store
	filter func() *Filter
	log    *zap.Logger
}

func NewReconciler(store *Store, filter func() *Filter, log *zap.Logger) *Reconciler {
	return &Reconciler{store: store, filter: filter, log: log}
}

// Apply reconciles one push frame. Malformed frames are logged and
// dropped; they never corrupt the store.
func (r *Reconciler) Apply(frame scan.Frame) error {
	change, err := scan.Normalize(frame)
	if err != nil {
		r.log.Warn("dropping malformed push frame",
			zap.String("event", frame.Event),
			zap.Error(err))
		return err
	}
	r.ApplyChange(change)
	return nil
}

// ApplyChange reconciles an already-normalized change.
func (r *Reconciler) ApplyChange(ch scan.Change) {
	sc := ch.Scan
	matches := r.filter().Matches(sc)
	stored := r.store.Contains(sc.ID)

	switch {
	case !matches && !stored:
		// Nothing to do.
	case !matches && stored:
		r.store.Remove(sc.ID)
	default:
		r.store.Upsert(*sc)
	}
}
