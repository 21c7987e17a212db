package dashboard

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/salvalabdesarollo-source/dashboard/internal/scan"
)

// ViewKind decides the store's ordering discipline.
type ViewKind int

const (
	// AgendaView holds one day's scans keyed by their slot: replacing a
	// scan keeps its position, and the set is never trimmed.
	AgendaView ViewKind = iota
	// ListView holds one filtered page, strictly descending by instant and
	// trimmed to the page limit.
	ListView
)

// Store is the set of scans a single view currently shows. It is owned by
// that view and mutated only by the view's workflow, controller and
// reconciler.
type Store struct {
	mu    sync.Mutex
	kind  ViewKind
	limit int
	items []scan.Scan
}

func NewStore(kind ViewKind, limit int) *Store {
	return &Store{kind: kind, limit: limit}
}

// Replace swaps the whole set, as a refresh from the collaborator does.
func (s *Store) Replace(items []scan.Scan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]scan.Scan(nil), items...)
	s.normalize()
}

// Upsert inserts the scan or replaces the copy already present. List views
// re-sort and trim afterwards; agenda views keep the replaced scan's
// position because their rows are slot-keyed, not order-keyed.
func (s *Store) Upsert(sc scan.Scan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == sc.ID {
			s.items[i] = sc
			if s.kind == ListView {
				s.normalize()
			}
			return
		}
	}

	s.items = append([]scan.Scan{sc}, s.items...)
	s.normalize()
}

// Remove drops the scan, if present.
func (s *Store) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// Get returns a copy of the stored scan, if present.
func (s *Store) Get(id uuid.UUID) (scan.Scan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			return s.items[i], true
		}
	}
	return scan.Scan{}, false
}

// Contains reports whether the scan is currently in the view.
func (s *Store) Contains(id uuid.UUID) bool {
	_, ok := s.Get(id)
	return ok
}

// Snapshot returns a copy of the current set in view order.
func (s *Store) Snapshot() []scan.Scan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scan.Scan(nil), s.items...)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// normalize restores the list view's ordering guarantee: strictly
// descending by instant, at most limit entries. Callers hold the lock.
func (s *Store) normalize() {
	if s.kind != ListView {
		return
	}
	sort.SliceStable(s.items, func(i, j int) bool {
		return s.items[i].DateTime.After(s.items[j].DateTime)
	})
	if s.limit > 0 && len(s.items) > s.limit {
		s.items = s.items[:s.limit]
	}
}
