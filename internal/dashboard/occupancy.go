package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OccupiedSet is the set of local HH:MM slot starts already booked on a
// date.
type OccupiedSet map[string]struct{}

func (s OccupiedSet) Has(value string) bool {
	_, ok := s[value]
	return ok
}

// OccupiedLister is the collaborator's occupied-slots query.
type OccupiedLister interface {
	OccupiedSlots(ctx context.Context, date time.Time, exclude *uuid.UUID) ([]string, error)
}

// Resolver turns the collaborator's absolute occupied instants into the
// viewer's local slot-start times.
type Resolver struct {
	api OccupiedLister
	loc *time.Location
}

func NewResolver(api OccupiedLister, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{api: api, loc: loc}
}

// Resolve fetches the occupied set for a date, optionally excluding one
// scan so an edit does not block its own slot. On a fetch failure it
// returns an empty set together with the error: the day renders as free,
// but callers must surface the error instead of presenting the empty set
// as ground truth. Tokens that do not reduce to a valid HH:MM are dropped.
func (r *Resolver) Resolve(ctx context.Context, date time.Time, exclude *uuid.UUID) (OccupiedSet, error) {
	occupied := OccupiedSet{}

	tokens, err := r.api.OccupiedSlots(ctx, date, exclude)
	if err != nil {
		return occupied, err
	}

	for _, tok := range tokens {
		if v, ok := r.localSlot(tok); ok {
			occupied[v] = struct{}{}
		}
	}
	return occupied, nil
}

// localSlot reduces one server token to a local HH:MM slot start.
func (r *Resolver) localSlot(tok string) (string, bool) {
	if t, err := time.Parse(time.RFC3339, tok); err == nil {
		return t.In(r.loc).Format("15:04"), true
	}
	// Some deployments report a bare wall-clock token already.
	if validHHMM(tok) {
		return tok, true
	}
	return "", false
}

func validHHMM(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}
