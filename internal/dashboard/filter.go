package dashboard

import (
	"time"

	"github.com/google/uuid"

	"github.com/salvalabdesarollo-source/dashboard/internal/client"
	"github.com/salvalabdesarollo-source/dashboard/internal/scan"
)

// Filter is the explicit predicate a view is showing. The same value drives
// both the fetch path and the event reconciler, so the two can never
// disagree about what belongs in the view. Build a new Filter when an input
// changes instead of mutating a shared one.
type Filter struct {
	// Viewer is the acting identity. Scanners only ever see scans assigned
	// to them, whatever the other fields say.
	Viewer scan.User

	AssignedTo *uuid.UUID
	CreatedBy  *uuid.UUID
	Doctor     *uuid.UUID
	Clinic     *uuid.UUID
	From       *time.Time
	To         *time.Time
	IsScanned  *bool
	Status     *scan.Status
}

// ForDay returns a copy of the filter narrowed to one calendar day in loc,
// as the agenda view needs.
func (f Filter) ForDay(day time.Time, loc *time.Location) Filter {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Second)
	f.From = &start
	f.To = &end
	return f
}

// Matches reports whether the scan belongs in a view showing this filter.
func (f *Filter) Matches(sc *scan.Scan) bool {
	if sc == nil {
		return false
	}

	assignee := f.AssignedTo
	if f.Viewer.Role == scan.RoleScanner {
		id := f.Viewer.ID
		assignee = &id
	}
	if assignee != nil {
		if sc.AssignedTo == nil || sc.AssignedTo.ID != *assignee {
			return false
		}
	}
	if f.CreatedBy != nil && sc.CreatedBy.ID != *f.CreatedBy {
		return false
	}
	if f.Doctor != nil && sc.Doctor.ID != *f.Doctor {
		return false
	}
	if f.Clinic != nil {
		cid := sc.ClinicID()
		if cid == nil || *cid != *f.Clinic {
			return false
		}
	}
	if f.From != nil && sc.DateTime.Before(*f.From) {
		return false
	}
	if f.To != nil && sc.DateTime.After(*f.To) {
		return false
	}
	if f.IsScanned != nil && sc.IsScanned != *f.IsScanned {
		return false
	}
	if f.Status != nil && sc.Status != *f.Status {
		return false
	}
	return true
}

// Triples encodes the filter for the collaborator's list endpoints, using
// the same constraints Matches applies locally.
func (f *Filter) Triples() []client.Filter {
	var out []client.Filter
	add := func(field, op, value string) {
		out = append(out, client.Filter{Field: field, Op: op, Value: value})
	}

	assignee := f.AssignedTo
	if f.Viewer.Role == scan.RoleScanner {
		id := f.Viewer.ID
		assignee = &id
	}
	if assignee != nil {
		add("assignedTo", client.OpEq, assignee.String())
	}
	if f.CreatedBy != nil {
		add("createdBy", client.OpEq, f.CreatedBy.String())
	}
	if f.Doctor != nil {
		add("requestedByDoctor", client.OpEq, f.Doctor.String())
	}
	if f.Clinic != nil {
		add("clinic", client.OpEq, f.Clinic.String())
	}
	if f.From != nil {
		add("dateTime", client.OpGte, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		add("dateTime", client.OpLte, f.To.UTC().Format(time.RFC3339))
	}
	if f.IsScanned != nil {
		if *f.IsScanned {
			add("isScanned", client.OpEq, "true")
		} else {
			add("isScanned", client.OpEq, "false")
		}
	}
	if f.Status != nil {
		add("status", client.OpEq, string(*f.Status))
	}
	return out
}
