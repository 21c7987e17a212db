package dashboard

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salvalabdesarollo-source/dashboard/internal/client"
	"github.com/salvalabdesarollo-source/dashboard/internal/scan"
)

func TestFilterMatchesScannerSeesOnlyOwnScans(t *testing.T) {
	me := scan.User{ID: uuid.New(), Username: "tech", Role: scan.RoleScanner}
	other := scan.User{ID: uuid.New(), Username: "colleague", Role: scan.RoleScanner}
	f := Filter{Viewer: me}

	mine := scan.Scan{ID: uuid.New(), AssignedTo: &me}
	theirs := scan.Scan{ID: uuid.New(), AssignedTo: &other}
	unclaimed := scan.Scan{ID: uuid.New()}

	assert.True(t, f.Matches(&mine))
	assert.False(t, f.Matches(&theirs))
	assert.False(t, f.Matches(&unclaimed))
}

func TestFilterMatchesAdministratorSeesEverything(t *testing.T) {
	admin := scan.User{ID: uuid.New(), Role: scan.RoleAdministrator}
	f := Filter{Viewer: admin}

	assert.True(t, f.Matches(&scan.Scan{ID: uuid.New()}))

	tech := scan.User{ID: uuid.New(), Role: scan.RoleScanner}
	assert.True(t, f.Matches(&scan.Scan{ID: uuid.New(), AssignedTo: &tech}))
}

func TestFilterMatchesConstraints(t *testing.T) {
	admin := scan.User{ID: uuid.New(), Role: scan.RoleAdministrator}
	doctorID := uuid.New()
	clinicID := uuid.New()
	status := scan.StatusConfirmed
	scanned := false
	at := time.Date(2026, time.September, 2, 9, 30, 0, 0, time.UTC)

	sc := scan.Scan{
		ID:       uuid.New(),
		DateTime: at,
		Doctor: scan.Doctor{
			ID:     doctorID,
			Clinic: &scan.Clinic{ID: clinicID},
		},
		Status: scan.StatusConfirmed,
	}

	f := Filter{
		Viewer:    admin,
		Doctor:    &doctorID,
		Clinic:    &clinicID,
		Status:    &status,
		IsScanned: &scanned,
	}
	assert.True(t, f.Matches(&sc))

	otherDoctor := uuid.New()
	f.Doctor = &otherDoctor
	assert.False(t, f.Matches(&sc))
}

func TestFilterForDayBracketsTheDay(t *testing.T) {
	admin := scan.User{ID: uuid.New(), Role: scan.RoleAdministrator}
	day := time.Date(2026, time.September, 2, 15, 45, 0, 0, time.UTC)
	f := Filter{Viewer: admin}.ForDay(day, time.UTC)

	inside := scan.Scan{ID: uuid.New(), DateTime: time.Date(2026, time.September, 2, 8, 0, 0, 0, time.UTC)}
	before := scan.Scan{ID: uuid.New(), DateTime: time.Date(2026, time.September, 1, 23, 30, 0, 0, time.UTC)}
	after := scan.Scan{ID: uuid.New(), DateTime: time.Date(2026, time.September, 3, 0, 0, 0, 0, time.UTC)}

	assert.True(t, f.Matches(&inside))
	assert.False(t, f.Matches(&before))
	assert.False(t, f.Matches(&after))
}

func TestFilterTriplesMirrorMatches(t *testing.T) {
	me := scan.User{ID: uuid.New(), Role: scan.RoleScanner}
	doctorID := uuid.New()
	from := time.Date(2026, time.September, 2, 0, 0, 0, 0, time.UTC)
	scanned := false

	f := Filter{
		Viewer:    me,
		Doctor:    &doctorID,
		From:      &from,
		IsScanned: &scanned,
	}

	triples := f.Triples()
	require.Len(t, triples, 4)
	assert.Contains(t, triples, client.Filter{Field: "assignedTo", Op: client.OpEq, Value: me.ID.String()})
	assert.Contains(t, triples, client.Filter{Field: "requestedByDoctor", Op: client.OpEq, Value: doctorID.String()})
	assert.Contains(t, triples, client.Filter{Field: "dateTime", Op: client.OpGte, Value: "2026-09-02T00:00:00Z"})
	assert.Contains(t, triples, client.Filter{Field: "isScanned", Op: client.OpEq, Value: "false"})
}

func TestFilterTriplesEmptyForUnconstrainedAdministrator(t *testing.T) {
	admin := scan.User{ID: uuid.New(), Role: scan.RoleAdministrator}
	f := Filter{Viewer: admin}
	assert.Empty(t, f.Triples())
}
