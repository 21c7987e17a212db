package scan

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScan(t *testing.T) *Scan {
	t.Helper()
	assignee := User{ID: uuid.New(), Username: "tech7", Role: RoleScanner}
	return &Scan{
		ID:         uuid.New(),
		DateTime:   time.Date(2026, time.September, 2, 9, 30, 0, 0, time.UTC),
		CreatedBy:  User{ID: uuid.New(), Username: "admin", Role: RoleAdministrator},
		AssignedTo: &assignee,
		Doctor:     Doctor{ID: uuid.New(), Name: "Dr. Soto"},
		Status:     StatusConfirmed,
	}
}

func TestNormalizeNamedEvent(t *testing.T) {
	sc := testScan(t)
	frame, err := NewFrame(EventCreated, sc)
	require.NoError(t, err)

	ch, err := Normalize(frame)
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, ch.Action)
	assert.Equal(t, sc.ID, ch.Scan.ID)
	assert.Equal(t, sc.DateTime, ch.Scan.DateTime)
}

func TestNormalizeEnvelope(t *testing.T) {
	sc := testScan(t)
	data, err := json.Marshal(map[string]any{"action": "updated", "scan": sc})
	require.NoError(t, err)

	ch, err := Normalize(Frame{Event: EventEnvelope, Data: data})
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, ch.Action)
	assert.Equal(t, sc.ID, ch.Scan.ID)
}

func TestNormalizeUnassignedForcesNilAssignee(t *testing.T) {
	// The payload still claims an assignee; the unassigned action wins.
	sc := testScan(t)
	require.NotNil(t, sc.AssignedTo)

	frame, err := NewFrame(EventUnassigned, sc)
	require.NoError(t, err)
	ch, err := Normalize(frame)
	require.NoError(t, err)
	assert.Nil(t, ch.Scan.AssignedTo)

	// Same through the generic envelope.
	data, err := json.Marshal(map[string]any{"action": "unassigned", "scan": testScan(t)})
	require.NoError(t, err)
	ch, err = Normalize(Frame{Event: EventEnvelope, Data: data})
	require.NoError(t, err)
	assert.Nil(t, ch.Scan.AssignedTo)
}

func TestNormalizeRejectsUnknownEvent(t *testing.T) {
	_, err := Normalize(Frame{Event: "users.created", Data: []byte("{}")})
	assert.Error(t, err)
}

func TestNormalizeRejectsEnvelopeWithoutScan(t *testing.T) {
	_, err := Normalize(Frame{Event: EventEnvelope, Data: []byte(`{"action":"created"}`)})
	assert.Error(t, err)
}

func TestNormalizeRejectsMalformedData(t *testing.T) {
	_, err := Normalize(Frame{Event: EventCreated, Data: []byte(`not json`)})
	assert.Error(t, err)
}
