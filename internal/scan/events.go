package scan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Named push events. Every successful write is broadcast under one of these,
// and may additionally travel as the generic EventEnvelope carrying an
// {action, scan} pair.
const (
	EventCreated    = "scans.created"
	EventUpdated    = "scans.updated"
	EventAssigned   = "scans.assigned"
	EventUnassigned = "scans.unassigned"
	EventScanned    = "scans.scanned"
	EventEnvelope   = "scans.event"
)

type Action string

const (
	ActionCreated    Action = "created"
	ActionUpdated    Action = "updated"
	ActionAssigned   Action = "assigned"
	ActionUnassigned Action = "unassigned"
	ActionScanned    Action = "scanned"
)

// Frame is one message on the push channel. Named events carry a bare Scan
// snapshot in Data; the generic EventEnvelope frame carries an envelope
// object instead.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type envelope struct {
	Action Action `json:"action"`
	Scan   *Scan  `json:"scan"`
}

// Change is the canonical form every inbound frame is normalized to before
// it touches any store: one action plus the scan snapshot it applies to.
// An unassigned action always has Scan.AssignedTo forced to nil here, since
// the broadcast payload cannot be trusted to already reflect the
// unassignment.
type Change struct {
	Action Action
	Scan   *Scan
}

// NewFrame builds a named-event frame carrying the scan snapshot.
func NewFrame(event string, sc *Scan) (Frame, error) {
	data, err := json.Marshal(sc)
	if err != nil {
		return Frame{}, fmt.Errorf("marshal scan snapshot: %w", err)
	}
	return Frame{Event: event, Data: data}, nil
}

// Normalize collapses the two frame shapes into a single Change.
func Normalize(f Frame) (Change, error) {
	if !strings.HasPrefix(f.Event, "scans.") {
		return Change{}, fmt.Errorf("unknown push event %q", f.Event)
	}

	var ch Change
	if f.Event == EventEnvelope {
		var env envelope
		if err := json.Unmarshal(f.Data, &env); err != nil {
			return Change{}, fmt.Errorf("decode event envelope: %w", err)
		}
		if env.Scan == nil {
			return Change{}, fmt.Errorf("event envelope without scan")
		}
		ch = Change{Action: env.Action, Scan: env.Scan}
	} else {
		var sc Scan
		if err := json.Unmarshal(f.Data, &sc); err != nil {
			return Change{}, fmt.Errorf("decode scan snapshot: %w", err)
		}
		ch = Change{Action: actionFor(f.Event), Scan: &sc}
	}

	if ch.Action == "" {
		return Change{}, fmt.Errorf("push event %q without action", f.Event)
	}
	if ch.Action == ActionUnassigned {
		ch.Scan.AssignedTo = nil
	}
	return ch, nil
}

func actionFor(event string) Action {
	switch event {
	case EventCreated:
		return ActionCreated
	case EventUpdated:
		return ActionUpdated
	case EventAssigned:
		return ActionAssigned
	case EventUnassigned:
		return ActionUnassigned
	case EventScanned:
		return ActionScanned
	}
	return ""
}
