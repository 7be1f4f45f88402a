// Package telemetry provides event counting, cycle reports, bookmarks and CSV output.
package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/island/components"
)

// EventType identifies telemetry events.
type EventType uint8

const (
	EventGraze EventType = iota
	EventHunt
	EventBirth
)

// String returns the log message for the event type.
func (t EventType) String() string {
	switch t {
	case EventGraze:
		return "grazed"
	case EventHunt:
		return "hunted"
	case EventBirth:
		return "born"
	}
	return "unknown"
}

// Event represents a single telemetry event.
type Event struct {
	Type     EventType
	EntityID uint32
	Kind     components.Kind
	At       components.Position

	// Optional fields depending on event type
	TargetID   uint32          // prey for hunts, parent for births
	TargetKind components.Kind // kind of TargetID
}

// NewGrazeEvent creates a grazing event.
func NewGrazeEvent(e *components.Entity, at components.Position) Event {
	return Event{
		Type:     EventGraze,
		EntityID: e.ID,
		Kind:     e.Kind,
		At:       at,
	}
}

// NewHuntEvent creates a successful hunt event.
func NewHuntEvent(predator, prey *components.Entity, at components.Position) Event {
	return Event{
		Type:       EventHunt,
		EntityID:   predator.ID,
		Kind:       predator.Kind,
		At:         at,
		TargetID:   prey.ID,
		TargetKind: prey.Kind,
	}
}

// NewBirthEvent creates a birth event.
func NewBirthEvent(child, parent *components.Entity, at components.Position) Event {
	return Event{
		Type:       EventBirth,
		EntityID:   child.ID,
		Kind:       child.Kind,
		At:         at,
		TargetID:   parent.ID,
		TargetKind: parent.Kind,
	}
}

// Log writes the event as one log line.
func (ev Event) Log(logger *slog.Logger) {
	attrs := []any{
		"id", ev.EntityID,
		"kind", ev.Kind.String(),
		"x", ev.At.X,
		"y", ev.At.Y,
	}
	switch ev.Type {
	case EventHunt:
		attrs = append(attrs, "prey_id", ev.TargetID, "prey_kind", ev.TargetKind.String())
	case EventBirth:
		attrs = append(attrs, "parent_id", ev.TargetID)
	}
	logger.Info(ev.Type.String(), attrs...)
}
