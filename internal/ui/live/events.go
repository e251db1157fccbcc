package live

import "reqtester/internal/session"

// EventKind identifies the type of live UI event.
type EventKind int

const (
	// EventStart announces the request being run.
	EventStart EventKind = iota
	// EventView delivers a controller snapshot.
	EventView
	// EventEnd signals that no further snapshots will arrive.
	EventEnd
)

// Event carries a UI update payload.
type Event struct {
	Kind  EventKind
	Model string
	Count int
	View  session.View
}
