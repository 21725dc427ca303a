package world

import (
	"log/slog"
)

// Event categories.
const (
	CategoryTurn    = "turn"
	CategoryBirth   = "birth"
	CategoryDeath   = "death"
	CategoryEscape  = "escape"
	CategoryAbility = "ability"
	CategoryFeed    = "feed"
)

// Event is a notable occurrence in the world, recorded as a human-readable line.
type Event struct {
	Turn        uint64 `json:"turn" db:"turn"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"`
}

// EventSink receives every event the world records, in order.
type EventSink interface {
	Record(e Event)
}

// SlogSink writes events to a structured logger at debug level.
type SlogSink struct {
	Logger *slog.Logger
}

func (s SlogSink) Record(e Event) {
	l := s.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Debug(e.Description, "turn", e.Turn, "category", e.Category)
}

// EventBuffer accumulates events until drained.
type EventBuffer struct {
	events []Event
}

func (b *EventBuffer) Record(e Event) {
	b.events = append(b.events, e)
}

// Drain returns the buffered events and empties the buffer.
func (b *EventBuffer) Drain() []Event {
	out := b.events
	b.events = nil
	return out
}

// Len returns the number of buffered events.
func (b *EventBuffer) Len() int {
	return len(b.events)
}
