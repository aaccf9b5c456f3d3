package engine

import "sync"

// Side effects of the state machine (PR banners, tones, warnings) are
// delivered as events so the engine itself stays pure and testable.
// The host decides what a tone or a banner looks like.

type EventType string

const (
	EventRestStarted      EventType = "rest_started"
	EventTone             EventType = "tone"
	EventPersonalRecord   EventType = "personal_record"
	EventSessionCompleted EventType = "session_completed"
	EventPersistWarning   EventType = "persist_warning"
)

// Tones emitted by the rest timer. Cue tones fire at 3/2/1 with rising
// pitch; the finish tone is a three-note ascending sequence.
type Tone string

const (
	ToneCueLow  Tone = "cue_low"  // 3 seconds left
	ToneCueMid  Tone = "cue_mid"  // 2 seconds left
	ToneCueHigh Tone = "cue_high" // 1 second left
	ToneFinish  Tone = "finish"
)

type Event struct {
	Type         EventType `json:"type"`
	ExerciseName string    `json:"exercise_name,omitempty"`
	SetNumber    int       `json:"set_number,omitempty"`
	Weight       float64   `json:"weight,omitempty"`
	Reps         int       `json:"reps,omitempty"`
	RestSeconds  int       `json:"rest_seconds,omitempty"`
	Tone         Tone      `json:"tone,omitempty"`
	Message      string    `json:"message,omitempty"`
}

type Notifier interface {
	Notify(Event)
}

// EventBuffer is a bounded in-memory Notifier. The transport drains it on
// demand; when full the oldest event is dropped rather than blocking the
// state machine.
type EventBuffer struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

func NewEventBuffer(limit int) *EventBuffer {
	if limit <= 0 {
		limit = 64
	}
	return &EventBuffer{limit: limit}
}

func (b *EventBuffer) Notify(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) >= b.limit {
		b.events = b.events[1:]
	}
	b.events = append(b.events, e)
}

// Drain returns the buffered events and clears the buffer.
func (b *EventBuffer) Drain() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.events
	b.events = nil
	return out
}
