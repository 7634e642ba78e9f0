package eventbus

import (
	"context"
	"sync"

	"pkt.systems/hackterm/schema"
	"pkt.systems/pslog"
)

// EventType identifies the event payload.
type EventType string

const (
	// EventTranscript carries appended transcript lines.
	EventTranscript EventType = "transcript"
	// EventStatus carries a status change.
	EventStatus EventType = "status"
	// EventInput carries an input buffer change.
	EventInput EventType = "input"
	// EventSession carries session lifecycle updates.
	EventSession EventType = "session"
)

// Event represents a UI-facing event emitted by the core service.
type Event struct {
	Type       EventType
	Transcript schema.TranscriptEvent
	Status     schema.StatusEvent
	Input      schema.InputEvent
	Session    schema.SessionEvent
}

// Bus fans out events to per-session subscribers.
type Bus struct {
	mu    sync.Mutex
	subs  map[schema.SessionID]map[chan Event]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[schema.SessionID]map[chan Event]struct{}),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber for the session and returns a channel + cancel.
func (b *Bus) Subscribe(sessionID schema.SessionID) (<-chan Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan Event, b.depth)
	b.mu.Lock()
	sessionSubs := b.subs[sessionID]
	if sessionSubs == nil {
		sessionSubs = make(map[chan Event]struct{})
		b.subs[sessionID] = sessionSubs
	}
	sessionSubs[ch] = struct{}{}
	count := len(sessionSubs)
	b.mu.Unlock()
	b.log.With("session", sessionID).Debug("eventbus subscribe", "subs", count)
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if subs := b.subs[sessionID]; subs != nil {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(b.subs, sessionID)
				}
			}
			close(ch)
			b.mu.Unlock()
			b.log.With("session", sessionID).Debug("eventbus unsubscribe")
		})
	}
}

// OnTranscript publishes a transcript event.
func (b *Bus) OnTranscript(event schema.TranscriptEvent) {
	b.publish(event.SessionID, Event{Type: EventTranscript, Transcript: event})
}

// OnStatus publishes a status event.
func (b *Bus) OnStatus(event schema.StatusEvent) {
	b.publish(event.SessionID, Event{Type: EventStatus, Status: event})
}

// OnInput publishes an input event.
func (b *Bus) OnInput(event schema.InputEvent) {
	b.publish(event.SessionID, Event{Type: EventInput, Input: event})
}

// OnSession publishes a session lifecycle event.
func (b *Bus) OnSession(event schema.SessionEvent) {
	b.publish(event.SessionID, Event{Type: EventSession, Session: event})
}

// publish never blocks; sends happen under mu so a concurrent unsubscribe
// cannot close a channel mid-send.
func (b *Bus) publish(sessionID schema.SessionID, event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	dropped := 0
	for sub := range b.subs[sessionID] {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	b.mu.Unlock()
	if dropped > 0 {
		b.log.With("session", sessionID).Trace("eventbus dropped", "count", dropped)
	}
}
