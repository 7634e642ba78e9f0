package httpapi

import (
	"context"
	"sync"
	"time"

	"pkt.systems/hackterm/internal/logx"
	"pkt.systems/hackterm/schema"
)

// StreamEvent is sent to SSE and WebSocket clients.
type StreamEvent struct {
	Seq         uint64                  `json:"seq,omitempty"`
	Revision    uint64                  `json:"revision,omitempty"`
	Type        string                  `json:"type"`
	Lines       []schema.TranscriptLine `json:"lines,omitempty"`
	Cleared     bool                    `json:"cleared,omitempty"`
	ScrollToEnd bool                    `json:"scroll_to_end,omitempty"`
	Status      *schema.StatusSnapshot  `json:"status,omitempty"`
	Input       *InputPayload           `json:"input,omitempty"`
	Session     schema.SessionEventType `json:"session,omitempty"`
	Snapshot    *SnapshotPayload        `json:"snapshot,omitempty"`
	Timestamp   time.Time               `json:"timestamp"`
}

// InputPayload mirrors the input buffer to other views of the same session.
type InputPayload struct {
	Text   string `json:"text"`
	Cursor int    `json:"cursor"`
}

// SnapshotPayload seeds client state on connect.
type SnapshotPayload struct {
	Session      schema.SessionSnapshot    `json:"session"`
	Transcript   schema.TranscriptSnapshot `json:"transcript"`
	History      []string                  `json:"history"`
	Presentation Presentation              `json:"presentation"`
}

// Presentation carries the static text a client renders around the transcript.
type Presentation struct {
	Title        string           `json:"title"`
	Tagline      string           `json:"tagline"`
	Placeholder  string           `json:"placeholder"`
	Hints        []string         `json:"hints"`
	Footer       string           `json:"footer"`
	MatrixFooter string           `json:"matrix_footer"`
	Theme        schema.ThemeName `json:"theme"`
}

// Hub broadcasts core events per session and keeps a replay window.
type Hub struct {
	mu          sync.Mutex
	sessions    map[schema.SessionID]*sessionHub
	historySize int
	now         func() time.Time
}

// NewHub constructs a hub with the given history size.
func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = 1000
	}
	return &Hub{
		sessions:    make(map[schema.SessionID]*sessionHub),
		historySize: historySize,
		now:         time.Now,
	}
}

// OnTranscript implements core.EventSink.
func (h *Hub) OnTranscript(event schema.TranscriptEvent) {
	logx.WithSession(context.Background(), event.SessionID).Trace("hub transcript event", "lines", len(event.Lines), "cleared", event.Cleared)
	h.publish(event.SessionID, StreamEvent{
		Type:        "transcript",
		Lines:       event.Lines,
		Cleared:     event.Cleared,
		ScrollToEnd: event.ScrollToEnd,
		Revision:    event.Revision,
	})
}

// OnStatus implements core.EventSink.
func (h *Hub) OnStatus(event schema.StatusEvent) {
	status := event.Status
	h.publish(event.SessionID, StreamEvent{
		Type:   "status",
		Status: &status,
	})
}

// OnInput implements core.EventSink.
func (h *Hub) OnInput(event schema.InputEvent) {
	h.publish(event.SessionID, StreamEvent{
		Type:  "input",
		Input: &InputPayload{Text: event.Input, Cursor: event.Cursor},
	})
}

// OnSession implements core.EventSink. Closing a session drops its replay
// window; subscribers still receive the closed event.
func (h *Hub) OnSession(event schema.SessionEvent) {
	logx.WithSession(context.Background(), event.SessionID).Debug("hub session event", "type", event.Type)
	if event.Type != schema.SessionEventClosed {
		return
	}
	h.publish(event.SessionID, StreamEvent{
		Type:    "session",
		Session: event.Type,
	})
	h.mu.Lock()
	if sh := h.sessions[event.SessionID]; sh != nil {
		sh.closed = true
		sh.history = nil
		if len(sh.subs) == 0 {
			delete(h.sessions, event.SessionID)
		}
	}
	h.mu.Unlock()
}

// Subscribe registers a subscriber for a session. It returns the current
// sequence number and a copy of the replay window; every event delivered on
// the channel has a larger sequence number.
func (h *Hub) Subscribe(sessionID schema.SessionID) (<-chan StreamEvent, func(), uint64, []StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sh := h.getOrCreateLocked(sessionID)
	ch := make(chan StreamEvent, 256)
	sh.subs[ch] = struct{}{}
	history := append([]StreamEvent(nil), sh.history...)
	seq := sh.seq
	log := logx.WithSession(context.Background(), sessionID)
	log.Debug("hub subscribe", "subs", len(sh.subs), "history", len(history))
	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(sh.subs, ch)
			close(ch)
			remaining := len(sh.subs)
			if remaining == 0 && sh.closed && h.sessions[sessionID] == sh {
				delete(h.sessions, sessionID)
			}
			h.mu.Unlock()
			log.Debug("hub unsubscribe", "subs", remaining)
		})
	}
	return ch, unsub, seq, history
}

// Replay returns events after the provided seq.
func (h *Hub) Replay(sessionID schema.SessionID, after uint64) []StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	sh := h.sessions[sessionID]
	if sh == nil {
		return nil
	}
	return replayAfter(sh.history, after)
}

// coveredBy reports whether event only repeats transcript changes that a
// snapshot taken at revision already contains.
func coveredBy(event StreamEvent, revision uint64) bool {
	return event.Type == "transcript" && event.Revision != 0 && event.Revision <= revision
}

func replayAfter(history []StreamEvent, after uint64) []StreamEvent {
	events := make([]StreamEvent, 0, len(history))
	for _, event := range history {
		if event.Seq > after {
			events = append(events, event)
		}
	}
	return events
}

func (h *Hub) publish(sessionID schema.SessionID, event StreamEvent) {
	event.Timestamp = h.now()
	h.mu.Lock()
	sh := h.getOrCreateLocked(sessionID)
	sh.seq++
	event.Seq = sh.seq
	sh.history = append(sh.history, event)
	if len(sh.history) > h.historySize {
		sh.history = sh.history[len(sh.history)-h.historySize:]
	}
	dropped := 0
	for sub := range sh.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	h.mu.Unlock()
	if dropped > 0 {
		logx.WithSession(context.Background(), sessionID).Warn("hub event dropped", "type", event.Type, "dropped", dropped)
	}
}

func (h *Hub) getOrCreateLocked(sessionID schema.SessionID) *sessionHub {
	sh := h.sessions[sessionID]
	if sh == nil {
		sh = &sessionHub{
			subs: make(map[chan StreamEvent]struct{}),
		}
		h.sessions[sessionID] = sh
	}
	return sh
}

type sessionHub struct {
	seq     uint64
	history []StreamEvent
	subs    map[chan StreamEvent]struct{}
	closed  bool
}
