package schema

// TranscriptEvent reports lines appended to a transcript.
type TranscriptEvent struct {
	SessionID SessionID        `json:"session_id"`
	Lines     []TranscriptLine `json:"lines,omitempty"`
	// Cleared is set when the transcript was reset before Lines were appended.
	Cleared     bool `json:"cleared,omitempty"`
	ScrollToEnd bool `json:"scroll_to_end,omitempty"`
	// Revision is the transcript revision after this change.
	Revision uint64 `json:"revision,omitempty"`
}

// StatusEvent reports a status change.
type StatusEvent struct {
	SessionID SessionID      `json:"session_id"`
	Status    StatusSnapshot `json:"status"`
}

// InputEvent reports a change to the input buffer or recall cursor.
type InputEvent struct {
	SessionID SessionID `json:"session_id"`
	Input     string    `json:"input"`
	Cursor    int       `json:"cursor"`
}

// SessionEventType describes session lifecycle changes.
type SessionEventType string

const (
	// SessionEventOpened indicates a session was opened.
	SessionEventOpened SessionEventType = "opened"
	// SessionEventClosed indicates a session was closed.
	SessionEventClosed SessionEventType = "closed"
)

// SessionEvent represents a session lifecycle change.
type SessionEvent struct {
	SessionID SessionID        `json:"session_id"`
	Type      SessionEventType `json:"type"`
}
