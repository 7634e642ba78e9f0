package schema

// Session lifecycle.

// OpenSessionRequest describes a request to open a terminal session.
type OpenSessionRequest struct{}

// OpenSessionResponse reports the opened session and its welcome transcript.
type OpenSessionResponse struct {
	Session    SessionSnapshot
	Transcript []TranscriptLine
}

// CloseSessionRequest describes a request to close a session.
type CloseSessionRequest struct {
	SessionID SessionID
}

// CloseSessionResponse reports the final session snapshot.
type CloseSessionResponse struct {
	Session SessionSnapshot
}

// GetSessionRequest describes a request for a session snapshot.
type GetSessionRequest struct {
	SessionID SessionID
}

// GetSessionResponse reports a session snapshot.
type GetSessionResponse struct {
	Session SessionSnapshot
}

// Input handling.

// SubmitRequest commits raw input as a command.
type SubmitRequest struct {
	SessionID SessionID
	Input     string
}

// SubmitResponse reports what a submit did.
type SubmitResponse struct {
	// Ignored is set when the input was blank and nothing happened.
	Ignored    bool
	Command    CommandID
	Normalized string
	// Lines holds every line appended to the transcript, echo included.
	Lines       []TranscriptLine
	Cleared     bool
	ScrollToEnd bool
	// Exit is set when the command asked the host to close the terminal.
	Exit bool
}

// RecallRequest moves the history cursor.
type RecallRequest struct {
	SessionID SessionID
	Direction RecallDirection
}

// RecallResponse reports the input buffer after recall.
type RecallResponse struct {
	Input   string
	Cursor  int
	Changed bool
}

// TypeInputRequest replaces the input buffer.
type TypeInputRequest struct {
	SessionID SessionID
	Text      string
}

// TypeInputResponse reports the input buffer state.
type TypeInputResponse struct {
	Input  string
	Cursor int
}

// Views.

// GetTranscriptRequest describes a request for the transcript view.
type GetTranscriptRequest struct {
	SessionID SessionID
	Limit     int
}

// GetTranscriptResponse reports the transcript view.
type GetTranscriptResponse struct {
	Transcript TranscriptSnapshot
}

// ScrollTranscriptRequest moves the transcript viewport.
type ScrollTranscriptRequest struct {
	SessionID SessionID
	Delta     int
	Limit     int
}

// ScrollTranscriptResponse reports the transcript view after scrolling.
type ScrollTranscriptResponse struct {
	Transcript TranscriptSnapshot
}

// GetStatusRequest describes a request for session status.
type GetStatusRequest struct {
	SessionID SessionID
}

// GetStatusResponse reports session status.
type GetStatusResponse struct {
	Status StatusSnapshot
}

// GetHistoryRequest describes a request for command history.
type GetHistoryRequest struct {
	SessionID SessionID
}

// GetHistoryResponse reports command history, oldest first.
type GetHistoryResponse struct {
	Entries []string
	Cursor  int
}
