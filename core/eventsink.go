package core

import "pkt.systems/hackterm/schema"

// EventSink receives session events from the core service. Events are
// delivered after the session lock is released, in the order they happened
// within one session.
type EventSink interface {
	OnTranscript(event schema.TranscriptEvent)
	OnStatus(event schema.StatusEvent)
	OnInput(event schema.InputEvent)
	OnSession(event schema.SessionEvent)
}
