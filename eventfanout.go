package hackterm

import (
	"pkt.systems/hackterm/core"
	"pkt.systems/hackterm/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnTranscript(event schema.TranscriptEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnTranscript(event)
	}
}

func (f eventFanout) OnStatus(event schema.StatusEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnStatus(event)
	}
}

func (f eventFanout) OnInput(event schema.InputEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnInput(event)
	}
}

func (f eventFanout) OnSession(event schema.SessionEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnSession(event)
	}
}

// fanout collapses sinks into a single EventSink, dropping nils and
// duplicates.
func fanout(sinks ...core.EventSink) core.EventSink {
	out := make([]core.EventSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink == nil {
			continue
		}
		dup := false
		for _, existing := range out {
			if existing == sink {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, sink)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return eventFanout{sinks: out}
	}
}
