package core

import (
	"strings"
	"sync"
	"time"

	"pkt.systems/hackterm/internal/clock"
	"pkt.systems/hackterm/schema"
)

// session owns one terminal's state. User operations and timer callbacks
// are serialized by mu.
type session struct {
	id       schema.SessionID
	openedAt time.Time
	cfg      schema.ServiceConfig
	sched    clock.Scheduler
	rand     func() float64
	// onStatus receives status changes through publishStatus, never with mu
	// held.
	onStatus func(schema.StatusSnapshot)
	// emitMu orders status publication so the last event carries the latest
	// status. Taken before mu, never after.
	emitMu sync.Mutex

	mu         sync.Mutex
	transcript *transcript
	history    *history
	input      string
	status     schema.StatusSnapshot
	closed     bool
	timerSeq   uint64
	timers     map[uint64]clock.Cancel
	scanTimer  uint64
}

type submitOutcome struct {
	ignored       bool
	result        Result
	lines         []schema.TranscriptLine
	cleared       bool
	statusChanged bool
	revision      uint64
}

func newSession(id schema.SessionID, cfg schema.ServiceConfig, sched clock.Scheduler, rnd func() float64, openedAt time.Time, welcome []schema.TranscriptLine) *session {
	return &session{
		id:         id,
		openedAt:   openedAt,
		cfg:        cfg,
		sched:      sched,
		rand:       rnd,
		transcript: newTranscript(cfg.TranscriptMaxLines, welcome),
		history:    newHistory(cfg.HistoryMaxEntries),
		status:     schema.DefaultStatus(),
		timers:     make(map[uint64]clock.Cancel),
	}
}

func (s *session) submit(interp *Interpreter, raw string) (submitOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return submitOutcome{}, schema.ErrSessionNotFound
	}
	if strings.TrimSpace(raw) == "" {
		return submitOutcome{ignored: true}, nil
	}

	res := interp.Execute(raw)
	out := submitOutcome{result: res}
	if res.Effect == EffectClear {
		s.transcript.Clear()
		out.cleared = true
	} else {
		out.lines = make([]schema.TranscriptLine, 0, len(res.Lines)+1)
		out.lines = append(out.lines, schema.TranscriptLine{Kind: schema.LineCommand, Text: "$ " + raw})
		for _, text := range res.Lines {
			out.lines = append(out.lines, schema.TranscriptLine{Kind: schema.LineResponse, Text: text})
		}
		s.transcript.Append(out.lines...)
	}
	out.statusChanged = s.applyEffectLocked(res.Effect)
	s.history.Append(raw)
	s.input = ""
	s.transcript.ResetScroll()
	out.revision = s.transcript.Revision()
	return out, nil
}

func (s *session) applyEffectLocked(effect Effect) bool {
	switch effect {
	case EffectExploit:
		s.status.Scanning = true
		s.startTimerLocked(false, s.cfg.ExploitDuration, func() bool {
			if !s.status.Scanning {
				return false
			}
			s.status.Scanning = false
			return true
		})
		return true
	case EffectScan:
		if s.scanTimer != 0 && s.cfg.ScanPolicy == schema.ScanPolicyIgnore {
			changed := !s.status.Scanning
			s.status.Scanning = true
			return changed
		}
		if s.scanTimer != 0 {
			s.stopTimerLocked(s.scanTimer)
		}
		s.status.Scanning = true
		s.status.ScanProgress = 0
		s.scanTimer = s.startTimerLocked(true, s.cfg.ScanInterval, s.scanTickLocked)
		return true
	case EffectMatrix:
		s.status.MatrixMode = true
		s.startTimerLocked(false, s.cfg.MatrixDuration, func() bool {
			if !s.status.MatrixMode {
				return false
			}
			s.status.MatrixMode = false
			return true
		})
		return true
	default:
		return false
	}
}

func (s *session) scanTickLocked() bool {
	progress := s.status.ScanProgress + s.rand()*s.cfg.ScanMaxStep
	if progress >= s.cfg.ScanCeiling {
		progress = s.cfg.ScanCeiling
		s.stopTimerLocked(s.scanTimer)
		s.scanTimer = 0
		s.status.Scanning = false
	}
	s.status.ScanProgress = progress
	return true
}

func (s *session) startTimerLocked(repeating bool, d time.Duration, fn func() bool) uint64 {
	s.timerSeq++
	id := s.timerSeq
	run := func() { s.fire(id, repeating, fn) }
	if repeating {
		s.timers[id] = s.sched.Every(d, run)
	} else {
		s.timers[id] = s.sched.AfterFunc(d, run)
	}
	return id
}

func (s *session) stopTimerLocked(id uint64) {
	if cancel, ok := s.timers[id]; ok {
		cancel()
		delete(s.timers, id)
	}
}

func (s *session) fire(id uint64, repeating bool, fn func() bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if _, ok := s.timers[id]; !ok {
		s.mu.Unlock()
		return
	}
	if !repeating {
		delete(s.timers, id)
	}
	changed := fn()
	s.mu.Unlock()
	if changed {
		s.publishStatus()
	}
}

// publishStatus hands the current status to onStatus. The status is read
// under emitMu so the last event published carries the newest status.
func (s *session) publishStatus() {
	if s.onStatus == nil {
		return
	}
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.onStatus(s.statusSnapshot())
}

func (s *session) recall(direction schema.RecallDirection) (schema.RecallResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return schema.RecallResponse{}, schema.ErrSessionNotFound
	}
	var (
		text    string
		changed bool
	)
	switch direction {
	case schema.RecallPrevious:
		text, changed = s.history.Previous()
	case schema.RecallNext:
		text, changed = s.history.Next()
	default:
		return schema.RecallResponse{}, schema.ErrInvalidRecall
	}
	if changed {
		s.input = text
	}
	return schema.RecallResponse{Input: s.input, Cursor: s.history.Cursor(), Changed: changed}, nil
}

// typeInto replaces the input buffer. The recall cursor is left alone, so a
// later recall continues from wherever browsing stopped.
func (s *session) typeInto(text string) (schema.TypeInputResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return schema.TypeInputResponse{}, schema.ErrSessionNotFound
	}
	s.input = text
	return schema.TypeInputResponse{Input: s.input, Cursor: s.history.Cursor()}, nil
}

func (s *session) transcriptView(limit int) transcriptView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Snapshot(limit)
}

func (s *session) scroll(delta, limit int) transcriptView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript.Scroll(delta, limit)
	return s.transcript.Snapshot(limit)
}

func (s *session) statusSnapshot() schema.StatusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *session) historySnapshot() ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Entries(), s.history.Cursor()
}

func (s *session) snapshot() schema.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *session) snapshotLocked() schema.SessionSnapshot {
	return schema.SessionSnapshot{
		ID:            s.id,
		Input:         s.input,
		HistoryCursor: s.history.Cursor(),
		HistoryLen:    s.history.Len(),
		Status:        s.status,
		OpenedAt:      s.openedAt,
	}
}

// close abandons every pending timer. It reports false if already closed.
func (s *session) close() (schema.SessionSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.snapshotLocked(), false
	}
	s.closed = true
	for id, cancel := range s.timers {
		cancel()
		delete(s.timers, id)
	}
	s.scanTimer = 0
	return s.snapshotLocked(), true
}

func (s *session) pendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
