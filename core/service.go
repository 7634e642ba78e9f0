package core

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"pkt.systems/hackterm/internal/clock"
	"pkt.systems/hackterm/internal/logx"
	"pkt.systems/hackterm/schema"
	"pkt.systems/pslog"
)

var errMissingContext = fmt.Errorf("%w: missing context", schema.ErrInvalidRequest)

// service implements the core service behavior.
type service struct {
	cfg      schema.ServiceConfig
	interp   *Interpreter
	sched    clock.Scheduler
	rand     func() float64
	now      func() time.Time
	sink     EventSink
	logger   pslog.Logger
	mu       sync.Mutex
	sessions map[schema.SessionID]*session
}

// NewService constructs the core service implementation.
func NewService(cfg schema.ServiceConfig, deps ServiceDeps) (Service, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	catalog := DefaultCatalog()
	if deps.Catalog != nil {
		catalog = *deps.Catalog
	}
	if deps.Scheduler == nil {
		deps.Scheduler = clock.Real()
	}
	if deps.Rand == nil {
		deps.Rand = rand.Float64
	}
	if deps.Now == nil {
		deps.Now = deps.Scheduler.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &service{
		cfg:      normalized,
		interp:   NewInterpreter(catalog),
		sched:    deps.Scheduler,
		rand:     deps.Rand,
		now:      deps.Now,
		sink:     deps.EventSink,
		logger:   logger,
		sessions: make(map[schema.SessionID]*session),
	}, nil
}

func (s *service) Catalog() Catalog {
	return s.interp.Catalog()
}

func (s *service) OpenSession(ctx context.Context, _ schema.OpenSessionRequest) (schema.OpenSessionResponse, error) {
	if ctx == nil {
		return schema.OpenSessionResponse{}, errMissingContext
	}
	id := newSessionID()
	log := logx.WithSession(ctx, id)
	welcome := s.interp.catalog.WelcomeTranscript()
	sess := newSession(id, s.cfg, s.sched, s.rand, s.now(), welcome)
	sess.onStatus = func(status schema.StatusSnapshot) {
		s.emitStatus(id, status)
	}

	s.mu.Lock()
	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		open := len(s.sessions)
		s.mu.Unlock()
		log.Warn("service session open rejected", "open", open, "max", s.cfg.MaxSessions)
		return schema.OpenSessionResponse{}, schema.ErrTooManySessions
	}
	s.sessions[id] = sess
	open := len(s.sessions)
	s.mu.Unlock()

	log.Info("service session opened", "open", open)
	s.emitSession(id, schema.SessionEventOpened)
	return schema.OpenSessionResponse{
		Session:    sess.snapshot(),
		Transcript: welcome,
	}, nil
}

func (s *service) CloseSession(ctx context.Context, req schema.CloseSessionRequest) (schema.CloseSessionResponse, error) {
	if ctx == nil {
		return schema.CloseSessionResponse{}, errMissingContext
	}
	id, err := schema.NormalizeSessionID(req.SessionID)
	if err != nil {
		return schema.CloseSessionResponse{}, err
	}
	log := logx.WithSession(ctx, id)

	s.mu.Lock()
	sess := s.sessions[id]
	delete(s.sessions, id)
	open := len(s.sessions)
	s.mu.Unlock()
	if sess == nil {
		log.Warn("service session close failed", "err", schema.ErrSessionNotFound)
		return schema.CloseSessionResponse{}, schema.ErrSessionNotFound
	}

	snapshot, _ := sess.close()
	log.Info("service session closed", "open", open, "history", snapshot.HistoryLen)
	s.emitSession(id, schema.SessionEventClosed)
	return schema.CloseSessionResponse{Session: snapshot}, nil
}

func (s *service) CloseAll(ctx context.Context) int {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		sessions = append(sessions, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
		s.emitSession(sess.id, schema.SessionEventClosed)
	}
	if len(sessions) > 0 {
		pslog.Ctx(ctx).Info("service sessions closed", "count", len(sessions))
	}
	return len(sessions)
}

func (s *service) GetSession(ctx context.Context, req schema.GetSessionRequest) (schema.GetSessionResponse, error) {
	sess, _, err := s.lookup(ctx, req.SessionID, "session get")
	if err != nil {
		return schema.GetSessionResponse{}, err
	}
	return schema.GetSessionResponse{Session: sess.snapshot()}, nil
}

func (s *service) Submit(ctx context.Context, req schema.SubmitRequest) (schema.SubmitResponse, error) {
	sess, log, err := s.lookup(ctx, req.SessionID, "submit")
	if err != nil {
		return schema.SubmitResponse{}, err
	}
	out, err := sess.submit(s.interp, req.Input)
	if err != nil {
		log.Warn("service submit failed", "err", err)
		return schema.SubmitResponse{}, err
	}
	if out.ignored {
		log.Trace("service submit ignored blank input")
		return schema.SubmitResponse{Ignored: true}, nil
	}

	res := out.result
	if !s.cfg.DisableCommandLogging {
		logx.WithCommand(log, res.Command, res.Normalized).Debug("service submit", "effect", res.Effect.String(), "lines", len(out.lines))
	}
	s.emitTranscript(schema.TranscriptEvent{
		SessionID:   sess.id,
		Lines:       out.lines,
		Cleared:     out.cleared,
		ScrollToEnd: true,
		Revision:    out.revision,
	})
	s.emitInput(sess.id, "", -1)
	if out.statusChanged {
		sess.publishStatus()
	}
	return schema.SubmitResponse{
		Command:     res.Command,
		Normalized:  res.Normalized,
		Lines:       out.lines,
		Cleared:     out.cleared,
		ScrollToEnd: true,
		Exit:        res.Effect == EffectExit,
	}, nil
}

func (s *service) Recall(ctx context.Context, req schema.RecallRequest) (schema.RecallResponse, error) {
	sess, log, err := s.lookup(ctx, req.SessionID, "recall")
	if err != nil {
		return schema.RecallResponse{}, err
	}
	resp, err := sess.recall(req.Direction)
	if err != nil {
		log.Warn("service recall failed", "direction", req.Direction, "err", err)
		return schema.RecallResponse{}, err
	}
	log.Trace("service recall", "direction", req.Direction, "cursor", resp.Cursor, "changed", resp.Changed)
	if resp.Changed {
		s.emitInput(sess.id, resp.Input, resp.Cursor)
	}
	return resp, nil
}

func (s *service) TypeInput(ctx context.Context, req schema.TypeInputRequest) (schema.TypeInputResponse, error) {
	sess, log, err := s.lookup(ctx, req.SessionID, "input")
	if err != nil {
		return schema.TypeInputResponse{}, err
	}
	resp, err := sess.typeInto(req.Text)
	if err != nil {
		log.Warn("service input failed", "err", err)
		return schema.TypeInputResponse{}, err
	}
	s.emitInput(sess.id, resp.Input, resp.Cursor)
	return resp, nil
}

func (s *service) GetTranscript(ctx context.Context, req schema.GetTranscriptRequest) (schema.GetTranscriptResponse, error) {
	sess, log, err := s.lookup(ctx, req.SessionID, "transcript get")
	if err != nil {
		return schema.GetTranscriptResponse{}, err
	}
	view := sess.transcriptView(req.Limit)
	log.Trace("service transcript snapshot", "lines", view.TotalLines, "offset", view.ScrollOffset, "limit", req.Limit)
	return schema.GetTranscriptResponse{Transcript: mapTranscriptSnapshot(sess.id, view)}, nil
}

func (s *service) ScrollTranscript(ctx context.Context, req schema.ScrollTranscriptRequest) (schema.ScrollTranscriptResponse, error) {
	sess, log, err := s.lookup(ctx, req.SessionID, "transcript scroll")
	if err != nil {
		return schema.ScrollTranscriptResponse{}, err
	}
	view := sess.scroll(req.Delta, req.Limit)
	log.Debug("service transcript scrolled", "offset", view.ScrollOffset, "limit", req.Limit)
	return schema.ScrollTranscriptResponse{Transcript: mapTranscriptSnapshot(sess.id, view)}, nil
}

func (s *service) GetStatus(ctx context.Context, req schema.GetStatusRequest) (schema.GetStatusResponse, error) {
	sess, _, err := s.lookup(ctx, req.SessionID, "status get")
	if err != nil {
		return schema.GetStatusResponse{}, err
	}
	return schema.GetStatusResponse{Status: sess.statusSnapshot()}, nil
}

func (s *service) GetHistory(ctx context.Context, req schema.GetHistoryRequest) (schema.GetHistoryResponse, error) {
	sess, _, err := s.lookup(ctx, req.SessionID, "history get")
	if err != nil {
		return schema.GetHistoryResponse{}, err
	}
	entries, cursor := sess.historySnapshot()
	return schema.GetHistoryResponse{Entries: entries, Cursor: cursor}, nil
}

func (s *service) lookup(ctx context.Context, id schema.SessionID, op string) (*session, pslog.Logger, error) {
	if ctx == nil {
		return nil, nil, errMissingContext
	}
	id, err := schema.NormalizeSessionID(id)
	if err != nil {
		return nil, nil, err
	}
	log := logx.WithSession(ctx, id)
	s.mu.Lock()
	sess := s.sessions[id]
	s.mu.Unlock()
	if sess == nil {
		log.Warn("service "+op+" failed", "err", schema.ErrSessionNotFound)
		return nil, log, schema.ErrSessionNotFound
	}
	return sess, log, nil
}

func (s *service) emitTranscript(event schema.TranscriptEvent) {
	if s.sink == nil {
		return
	}
	event.Lines = append([]schema.TranscriptLine(nil), event.Lines...)
	s.sink.OnTranscript(event)
}

func (s *service) emitStatus(id schema.SessionID, status schema.StatusSnapshot) {
	if s.sink == nil {
		return
	}
	s.sink.OnStatus(schema.StatusEvent{SessionID: id, Status: status})
}

func (s *service) emitInput(id schema.SessionID, input string, cursor int) {
	if s.sink == nil {
		return
	}
	s.sink.OnInput(schema.InputEvent{SessionID: id, Input: input, Cursor: cursor})
}

func (s *service) emitSession(id schema.SessionID, kind schema.SessionEventType) {
	if s.sink == nil {
		return
	}
	s.sink.OnSession(schema.SessionEvent{SessionID: id, Type: kind})
}

func mapTranscriptSnapshot(id schema.SessionID, view transcriptView) schema.TranscriptSnapshot {
	return schema.TranscriptSnapshot{
		SessionID:    id,
		Lines:        view.Lines,
		TotalLines:   view.TotalLines,
		ScrollOffset: view.ScrollOffset,
		AtBottom:     view.AtBottom,
		Revision:     view.Revision,
	}
}
