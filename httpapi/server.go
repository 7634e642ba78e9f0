package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"pkt.systems/hackterm/core"
	"pkt.systems/hackterm/internal/logx"
	"pkt.systems/hackterm/schema"
	"pkt.systems/pslog"
)

const maxRequestBody = 64 << 10

var errRateLimited = errors.New("rate limited")

// Server serves the HTTP API and UI.
type Server struct {
	cfg      Config
	service  core.Service
	sessions *sessionStore
	hub      *Hub
	basePath string
	baseHref string

	mu      sync.Mutex
	baseCtx context.Context
}

// NewServer constructs an HTTP server. The hub must be registered as an
// event sink of service for streams to receive events.
func NewServer(cfg Config, service core.Service, hub *Hub) *Server {
	cfg = cfg.withDefaults()
	if hub == nil {
		hub = NewHub(0)
	}
	s := &Server{
		cfg:      cfg,
		service:  service,
		sessions: newSessionStore(time.Duration(cfg.SessionTTLHours)*time.Hour, cfg.RateLimit, cfg.RateBurst),
		hub:      hub,
		basePath: normalizeBasePath(cfg.BasePath),
		baseHref: buildBaseHref(cfg.BaseURL, cfg.BasePath),
		baseCtx:  context.Background(),
	}
	s.sessions.onExpire = s.closeExpired
	return s
}

// SetBaseContext sets the context used for work not tied to a request,
// such as closing expired sessions.
func (s *Server) SetBaseContext(ctx context.Context) {
	if s == nil || ctx == nil {
		return
	}
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
}

func (s *Server) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}

// RunSweeper closes expired cookie sessions every interval until ctx is done.
func (s *Server) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.sweep(); n > 0 {
				pslog.Ctx(ctx).Debug("http sessions swept", "expired", n)
			}
		}
	}
}

func (s *Server) closeExpired(id schema.SessionID) {
	ctx := s.baseContext()
	if _, err := s.service.CloseSession(ctx, schema.CloseSessionRequest{SessionID: id}); err != nil && !errors.Is(err, schema.ErrSessionNotFound) {
		logx.WithSession(ctx, id).Warn("http expired session close failed", "err", err)
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(withRequestLogging(s.lookupSession))
	r.Use(middleware.Recoverer)
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Last-Event-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/", s.handleIndex)
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", s.handleSession)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/transcript", s.handleTranscript)
			r.Get("/status", s.handleStatus)
			r.Get("/history", s.handleHistory)
			r.Get("/stream", s.handleStream)
			r.Get("/ws", s.handleWebSocket)
			r.Group(func(r chi.Router) {
				r.Use(s.rateLimited)
				r.Post("/session/reset", s.handleReset)
				r.Post("/submit", s.handleSubmit)
				r.Post("/recall", s.handleRecall)
				r.Post("/input", s.handleInput)
				r.Post("/transcript/scroll", s.handleScroll)
			})
		})
	})

	return mountBasePath(s.basePath, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(assetsFS, "index.html")
	if err != nil {
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	stat, err := fs.Stat(assetsFS, "index.html")
	if err != nil {
		http.Error(w, "index not found", http.StatusInternalServerError)
		return
	}
	data = applyBaseHref(data, s.baseHref)
	data = applyUIMaxBufferLines(data, s.cfg.UIMaxBufferLines)
	data = applyTheme(data, s.cfg.Theme)
	http.ServeContent(w, r, "index.html", stat.ModTime(), bytes.NewReader(data))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

const baseHrefPlaceholder = "<!-- BASE_HREF -->"
const uiMaxBufferLinesPlaceholder = "UI_MAX_BUFFER_LINES"
const uiThemePlaceholder = "UI_THEME"
const defaultUIMaxBufferLines = 2000

func applyBaseHref(data []byte, baseHref string) []byte {
	replacement := ""
	if strings.TrimSpace(baseHref) != "" {
		replacement = fmt.Sprintf(`<base href="%s" />`, html.EscapeString(baseHref))
	}
	return bytes.ReplaceAll(data, []byte(baseHrefPlaceholder), []byte(replacement))
}

func applyUIMaxBufferLines(data []byte, maxLines int) []byte {
	if maxLines <= 0 {
		maxLines = defaultUIMaxBufferLines
	}
	return bytes.ReplaceAll(data, []byte(uiMaxBufferLinesPlaceholder), []byte(strconv.Itoa(maxLines)))
}

func applyTheme(data []byte, theme schema.ThemeName) []byte {
	if theme == "" {
		theme = schema.DefaultTheme
	}
	return bytes.ReplaceAll(data, []byte(uiThemePlaceholder), []byte(html.EscapeString(string(theme))))
}

// handleSession returns the caller's terminal, opening one when the cookie
// is missing, expired, or points at a closed session.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	log := logx.Ctx(r.Context()).With("remote", clientIP(r))
	token := s.sessionToken(r)
	if entry, ok := s.sessions.get(token); ok {
		if _, err := s.service.GetSession(r.Context(), schema.GetSessionRequest{SessionID: entry.coreID}); err == nil {
			writeJSON(w, http.StatusOK, s.buildSnapshot(r.Context(), entry.coreID))
			return
		}
		opened, err := s.service.OpenSession(r.Context(), schema.OpenSessionRequest{})
		if err != nil {
			log.Warn("http session reopen failed", "err", err)
			writeServiceError(w, err)
			return
		}
		s.sessions.rebind(token, opened.Session.ID)
		logx.WithSession(r.Context(), opened.Session.ID).With("http_session", entry.id).Info("http session reopened", "previous", entry.coreID)
		writeJSON(w, http.StatusOK, s.buildSnapshot(r.Context(), opened.Session.ID))
		return
	}

	opened, err := s.service.OpenSession(r.Context(), schema.OpenSessionRequest{})
	if err != nil {
		log.Warn("http session open failed", "err", err)
		writeServiceError(w, err)
		return
	}
	token, entry := s.sessions.create(opened.Session.ID)
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  entry.expiresAt,
	})
	writeJSON(w, http.StatusOK, s.buildSnapshot(r.Context(), opened.Session.ID))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	token, entry := sessionFromContext(r.Context())
	coreID, err := s.resetSession(r.Context(), token, entry)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.buildSnapshot(r.Context(), coreID))
}

func (s *Server) resetSession(ctx context.Context, token string, entry session) (schema.SessionID, error) {
	log := logx.Ctx(ctx)
	if _, err := s.service.CloseSession(ctx, schema.CloseSessionRequest{SessionID: entry.coreID}); err != nil && !errors.Is(err, schema.ErrSessionNotFound) {
		log.Warn("http session reset close failed", "err", err)
		return "", err
	}
	opened, err := s.service.OpenSession(ctx, schema.OpenSessionRequest{})
	if err != nil {
		log.Warn("http session reset open failed", "err", err)
		return "", err
	}
	if _, ok := s.sessions.rebind(token, opened.Session.ID); !ok {
		return "", schema.ErrSessionNotFound
	}
	log.Info("http session reset", "next", opened.Session.ID)
	return opened.Session.ID, nil
}

type submitPayload struct {
	Ignored     bool                    `json:"ignored,omitempty"`
	Command     string                  `json:"command,omitempty"`
	Normalized  string                  `json:"normalized,omitempty"`
	Lines       []schema.TranscriptLine `json:"lines,omitempty"`
	Cleared     bool                    `json:"cleared,omitempty"`
	ScrollToEnd bool                    `json:"scroll_to_end,omitempty"`
	Exit        bool                    `json:"exit,omitempty"`
}

func mapSubmit(resp schema.SubmitResponse) submitPayload {
	if resp.Ignored {
		return submitPayload{Ignored: true}
	}
	return submitPayload{
		Command:     resp.Command.String(),
		Normalized:  resp.Normalized,
		Lines:       resp.Lines,
		Cleared:     resp.Cleared,
		ScrollToEnd: resp.ScrollToEnd,
		Exit:        resp.Exit,
	}
}

type recallPayload struct {
	Input   string `json:"input"`
	Cursor  int    `json:"cursor"`
	Changed bool   `json:"changed"`
}

type inputPayload struct {
	Input  string `json:"input"`
	Cursor int    `json:"cursor"`
}

type historyPayload struct {
	Entries []string `json:"entries"`
	Cursor  int      `json:"cursor"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	_, entry := sessionFromContext(r.Context())
	var payload struct {
		Input string `json:"input"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		logx.Ctx(r.Context()).Warn("http submit decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.Submit(r.Context(), schema.SubmitRequest{SessionID: entry.coreID, Input: payload.Input})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSubmit(resp))
}

func (s *Server) handleRecall(w http.ResponseWriter, r *http.Request) {
	_, entry := sessionFromContext(r.Context())
	var payload struct {
		Direction string `json:"direction"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.recall(r.Context(), entry.coreID, payload.Direction)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recallPayload{Input: resp.Input, Cursor: resp.Cursor, Changed: resp.Changed})
}

func (s *Server) recall(ctx context.Context, id schema.SessionID, raw string) (schema.RecallResponse, error) {
	direction, err := schema.NormalizeRecallDirection(raw)
	if err != nil {
		return schema.RecallResponse{}, err
	}
	return s.service.Recall(ctx, schema.RecallRequest{SessionID: id, Direction: direction})
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	_, entry := sessionFromContext(r.Context())
	var payload struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.TypeInput(r.Context(), schema.TypeInputRequest{SessionID: entry.coreID, Text: payload.Text})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inputPayload{Input: resp.Input, Cursor: resp.Cursor})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	_, entry := sessionFromContext(r.Context())
	limit := parseInt(r.URL.Query().Get("limit"), s.cfg.InitialBufferLines)
	resp, err := s.service.GetTranscript(r.Context(), schema.GetTranscriptRequest{SessionID: entry.coreID, Limit: limit})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Transcript)
}

func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	_, entry := sessionFromContext(r.Context())
	var payload struct {
		Delta int `json:"delta"`
		Limit int `json:"limit"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.ScrollTranscript(r.Context(), schema.ScrollTranscriptRequest{
		SessionID: entry.coreID,
		Delta:     payload.Delta,
		Limit:     payload.Limit,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Transcript)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	_, entry := sessionFromContext(r.Context())
	resp, err := s.service.GetStatus(r.Context(), schema.GetStatusRequest{SessionID: entry.coreID})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Status)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	_, entry := sessionFromContext(r.Context())
	resp, err := s.service.GetHistory(r.Context(), schema.GetHistoryRequest{SessionID: entry.coreID})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	entries := resp.Entries
	if entries == nil {
		entries = []string{}
	}
	writeJSON(w, http.StatusOK, historyPayload{Entries: entries, Cursor: resp.Cursor})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	_, entry := sessionFromContext(r.Context())
	log := logx.Ctx(r.Context())
	if _, err := s.service.GetSession(r.Context(), schema.GetSessionRequest{SessionID: entry.coreID}); err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := parseUint(r.Header.Get("Last-Event-ID"))

	ch, unsubscribe, seq, history := s.hub.Subscribe(entry.coreID)
	defer unsubscribe()

	// Subscribed first so nothing is missed; events the snapshot already
	// covers are skipped below.
	snapshot := s.buildSnapshot(r.Context(), entry.coreID)
	covered := snapshot.Transcript.Revision
	_ = writeSSEvent(w, StreamEvent{
		Type:      "snapshot",
		Snapshot:  &snapshot,
		Timestamp: time.Now(),
	})

	replayCount := 0
	if lastID > 0 && lastID < seq {
		for _, event := range replayAfter(history, lastID) {
			if coveredBy(event, covered) {
				continue
			}
			_ = writeSSEvent(w, event)
			replayCount++
		}
	}
	flusher.Flush()

	notify := r.Context().Done()
	log.Info("http stream opened", "last_id", lastID, "replay", replayCount, "seq", seq)
	for {
		select {
		case <-notify:
			log.Info("http stream closed")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if coveredBy(event, covered) {
				continue
			}
			_ = writeSSEvent(w, event)
			flusher.Flush()
		}
	}
}

func (s *Server) buildSnapshot(ctx context.Context, id schema.SessionID) SnapshotPayload {
	payload := SnapshotPayload{
		History:      []string{},
		Presentation: s.presentation(),
	}
	if resp, err := s.service.GetSession(ctx, schema.GetSessionRequest{SessionID: id}); err == nil {
		payload.Session = resp.Session
	}
	if resp, err := s.service.GetTranscript(ctx, schema.GetTranscriptRequest{SessionID: id, Limit: s.cfg.InitialBufferLines}); err == nil {
		payload.Transcript = resp.Transcript
	}
	if resp, err := s.service.GetHistory(ctx, schema.GetHistoryRequest{SessionID: id}); err == nil && resp.Entries != nil {
		payload.History = resp.Entries
	}
	return payload
}

func (s *Server) presentation() Presentation {
	catalog := s.service.Catalog()
	return Presentation{
		Title:        catalog.Title,
		Tagline:      catalog.Tagline,
		Placeholder:  catalog.Placeholder,
		Hints:        append([]string(nil), catalog.Hints...),
		Footer:       catalog.Footer,
		MatrixFooter: catalog.MatrixFooter,
		Theme:        s.cfg.Theme,
	}
}

type sessionContextKey struct{}

type sessionContextValue struct {
	token string
	entry session
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logx.Ctx(r.Context()).With("remote", clientIP(r))
		token := s.sessionToken(r)
		if token == "" {
			log.Warn("http session missing")
			writeError(w, http.StatusNotFound, schema.ErrSessionNotFound)
			return
		}
		entry, ok := s.sessions.get(token)
		if !ok {
			log.Warn("http session invalid")
			writeError(w, http.StatusNotFound, schema.ErrSessionNotFound)
			return
		}
		log = log.With("session", entry.coreID, "http_session", entry.id)
		ctx := logx.ContextWithSessionLogger(r.Context(), log, entry.coreID)
		ctx = logx.ContextWithTransport(ctx, "http")
		ctx = context.WithValue(ctx, sessionContextKey{}, sessionContextValue{token: token, entry: entry})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, entry := sessionFromContext(r.Context())
		if entry.limiter != nil && !entry.limiter.Allow() {
			logx.Ctx(r.Context()).Warn("http rate limited", "path", r.URL.Path)
			writeError(w, http.StatusTooManyRequests, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionFromContext(ctx context.Context) (string, session) {
	value, _ := ctx.Value(sessionContextKey{}).(sessionContextValue)
	return value.token, value.entry
}

func (s *Server) sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(s.cfg.SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (s *Server) lookupSession(r *http.Request) (schema.SessionID, string) {
	if s == nil || r == nil {
		return "", ""
	}
	if token, entry := sessionFromContext(r.Context()); token != "" {
		return entry.coreID, entry.id
	}
	token := s.sessionToken(r)
	if token == "" {
		return "", ""
	}
	entry, ok := s.sessions.get(token)
	if !ok {
		return "", ""
	}
	return entry.coreID, entry.id
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", schema.ErrInvalidRequest)
		}
		return fmt.Errorf("%w: %v", schema.ErrInvalidRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusForError(err), err)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, schema.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, schema.ErrInvalidRequest),
		errors.Is(err, schema.ErrInvalidSession),
		errors.Is(err, schema.ErrInvalidRecall):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
