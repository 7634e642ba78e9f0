package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"pkt.systems/hackterm/internal/logx"
	"pkt.systems/hackterm/schema"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
	wsReadLimit  = 64 << 10
)

// wsClientMessage is a command sent by a WebSocket client.
type wsClientMessage struct {
	ID        string `json:"id,omitempty"`
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// wsAck answers one client message.
type wsAck struct {
	Type   string         `json:"type"`
	ID     string         `json:"id,omitempty"`
	OK     bool           `json:"ok"`
	Error  string         `json:"error,omitempty"`
	Submit *submitPayload `json:"submit,omitempty"`
	Recall *recallPayload `json:"recall,omitempty"`
	Input  *inputPayload  `json:"input,omitempty"`
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	token, entry := sessionFromContext(r.Context())
	ctx := logx.ContextWithTransport(r.Context(), "ws")
	log := logx.Ctx(ctx)
	if _, err := s.service.GetSession(ctx, schema.GetSessionRequest{SessionID: entry.coreID}); err != nil {
		writeServiceError(w, err)
		return
	}
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("http ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	incoming := make(chan wsClientMessage)
	readErr := make(chan error, 1)
	go func() {
		for {
			var msg wsClientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				readErr <- err
				return
			}
			select {
			case incoming <- msg:
			case <-done:
				return
			}
		}
	}()

	write := func(v any) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(v)
	}

	coreID := entry.coreID
	events, unsubscribe, _, _ := s.hub.Subscribe(coreID)
	defer func() { unsubscribe() }()
	snapshot := s.buildSnapshot(ctx, coreID)
	covered := snapshot.Transcript.Revision
	if err := write(StreamEvent{Type: "snapshot", Snapshot: &snapshot, Timestamp: time.Now()}); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	log.Info("http ws opened")
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("http ws read failed", "err", err)
			}
			log.Info("http ws closed")
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if coveredBy(event, covered) {
				continue
			}
			if err := write(event); err != nil {
				log.Debug("http ws write failed", "err", err)
				return
			}
		case msg := <-incoming:
			ack, next := s.handleWSMessage(ctx, token, entry, coreID, msg)
			if next != "" && next != coreID {
				unsubscribe()
				coreID = next
				events, unsubscribe, _, _ = s.hub.Subscribe(coreID)
				snapshot := s.buildSnapshot(ctx, coreID)
				covered = snapshot.Transcript.Revision
				if err := write(StreamEvent{Type: "snapshot", Snapshot: &snapshot, Timestamp: time.Now()}); err != nil {
					return
				}
			}
			if err := write(ack); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

// handleWSMessage executes one client message. It returns the session id the
// connection should follow when the message replaced the session.
func (s *Server) handleWSMessage(ctx context.Context, token string, entry session, coreID schema.SessionID, msg wsClientMessage) (wsAck, schema.SessionID) {
	ack := wsAck{Type: "ack", ID: msg.ID}
	if entry.limiter != nil && !entry.limiter.Allow() {
		ack.Error = errRateLimited.Error()
		return ack, ""
	}
	var next schema.SessionID
	var err error
	switch strings.ToLower(strings.TrimSpace(msg.Type)) {
	case "submit":
		var resp schema.SubmitResponse
		resp, err = s.service.Submit(ctx, schema.SubmitRequest{SessionID: coreID, Input: msg.Text})
		if err == nil {
			payload := mapSubmit(resp)
			ack.Submit = &payload
		}
	case "input":
		var resp schema.TypeInputResponse
		resp, err = s.service.TypeInput(ctx, schema.TypeInputRequest{SessionID: coreID, Text: msg.Text})
		if err == nil {
			ack.Input = &inputPayload{Input: resp.Input, Cursor: resp.Cursor}
		}
	case "recall":
		var resp schema.RecallResponse
		resp, err = s.recall(ctx, coreID, msg.Direction)
		if err == nil {
			ack.Recall = &recallPayload{Input: resp.Input, Cursor: resp.Cursor, Changed: resp.Changed}
		}
	case "reset":
		entry.coreID = coreID
		next, err = s.resetSession(ctx, token, entry)
	default:
		err = errors.New("unknown message type")
	}
	if err != nil {
		logx.Ctx(ctx).Warn("http ws message failed", "type", msg.Type, "err", err)
		ack.Error = err.Error()
		return ack, ""
	}
	ack.OK = true
	return ack, next
}
