package sshserver

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	gliderssh "github.com/gliderlabs/ssh"

	"pkt.systems/hackterm/core"
	"pkt.systems/hackterm/internal/eventbus"
	"pkt.systems/hackterm/internal/logx"
	"pkt.systems/hackterm/schema"
	"pkt.systems/pslog"
)

// terminal is the byte stream of one interactive client.
type terminal interface {
	io.ReadWriter
	Exit(code int) error
}

// EventSource delivers core events for one session.
type EventSource interface {
	Subscribe(sessionID schema.SessionID) (<-chan eventbus.Event, func())
}

type terminalSession struct {
	term    terminal
	service core.Service
	bus     EventSource
	screen  *screen
	ctx     context.Context
	catalog core.Catalog
	theme   schema.ThemeName
	grace   time.Duration
	now     func() time.Time

	width  int
	height int

	sessionID  schema.SessionID
	transcript schema.TranscriptSnapshot
	status     schema.StatusSnapshot
	input      inputLine
	exiting    <-chan time.Time
	closed     bool
	dirty      bool
}

func newTerminalSession(term terminal, service core.Service, bus EventSource, cfg Config) *terminalSession {
	cfg = cfg.withDefaults()
	return &terminalSession{
		term:    term,
		service: service,
		bus:     bus,
		screen:  newScreen(term),
		catalog: service.Catalog(),
		theme:   cfg.Theme,
		grace:   cfg.ExitGrace,
		now:     time.Now,
		status:  schema.DefaultStatus(),
	}
}

func (t *terminalSession) log() pslog.Logger {
	ctx := t.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if t.sessionID == "" {
		return logx.Ctx(ctx)
	}
	return logx.WithSession(ctx, t.sessionID)
}

func (t *terminalSession) SetSize(width, height int) {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	t.width = width
	t.height = height
}

// Run opens a core session, drives it from the keyboard and returns when the
// client leaves or the session ends.
func (t *terminalSession) Run(ctx context.Context, winCh <-chan gliderssh.Window) error {
	if ctx == nil {
		ctx = context.Background()
	}
	t.ctx = ctx
	if t.width == 0 || t.height == 0 {
		t.SetSize(t.width, t.height)
	}

	opened, err := t.service.OpenSession(ctx, schema.OpenSessionRequest{})
	if err != nil {
		t.log().Warn("tui session open failed", "err", err)
		_, _ = io.WriteString(t.term, "terminal unavailable: "+err.Error()+"\r\n")
		return err
	}
	t.sessionID = opened.Session.ID
	t.status = opened.Session.Status
	t.ctx = logx.ContextWithSessionLogger(ctx, t.log(), t.sessionID)
	defer t.closeSession()

	var events <-chan eventbus.Event
	if t.bus != nil {
		var unsubscribe func()
		events, unsubscribe = t.bus.Subscribe(t.sessionID)
		defer unsubscribe()
	}

	t.screen.EnterAltScreen()
	defer t.screen.ExitAltScreen()

	t.refreshTranscript()
	t.render()
	t.log().Info("tui session start", "width", t.width, "height", t.height)

	keys := make(chan key, 16)
	go readKeys(t.term, keys)

	clockTicker := time.NewTicker(time.Second)
	defer clockTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case k, ok := <-keys:
			if !ok {
				return nil
			}
			if t.handleKey(k) {
				return nil
			}
		case win, ok := <-winCh:
			if ok {
				t.SetSize(win.Width, win.Height)
				t.screen.Invalidate()
				t.refreshTranscript()
				t.dirty = true
				t.log().Debug("tui resize", "width", t.width, "height", t.height)
			}
		case ev, ok := <-events:
			if !ok {
				events = nil
				break
			}
			if t.handleEvent(ev) {
				return nil
			}
		case <-clockTicker.C:
			t.dirty = true
		case <-t.exiting:
			t.log().Info("tui exit", "reason", "exit command")
			_ = t.term.Exit(0)
			return nil
		}

		if t.dirty {
			t.render()
			t.dirty = false
		}
	}
}

func (t *terminalSession) closeSession() {
	if t.closed || t.sessionID == "" {
		return
	}
	t.closed = true
	ctx := context.WithoutCancel(t.ctx)
	if _, err := t.service.CloseSession(ctx, schema.CloseSessionRequest{SessionID: t.sessionID}); err != nil && !errors.Is(err, schema.ErrSessionNotFound) {
		t.log().Warn("tui session close failed", "err", err)
	}
}

// handleEvent applies a core event and reports whether the terminal should
// close. Input events are ignored: the local editor owns the buffer.
func (t *terminalSession) handleEvent(ev eventbus.Event) bool {
	switch ev.Type {
	case eventbus.EventTranscript:
		t.refreshTranscript()
		t.dirty = true
	case eventbus.EventStatus:
		t.status = ev.Status.Status
		t.dirty = true
	case eventbus.EventSession:
		if ev.Session.Type == schema.SessionEventClosed {
			t.closed = true
			t.log().Info("tui exit", "reason", "session closed")
			_ = t.term.Exit(0)
			return true
		}
	}
	return false
}

func (t *terminalSession) handleKey(k key) bool {
	if t.exiting != nil {
		return false
	}
	edited := false
	switch k.kind {
	case keyCtrlD:
		if t.input.Len() == 0 {
			t.log().Info("tui exit", "reason", "ctrl-d")
			_ = t.term.Exit(0)
			return true
		}
		edited = t.input.EraseForward()
	case keyCtrlC:
		edited = t.input.Len() > 0
		t.input.Reset()
	case keyCtrlL:
		t.screen.Invalidate()
	case keyEnter:
		t.submit()
	case keyRune:
		t.input.Insert(k.r)
		edited = true
	case keyBackspace:
		edited = t.input.EraseBack()
	case keyDelete:
		edited = t.input.EraseForward()
	case keyLeft:
		t.input.Left()
	case keyRight:
		t.input.Right()
	case keyHome, keyCtrlA:
		t.input.Home()
	case keyEnd, keyCtrlE:
		t.input.End()
	case keyAltB:
		t.input.WordLeft()
	case keyAltF:
		t.input.WordRight()
	case keyHint:
		edited = t.fillHint(k.hint)
	case keyCtrlW:
		edited = t.input.EraseWordBack()
	case keyCtrlU:
		edited = t.input.EraseToHome()
	case keyCtrlK:
		edited = t.input.EraseToEnd()
	case keyUp:
		t.recall(schema.RecallPrevious)
	case keyDown:
		t.recall(schema.RecallNext)
	case keyPageUp:
		t.scroll(1)
	case keyPageDown:
		t.scroll(-1)
	}
	if edited {
		t.typeInput()
	}
	t.dirty = true
	return false
}

// fillHint replaces the input with hint i. It reports false when there is
// no such hint.
func (t *terminalSession) fillHint(i int) bool {
	if i < 0 || i >= len(t.catalog.Hints) {
		return false
	}
	t.input.Set(t.catalog.Hints[i])
	return true
}

func (t *terminalSession) submit() {
	raw := t.input.String()
	resp, err := t.service.Submit(t.ctx, schema.SubmitRequest{SessionID: t.sessionID, Input: raw})
	if err != nil {
		t.log().Warn("tui submit failed", "err", err)
		return
	}
	if resp.Ignored {
		return
	}
	t.input.Reset()
	t.refreshTranscript()
	if resp.Exit {
		t.exiting = time.After(t.grace)
	}
}

func (t *terminalSession) recall(direction schema.RecallDirection) {
	resp, err := t.service.Recall(t.ctx, schema.RecallRequest{SessionID: t.sessionID, Direction: direction})
	if err != nil {
		t.log().Warn("tui recall failed", "direction", direction, "err", err)
		return
	}
	if resp.Changed {
		t.input.Set(resp.Input)
	}
}

func (t *terminalSession) typeInput() {
	if _, err := t.service.TypeInput(t.ctx, schema.TypeInputRequest{SessionID: t.sessionID, Text: t.input.String()}); err != nil {
		t.log().Warn("tui input failed", "err", err)
	}
}

func (t *terminalSession) scroll(direction int) {
	limit := t.viewHeight()
	if limit <= 0 {
		return
	}
	delta := limit * direction
	resp, err := t.service.ScrollTranscript(t.ctx, schema.ScrollTranscriptRequest{
		SessionID: t.sessionID,
		Delta:     delta,
		Limit:     limit,
	})
	if err != nil {
		t.log().Warn("tui scroll failed", "err", err)
		return
	}
	t.transcript = resp.Transcript
	t.log().Trace("tui scroll", "delta", delta, "limit", limit)
}

func (t *terminalSession) refreshTranscript() {
	if t.sessionID == "" {
		return
	}
	resp, err := t.service.GetTranscript(t.ctx, schema.GetTranscriptRequest{SessionID: t.sessionID, Limit: t.viewHeight()})
	if err != nil {
		t.log().Warn("tui transcript refresh failed", "err", err)
		return
	}
	t.transcript = resp.Transcript
}

type layout struct {
	scanBar bool
	header  bool
	hints   bool
	footer  bool
	view    int
}

func (t *terminalSession) layout() layout {
	l := layout{scanBar: t.status.Scanning, header: true, hints: len(t.catalog.Hints) > 0, footer: true}
	rows := func() int {
		n := 2
		if l.scanBar {
			n++
		}
		if l.header {
			n += 2
		}
		if l.hints {
			n++
		}
		if l.footer {
			n++
		}
		return n
	}
	for _, drop := range []*bool{&l.footer, &l.hints, &l.header} {
		if t.height-rows() >= 3 {
			break
		}
		*drop = false
	}
	l.view = t.height - rows()
	if l.view < 0 {
		l.view = 0
	}
	return l
}

func (t *terminalSession) viewHeight() int {
	return t.layout().view
}

func (t *terminalSession) render() {
	width := t.width
	if width <= 0 {
		width = 80
	}
	theme := themeForName(t.theme)
	if t.status.MatrixMode {
		theme = matrixTheme(theme)
	}
	l := t.layout()

	lines := make([]string, 0, t.height)
	lines = append(lines, renderStatusBar(t.status, t.now().Format("15:04:05"), width, theme))
	if l.scanBar {
		lines = append(lines, renderScanBar(t.status.ScanProgress, width, theme))
	}
	if l.header {
		lines = append(lines, renderTitle(t.catalog.Title, width, theme))
		lines = append(lines, renderTagline(t.catalog.Tagline, width, theme))
	}
	lines = append(lines, renderViewport(t.transcript.Lines, width, l.view, theme, t.transcript.AtBottom)...)

	prompt, cursorCol := renderInputLine(t.input, t.catalog.Placeholder, width, theme)
	lines = append(lines, prompt)
	cursorRow := len(lines)
	if l.hints {
		lines = append(lines, renderHints(t.catalog.Hints, width, theme))
	}
	if l.footer {
		lines = append(lines, renderFooter(t.catalog.FooterFor(t.status.MatrixMode), width, theme))
	}
	if err := t.screen.Render(lines, cursorRow, cursorCol); err != nil {
		t.log().Warn("tui render failed", "err", err)
	}
}

const promptText = "$ "

// renderInputLine draws the prompt and buffer, scrolling horizontally so the
// cursor stays visible. It returns the 1-based cursor column.
func renderInputLine(line inputLine, placeholder string, width int, theme termTheme) (string, int) {
	prompt := ansiBold + ansiFgRGB(theme.PromptFG) + promptText + ansiReset
	promptWidth := widthCond.StringWidth(promptText)
	avail := width - promptWidth - 1
	if avail < 1 {
		avail = 1
	}
	if line.Len() == 0 {
		hint := ""
		if placeholder != "" {
			hint = ansiDim + ansiFgRGB(theme.HintFG) + widthCond.Truncate(placeholder, avail, "") + ansiReset
		}
		return prompt + hint, promptWidth + 1
	}

	runes := line.text
	start := 0
	col := line.column()
	for col > avail && start < line.pos {
		col -= widthCond.RuneWidth(runes[start])
		start++
	}
	var b strings.Builder
	used := 0
	for _, r := range runes[start:] {
		w := widthCond.RuneWidth(r)
		if used+w > avail {
			break
		}
		b.WriteRune(r)
		used += w
	}
	return prompt + ansiFgRGB(theme.InputFG) + b.String() + ansiReset, promptWidth + col + 1
}
