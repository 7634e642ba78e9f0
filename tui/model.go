// Package tui runs the terminal inside the local TTY with Bubble Tea.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pkt.systems/hackterm/core"
	"pkt.systems/hackterm/internal/eventbus"
	"pkt.systems/hackterm/internal/logx"
	"pkt.systems/hackterm/schema"
)

const defaultExitGrace = 1500 * time.Millisecond

// Options tunes the local terminal.
type Options struct {
	Theme     schema.ThemeName
	ExitGrace time.Duration
}

type eventMsg struct {
	event eventbus.Event
	ok    bool
}

type clockMsg time.Time

type exitMsg struct{}

// Model is the Bubble Tea model for one core session.
type Model struct {
	ctx       context.Context
	service   core.Service
	sessionID schema.SessionID
	catalog   core.Catalog
	events    <-chan eventbus.Event
	theme     schema.ThemeName
	grace     time.Duration
	now       func() time.Time

	input    textinput.Model
	viewport viewport.Model
	scan     progress.Model
	styles   styles

	lines    []schema.TranscriptLine
	status   schema.StatusSnapshot
	width    int
	height   int
	exiting  bool
	quitting bool
}

func newModel(ctx context.Context, service core.Service, session schema.SessionSnapshot, events <-chan eventbus.Event, opts Options) Model {
	theme, ok := schema.NormalizeThemeName(string(opts.Theme))
	if !ok {
		theme = schema.DefaultTheme
	}
	if opts.ExitGrace <= 0 {
		opts.ExitGrace = defaultExitGrace
	}
	catalog := service.Catalog()

	input := textinput.New()
	input.Prompt = "$ "
	input.Placeholder = catalog.Placeholder
	input.Focus()

	m := Model{
		ctx:       ctx,
		service:   service,
		sessionID: session.ID,
		catalog:   catalog,
		events:    events,
		theme:     theme,
		grace:     opts.ExitGrace,
		now:       time.Now,
		input:     input,
		viewport:  viewport.New(80, 18),
		scan:      progress.New(progress.WithoutPercentage()),
		status:    session.Status,
		width:     80,
		height:    24,
	}
	m.applyStyles()
	m.refreshTranscript(true)
	return m
}

func (m *Model) applyStyles() {
	m.styles = newStyles(m.theme, m.status.MatrixMode)
	m.input.PromptStyle = m.styles.prompt
	m.input.TextStyle = m.styles.text
	m.input.PlaceholderStyle = m.styles.hint
	m.scan = progress.New(progress.WithoutPercentage(), progress.WithSolidFill(string(m.styles.palette.Success)))
	m.layout()
}

func waitForEvent(events <-chan eventbus.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		return eventMsg{event: ev, ok: ok}
	}
}

func tickClock() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.events), tickClock())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.renderContent(m.viewport.AtBottom())
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case eventMsg:
		if !msg.ok {
			m.events = nil
			return m, nil
		}
		if m.handleEvent(msg.event) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, waitForEvent(m.events)
	case clockMsg:
		return m, tickClock()
	case exitMsg:
		m.quitting = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}
	if m.exiting {
		return m, nil
	}
	if i, ok := hintIndex(msg); ok {
		return m.fillHint(i), nil
	}
	switch msg.Type {
	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true
			return m, tea.Quit
		}
	case tea.KeyEnter:
		return m.submit()
	case tea.KeyUp:
		m.recall(schema.RecallPrevious)
		return m, nil
	case tea.KeyDown:
		m.recall(schema.RecallNext)
		return m, nil
	case tea.KeyPgUp:
		m.viewport.ViewUp()
		return m, nil
	case tea.KeyPgDown:
		m.viewport.ViewDown()
		return m, nil
	}
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.typeInput(after)
	}
	return m, cmd
}

// hintIndex maps Alt-1 through Alt-9 to a zero-based hint index.
func hintIndex(msg tea.KeyMsg) (int, bool) {
	if !msg.Alt || msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return 0, false
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return 0, false
	}
	return int(r - '1'), true
}

func (m Model) fillHint(i int) Model {
	if i >= len(m.catalog.Hints) {
		return m
	}
	hint := m.catalog.Hints[i]
	m.input.SetValue(hint)
	m.input.CursorEnd()
	m.typeInput(hint)
	return m
}

func (m Model) typeInput(text string) {
	if _, err := m.service.TypeInput(m.ctx, schema.TypeInputRequest{SessionID: m.sessionID, Text: text}); err != nil {
		logx.WithSession(m.ctx, m.sessionID).Warn("tui input failed", "err", err)
	}
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	resp, err := m.service.Submit(m.ctx, schema.SubmitRequest{SessionID: m.sessionID, Input: m.input.Value()})
	if err != nil {
		logx.WithSession(m.ctx, m.sessionID).Warn("tui submit failed", "err", err)
		return m, nil
	}
	if resp.Ignored {
		return m, nil
	}
	m.input.Reset()
	m.refreshTranscript(true)
	if resp.Exit {
		m.exiting = true
		return m, tea.Tick(m.grace, func(time.Time) tea.Msg { return exitMsg{} })
	}
	return m, nil
}

func (m *Model) recall(direction schema.RecallDirection) {
	resp, err := m.service.Recall(m.ctx, schema.RecallRequest{SessionID: m.sessionID, Direction: direction})
	if err != nil {
		logx.WithSession(m.ctx, m.sessionID).Warn("tui recall failed", "direction", direction, "err", err)
		return
	}
	if resp.Changed {
		m.input.SetValue(resp.Input)
		m.input.CursorEnd()
	}
}

// handleEvent applies a core event and reports whether the program should
// quit. Input events are ignored because the text input owns the buffer.
func (m *Model) handleEvent(ev eventbus.Event) bool {
	switch ev.Type {
	case eventbus.EventTranscript:
		m.refreshTranscript(ev.Transcript.ScrollToEnd || m.viewport.AtBottom())
	case eventbus.EventStatus:
		matrixChanged := ev.Status.Status.MatrixMode != m.status.MatrixMode
		m.status = ev.Status.Status
		if matrixChanged {
			m.applyStyles()
			m.renderContent(m.viewport.AtBottom())
		} else {
			m.layout()
		}
	case eventbus.EventSession:
		return ev.Session.Type == schema.SessionEventClosed
	}
	return false
}

func (m *Model) refreshTranscript(toBottom bool) {
	resp, err := m.service.GetTranscript(m.ctx, schema.GetTranscriptRequest{SessionID: m.sessionID})
	if err != nil {
		logx.WithSession(m.ctx, m.sessionID).Warn("tui transcript refresh failed", "err", err)
		return
	}
	m.lines = resp.Transcript.Lines
	m.renderContent(toBottom)
}

func (m *Model) renderContent(toBottom bool) {
	width := m.width
	if width <= 0 {
		width = 80
	}
	rows := make([]string, 0, len(m.lines))
	for _, line := range m.lines {
		rows = append(rows, m.styles.line(line).Width(width).Render(line.Text))
	}
	m.viewport.SetContent(strings.Join(rows, "\n"))
	if toBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) chromeRows() int {
	rows := 6
	if m.status.Scanning {
		rows++
	}
	return rows
}

func (m *Model) layout() {
	m.viewport.Width = m.width
	height := m.height - m.chromeRows()
	if height < 1 {
		height = 1
	}
	m.viewport.Height = height
	m.input.Width = m.width - lipgloss.Width(m.input.Prompt) - 1
	m.scan.Width = m.width - len(" SCANNING... ") - len(" 100%")
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.statusBar())
	b.WriteByte('\n')
	if m.status.Scanning {
		b.WriteString(m.styles.title.Render(" SCANNING... "))
		b.WriteString(m.scan.ViewAs(m.status.ScanProgress / 100))
		b.WriteString(m.styles.title.Render(fmt.Sprintf(" %3d%%", int(m.status.ScanProgress+0.5))))
		b.WriteByte('\n')
	}
	b.WriteString(m.styles.title.Render(" >_ " + m.catalog.Title))
	b.WriteByte('\n')
	b.WriteString(m.styles.tagline.Render(" " + m.catalog.Tagline))
	b.WriteByte('\n')
	b.WriteString(m.viewport.View())
	b.WriteByte('\n')
	b.WriteString(m.input.View())
	b.WriteByte('\n')
	hints := make([]string, 0, len(m.catalog.Hints))
	for i, hint := range m.catalog.Hints {
		if i < 9 {
			hints = append(hints, fmt.Sprintf("[M-%d $ %s]", i+1, hint))
			continue
		}
		hints = append(hints, "[$ "+hint+"]")
	}
	b.WriteString(m.styles.hint.Render(" " + strings.Join(hints, " ")))
	b.WriteByte('\n')
	b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.styles.footer.Render(m.catalog.FooterFor(m.status.MatrixMode))))
	return b.String()
}

func (m Model) statusBar() string {
	s := m.styles
	dot := s.alert.Background(s.palette.StatusBG).Render(" ● ")
	if m.status.SecurityLevel == schema.DefaultSecurityLevel {
		dot = s.security.Render(" ● ")
	}
	left := dot +
		s.security.Render("SECURITY: "+m.status.SecurityLevel+"  ") +
		s.firewall.Render("FIREWALL: "+m.status.FirewallStatus+"  ") +
		s.uptime.Render("UPTIME: "+m.status.Uptime)
	right := s.clock.Render("[" + m.now().Format("15:04:05") + "] ")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		return left
	}
	return left + s.status.Render(strings.Repeat(" ", gap)) + right
}
