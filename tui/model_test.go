package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkt.systems/hackterm/core"
	"pkt.systems/hackterm/internal/clock"
	"pkt.systems/hackterm/internal/eventbus"
	"pkt.systems/hackterm/schema"
)

type fixture struct {
	service core.Service
	bus     *eventbus.Bus
	clock   *clock.Manual
	model   Model
	events  <-chan eventbus.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	manual := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	bus := eventbus.New(nil)
	svc, err := core.NewService(schema.ServiceConfig{}, core.ServiceDeps{
		Scheduler: manual,
		Rand:      func() float64 { return 0.5 },
		EventSink: bus,
	})
	require.NoError(t, err)
	opened, err := svc.OpenSession(context.Background(), schema.OpenSessionRequest{})
	require.NoError(t, err)
	events, unsubscribe := bus.Subscribe(opened.Session.ID)
	t.Cleanup(unsubscribe)

	m := newModel(context.Background(), svc, opened.Session, events, Options{ExitGrace: time.Millisecond})
	m.now = func() time.Time { return time.Date(2024, 1, 1, 13, 37, 0, 0, time.UTC) }
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return &fixture{service: svc, bus: bus, clock: manual, model: next.(Model), events: events}
}

func (f *fixture) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := f.model.Update(msg)
	f.model = next.(Model)
	return cmd
}

func (f *fixture) typeText(t *testing.T, text string) {
	t.Helper()
	for _, r := range text {
		f.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (f *fixture) drain() {
	for {
		select {
		case <-f.events:
		default:
			return
		}
	}
}

func TestModelStartsWithWelcome(t *testing.T) {
	f := newFixture(t)
	require.NotEmpty(t, f.model.lines)
	assert.Equal(t, schema.LineWelcome, f.model.lines[0].Kind)
	view := f.model.View()
	assert.Contains(t, view, "SECURE_TERMINAL_v2.0")
	assert.Contains(t, view, "SECURITY: HIGH")
	assert.Contains(t, view, "[13:37:00]")
	assert.Contains(t, view, "[M-2 $ portfolio]")
}

func TestModelTypingMirrorsInput(t *testing.T) {
	f := newFixture(t)
	f.typeText(t, "skil")
	resp, err := f.service.GetSession(context.Background(), schema.GetSessionRequest{SessionID: f.model.sessionID})
	require.NoError(t, err)
	assert.Equal(t, "skil", resp.Session.Input)
}

func TestModelAltDigitFillsHint(t *testing.T) {
	f := newFixture(t)
	f.typeText(t, "xyz")
	f.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'4'}, Alt: true})
	assert.Equal(t, "recognize", f.model.input.Value())
	resp, err := f.service.GetSession(context.Background(), schema.GetSessionRequest{SessionID: f.model.sessionID})
	require.NoError(t, err)
	assert.Equal(t, "recognize", resp.Session.Input)

	f.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'9'}, Alt: true})
	assert.Equal(t, "recognize", f.model.input.Value())
}

func TestModelSubmitAppendsEchoAndOutput(t *testing.T) {
	f := newFixture(t)
	f.typeText(t, "Skills")
	f.send(t, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "", f.model.input.Value())
	var texts []string
	for _, line := range f.model.lines {
		texts = append(texts, line.Text)
	}
	assert.Contains(t, texts, "$ Skills")
	assert.True(t, f.model.viewport.AtBottom())
}

func TestModelUnknownCommand(t *testing.T) {
	f := newFixture(t)
	f.typeText(t, " NMAP ")
	f.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	last := f.model.lines[len(f.model.lines)-2:]
	assert.Equal(t, "Command not found: nmap", last[0].Text)
	assert.Equal(t, "Type \"help\" for available commands", last[1].Text)
}

func TestModelRecall(t *testing.T) {
	f := newFixture(t)
	for _, cmd := range []string{"whoami", "ctf"} {
		f.typeText(t, cmd)
		f.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	}
	f.send(t, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "ctf", f.model.input.Value())
	f.send(t, tea.KeyMsg{Type: tea.KeyUp})
	f.send(t, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "whoami", f.model.input.Value())
	f.send(t, tea.KeyMsg{Type: tea.KeyDown})
	f.send(t, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "", f.model.input.Value())
}

func TestModelClear(t *testing.T) {
	f := newFixture(t)
	f.typeText(t, "clear")
	f.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, f.model.lines)
}

func TestModelExitQuitsAfterGrace(t *testing.T) {
	f := newFixture(t)
	f.typeText(t, "exit")
	cmd := f.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, f.model.exiting)

	f.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Equal(t, "", f.model.input.Value())

	msg := cmd()
	require.IsType(t, exitMsg{}, msg)
	quit := f.send(t, msg)
	require.NotNil(t, quit)
	assert.Equal(t, tea.Quit(), quit())
	assert.Equal(t, "", f.model.View())
}

func TestModelCtrlDOnEmptyQuits(t *testing.T) {
	f := newFixture(t)
	cmd := f.send(t, tea.KeyMsg{Type: tea.KeyCtrlD})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModelMatrixEventsSwapFooter(t *testing.T) {
	f := newFixture(t)
	f.drain()
	f.typeText(t, "matrix")
	f.send(t, tea.KeyMsg{Type: tea.KeyEnter})

	var status schema.StatusSnapshot
	found := false
	for !found {
		select {
		case ev := <-f.events:
			if ev.Type == eventbus.EventStatus {
				status = ev.Status.Status
				f.send(t, eventMsg{event: ev, ok: true})
				found = true
			}
		default:
			t.Fatalf("expected a status event")
		}
	}
	assert.True(t, status.MatrixMode)
	assert.Contains(t, f.model.View(), "[MATRIX MODE ACTIVE] There is no spoon.")

	f.clock.Advance(schema.DefaultMatrixDuration)
	ev := <-f.events
	require.Equal(t, eventbus.EventStatus, ev.Type)
	f.send(t, eventMsg{event: ev, ok: true})
	assert.False(t, f.model.status.MatrixMode)
	assert.Contains(t, f.model.View(), "Stay paranoid, stay safe.")
}

func TestModelScanShowsProgress(t *testing.T) {
	f := newFixture(t)
	f.typeText(t, "scan")
	f.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	f.clock.Advance(schema.DefaultScanInterval)
	resp, err := f.service.GetStatus(context.Background(), schema.GetStatusRequest{SessionID: f.model.sessionID})
	require.NoError(t, err)
	f.send(t, eventMsg{event: eventbus.Event{Type: eventbus.EventStatus, Status: schema.StatusEvent{SessionID: f.model.sessionID, Status: resp.Status}}, ok: true})
	require.True(t, f.model.status.Scanning)
	assert.Contains(t, f.model.View(), "SCANNING...")
	assert.Equal(t, 30-7, f.model.viewport.Height)
}

func TestModelSessionClosedQuits(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.CloseSession(context.Background(), schema.CloseSessionRequest{SessionID: f.model.sessionID})
	require.NoError(t, err)
	var cmd tea.Cmd
	for cmd == nil {
		ev := <-f.events
		if ev.Type == eventbus.EventSession {
			cmd = f.send(t, eventMsg{event: ev, ok: true})
		}
	}
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModelUnknownThemeFallsBack(t *testing.T) {
	f := newFixture(t)
	m := newModel(context.Background(), f.service, schema.SessionSnapshot{ID: f.model.sessionID}, nil, Options{Theme: "neon"})
	assert.Equal(t, schema.DefaultTheme, m.theme)
	assert.Nil(t, waitForEvent(nil))
}
