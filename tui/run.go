package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"pkt.systems/hackterm/core"
	"pkt.systems/hackterm/internal/eventbus"
	"pkt.systems/hackterm/internal/logx"
	"pkt.systems/hackterm/schema"
)

// EventSource delivers core events for one session.
type EventSource interface {
	Subscribe(sessionID schema.SessionID) (<-chan eventbus.Event, func())
}

// Run opens a session and drives it from the local terminal until the user
// exits or ctx is cancelled.
func Run(ctx context.Context, service core.Service, bus EventSource, opts Options, programOpts ...tea.ProgramOption) error {
	opened, err := service.OpenSession(ctx, schema.OpenSessionRequest{})
	if err != nil {
		return err
	}
	id := opened.Session.ID
	ctx = logx.ContextWithSessionLogger(ctx, logx.WithSession(ctx, id), id)
	ctx = logx.ContextWithTransport(ctx, "local")
	log := logx.Ctx(ctx)
	defer func() {
		if _, err := service.CloseSession(context.WithoutCancel(ctx), schema.CloseSessionRequest{SessionID: id}); err != nil && !errors.Is(err, schema.ErrSessionNotFound) {
			log.Warn("tui session close failed", "err", err)
		}
	}()

	var events <-chan eventbus.Event
	if bus != nil {
		var unsubscribe func()
		events, unsubscribe = bus.Subscribe(id)
		defer unsubscribe()
	}

	model := newModel(ctx, service, opened.Session, events, opts)
	options := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, programOpts...)
	log.Info("tui session start")
	_, err = tea.NewProgram(model, options...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}
	log.Info("tui session end")
	return err
}
