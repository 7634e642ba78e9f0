package sshserver

import (
	"context"
	"io"
	"net"

	gliderssh "github.com/gliderlabs/ssh"
	"github.com/spf13/afero"

	"pkt.systems/hackterm/core"
	"pkt.systems/hackterm/internal/logx"
	"pkt.systems/pslog"
)

// Server exposes the terminal over SSH. Any user name is accepted and no
// credentials are asked for.
type Server struct {
	Config   Config
	Listener net.Listener
	Service  core.Service
	EventBus EventSource
	// Fs holds the host key; nil means the OS filesystem.
	Fs     afero.Fs
	logger pslog.Logger
}

// ListenAndServe starts the SSH server and shuts down on context cancellation.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.logger == nil {
		s.logger = pslog.Ctx(ctx)
	}
	s.Config = s.Config.withDefaults()

	signer, err := EnsureHostKey(s.Fs, s.Config.HostKeyPath)
	if err != nil {
		return err
	}

	server := &gliderssh.Server{
		Addr:        s.Config.Addr,
		Handler:     s.handleSession,
		IdleTimeout: s.Config.IdleTimeout,
	}
	server.AddHostKey(signer)

	errCh := make(chan error, 1)
	go func() {
		if s.Listener != nil {
			s.logger.Info("ssh listening", "addr", s.Listener.Addr().String())
			errCh <- server.Serve(s.Listener)
			return
		}
		s.logger.Info("ssh listening", "addr", s.Config.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		_ = server.Close()
		return nil
	case err := <-errCh:
		if err == gliderssh.ErrServerClosed {
			return nil
		}
		return err
	}
}

func remoteAddr(sess gliderssh.Session) string {
	if sess == nil || sess.RemoteAddr() == nil {
		return ""
	}
	return sess.RemoteAddr().String()
}

func (s *Server) handleSession(sess gliderssh.Session) {
	log := s.logger
	if log == nil {
		log = pslog.Ctx(sess.Context())
	}
	log = logx.WithClient(log, "ssh", remoteAddr(sess))
	if user := sess.User(); user != "" {
		log = log.With("ssh_user", user)
	}
	if sshSession := sess.Context().SessionID(); sshSession != "" {
		log = log.With("ssh_session", sshSession)
	}
	ctx := pslog.ContextWithLogger(sess.Context(), log)
	ctx = logx.ContextWithTransport(ctx, "ssh")

	pty, winCh, ok := sess.Pty()
	if !ok {
		log.Info("ssh session rejected", "reason", "pty required")
		_, _ = io.WriteString(sess, "pty required\n")
		_ = sess.Exit(1)
		return
	}

	log.Info("ssh session opened", "term", pty.Term)
	ui := newTerminalSession(sess, s.Service, s.EventBus, s.Config)
	ui.SetSize(pty.Window.Width, pty.Window.Height)
	_ = ui.Run(ctx, winCh)
	log.Info("ssh session closed", "term", pty.Term)
}
