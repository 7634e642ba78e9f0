// Package hackterm composes the terminal core with its HTTP and SSH front
// ends.
package hackterm

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/spf13/afero"

	"pkt.systems/hackterm/core"
	"pkt.systems/hackterm/httpapi"
	"pkt.systems/hackterm/internal/eventbus"
	"pkt.systems/hackterm/schema"
	"pkt.systems/hackterm/sshserver"
	"pkt.systems/pslog"
)

// Server composes the HTTP and SSH front ends over one core service.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
	// Service exposes the shared core service.
	Service() core.Service
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Service    schema.ServiceConfig
	HTTP       httpapi.Config
	SSH        sshserver.Config
	HubHistory int
	// SweepInterval controls how often expired HTTP sessions are closed.
	SweepInterval time.Duration
}

// ServerDeps captures dependencies required to build the server.
type ServerDeps struct {
	ServiceDeps core.ServiceDeps
	// HTTPListener and SSHListener replace the configured addresses.
	HTTPListener net.Listener
	SSHListener  net.Listener
	// Fs stores the SSH host key; nil means the OS filesystem.
	Fs afero.Fs
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableHTTP bool
	enableSSH  bool
}

// WithHTTP enables the HTTP API/UI server.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// WithSSH enables the SSH server.
func WithSSH() ServerOption {
	return func(o *serverOptions) { o.enableSSH = true }
}

const defaultSweepInterval = time.Minute

// New constructs a composable hackterm server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.enableHTTP && !options.enableSSH {
		return nil, errors.New("no services enabled")
	}
	normalized, err := schema.NormalizeServiceConfig(cfg.Service)
	if err != nil {
		return nil, err
	}
	cfg.Service = normalized
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	var hub *httpapi.Hub
	var bus *eventbus.Bus
	serviceDeps := deps.ServiceDeps
	if options.enableSSH {
		bus = eventbus.New(serviceDeps.Logger)
	}
	if options.enableHTTP {
		hub = httpapi.NewHub(cfg.HubHistory)
	}
	sinks := []core.EventSink{serviceDeps.EventSink}
	if hub != nil {
		sinks = append(sinks, hub)
	}
	if bus != nil {
		sinks = append(sinks, bus)
	}
	serviceDeps.EventSink = fanout(sinks...)

	service, err := core.NewService(cfg.Service, serviceDeps)
	if err != nil {
		return nil, err
	}

	var httpSrv *httpapi.Server
	var sshSrv *sshserver.Server
	if options.enableHTTP {
		httpSrv = httpapi.NewServer(cfg.HTTP, service, hub)
	}
	if options.enableSSH {
		sshSrv = &sshserver.Server{
			Config:   cfg.SSH,
			Listener: deps.SSHListener,
			Service:  service,
			EventBus: bus,
			Fs:       deps.Fs,
		}
	}

	return &compositeServer{
		cfg:          cfg,
		options:      options,
		service:      service,
		httpSrv:      httpSrv,
		httpListener: deps.HTTPListener,
		sshSrv:       sshSrv,
	}, nil
}

type compositeServer struct {
	cfg          ServerConfig
	options      serverOptions
	service      core.Service
	httpSrv      *httpapi.Server
	httpListener net.Listener
	sshSrv       *sshserver.Server
	logger       pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	wg      sync.WaitGroup
	started bool
}

func (s *compositeServer) Service() core.Service {
	return s.service
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 2)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"http", s.options.enableHTTP,
		"ssh", s.options.enableSSH,
		"http_addr", s.cfg.HTTP.Addr,
		"http_base_url", s.cfg.HTTP.BaseURL,
		"http_base_path", s.cfg.HTTP.BasePath,
		"ssh_addr", s.cfg.SSH.Addr,
	)
	if s.httpSrv != nil {
		s.httpSrv.SetBaseContext(s.ctx)
		s.run(func() {
			s.httpSrv.RunSweeper(s.ctx, s.cfg.SweepInterval)
		})
		s.run(func() {
			var err error
			if s.httpListener != nil {
				err = httpapi.Serve(s.ctx, s.httpListener, s.httpSrv.Handler())
			} else {
				err = httpapi.ListenAndServe(s.ctx, s.cfg.HTTP.Addr, s.httpSrv.Handler())
			}
			if err != nil {
				log.Error("http server failed", "err", err)
				s.errCh <- err
			}
		})
	}
	if s.sshSrv != nil {
		s.run(func() {
			if err := s.sshSrv.ListenAndServe(s.ctx); err != nil {
				log.Error("ssh server failed", "err", err)
				s.errCh <- err
			}
		})
	}
	return nil
}

func (s *compositeServer) run(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		s.wg.Wait()
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

// Stop cancels the listeners, closes every open session and waits for the
// front ends to return or ctx to expire.
func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	log := s.logger
	s.mu.Unlock()
	if !started {
		return nil
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested")
	if cancel != nil {
		cancel()
	}
	closed := s.service.CloseAll(context.WithoutCancel(s.ctx))
	log.Info("server sessions closed", "count", closed)
	if ctx == nil {
		log.Info("server stop completed")
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-done:
		log.Info("server stopped")
		return nil
	}
}
