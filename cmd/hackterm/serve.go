package main

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"

	"pkt.systems/hackterm"
	"pkt.systems/hackterm/core"
	"pkt.systems/hackterm/httpapi"
	"pkt.systems/hackterm/internal/appconfig"
	"pkt.systems/hackterm/internal/content"
	"pkt.systems/hackterm/schema"
	"pkt.systems/hackterm/sshserver"
	"pkt.systems/pslog"
)

//go:embed assets/banner.txt
var serveBanner string

const stopTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var cfgPath string
	var noHTTP bool
	var noSSH bool
	var noBanner bool
	var showQR bool
	var disableCommandLog bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and SSH front ends",
		RunE: func(cmd *cobra.Command, args []string) error {
			if noHTTP && noSSH {
				return fmt.Errorf("--no-http and --no-ssh leave nothing to serve")
			}
			logMode := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_MODE")))
			if !noBanner && logMode != "json" && logMode != "structured" && serveBanner != "" {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), serveBanner)
			}
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(resolveConfigPath(cfgPath))
			if err != nil {
				return err
			}
			if disableCommandLog {
				cfg.Logging.DisableCommandLog = true
			}
			catalog, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			serverCfg := toServerConfig(cfg)
			serverDeps := hackterm.ServerDeps{
				ServiceDeps: core.ServiceDeps{
					Catalog: &catalog,
					Logger:  logger,
				},
			}
			var opts []hackterm.ServerOption
			if !noHTTP {
				opts = append(opts, hackterm.WithHTTP())
			}
			if !noSSH {
				opts = append(opts, hackterm.WithSSH())
			}
			server, err := hackterm.New(serverCfg, serverDeps, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			if !noHTTP {
				url := publicURL(serverCfg.HTTP)
				logger.Info("http terminal available", "url", url)
				if showQR {
					printQR(cmd.OutOrStdout(), url)
				}
			}
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default $HACKTERM_CONFIG or ~/.hackterm/config.yaml)")
	cmd.Flags().BoolVar(&noHTTP, "no-http", false, "disable the HTTP front end")
	cmd.Flags().BoolVar(&noSSH, "no-ssh", false, "disable the SSH front end")
	cmd.Flags().BoolVar(&noBanner, "no-banner", false, "disable startup banner")
	cmd.Flags().BoolVar(&showQR, "qr", false, "print a QR code for the web terminal URL")
	cmd.Flags().BoolVar(&disableCommandLog, "disable-command-log", false, "do not log submitted commands")
	return cmd
}

// resolveConfigPath prefers the flag, then HACKTERM_CONFIG.
func resolveConfigPath(flag string) string {
	if strings.TrimSpace(flag) != "" {
		return flag
	}
	return os.Getenv(appconfig.EnvPrefix + "_CONFIG")
}

func loadCatalog(cfg appconfig.Config) (core.Catalog, error) {
	return content.Load(nil, cfg.Content.Path, core.DefaultCatalog())
}

func toServerConfig(cfg appconfig.Config) hackterm.ServerConfig {
	return hackterm.ServerConfig{
		Service:    cfg.ServiceConfig(),
		HTTP:       toHTTPConfig(cfg),
		SSH:        toSSHConfig(cfg),
		HubHistory: 1000,
	}
}

func toHTTPConfig(cfg appconfig.Config) httpapi.Config {
	return httpapi.Config{
		Addr:               cfg.HTTP.Addr,
		SessionCookie:      cfg.HTTP.SessionCookie,
		SessionTTLHours:    cfg.HTTP.SessionTTLHours,
		BaseURL:            cfg.HTTP.BaseURL,
		BasePath:           cfg.HTTP.BasePath,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		RateLimit:          cfg.HTTP.RateLimit,
		RateBurst:          cfg.HTTP.RateBurst,
		InitialBufferLines: cfg.HTTP.InitialBufferLines,
		Theme:              schema.ThemeName(cfg.Theme),
	}
}

func toSSHConfig(cfg appconfig.Config) sshserver.Config {
	return sshserver.Config{
		Addr:        cfg.SSH.Addr,
		HostKeyPath: cfg.SSH.HostKeyPath,
		IdleTimeout: time.Duration(cfg.SSH.IdleTimeoutMinutes) * time.Minute,
		Theme:       schema.ThemeName(cfg.Theme),
	}
}

// publicURL is the configured base URL, or a localhost URL derived from the
// listen address and base path.
func publicURL(cfg httpapi.Config) string {
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		return strings.TrimRight(base, "/") + "/"
	}
	host, port, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		host, port = "", "80"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	path := "/" + strings.Trim(strings.TrimSpace(cfg.BasePath), "/")
	if path != "/" {
		path += "/"
	}
	return "http://" + net.JoinHostPort(host, port) + path
}

func printQR(w io.Writer, url string) {
	_, _ = fmt.Fprintf(w, "%s\n", url)
	qrterminal.GenerateHalfBlock(url, qrterminal.L, w)
}
