package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pkt.systems/hackterm/core"
	"pkt.systems/hackterm/internal/appconfig"
	"pkt.systems/hackterm/internal/eventbus"
	"pkt.systems/hackterm/schema"
	"pkt.systems/hackterm/tui"
	"pkt.systems/pslog"
)

var errNotATerminal = errors.New("local mode needs an interactive terminal; use serve for remote access")

func newLocalCmd() *cobra.Command {
	var cfgPath string
	var theme string
	cmd := &cobra.Command{
		Use:     "local",
		Aliases: []string{"play"},
		Short:   "Run the terminal in this TTY",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isInteractive(os.Stdin, os.Stdout) {
				return errNotATerminal
			}
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(resolveConfigPath(cfgPath))
			if err != nil {
				return err
			}
			if theme != "" {
				normalized, ok := schema.NormalizeThemeName(theme)
				if !ok {
					return errors.New("unknown theme " + theme)
				}
				cfg.Theme = string(normalized)
			}
			catalog, err := loadCatalog(cfg)
			if err != nil {
				return err
			}
			bus := eventbus.New(logger)
			service, err := core.NewService(cfg.ServiceConfig(), core.ServiceDeps{
				Catalog:   &catalog,
				EventSink: bus,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), service, bus, tui.Options{Theme: schema.ThemeName(cfg.Theme)})
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default $HACKTERM_CONFIG or ~/.hackterm/config.yaml)")
	cmd.Flags().StringVar(&theme, "theme", "", "color theme (phosphor, amber, ice)")
	return cmd
}

func isInteractive(in, out *os.File) bool {
	return term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd()))
}
