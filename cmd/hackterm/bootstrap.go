package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/hackterm/bootstrap"
	"pkt.systems/pslog"
)

func newBootstrapCmd() *cobra.Command {
	var outputDir string
	var overwrite bool
	var imageTag string
	var sets []string
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Generate config, content overrides, host key and container files",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			out := outputDir
			if out == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				out = filepath.Join(home, ".hackterm")
			}
			overrides, err := parseOverrides(sets)
			if err != nil {
				return err
			}
			paths, err := bootstrap.WriteBootstrap(nil, out, overwrite, bootstrap.Options{ImageTag: imageTag, Overrides: overrides})
			if err != nil {
				return err
			}
			logger.Info("bootstrap wrote", "path", paths.ConfigPath, "name", "config.yaml")
			logger.Info("bootstrap wrote", "path", paths.ContentPath, "name", "content.yaml")
			logger.Info("bootstrap wrote", "path", paths.HostKeyPath, "name", "ssh_host_key")
			logger.Info("bootstrap wrote", "path", paths.EnvPath, "name", ".env")
			logger.Info("bootstrap wrote", "path", paths.ComposePath, "name", "docker-compose.yaml")
			logger.Info("bootstrap wrote", "path", paths.ContainerfilePath, "name", "Containerfile.hackterm")
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default ~/.hackterm)")
	cmd.Flags().BoolVar(&overwrite, "force", false, "overwrite existing files")
	cmd.Flags().StringVar(&imageTag, "image-tag", "", "container image tag (default: build version)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "config override as key=value, e.g. http.addr=:8080 (repeatable)")
	return cmd
}

func parseOverrides(values []string) ([]bootstrap.ConfigOverride, error) {
	out := make([]bootstrap.ConfigOverride, 0, len(values))
	for _, raw := range values {
		key, value, ok := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q; expected key=value", raw)
		}
		out = append(out, bootstrap.ConfigOverride{Path: key, Value: strings.TrimSpace(value)})
	}
	return out, nil
}
