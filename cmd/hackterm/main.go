package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pkt.systems/psi"
	"pkt.systems/pslog"
)

// envFileVar names an alternate dotenv file; the default is ./.env.
const envFileVar = "HACKTERM_ENV_FILE"

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)
	log.SetOutput(pslog.LogLogger(logger).Writer())
	log.SetFlags(0)

	if path, err := loadDotEnv(os.Getenv(envFileVar)); err != nil {
		logger.Error("dotenv load failed", "path", path, "err", err)
		return 1
	}

	root := newRootCmd()
	root.SetArgs(os.Args[1:])
	if err := root.ExecuteContext(ctx); err != nil {
		pslog.Ctx(ctx).With("err", err).Error("hackterm command failed")
		return 1
	}
	return 0
}

// loadDotEnv loads path, or ./.env when path is blank. Variables already in
// the environment win. A missing default file is not an error.
func loadDotEnv(path string) (string, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		return path, err
	}
	return path, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hackterm",
		Short:         "Hacker-themed portfolio terminal over HTTP, SSH and the local TTY",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newLocalCmd())
	root.AddCommand(newBootstrapCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())

	return root
}
