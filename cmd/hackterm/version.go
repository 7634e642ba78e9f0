package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/hackterm/internal/version"
)

func newVersionCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the hackterm build",
		Long:  "Print the hackterm module path and version. With --verbose, also print the VCS revision, commit time and Go runtime the binary was built with.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintln(out, info.String()); err != nil {
				return err
			}
			if !verbose {
				return nil
			}
			revision := info.Revision
			if revision == "" {
				revision = "unknown"
			}
			if info.Dirty {
				revision += " (modified)"
			}
			built := "unknown"
			if !info.Time.IsZero() {
				built = info.Time.Format(time.RFC3339)
			}
			_, err := fmt.Fprintf(out, "revision: %s\ncommitted: %s\ngo: %s %s/%s\n", revision, built, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return err
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also print revision, commit time and Go runtime")
	return cmd
}
