package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/afero"

	"pkt.systems/hackterm/core"
	"pkt.systems/hackterm/internal/content"
)

func main() {
	var output string
	var overwrite bool
	flag.StringVar(&output, "output", "content.example.yaml", "output file")
	flag.StringVar(&output, "o", "content.example.yaml", "output file")
	flag.BoolVar(&overwrite, "force", false, "overwrite an existing file")
	flag.Parse()

	if err := writeContent(afero.NewOsFs(), output, overwrite); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	fmt.Fprintln(os.Stdout, output)
}

// writeContent renders the built-in catalog as a content overrides file.
func writeContent(fsys afero.Fs, path string, overwrite bool) error {
	if !overwrite {
		if _, err := fsys.Stat(path); err == nil {
			return fmt.Errorf("file already exists: %s", path)
		}
	}
	data, err := content.Marshal(content.Export(core.DefaultCatalog()))
	if err != nil {
		return err
	}
	return afero.WriteFile(fsys, path, data, 0o644)
}
