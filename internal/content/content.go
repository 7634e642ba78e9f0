// Package content loads YAML overrides for the terminal's canned text.
package content

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"pkt.systems/hackterm/core"
	"pkt.systems/hackterm/schema"
)

// File is the on-disk shape of a catalog override. Every key is optional.
type File struct {
	Title        *string             `yaml:"title"`
	Tagline      *string             `yaml:"tagline"`
	Welcome      []string            `yaml:"welcome"`
	Info         *string             `yaml:"info"`
	NotFound     *string             `yaml:"not_found"`
	NotFoundHint *string             `yaml:"not_found_hint"`
	Hints        []string            `yaml:"hints"`
	Footer       *string             `yaml:"footer"`
	MatrixFooter *string             `yaml:"matrix_footer"`
	Placeholder  *string             `yaml:"placeholder"`
	Commands     map[string][]string `yaml:"commands"`
}

// Load reads path from fsys and applies it on top of base. An empty path
// returns base unchanged; a missing file is an error.
func Load(fsys afero.Fs, path string, base core.Catalog) (core.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return base.Clone(), nil
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.Catalog{}, fmt.Errorf("content file %s not found", path)
		}
		return core.Catalog{}, fmt.Errorf("read content %s: %w", path, err)
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return core.Catalog{}, fmt.Errorf("parse content %s: %w", path, err)
	}
	out, err := Apply(base, file)
	if err != nil {
		return core.Catalog{}, fmt.Errorf("content %s: %w", path, err)
	}
	return out, nil
}

// Apply merges file into a copy of base.
func Apply(base core.Catalog, file File) (core.Catalog, error) {
	out := base.Clone()
	setString(&out.Title, file.Title)
	setString(&out.Tagline, file.Tagline)
	setString(&out.Info, file.Info)
	setString(&out.NotFoundHint, file.NotFoundHint)
	setString(&out.Footer, file.Footer)
	setString(&out.MatrixFooter, file.MatrixFooter)
	setString(&out.Placeholder, file.Placeholder)
	if file.NotFound != nil {
		if strings.Count(*file.NotFound, "%s") != 1 || strings.Count(*file.NotFound, "%") != 1 {
			return core.Catalog{}, errors.New("not_found must contain exactly one %s")
		}
		out.NotFound = *file.NotFound
	}
	if file.Welcome != nil {
		out.Welcome = append([]string(nil), file.Welcome...)
	}
	if file.Hints != nil {
		hints := make([]string, 0, len(file.Hints))
		for _, hint := range file.Hints {
			if _, ok := core.ResolveCommand(hint); !ok {
				return core.Catalog{}, fmt.Errorf("hint %q is not a command", hint)
			}
			hints = append(hints, core.NormalizeCommand(hint))
		}
		out.Hints = hints
	}
	for name, lines := range file.Commands {
		id, ok := core.ResolveCommand(name)
		if !ok {
			return core.Catalog{}, fmt.Errorf("unknown command %q", name)
		}
		if id == schema.CommandClear {
			return core.Catalog{}, errors.New("clear has no output to override")
		}
		out.Outputs[id] = append([]string(nil), lines...)
	}
	return out, nil
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}

// Export renders c as a File that Apply turns back into c.
func Export(c core.Catalog) File {
	file := File{
		Title:        ptr(c.Title),
		Tagline:      ptr(c.Tagline),
		Welcome:      append([]string{}, c.Welcome...),
		Info:         ptr(c.Info),
		NotFound:     ptr(c.NotFound),
		NotFoundHint: ptr(c.NotFoundHint),
		Hints:        append([]string{}, c.Hints...),
		Footer:       ptr(c.Footer),
		MatrixFooter: ptr(c.MatrixFooter),
		Placeholder:  ptr(c.Placeholder),
		Commands:     make(map[string][]string, len(c.Outputs)),
	}
	for id, lines := range c.Outputs {
		if id == schema.CommandClear || id == schema.CommandUnknown {
			continue
		}
		file.Commands[id.String()] = append([]string{}, lines...)
	}
	return file
}

// Marshal encodes file as YAML.
func Marshal(file File) ([]byte, error) {
	return yaml.Marshal(file)
}

func ptr(value string) *string {
	return &value
}
