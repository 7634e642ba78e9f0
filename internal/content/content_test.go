package content

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkt.systems/hackterm/core"
	"pkt.systems/hackterm/schema"
)

func writeContent(t *testing.T, fsys afero.Fs, body string) string {
	t.Helper()
	path := "/etc/hackterm/content.yaml"
	require.NoError(t, afero.WriteFile(fsys, path, []byte(body), 0o644))
	return path
}

func TestLoadEmptyPathReturnsBase(t *testing.T) {
	base := core.DefaultCatalog()
	got, err := Load(afero.NewMemMapFs(), "", base)
	require.NoError(t, err)
	assert.Equal(t, base, got)
}

func TestLoadOverridesWording(t *testing.T) {
	fsys := afero.NewMemMapFs()
	path := writeContent(t, fsys, `
title: TERMINAL_SEGURA
not_found: "Comando no encontrado: %s"
not_found_hint: 'Escribe "help" para ver los comandos'
hints: [help, Skills]
commands:
  exit:
    - "Cerrando conexión..."
`)
	got, err := Load(fsys, path, core.DefaultCatalog())
	require.NoError(t, err)
	assert.Equal(t, "TERMINAL_SEGURA", got.Title)
	assert.Equal(t, []string{"help", "skills"}, got.Hints)
	assert.Equal(t, []string{"Cerrando conexión..."}, got.Outputs[schema.CommandExit])
	assert.Equal(t, core.DefaultCatalog().Outputs[schema.CommandHelp], got.Outputs[schema.CommandHelp])

	res := core.NewInterpreter(got).Execute("NOPE")
	assert.Equal(t, []string{"Comando no encontrado: nope", `Escribe "help" para ver los comandos`}, res.Lines)
}

func TestLoadDoesNotMutateBase(t *testing.T) {
	fsys := afero.NewMemMapFs()
	path := writeContent(t, fsys, "commands:\n  whoami: [anonymous]\n")
	base := core.DefaultCatalog()
	_, err := Load(fsys, path, base)
	require.NoError(t, err)
	assert.Equal(t, "[+] Identity Information:", base.Outputs[schema.CommandWhoami][0])
}

func TestLoadRejectsInvalidContent(t *testing.T) {
	cases := map[string]string{
		"unknown command": "commands:\n  rm: [gone]\n",
		"clear output":    "commands:\n  clear: [x]\n",
		"bad format":      "not_found: \"missing verb\"\n",
		"extra verb":      "not_found: \"%s and %d\"\n",
		"bad hint":        "hints: [hack]\n",
		"bad yaml":        "commands: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			path := writeContent(t, fsys, body)
			_, err := Load(fsys, path, core.DefaultCatalog())
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/nope.yaml", core.DefaultCatalog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestExportRoundTrips(t *testing.T) {
	base := core.DefaultCatalog()
	data, err := Marshal(Export(base))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "clear:")

	fsys := afero.NewMemMapFs()
	path := writeContent(t, fsys, string(data))
	got, err := Load(fsys, path, core.Catalog{Outputs: map[schema.CommandID][]string{}})
	require.NoError(t, err)
	assert.Equal(t, base.Title, got.Title)
	assert.Equal(t, base.NotFound, got.NotFound)
	assert.Equal(t, base.Hints, got.Hints)
	assert.Equal(t, base.Welcome, got.Welcome)
	assert.Equal(t, base.Outputs[schema.CommandHelp], got.Outputs[schema.CommandHelp])
	assert.Equal(t, base.Outputs[schema.CommandWhoami], got.Outputs[schema.CommandWhoami])
}
