// Package bootstrap writes a ready-to-run hackterm directory: config, content
// overrides, an SSH host key and a container bundle.
package bootstrap

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"pkt.systems/hackterm/core"
	"pkt.systems/hackterm/internal/appconfig"
	"pkt.systems/hackterm/internal/content"
	"pkt.systems/hackterm/internal/version"
	"pkt.systems/hackterm/sshserver"
)

const (
	configName         = "config.yaml"
	contentName        = "content.yaml"
	hostKeyName        = "ssh_host_key"
	envName            = ".env"
	composeName        = "docker-compose.yaml"
	containerfileName  = "Containerfile.hackterm"
	defaultServerImage = "docker.io/pktsystems/hackterm"
)

// Options controls optional bootstrap behaviors.
type Options struct {
	// ImageTag overrides the image tag; blank uses the build version.
	ImageTag  string
	Overrides []ConfigOverride
}

// ConfigOverride sets a dotted config path, e.g. "http.addr", in the
// generated config.
type ConfigOverride struct {
	Path  string
	Value any
}

// Paths reports where bootstrap wrote its outputs.
type Paths struct {
	ConfigPath        string
	ContentPath       string
	HostKeyPath       string
	EnvPath           string
	ComposePath       string
	ContainerfilePath string
}

type templateData struct {
	ConfigFile  string
	ContentFile string
	HostKeyFile string
	HostDir     string
	ServerImage string
	HTTPPort    string
	SSHPort     string
}

// WriteBootstrap writes every bootstrap artifact into outputDir on fsys. A
// nil fsys means the OS filesystem. Existing files are kept unless overwrite
// is set; the host key is never replaced.
func WriteBootstrap(fsys afero.Fs, outputDir string, overwrite bool, opts Options) (Paths, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if strings.TrimSpace(outputDir) == "" {
		return Paths{}, fmt.Errorf("output directory is required")
	}
	rootDir := outputDir
	if _, ok := fsys.(*afero.OsFs); ok {
		if abs, err := filepath.Abs(outputDir); err == nil {
			rootDir = abs
		}
	}
	paths := Paths{
		ConfigPath:        filepath.Join(rootDir, configName),
		ContentPath:       filepath.Join(rootDir, contentName),
		HostKeyPath:       filepath.Join(rootDir, hostKeyName),
		EnvPath:           filepath.Join(rootDir, envName),
		ComposePath:       filepath.Join(rootDir, composeName),
		ContainerfilePath: filepath.Join(rootDir, containerfileName),
	}
	if !overwrite {
		for _, path := range []string{paths.ConfigPath, paths.ContentPath, paths.EnvPath, paths.ComposePath, paths.ContainerfilePath} {
			if _, err := fsys.Stat(path); err == nil {
				return Paths{}, fmt.Errorf("file already exists: %s", path)
			}
		}
	}

	cfg, err := HostConfig(rootDir)
	if err != nil {
		return Paths{}, err
	}
	configYAML, err := yaml.Marshal(cfg)
	if err != nil {
		return Paths{}, err
	}
	if len(opts.Overrides) > 0 {
		if configYAML, err = applyOverridesToYAML(configYAML, opts.Overrides); err != nil {
			return Paths{}, err
		}
	}
	contentYAML, err := content.Marshal(content.Export(core.DefaultCatalog()))
	if err != nil {
		return Paths{}, err
	}
	tplData := templateData{
		ConfigFile:  configName,
		ContentFile: contentName,
		HostKeyFile: hostKeyName,
		HostDir:     rootDir,
		ServerImage: tagImage(defaultServerImage, resolveImageTag(opts.ImageTag)),
		HTTPPort:    portOf(cfg.HTTP.Addr, "27480"),
		SSHPort:     portOf(cfg.SSH.Addr, "27422"),
	}
	composeYAML, err := renderTemplate("templates/docker-compose.yaml.tmpl", tplData)
	if err != nil {
		return Paths{}, err
	}
	containerfile, err := renderTemplate("templates/Containerfile.hackterm.tmpl", tplData)
	if err != nil {
		return Paths{}, err
	}
	env := fmt.Sprintf("UID=%d\nGID=%d\n%s_CONFIG=%s\n", os.Getuid(), os.Getgid(), appconfig.EnvPrefix, paths.ConfigPath)

	if err := fsys.MkdirAll(rootDir, 0o755); err != nil {
		return Paths{}, err
	}
	writes := []struct {
		path string
		data []byte
		mode os.FileMode
	}{
		{paths.ConfigPath, configYAML, 0o600},
		{paths.ContentPath, contentYAML, 0o644},
		{paths.EnvPath, []byte(env), 0o600},
		{paths.ComposePath, composeYAML, 0o644},
		{paths.ContainerfilePath, containerfile, 0o644},
	}
	for _, w := range writes {
		if err := afero.WriteFile(fsys, w.path, w.data, w.mode); err != nil {
			return Paths{}, err
		}
	}
	if _, err := sshserver.EnsureHostKey(fsys, paths.HostKeyPath); err != nil {
		return Paths{}, err
	}
	return paths, nil
}

// HostConfig returns the default config rooted at dir.
func HostConfig(dir string) (appconfig.Config, error) {
	cfg, err := appconfig.DefaultConfig()
	if err != nil {
		return appconfig.Config{}, err
	}
	cfg.ConfigVersion = appconfig.CurrentConfigVersion
	cfg.Content.Path = filepath.Join(dir, contentName)
	cfg.SSH.HostKeyPath = filepath.Join(dir, hostKeyName)
	return cfg, nil
}

func portOf(addr, fallback string) string {
	_, port, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil || port == "" {
		return fallback
	}
	return port
}

func renderTemplate(name string, data templateData) ([]byte, error) {
	raw, err := readEmbeddedFile(name)
	if err != nil {
		return nil, err
	}
	tpl, err := template.New(filepath.Base(name)).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func applyOverridesToYAML(configYAML []byte, overrides []ConfigOverride) ([]byte, error) {
	var data map[string]any
	if err := yaml.Unmarshal(configYAML, &data); err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	for _, override := range overrides {
		if err := setOverrideValue(data, override.Path, override.Value); err != nil {
			return nil, err
		}
	}
	return yaml.Marshal(data)
}

func setOverrideValue(root map[string]any, path string, value any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("config override path is required")
	}
	parts := strings.Split(path, ".")
	node := root
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return fmt.Errorf("invalid config override path %q", path)
		}
		if i == len(parts)-1 {
			node[part] = value
			return nil
		}
		next, ok := node[part]
		if !ok || next == nil {
			child := map[string]any{}
			node[part] = child
			node = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("config override %q: %q is not a map", path, part)
		}
		node = child
	}
	return nil
}

func resolveImageTag(override string) string {
	if value := strings.TrimSpace(override); value != "" {
		return value
	}
	value := strings.TrimSpace(version.Current())
	if value == "" {
		return "v0.0.0-unknown"
	}
	return value
}

func tagImage(base, tag string) string {
	base = stripImageTag(base)
	if base == "" {
		return ""
	}
	if strings.TrimSpace(tag) == "" {
		tag = "v0.0.0-unknown"
	}
	return base + ":" + tag
}

func stripImageTag(image string) string {
	image = strings.TrimSpace(image)
	if image == "" {
		return ""
	}
	if at := strings.LastIndex(image, "@"); at != -1 {
		image = image[:at]
	}
	lastSlash := strings.LastIndex(image, "/")
	lastColon := strings.LastIndex(image, ":")
	if lastColon > lastSlash {
		return image[:lastColon]
	}
	return image
}
