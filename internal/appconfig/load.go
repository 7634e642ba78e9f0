package appconfig

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"pkt.systems/hackterm/schema"
)

// EnvPrefix prefixes environment overrides, e.g. HACKTERM_HTTP_ADDR.
const EnvPrefix = "HACKTERM"

// Load reads configuration from path, or DefaultConfigPath when path is
// empty. A missing file yields the defaults; environment overrides apply
// either way.
func Load(path string) (Config, error) {
	path, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := registerDefaults(v, cfg); err != nil {
		return Config{}, err
	}

	switch err := v.ReadInConfig(); {
	case err == nil:
		if err := checkVersion(v); err != nil {
			return Config{}, err
		}
	case isNotFound(err):
	default:
		return Config{}, err
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	for _, p := range []*string{&cfg.Content.Path, &cfg.SSH.HostKeyPath} {
		*p = expandEnv(*p)
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return DefaultConfigPath()
}

// registerDefaults walks the YAML form of cfg and registers every leaf as a
// viper default, so each key is also reachable from the environment.
func registerDefaults(v *viper.Viper, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}
	setLeaves(v, "", tree)
	return nil
}

func setLeaves(v *viper.Viper, prefix string, node map[string]any) {
	for key, value := range node {
		if prefix != "" {
			key = prefix + "." + key
		}
		if child, ok := value.(map[string]any); ok {
			setLeaves(v, key, child)
			continue
		}
		v.SetDefault(key, value)
	}
}

func checkVersion(v *viper.Viper) error {
	if !v.InConfig("config_version") {
		return fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
	}
	if got := v.GetInt("config_version"); got != CurrentConfigVersion {
		return fmt.Errorf("unsupported config_version %d; expected %d", got, CurrentConfigVersion)
	}
	return nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

func validate(cfg Config) error {
	if _, ok := schema.NormalizeThemeName(cfg.Theme); !ok {
		return fmt.Errorf("unsupported theme %q", cfg.Theme)
	}
	if _, err := schema.NormalizeScanPolicy(cfg.Service.ScanPolicy); err != nil {
		return fmt.Errorf("service.scan_policy %q must be restart or ignore", cfg.Service.ScanPolicy)
	}
	switch {
	case cfg.Service.ScanCeiling < 0, cfg.Service.ScanMaxStep < 0:
		return errors.New("service scan settings must not be negative")
	case cfg.HTTP.RateLimit < 0, cfg.HTTP.RateBurst < 0:
		return errors.New("http rate limits must not be negative")
	}
	if base := strings.TrimSpace(cfg.HTTP.BaseURL); base != "" {
		parsed, err := url.Parse(base)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return errors.New("http.base_url must include scheme and host (e.g. https://example.com)")
		}
	}
	if prefix := strings.TrimSpace(cfg.HTTP.BasePath); strings.Contains(prefix, "://") || strings.ContainsAny(prefix, "?#") {
		return errors.New("http.base_path must be a plain path prefix")
	}
	return nil
}

// expandEnv substitutes $VAR references. UID and GID fall back to the
// process ids; unknown variables are left as written.
func expandEnv(value string) string {
	return os.Expand(value, func(name string) string {
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		switch name {
		case "UID":
			return strconv.Itoa(os.Getuid())
		case "GID":
			return strconv.Itoa(os.Getgid())
		case "":
			return ""
		}
		return "$" + name
	})
}

// WriteDefault writes the default config to path (DefaultConfigPath when
// empty) and returns where it was written.
func WriteDefault(path string, overwrite bool) (string, error) {
	path, err := resolvePath(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil && !overwrite {
		return "", fmt.Errorf("config already exists at %s", path)
	}
	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, os.WriteFile(path, data, 0o600)
}
