package appconfig

import (
	"os"
	"path/filepath"
	"time"

	"pkt.systems/hackterm/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	Theme         string        `mapstructure:"theme" yaml:"theme"`
	Service       ServiceConfig `mapstructure:"service" yaml:"service"`
	Content       ContentConfig `mapstructure:"content" yaml:"content"`
	HTTP          HTTPConfig    `mapstructure:"http" yaml:"http"`
	SSH           SSHConfig     `mapstructure:"ssh" yaml:"ssh"`
	Logging       LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// ServiceConfig controls session timings and limits.
type ServiceConfig struct {
	ExploitDurationMS  int     `mapstructure:"exploit_duration_ms" yaml:"exploit_duration_ms"`
	ScanIntervalMS     int     `mapstructure:"scan_interval_ms" yaml:"scan_interval_ms"`
	ScanCeiling        float64 `mapstructure:"scan_ceiling" yaml:"scan_ceiling"`
	ScanMaxStep        float64 `mapstructure:"scan_max_step" yaml:"scan_max_step"`
	MatrixDurationMS   int     `mapstructure:"matrix_duration_ms" yaml:"matrix_duration_ms"`
	ScanPolicy         string  `mapstructure:"scan_policy" yaml:"scan_policy"`
	TranscriptMaxLines int     `mapstructure:"transcript_max_lines" yaml:"transcript_max_lines"`
	HistoryMaxEntries  int     `mapstructure:"history_max_entries" yaml:"history_max_entries"`
	MaxSessions        int     `mapstructure:"max_sessions" yaml:"max_sessions"`
}

// ContentConfig points at optional text overrides.
type ContentConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr               string   `mapstructure:"addr" yaml:"addr"`
	SessionCookie      string   `mapstructure:"session_cookie" yaml:"session_cookie"`
	SessionTTLHours    int      `mapstructure:"session_ttl_hours" yaml:"session_ttl_hours"`
	BaseURL            string   `mapstructure:"base_url" yaml:"base_url"`
	BasePath           string   `mapstructure:"base_path" yaml:"base_path"`
	AllowedOrigins     []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	RateLimit          float64  `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst          int      `mapstructure:"rate_burst" yaml:"rate_burst"`
	InitialBufferLines int      `mapstructure:"initial_buffer_lines" yaml:"initial_buffer_lines"`
}

// SSHConfig configures the SSH server.
type SSHConfig struct {
	Addr               string `mapstructure:"addr" yaml:"addr"`
	HostKeyPath        string `mapstructure:"host_key_path" yaml:"host_key_path"`
	IdleTimeoutMinutes int    `mapstructure:"idle_timeout_minutes" yaml:"idle_timeout_minutes"`
}

// LoggingConfig controls command logging.
type LoggingConfig struct {
	DisableCommandLog bool `mapstructure:"disable_command_log" yaml:"disable_command_log"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Theme:         string(schema.DefaultTheme),
		Service: ServiceConfig{
			ExploitDurationMS:  int(schema.DefaultExploitDuration / time.Millisecond),
			ScanIntervalMS:     int(schema.DefaultScanInterval / time.Millisecond),
			ScanCeiling:        schema.DefaultScanCeiling,
			ScanMaxStep:        schema.DefaultScanMaxStep,
			MatrixDurationMS:   int(schema.DefaultMatrixDuration / time.Millisecond),
			ScanPolicy:         string(schema.ScanPolicyRestart),
			TranscriptMaxLines: 5000,
			HistoryMaxEntries:  1000,
			MaxSessions:        1000,
		},
		Content: ContentConfig{
			Path: "",
		},
		HTTP: HTTPConfig{
			Addr:               ":27480",
			SessionCookie:      "hackterm_session",
			SessionTTLHours:    24,
			BaseURL:            "",
			BasePath:           "",
			AllowedOrigins:     []string{},
			RateLimit:          20,
			RateBurst:          40,
			InitialBufferLines: 500,
		},
		SSH: SSHConfig{
			Addr:               ":27422",
			HostKeyPath:        filepath.Join(home, ".hackterm", "ssh_host_key"),
			IdleTimeoutMinutes: 30,
		},
		Logging: LoggingConfig{
			DisableCommandLog: false,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".hackterm", "config.yaml"), nil
}

// ServiceConfig maps the file settings to the core service config.
func (c Config) ServiceConfig() schema.ServiceConfig {
	return schema.ServiceConfig{
		ExploitDuration:       time.Duration(c.Service.ExploitDurationMS) * time.Millisecond,
		ScanInterval:          time.Duration(c.Service.ScanIntervalMS) * time.Millisecond,
		ScanCeiling:           c.Service.ScanCeiling,
		ScanMaxStep:           c.Service.ScanMaxStep,
		MatrixDuration:        time.Duration(c.Service.MatrixDurationMS) * time.Millisecond,
		ScanPolicy:            schema.ScanPolicy(c.Service.ScanPolicy),
		TranscriptMaxLines:    c.Service.TranscriptMaxLines,
		HistoryMaxEntries:     c.Service.HistoryMaxEntries,
		MaxSessions:           c.Service.MaxSessions,
		DisableCommandLogging: c.Logging.DisableCommandLog,
	}
}
