package schema

import (
	"errors"
	"time"
)

// ServiceConfig defines timings and limits for the core service.
type ServiceConfig struct {
	ExploitDuration time.Duration
	ScanInterval    time.Duration
	ScanCeiling     float64
	ScanMaxStep     float64
	MatrixDuration  time.Duration
	ScanPolicy      ScanPolicy
	// TranscriptMaxLines caps each transcript. Zero keeps every line.
	TranscriptMaxLines int
	// HistoryMaxEntries caps each command history. Zero keeps every entry.
	HistoryMaxEntries int
	// MaxSessions caps concurrently open sessions. Zero means no cap.
	MaxSessions int
	// DisableCommandLogging suppresses the per-submit debug log line.
	DisableCommandLogging bool
}

// Service defaults.
const (
	DefaultExploitDuration = 3 * time.Second
	DefaultScanInterval    = 500 * time.Millisecond
	DefaultScanCeiling     = 100
	DefaultScanMaxStep     = 30
	DefaultMatrixDuration  = 5 * time.Second
)

// NormalizeServiceConfig applies defaults and validates the config.
func NormalizeServiceConfig(cfg ServiceConfig) (ServiceConfig, error) {
	if cfg.ExploitDuration <= 0 {
		cfg.ExploitDuration = DefaultExploitDuration
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = DefaultScanInterval
	}
	if cfg.ScanCeiling <= 0 {
		cfg.ScanCeiling = DefaultScanCeiling
	}
	if cfg.ScanMaxStep <= 0 {
		cfg.ScanMaxStep = DefaultScanMaxStep
	}
	if cfg.MatrixDuration <= 0 {
		cfg.MatrixDuration = DefaultMatrixDuration
	}
	policy, err := NormalizeScanPolicy(string(cfg.ScanPolicy))
	if err != nil {
		return ServiceConfig{}, err
	}
	cfg.ScanPolicy = policy
	if cfg.TranscriptMaxLines < 0 || cfg.HistoryMaxEntries < 0 || cfg.MaxSessions < 0 {
		return ServiceConfig{}, errors.New("limits must not be negative")
	}
	return cfg, nil
}
