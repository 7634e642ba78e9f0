package appconfig

import (
	"testing"

	"pkt.systems/hackterm/schema"
)

func TestDefaultConfigMapsToValidServiceConfig(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if _, err := schema.NormalizeServiceConfig(cfg.ServiceConfig()); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Logging.DisableCommandLog {
		t.Fatalf("expected command log enabled by default")
	}
}
