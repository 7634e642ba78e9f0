package sshserver

import (
	"time"

	"pkt.systems/hackterm/schema"
)

// Config defines SSH server settings.
type Config struct {
	Addr        string
	HostKeyPath string
	// IdleTimeout closes connections without traffic; zero disables it.
	IdleTimeout time.Duration
	Theme       schema.ThemeName
	// ExitGrace is how long the goodbye text stays on screen after exit.
	ExitGrace time.Duration
}

const defaultExitGrace = 1500 * time.Millisecond

func (c Config) withDefaults() Config {
	if c.ExitGrace <= 0 {
		c.ExitGrace = defaultExitGrace
	}
	if name, ok := schema.NormalizeThemeName(string(c.Theme)); ok {
		c.Theme = name
	} else {
		c.Theme = schema.DefaultTheme
	}
	return c
}
