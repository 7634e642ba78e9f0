package core

import (
	"time"

	"pkt.systems/hackterm/internal/clock"
	"pkt.systems/pslog"
)

// ServiceDeps captures optional dependencies for the core service.
type ServiceDeps struct {
	// Catalog overrides the built-in text. Nil uses DefaultCatalog.
	Catalog   *Catalog
	Scheduler clock.Scheduler
	// Rand returns values in [0, 1) and drives scan progress.
	Rand      func() float64
	Now       func() time.Time
	EventSink EventSink
	Logger    pslog.Logger
}
