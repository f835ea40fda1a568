package scan

import (
	"runtime"
	"time"

	"obsidian-core/config"
)

// Config is the subset of the node's configuration the scanner cares about.
// Callers already holding a *config.Config (loaded via config.Load) can
// build one with ConfigFromNode instead of re-parsing environment
// variables here.
type Config struct {
	BatchWorkers          int
	BatchQueueDepth       int
	SlowScanWarnThreshold time.Duration
}

// DefaultConfig mirrors the defaults config.Load() would produce for the
// scan-related fields, for callers that construct a Scanner without going
// through the node's shared configuration.
func DefaultConfig() Config {
	return Config{
		BatchWorkers:          runtime.NumCPU(),
		BatchQueueDepth:       256,
		SlowScanWarnThreshold: 2 * time.Second,
	}
}

// ConfigFromNode extracts the scanner's slice of the node-wide configuration.
func ConfigFromNode(c *config.Config) Config {
	return Config{
		BatchWorkers:          c.ScanBatchWorkers,
		BatchQueueDepth:       c.ScanBatchQueueDepth,
		SlowScanWarnThreshold: c.ScanSlowWarnThreshold,
	}
}
