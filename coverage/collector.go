package coverage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/log"
)

// SessionMarker flags a session as having delivered coverage. Implemented
// by the session registry.
type SessionMarker interface {
	MarkCoverage(sessionID string)
}

// Config contains collector configuration
type Config struct {
	Log log.Logger

	// File is the output path for the final artifact.
	File string

	// PriorPath is where a previous invocation's artifact is looked for
	// during finalization. Defaults to DefaultArtifactName.
	PriorPath string

	// AcceptUnattributed accepts snapshots with an empty session
	// identifier (single-environment client mode).
	AcceptUnattributed bool

	Sessions SessionMarker
}

// Collector owns the mergeable coverage accumulator for a run.
type Collector struct {
	config    Config
	acc       *Accumulator
	bridge    *Bridge
	snapshots int
	finalized bool
}

// NewCollector creates a collector with an empty accumulator.
func NewCollector(cfg Config) *Collector {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.File == "" {
		cfg.File = DefaultArtifactName
	}
	return &Collector{
		config: cfg,
		acc:    NewAccumulator(),
		bridge: NewBridge(cfg.Log, cfg.PriorPath),
	}
}

// Add merges a session's snapshot into the running accumulator and marks
// the owning session. A snapshot with an empty identifier is only usable in
// client mode; outside it there is no key to merge under, so the snapshot
// is dropped without error. Sessions may report coverage multiple times;
// every delivery merges.
func (c *Collector) Add(sessionID string, snap Snapshot) bool {
	if sessionID == "" && !c.config.AcceptUnattributed {
		c.config.Log.Debug("Dropping unattributed coverage snapshot", "files", len(snap))
		return false
	}

	if c.config.Sessions != nil {
		c.config.Sessions.MarkCoverage(sessionID)
	}
	c.acc.Merge(snap)
	c.snapshots++
	c.config.Log.Debug("Merged coverage snapshot", "session", sessionID, "files", len(snap))
	return true
}

// Snapshots returns how many snapshots have been accepted this run.
func (c *Collector) Snapshots() int {
	return c.snapshots
}

// Accumulator exposes the running consolidated state, read-only by
// convention; rendering happens after finalization.
func (c *Collector) Accumulator() *Accumulator {
	return c.acc
}

// Finalize reconciles with any prior on-disk artifact and writes the
// consolidated report to the configured path. A second call in the same
// process is a no-op returning the same path, guarding against the
// wasteful re-read-and-merge of the just-written file.
func (c *Collector) Finalize() (string, error) {
	if c.finalized {
		c.config.Log.Debug("Coverage already finalized", "path", c.config.File)
		return c.config.File, nil
	}

	if err := c.bridge.Reconcile(c.acc); err != nil {
		return "", err
	}
	if err := WriteArtifact(c.config.File, c.acc); err != nil {
		return "", fmt.Errorf("failed to persist coverage: %w", err)
	}

	c.finalized = true
	c.config.Log.Info("Coverage artifact written", "path", c.config.File, "files", c.acc.Len(), "snapshots", c.snapshots)
	return c.config.File, nil
}
