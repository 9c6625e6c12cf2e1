// Package aggregator consumes lifecycle events from a distributed test
// execution and turns them into running totals, an end-of-run summary and a
// consolidated coverage artifact.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/testinfra/run-aggregator/coverage"
	"github.com/testinfra/run-aggregator/history"
	"github.com/testinfra/run-aggregator/ledger"
	"github.com/testinfra/run-aggregator/metrics"
	"github.com/testinfra/run-aggregator/registry"
	"github.com/testinfra/run-aggregator/types"
)

// Aggregator owns all mutable run state: the session registry, the error
// ledger and the coverage collector. The host engine delivers events one at
// a time; each handler runs synchronously to completion, so no handler
// takes a lock.
type Aggregator struct {
	ctx      context.Context
	config   *Config
	runID    string
	started  time.Time
	registry *registry.Registry
	ledger   *ledger.Ledger
	coverage *coverage.Collector
	history  *history.Store
	tracer   trace.Tracer

	fatalErr bool
	finished bool
}

// New constructs the per-run aggregator instance.
func New(ctx context.Context, config *Config) (*Aggregator, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Log == nil {
		config.Log = log.New()
	}

	reg := registry.NewRegistry(registry.Config{Log: config.Log})

	collector := coverage.NewCollector(coverage.Config{
		Log:                config.Log,
		File:               config.File,
		AcceptUnattributed: config.Mode == ModeClient,
		Sessions:           reg,
	})

	var store *history.Store
	if config.HistoryDB != "" {
		var err error
		store, err = history.Open(config.HistoryDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open run history: %w", err)
		}
	}

	runID := uuid.New().String()
	config.Log.Debug("Creating aggregator",
		"run_id", runID,
		"mode", config.Mode,
		"coverage_file", config.File)

	return &Aggregator{
		ctx:      ctx,
		config:   config,
		runID:    runID,
		started:  time.Now(),
		registry: reg,
		ledger:   ledger.New(config.Log),
		coverage: collector,
		history:  store,
		tracer:   otel.Tracer("run-aggregator"),
	}, nil
}

// RunID returns the identifier generated for this run.
func (a *Aggregator) RunID() string {
	return a.runID
}

// SuiteStart registers the session when a parentless suite starts. Nested
// suites carry no state of their own here; their counters roll up into the
// root.
func (a *Aggregator) SuiteStart(suite *types.Suite) {
	if suite == nil || !suite.Root() {
		return
	}
	a.registry.RegisterRoot(suite.SessionID, suite)
}

// SuiteEnd renders the per-session summary when a root suite completes.
// It fires only in remote, session-bearing mode; client runs get the
// run-end totals alone.
func (a *Aggregator) SuiteEnd(suite *types.Suite) {
	if suite == nil || !suite.Root() {
		return
	}
	a.registry.MarkCompleted(suite.SessionID)

	if a.config.Mode == ModeClient || suite.SessionID == "" {
		return
	}
	fmt.Fprintln(a.config.Output, formatSuiteResult(suite))
}

// TestPass records a passed test. Nothing is retained; the root suite's
// counters are host-maintained.
func (a *Aggregator) TestPass(test *types.Test) {
	a.writeGlyph(types.TestStatusPass)
}

// TestFail captures the failure into the ledger for end-of-run replay.
func (a *Aggregator) TestFail(test *types.Test) {
	a.writeGlyph(types.TestStatusFail)
	if test == nil {
		return
	}
	a.ledger.Record(test.SessionID, test.ID, test.Elapsed, test.Err)
}

// TestSkip records a skipped test.
func (a *Aggregator) TestSkip(test *types.Test) {
	a.writeGlyph(types.TestStatusSkip)
}

// Coverage merges a session's coverage snapshot. Sessions may deliver
// incrementally; every accepted snapshot adds to the accumulator.
func (a *Aggregator) Coverage(sessionID string, snap coverage.Snapshot) {
	if a.coverage.Add(sessionID, snap) {
		metrics.RecordCoverage(a.runID, a.coverage.Accumulator().Len())
	}
}

// FatalError reflects a host-signaled run-level failure independent of any
// individual test. It forces the run-end summary into its failure branch
// even when no test failed.
func (a *Aggregator) FatalError(err error) {
	a.fatalErr = true
	a.config.Log.Error("Fatal run error signaled", "err", err)
}

// RunEnd walks the registry once, replays the error ledger, prints the
// totals line and finalizes coverage. Sessions that never completed (e.g.
// a crashed remote environment) are included with whatever counters their
// root suite last reported.
func (a *Aggregator) RunEnd() error {
	if a.finished {
		a.config.Log.Debug("RunEnd called twice, ignoring")
		return nil
	}
	a.finished = true
	finishedAt := time.Now()

	out := a.config.Output
	fmt.Fprintln(out)

	if a.ledger.Len() > 0 {
		fmt.Fprintln(out, formatFailureHeader())
		for _, group := range a.ledger.DrainAll() {
			for _, entry := range group.Entries {
				fmt.Fprintln(out, formatFailure(entry))
			}
		}
	}

	var total, failed, skipped int
	sessions := a.registry.Sessions()
	for _, session := range sessions {
		if session.Root == nil {
			continue
		}
		total += session.Root.Total
		failed += session.Root.Failed
		skipped += session.Root.Skipped
	}
	fmt.Fprintln(out, formatTotals(len(sessions), total, failed, skipped, a.fatalErr))

	_, span := a.tracer.Start(a.ctx, "coverage.finalize")
	path, err := a.coverage.Finalize()
	span.SetAttributes(
		attribute.Int("coverage.files", a.coverage.Accumulator().Len()),
		attribute.Int("coverage.snapshots", a.coverage.Snapshots()),
	)
	span.End()
	if err != nil {
		metrics.RecordErrorDetails("coverage finalization failed", err)
		return NewRuntimeError(err)
	}
	a.config.Log.Debug("Run finalized", "run_id", a.runID, "artifact", path)

	coverage.RenderSummary(out, a.coverage.Accumulator(), a.config.Watermarks)

	status := types.TestStatusPass
	if failed > 0 || a.fatalErr {
		status = types.TestStatusFail
	}
	metrics.RecordRun(a.runID, string(status), len(sessions), total, failed, skipped, finishedAt.Sub(a.started))

	if a.history != nil {
		record := history.Run{
			RunID:         a.runID,
			StartedAt:     a.started,
			FinishedAt:    finishedAt,
			Platforms:     len(sessions),
			Total:         total,
			Failed:        failed,
			Skipped:       skipped,
			FatalError:    a.fatalErr,
			CoverageFiles: a.coverage.Accumulator().Len(),
			Duration:      finishedAt.Sub(a.started),
		}
		if err := a.history.RecordRun(record); err != nil {
			a.config.Log.Error("Failed to record run history", "err", err)
			metrics.RecordErrorDetails("history record failed", err)
		}
	}

	if status == types.TestStatusFail {
		return NewTestFailureError(fmt.Sprintf("%d/%d tests failed", failed, total))
	}
	return nil
}

// Close releases resources held across the run.
func (a *Aggregator) Close() error {
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}

func (a *Aggregator) writeGlyph(status types.TestStatus) {
	fmt.Fprint(a.config.Output, glyph(status))
}
