package aggregator

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/testinfra/run-aggregator/coverage"
	"github.com/testinfra/run-aggregator/types"
)

// Event types emitted by the host engine, one JSON object per line.
const (
	EventSuiteStart = "suiteStart"
	EventSuiteEnd   = "suiteEnd"
	EventTestPass   = "testPass"
	EventTestFail   = "testFail"
	EventTestSkip   = "testSkip"
	EventCoverage   = "coverage"
	EventFatalError = "fatalError"
	EventRunEnd     = "runEnd"
)

type suiteEvent struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SessionID string `json:"sessionId"`
	ParentID  string `json:"parentId"`
	Total     int    `json:"total"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	Error     string `json:"error"`

	// TestErrors are terminal errors carried by this suite's own tests,
	// distinct from ordinary assertion failures.
	TestErrors []string `json:"testErrors"`
}

type testEvent struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	ElapsedMs int64  `json:"elapsedMs"`
	Error     string `json:"error"`
}

type eventEnvelope struct {
	Type      string            `json:"type"`
	Suite     *suiteEvent       `json:"suite,omitempty"`
	Test      *testEvent        `json:"test,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
	Snapshot  coverage.Snapshot `json:"snapshot,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// StreamReader decodes the host engine's newline-delimited event stream and
// dispatches each event to the aggregator in arrival order. It rebuilds the
// suite tree from the ids the engine sends, since the engine owns the tree
// and this process only observes it.
type StreamReader struct {
	agg    *Aggregator
	suites map[string]*types.Suite
}

// NewStreamReader creates a reader dispatching into agg.
func NewStreamReader(agg *Aggregator) *StreamReader {
	return &StreamReader{
		agg:    agg,
		suites: make(map[string]*types.Suite),
	}
}

// Read consumes events from r until runEnd or EOF. A stream that ends
// without a runEnd event still finalizes, so a dying engine cannot lose the
// totals accumulated so far. The returned error carries the run outcome:
// nil, TestFailureError or RuntimeError.
func (sr *StreamReader) Read(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var env eventEnvelope
		if err := json.Unmarshal(line, &env); err != nil {
			sr.agg.config.Log.Warn("Skipping undecodable event line", "err", err)
			continue
		}

		if env.Type == EventRunEnd {
			return sr.agg.RunEnd()
		}
		sr.dispatch(env)
	}

	if err := scanner.Err(); err != nil {
		return NewRuntimeError(fmt.Errorf("event stream read failed: %w", err))
	}

	sr.agg.config.Log.Warn("Event stream ended without a runEnd event")
	return sr.agg.RunEnd()
}

func (sr *StreamReader) dispatch(env eventEnvelope) {
	switch env.Type {
	case EventSuiteStart:
		if env.Suite == nil {
			return
		}
		sr.agg.SuiteStart(sr.startSuite(env.Suite))

	case EventSuiteEnd:
		if env.Suite == nil {
			return
		}
		sr.agg.SuiteEnd(sr.endSuite(env.Suite))

	case EventTestPass:
		sr.agg.TestPass(decodeTest(env.Test))

	case EventTestFail:
		sr.agg.TestFail(decodeTest(env.Test))

	case EventTestSkip:
		sr.agg.TestSkip(decodeTest(env.Test))

	case EventCoverage:
		sr.agg.Coverage(env.SessionID, env.Snapshot)

	case EventFatalError:
		sr.agg.FatalError(errors.New(env.Error))

	default:
		sr.agg.config.Log.Warn("Ignoring unknown event type", "type", env.Type)
	}
}

// startSuite materializes the tree node for a suiteStart event, linking it
// under its parent when one is known.
func (sr *StreamReader) startSuite(ev *suiteEvent) *types.Suite {
	suite := &types.Suite{
		ID:        ev.ID,
		Name:      ev.Name,
		SessionID: ev.SessionID,
	}
	if ev.ParentID != "" {
		if parent, exists := sr.suites[ev.ParentID]; exists {
			suite.Parent = parent
			parent.Children = append(parent.Children, suite)
		}
	}
	sr.suites[ev.ID] = suite
	return suite
}

// endSuite folds the engine's final counters into the existing node. An end
// event for an unseen suite is tolerated and treated as a bare root.
func (sr *StreamReader) endSuite(ev *suiteEvent) *types.Suite {
	suite, exists := sr.suites[ev.ID]
	if !exists {
		suite = &types.Suite{ID: ev.ID, Name: ev.Name, SessionID: ev.SessionID}
		sr.suites[ev.ID] = suite
	}
	suite.Total = ev.Total
	suite.Failed = ev.Failed
	suite.Skipped = ev.Skipped
	if ev.Error != "" {
		suite.Err = errors.New(ev.Error)
	}
	for _, msg := range ev.TestErrors {
		suite.TestErrs = append(suite.TestErrs, errors.New(msg))
	}
	return suite
}

func decodeTest(ev *testEvent) *types.Test {
	if ev == nil {
		return nil
	}
	test := &types.Test{
		ID:        ev.ID,
		SessionID: ev.SessionID,
		Elapsed:   ev.ElapsedMs,
	}
	if ev.Error != "" {
		test.Err = errors.New(ev.Error)
	}
	return test
}
