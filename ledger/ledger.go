// Package ledger captures failed-test records for end-of-run replay.
package ledger

import (
	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"
)

// Entry is one captured test failure. Entries are append-only and never
// deduplicated: a retried test id appears once per failure, in arrival
// order.
type Entry struct {
	SessionID string
	TestID    string
	ElapsedMs int64
	Message   string
}

// SessionEntries groups a session's failures for rendering.
type SessionEntries struct {
	SessionID string
	Entries   []Entry
}

// Ledger maps session identifiers to their ordered failure lists. It is
// owned by a single aggregator for the process lifetime and is never
// cleared; callers render it once at run end.
type Ledger struct {
	logger  log.Logger
	entries map[string][]Entry
	order   []string
	total   int
}

// New creates an empty ledger.
func New(logger log.Logger) *Ledger {
	if logger == nil {
		logger = log.New()
	}
	return &Ledger{
		logger:  logger,
		entries: make(map[string][]Entry),
	}
}

// Record appends a failure entry, creating the per-session list on first
// use. The session identifier is not validated. Failure messages arriving
// from remote environments can carry ANSI control sequences from the
// browser console; those are stripped before storage.
func (l *Ledger) Record(sessionID, testID string, elapsedMs int64, err error) {
	message := ""
	if err != nil {
		message = stripansi.Strip(err.Error())
	}

	if _, exists := l.entries[sessionID]; !exists {
		l.order = append(l.order, sessionID)
	}
	l.entries[sessionID] = append(l.entries[sessionID], Entry{
		SessionID: sessionID,
		TestID:    testID,
		ElapsedMs: elapsedMs,
		Message:   message,
	})
	l.total++

	l.logger.Debug("Recorded test failure", "session", sessionID, "test", testID, "elapsed_ms", elapsedMs)
}

// DrainAll returns every session's entries grouped by session, in
// first-failure order across sessions and insertion order within one.
// The read is side-effect free; the ledger is not cleared.
func (l *Ledger) DrainAll() []SessionEntries {
	out := make([]SessionEntries, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, SessionEntries{SessionID: id, Entries: l.entries[id]})
	}
	return out
}

// Len returns the total number of recorded failures across all sessions.
func (l *Ledger) Len() int {
	return l.total
}
