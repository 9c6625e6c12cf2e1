package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_Record(t *testing.T) {
	l := New(nil)

	l.Record("chrome-1", "should add numbers", 12, errors.New("expected 2, got 3"))

	require.Equal(t, 1, l.Len())
	groups := l.DrainAll()
	require.Len(t, groups, 1)
	assert.Equal(t, "chrome-1", groups[0].SessionID)
	require.Len(t, groups[0].Entries, 1)

	entry := groups[0].Entries[0]
	assert.Equal(t, "should add numbers", entry.TestID)
	assert.Equal(t, int64(12), entry.ElapsedMs)
	assert.Equal(t, "expected 2, got 3", entry.Message)
}

func TestLedger_Record_StripsANSISequences(t *testing.T) {
	l := New(nil)

	l.Record("chrome-1", "styled failure", 5, fmt.Errorf("\x1b[31mexpected true\x1b[0m"))

	entry := l.DrainAll()[0].Entries[0]
	assert.Equal(t, "expected true", entry.Message)
}

func TestLedger_Record_NilError(t *testing.T) {
	l := New(nil)

	l.Record("chrome-1", "no message", 1, nil)

	entry := l.DrainAll()[0].Entries[0]
	assert.Equal(t, "", entry.Message)
}

func TestLedger_Record_RetriedTestKeepsBothEntries(t *testing.T) {
	l := New(nil)

	l.Record("chrome-1", "flaky test", 10, errors.New("first failure"))
	l.Record("chrome-1", "flaky test", 20, errors.New("second failure"))

	groups := l.DrainAll()
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Entries, 2, "retried failures must not be deduplicated")
	assert.Equal(t, "first failure", groups[0].Entries[0].Message)
	assert.Equal(t, "second failure", groups[0].Entries[1].Message)
}

func TestLedger_DrainAll_GroupsBySessionInArrivalOrder(t *testing.T) {
	l := New(nil)

	l.Record("firefox-1", "t1", 1, errors.New("e1"))
	l.Record("chrome-1", "t2", 2, errors.New("e2"))
	l.Record("firefox-1", "t3", 3, errors.New("e3"))

	groups := l.DrainAll()
	require.Len(t, groups, 2)
	assert.Equal(t, "firefox-1", groups[0].SessionID)
	assert.Equal(t, []string{"t1", "t3"}, []string{groups[0].Entries[0].TestID, groups[0].Entries[1].TestID})
	assert.Equal(t, "chrome-1", groups[1].SessionID)

	// Reading is side-effect free.
	assert.Equal(t, 3, l.Len())
	assert.Len(t, l.DrainAll(), 2)
}
