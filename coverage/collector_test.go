package coverage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionMarkerStub struct {
	marked []string
}

func (s *sessionMarkerStub) MarkCoverage(sessionID string) {
	s.marked = append(s.marked, sessionID)
}

func TestCollector_Add_RemoteMode(t *testing.T) {
	marker := &sessionMarkerStub{}
	c := NewCollector(Config{Sessions: marker})

	accepted := c.Add("chrome-1", snapshotWithCounts("src/app.js", 2))

	assert.True(t, accepted)
	assert.Equal(t, 1, c.Snapshots())
	assert.Equal(t, []string{"chrome-1"}, marker.marked)
	assert.Equal(t, int64(2), c.Accumulator().Files()["src/app.js"].Statements["0"])
}

func TestCollector_Add_EmptySessionOutsideClientModeIsNoOp(t *testing.T) {
	marker := &sessionMarkerStub{}
	c := NewCollector(Config{Sessions: marker})

	accepted := c.Add("", snapshotWithCounts("src/app.js", 2))

	assert.False(t, accepted, "unattributable snapshot must be dropped")
	assert.Equal(t, 0, c.Snapshots())
	assert.Empty(t, marker.marked)
	assert.Equal(t, 0, c.Accumulator().Len(), "no state change on drop")
}

func TestCollector_Add_EmptySessionInClientMode(t *testing.T) {
	c := NewCollector(Config{AcceptUnattributed: true})

	accepted := c.Add("", snapshotWithCounts("src/app.js", 2))

	assert.True(t, accepted)
	assert.Equal(t, 1, c.Accumulator().Len())
}

func TestCollector_Add_IncrementalDeliveriesMerge(t *testing.T) {
	c := NewCollector(Config{})

	c.Add("chrome-1", snapshotWithCounts("src/app.js", 2))
	c.Add("chrome-1", snapshotWithCounts("src/app.js", 3))

	assert.Equal(t, 2, c.Snapshots())
	assert.Equal(t, int64(5), c.Accumulator().Files()["src/app.js"].Statements["0"])
}

func TestCollector_Finalize_WritesArtifactAndFoldsPrior(t *testing.T) {
	dir := t.TempDir()
	priorPath := filepath.Join(dir, "coverage.json")
	outPath := filepath.Join(dir, "merged", "coverage.json")

	prior := NewAccumulator()
	prior.Merge(snapshotWithCounts("src/app.js", 5))
	require.NoError(t, WriteArtifact(priorPath, prior))

	c := NewCollector(Config{File: outPath, PriorPath: priorPath})
	c.Add("chrome-1", snapshotWithCounts("src/app.js", 3))

	written, err := c.Finalize()
	require.NoError(t, err)
	assert.Equal(t, outPath, written)

	snap, err := ReadArtifact(outPath)
	require.NoError(t, err)
	assert.Equal(t, int64(8), snap["src/app.js"].Statements["0"])
}

func TestCollector_Finalize_SecondCallIsNoOp(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "coverage-out.json")

	c := NewCollector(Config{File: outPath, PriorPath: filepath.Join(dir, "coverage.json")})
	c.Add("chrome-1", snapshotWithCounts("src/app.js", 3))

	_, err := c.Finalize()
	require.NoError(t, err)

	path, err := c.Finalize()
	require.NoError(t, err)
	assert.Equal(t, outPath, path)

	// The already-written artifact is not re-read, so counts stay put.
	snap, err := ReadArtifact(outPath)
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap["src/app.js"].Statements["0"])
}
