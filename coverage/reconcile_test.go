package coverage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridge_Reconcile_MergesPriorArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverage.json")

	prior := NewAccumulator()
	prior.Merge(snapshotWithCounts("src/app.js", 5))
	require.NoError(t, WriteArtifact(path, prior))

	acc := NewAccumulator()
	acc.Merge(snapshotWithCounts("src/app.js", 3))

	bridge := NewBridge(nil, path)
	require.NoError(t, bridge.Reconcile(acc))

	assert.Equal(t, int64(8), acc.Files()["src/app.js"].Statements["0"],
		"prior count 5 plus current count 3 must consolidate to 8")
}

func TestBridge_Reconcile_AbsentArtifactIsNoOp(t *testing.T) {
	acc := NewAccumulator()
	acc.Merge(snapshotWithCounts("src/app.js", 3))

	bridge := NewBridge(nil, filepath.Join(t.TempDir(), "coverage.json"))
	require.NoError(t, bridge.Reconcile(acc))

	assert.Equal(t, int64(3), acc.Files()["src/app.js"].Statements["0"])
	assert.Equal(t, 1, acc.Len())
}

func TestBridge_Reconcile_MalformedArtifactIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverage.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))

	bridge := NewBridge(nil, path)
	err := bridge.Reconcile(NewAccumulator())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt")
}
