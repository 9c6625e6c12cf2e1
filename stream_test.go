package aggregator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testinfra/run-aggregator/coverage"
)

func TestStreamReader_Read(t *testing.T) {
	agg, buf := newTestAggregator(t, ModeRemote)

	stream := strings.Join([]string{
		`{"type":"suiteStart","suite":{"id":"root-1","name":"Chrome 120","sessionId":"chrome-1"}}`,
		`{"type":"suiteStart","suite":{"id":"math-1","name":"math","sessionId":"chrome-1","parentId":"root-1"}}`,
		`{"type":"testPass","test":{"id":"adds","sessionId":"chrome-1","elapsedMs":5}}`,
		`{"type":"testFail","test":{"id":"subtracts","sessionId":"chrome-1","elapsedMs":12,"error":"expected 1, got 2"}}`,
		`{"type":"testSkip","test":{"id":"divides","sessionId":"chrome-1","elapsedMs":0}}`,
		`{"type":"coverage","sessionId":"chrome-1","snapshot":{"src/math.js":{"path":"src/math.js","s":{"0":3},"b":{},"f":{}}}}`,
		`{"type":"suiteEnd","suite":{"id":"math-1","name":"math","sessionId":"chrome-1","parentId":"root-1","total":3,"failed":1,"skipped":1}}`,
		`{"type":"suiteEnd","suite":{"id":"root-1","name":"Chrome 120","sessionId":"chrome-1","total":3,"failed":1,"skipped":1}}`,
		`{"type":"runEnd"}`,
	}, "\n")

	err := NewStreamReader(agg).Read(strings.NewReader(stream))
	require.Error(t, err)
	assert.True(t, IsTestFailureError(err))

	out := buf.String()
	assert.Contains(t, out, "Chrome 120: 1/3 tests failed (1 skipped)")
	assert.Contains(t, out, "TOTAL: tested 1 platforms, 1/3 failed (1 skipped)")
	assert.Contains(t, out, "expected 1, got 2")

	snap, err := coverage.ReadArtifact(agg.config.File)
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap["src/math.js"].Statements["0"])
}

func TestStreamReader_Read_FinalizesWithoutRunEnd(t *testing.T) {
	agg, buf := newTestAggregator(t, ModeRemote)

	stream := strings.Join([]string{
		`{"type":"suiteStart","suite":{"id":"root-1","name":"Chrome 120","sessionId":"chrome-1"}}`,
		`{"type":"suiteEnd","suite":{"id":"root-1","name":"Chrome 120","sessionId":"chrome-1","total":2}}`,
	}, "\n")

	require.NoError(t, NewStreamReader(agg).Read(strings.NewReader(stream)))
	assert.Contains(t, buf.String(), "TOTAL: tested 1 platforms, 0/2 failed")
}

func TestStreamReader_Read_SuiteTerminalErrors(t *testing.T) {
	agg, buf := newTestAggregator(t, ModeRemote)

	stream := strings.Join([]string{
		`{"type":"suiteStart","suite":{"id":"root-1","name":"Firefox 121","sessionId":"firefox-1"}}`,
		`{"type":"suiteEnd","suite":{"id":"root-1","name":"Firefox 121","sessionId":"firefox-1","total":4,"testErrors":["page crashed"]}}`,
		`{"type":"runEnd"}`,
	}, "\n")

	require.NoError(t, NewStreamReader(agg).Read(strings.NewReader(stream)))
	assert.Contains(t, buf.String(), "Firefox 121: 0/4 tests failed; fatal error occurred")
}

func TestStreamReader_Read_FatalErrorEvent(t *testing.T) {
	agg, buf := newTestAggregator(t, ModeRemote)

	stream := strings.Join([]string{
		`{"type":"suiteStart","suite":{"id":"root-1","name":"Chrome 120","sessionId":"chrome-1"}}`,
		`{"type":"suiteEnd","suite":{"id":"root-1","name":"Chrome 120","sessionId":"chrome-1","total":1}}`,
		`{"type":"fatalError","error":"launcher died"}`,
		`{"type":"runEnd"}`,
	}, "\n")

	err := NewStreamReader(agg).Read(strings.NewReader(stream))
	require.Error(t, err)
	assert.Contains(t, buf.String(), "; fatal error occurred")
}

func TestStreamReader_Read_SkipsGarbageLines(t *testing.T) {
	agg, buf := newTestAggregator(t, ModeRemote)

	stream := strings.Join([]string{
		`{"type":"suiteStart","suite":{"id":"root-1","name":"Chrome 120","sessionId":"chrome-1"}}`,
		`this is not json`,
		``,
		`{"type":"unknownEvent"}`,
		`{"type":"suiteEnd","suite":{"id":"root-1","name":"Chrome 120","sessionId":"chrome-1","total":1}}`,
		`{"type":"runEnd"}`,
	}, "\n")

	require.NoError(t, NewStreamReader(agg).Read(strings.NewReader(stream)))
	assert.Contains(t, buf.String(), "TOTAL: tested 1 platforms, 0/1 failed")
}
