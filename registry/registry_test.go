package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testinfra/run-aggregator/types"
)

func TestRegistry_RegisterRoot(t *testing.T) {
	r := NewRegistry(Config{})

	root := &types.Suite{ID: "suite-1", SessionID: "chrome-1"}
	session := r.RegisterRoot("chrome-1", root)

	require.NotNil(t, session)
	assert.Equal(t, "chrome-1", session.ID)
	assert.Same(t, root, session.Root)
	assert.False(t, session.HasCoverage)
	assert.False(t, session.Completed)
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_RegisterRoot_OverwritesOnReRegistration(t *testing.T) {
	r := NewRegistry(Config{})

	first := &types.Suite{ID: "suite-1"}
	second := &types.Suite{ID: "suite-2"}

	r.RegisterRoot("firefox-1", first)
	session := r.RegisterRoot("firefox-1", second)

	assert.Same(t, second, session.Root)
	assert.Equal(t, 1, r.Count(), "re-registration must not duplicate the session")
}

func TestRegistry_RegisterRoot_EmptyIdentifier(t *testing.T) {
	r := NewRegistry(Config{})

	session := r.RegisterRoot("", &types.Suite{ID: "client-root"})

	require.NotNil(t, session)
	assert.Equal(t, "", session.ID)

	got, err := r.Get("")
	require.NoError(t, err)
	assert.Same(t, session, got)
}

func TestRegistry_Get_NotFound(t *testing.T) {
	r := NewRegistry(Config{})

	_, err := r.Get("never-started")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistry_MarkCoverage(t *testing.T) {
	r := NewRegistry(Config{})
	r.RegisterRoot("chrome-1", &types.Suite{})

	r.MarkCoverage("chrome-1")
	r.MarkCoverage("unknown") // ignored

	session, err := r.Get("chrome-1")
	require.NoError(t, err)
	assert.True(t, session.HasCoverage)
}

func TestRegistry_MarkCompleted(t *testing.T) {
	r := NewRegistry(Config{})
	r.RegisterRoot("chrome-1", &types.Suite{})

	r.MarkCompleted("chrome-1")

	session, err := r.Get("chrome-1")
	require.NoError(t, err)
	assert.True(t, session.Completed)
}

func TestRegistry_Sessions_PreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry(Config{})

	r.RegisterRoot("c", &types.Suite{})
	r.RegisterRoot("a", &types.Suite{})
	r.RegisterRoot("b", &types.Suite{})
	r.RegisterRoot("a", &types.Suite{}) // re-registration keeps position

	sessions := r.Sessions()
	require.Len(t, sessions, 3)
	assert.Equal(t, "c", sessions[0].ID)
	assert.Equal(t, "a", sessions[1].ID)
	assert.Equal(t, "b", sessions[2].ID)
}
