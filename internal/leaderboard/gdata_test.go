package leaderboard

import (
	"testing"

	"github.com/quasilyte/gdata/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGdataStoreInMemory(t *testing.T) {
	store := NewGdataStore(nil)

	require.NoError(t, store.Submit("alice", 100))
	require.NoError(t, store.Submit("bob", 400))
	assert.ErrorIs(t, store.Submit("bob", 1), ErrNameTaken)

	entries, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []Entry{{"bob", 400}, {"alice", 100}}, entries)

	// Callers get a copy.
	entries[0].Score = 0
	again, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 400, again[0].Score)
}

func TestGdataStorePersists(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", home)

	m, err := gdata.Open(gdata.Config{AppName: "pacman_leaderboard_test"})
	require.NoError(t, err)

	store := NewGdataStore(m)
	entries, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, store.Submit("alice", 700))
	require.NoError(t, store.Submit("bob", 1200))

	reopened := NewGdataStore(m)
	entries, err = reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, []Entry{{"bob", 1200}, {"alice", 700}}, entries)
	assert.ErrorIs(t, reopened.Submit("alice", 1), ErrNameTaken)
}
