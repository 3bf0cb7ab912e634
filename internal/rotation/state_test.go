package rotation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateStoreReadDefaultsWhenAbsent(t *testing.T) {
	store := NewStateStore(filepath.Join(t.TempDir(), "state.yaml"), 5)

	state := store.Read()
	require.Equal(t, 1, state.CurrentIndex)
	require.Equal(t, 5, state.TotalAccounts)
	require.Zero(t, state.SwitchesTotal)
	require.NotNil(t, state.Accounts)
}

func TestStateStoreReadRecoversFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{{ not yaml"), 0o600))

	store := NewStateStore(path, 3)
	state := store.Read()
	require.Equal(t, 1, state.CurrentIndex)
	require.Equal(t, 3, state.TotalAccounts)
}

func TestStateStoreWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	store := NewStateStore(path, 5)

	in := RotationState{
		CurrentIndex:  3,
		TotalAccounts: 4,
		LastSwitch:    "2026-01-02T03:04:05Z",
		SwitchesTotal: 9,
		Accounts: map[string]AccountStats{
			"account3": {SwitchesCount: 9, LastUsed: "2026-01-02T03:04:05Z"},
		},
	}
	require.NoError(t, store.Write(in))

	out := store.Read()
	require.Equal(t, in, out)
}

func TestStateStoreWriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.yaml")
	store := NewStateStore(path, 5)

	require.NoError(t, store.Write(store.defaults()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "state.yaml", entries[0].Name())
}

func TestStateStoreWriteIsAtomicReplacement(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	store := NewStateStore(path, 5)

	first := store.defaults()
	first.SwitchesTotal = 1
	require.NoError(t, store.Write(first))

	// A reader racing the second write must see either version complete;
	// after the write only the new version exists.
	second := first.Clone()
	second.SwitchesTotal = 2
	require.NoError(t, store.Write(second))

	out := store.Read()
	require.Equal(t, 2, out.SwitchesTotal)
}
