package rotation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSlot(t *testing.T, dir string, name, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o600))
}

func TestSlotStoreDiscoverSortsAndSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	writeSlot(t, dir, "oauth_creds_3.json", "{}")
	writeSlot(t, dir, "oauth_creds_1.json", "{}")
	writeSlot(t, dir, "oauth_creds_10.json", "{}")
	writeSlot(t, dir, "oauth_creds_abc.json", "{}")
	writeSlot(t, dir, "oauth_creds_.json", "{}")
	writeSlot(t, dir, "notes.txt", "ignore me")
	writeSlot(t, dir, "oauth_creds_0.json", "{}")
	writeSlot(t, dir, "oauth_creds_-2.json", "{}")

	store := NewSlotStore(dir)
	require.Equal(t, []int{1, 3, 10}, store.Discover())
}

func TestSlotStoreDiscoverMissingDir(t *testing.T) {
	store := NewSlotStore(filepath.Join(t.TempDir(), "absent"))
	require.Empty(t, store.Discover())
}

func TestSlotStoreDiscoverSkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "oauth_creds_7.json"), 0o700))
	writeSlot(t, dir, "oauth_creds_2.json", "{}")

	store := NewSlotStore(dir)
	require.Equal(t, []int{2}, store.Discover())
}

func TestSlotStorePathAndExists(t *testing.T) {
	dir := t.TempDir()
	store := NewSlotStore(dir)

	require.Equal(t, filepath.Join(dir, "oauth_creds_4.json"), store.SlotPath(4))
	require.False(t, store.Exists(4))

	writeSlot(t, dir, "oauth_creds_4.json", "{}")
	require.True(t, store.Exists(4))
}
