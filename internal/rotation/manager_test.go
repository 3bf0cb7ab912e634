package rotation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newTestManager roots a manager in a temp directory with a private lock
// file so parallel tests never contend on the host-wide default lock.
func newTestManager(t *testing.T, slotIndices ...int) *Manager {
	t.Helper()
	root := t.TempDir()
	mgr := NewManager(Options{
		RootDir:  root,
		LockPath: filepath.Join(root, "rotation.lock"),
	})
	for _, idx := range slotIndices {
		writeSlot(t, mgr.Slots().Dir(), filepath.Base(mgr.Slots().SlotPath(idx)), slotContents(idx))
	}
	return mgr
}

func slotContents(idx int) string {
	return `{"access_token":"token-` + AccountKey(idx) + `"}`
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSwitchToActivatesSlotContents(t *testing.T) {
	mgr := newTestManager(t, 1, 2)

	require.NoError(t, mgr.SwitchTo(2, ReasonManual))

	require.Equal(t, slotContents(2), readFile(t, mgr.ActiveFile()))
	state := mgr.GetState()
	require.Equal(t, 2, state.CurrentIndex)
	require.Equal(t, 1, state.SwitchesTotal)
	require.Equal(t, 1, state.Accounts["account2"].SwitchesCount)
	require.NotEmpty(t, state.LastSwitch)
	require.NotEmpty(t, state.Accounts["account2"].LastUsed)
}

func TestSwitchToMissingSlotLeavesStateUntouched(t *testing.T) {
	mgr := newTestManager(t, 1)
	require.NoError(t, mgr.SwitchTo(1, ReasonManual))
	before := readFile(t, mgr.state.Path())

	err := mgr.SwitchTo(9, ReasonManual)

	var notFound *AccountNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, 9, notFound.Index)
	require.Equal(t, before, readFile(t, mgr.state.Path()))
}

func TestSwitchNextVisitsGappedIndicesInOrder(t *testing.T) {
	mgr := newTestManager(t, 1, 3)

	advanced, next, err := mgr.SwitchNext(ReasonAutoQuota)
	require.NoError(t, err)
	require.True(t, advanced)
	require.Equal(t, 3, next)

	advanced, next, err = mgr.SwitchNext(ReasonAutoQuota)
	require.NoError(t, err)
	require.False(t, advanced, "returning to the first account is a wrap")
	require.Equal(t, 1, next)
}

func TestSwitchNextWrapScenario(t *testing.T) {
	mgr := newTestManager(t, 1, 2, 5)
	require.NoError(t, mgr.SwitchTo(5, ReasonManual))

	advanced, next, err := mgr.SwitchNext(ReasonManual)
	require.NoError(t, err)
	require.False(t, advanced)
	require.Equal(t, 1, next)

	advanced, next, err = mgr.SwitchNext(ReasonManual)
	require.NoError(t, err)
	require.True(t, advanced)
	require.Equal(t, 2, next)
}

func TestSwitchNextCurrentRemovedOutOfBand(t *testing.T) {
	mgr := newTestManager(t, 2, 4)
	require.NoError(t, mgr.SwitchTo(4, ReasonManual))
	require.NoError(t, os.Remove(mgr.Slots().SlotPath(4)))

	advanced, next, err := mgr.SwitchNext(ReasonManual)
	require.NoError(t, err)
	require.False(t, advanced, "restart at the first slot counts as a wrap")
	require.Equal(t, 2, next)
}

func TestSwitchNextNoSlots(t *testing.T) {
	mgr := newTestManager(t)
	before := mgr.GetState()

	_, _, err := mgr.SwitchNext(ReasonAutoQuota)

	var notFound *AccountNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, before, mgr.GetState())
}

func TestSwitchNextRefreshesTotalAccounts(t *testing.T) {
	mgr := newTestManager(t, 1, 2, 3)

	_, _, err := mgr.SwitchNext(ReasonManual)
	require.NoError(t, err)
	require.Equal(t, 3, mgr.GetState().TotalAccounts)

	writeSlot(t, mgr.Slots().Dir(), "oauth_creds_9.json", slotContents(9))
	_, _, err = mgr.SwitchNext(ReasonManual)
	require.NoError(t, err)
	require.Equal(t, 4, mgr.GetState().TotalAccounts)
}

func TestSyncBackPreservesRefreshedTokens(t *testing.T) {
	mgr := newTestManager(t, 1, 2)
	require.NoError(t, mgr.SwitchTo(1, ReasonManual))

	// The wrapped tool refreshes its token in place while account 1 is
	// active.
	refreshed := `{"access_token":"refreshed-by-tool"}`
	require.NoError(t, os.WriteFile(mgr.ActiveFile(), []byte(refreshed), 0o600))

	require.NoError(t, mgr.SwitchTo(2, ReasonManual))

	require.Equal(t, refreshed, readFile(t, mgr.Slots().SlotPath(1)))
	require.Equal(t, slotContents(2), readFile(t, mgr.ActiveFile()))
}

func TestLegacySymlinkRemovedInsteadOfSynced(t *testing.T) {
	mgr := newTestManager(t, 1, 2)
	require.NoError(t, os.Symlink(mgr.Slots().SlotPath(1), mgr.ActiveFile()))

	require.NoError(t, mgr.SwitchTo(2, ReasonManual))

	info, err := os.Lstat(mgr.ActiveFile())
	require.NoError(t, err)
	require.Zero(t, info.Mode()&os.ModeSymlink, "active file must be a physical copy")
	require.Equal(t, slotContents(2), readFile(t, mgr.ActiveFile()))
	require.Equal(t, slotContents(1), readFile(t, mgr.Slots().SlotPath(1)), "slot 1 untouched when active file was a symlink")
}

func TestSwitchCountersAddUp(t *testing.T) {
	mgr := newTestManager(t, 1, 2, 3)

	targets := []int{2, 3, 1, 3, 2, 2}
	for _, idx := range targets {
		require.NoError(t, mgr.SwitchTo(idx, ReasonTest))
	}

	state := mgr.GetState()
	require.Equal(t, len(targets), state.SwitchesTotal)

	sum := 0
	for _, stats := range state.Accounts {
		sum += stats.SwitchesCount
	}
	require.Equal(t, state.SwitchesTotal, sum)
	require.Equal(t, 3, state.Accounts["account2"].SwitchesCount)
	require.Equal(t, 2, state.Accounts["account3"].SwitchesCount)
	require.Equal(t, 1, state.Accounts["account1"].SwitchesCount)
}

func TestConcurrentSwitchNextFullySerialized(t *testing.T) {
	mgr := newTestManager(t, 1, 2, 3, 4)

	const callers = 8
	done := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			_, _, err := mgr.SwitchNext(ReasonAutoQuota)
			done <- err
		}()
	}
	for i := 0; i < callers; i++ {
		require.NoError(t, <-done)
	}

	state := mgr.GetState()
	require.Equal(t, callers, state.SwitchesTotal, "every caller's write must be preserved")
}

func TestListAccounts(t *testing.T) {
	mgr := newTestManager(t, 1, 3)
	require.NoError(t, mgr.SwitchTo(3, ReasonManual))

	accounts := mgr.ListAccounts()
	require.Len(t, accounts, 2)
	require.True(t, accounts["account3"].Active)
	require.False(t, accounts["account1"].Active)
	require.True(t, accounts["account1"].Exists)
	require.Equal(t, 1, accounts["account3"].SwitchesCount)
}

func TestGetStats(t *testing.T) {
	mgr := newTestManager(t, 1, 2)
	require.NoError(t, mgr.SwitchTo(2, ReasonManual))
	require.NoError(t, mgr.SwitchTo(1, ReasonManual))
	require.NoError(t, mgr.SwitchTo(2, ReasonManual))

	stats := mgr.GetStats()
	require.Equal(t, 3, stats.TotalSwitches)
	require.Equal(t, "account2", stats.CurrentAccount)
	require.Equal(t, "account2", stats.MostUsed)
	require.Equal(t, 2, stats.MostUsedCount)
	require.Equal(t, map[string]int{"account1": 1, "account2": 2}, stats.Accounts)
}

func TestGetStatsEmptyPool(t *testing.T) {
	mgr := newTestManager(t)

	stats := mgr.GetStats()
	require.Equal(t, "none", stats.MostUsed)
	require.Zero(t, stats.MostUsedCount)
	require.Empty(t, stats.Accounts)
}

func TestCreateInitialState(t *testing.T) {
	mgr := newTestManager(t, 1, 2)
	require.NoError(t, mgr.CreateInitialState())

	state := mgr.GetState()
	require.Equal(t, 1, state.CurrentIndex)
	require.Zero(t, state.SwitchesTotal)
}

func TestAuditLogWrittenPerSwitch(t *testing.T) {
	mgr := newTestManager(t, 1, 2)
	require.NoError(t, mgr.SwitchTo(2, ReasonTest))
	require.NoError(t, mgr.SwitchTo(1, ReasonAutoQuota))

	data, err := os.ReadFile(filepath.Join(mgr.RootDir(), rotationLogName))
	require.NoError(t, err)
	lines := nonEmptyLines(string(data))
	require.Len(t, lines, 2)
}

func TestLockTimeoutSurfacesLockError(t *testing.T) {
	root := t.TempDir()
	lockPath := filepath.Join(root, "rotation.lock")

	blocker := NewFileLock(lockPath, 0)
	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = blocker.WithLock(func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	mgr := NewManager(Options{
		RootDir:     root,
		LockPath:    lockPath,
		LockTimeout: 100 * time.Millisecond,
	})
	writeSlot(t, mgr.Slots().Dir(), "oauth_creds_1.json", slotContents(1))

	err := mgr.SwitchTo(1, ReasonManual)
	var lockErr *LockError
	require.True(t, errors.As(err, &lockErr))
}
