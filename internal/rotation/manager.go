package rotation

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultTotalAccounts = 5
	DefaultLockPath      = "/tmp/qwen_rotation.lock"

	accountsDirName = "accounts"
	activeCredsName = "oauth_creds.json"
	stateFileName   = "state.yaml"
	rotationLogName = "rotation.log"
)

// Options configure a rotation Manager. RootDir is the wrapped tool's home
// directory (the active credential file lives directly inside it); all
// other fields default relative to it so tests can point a manager at a
// temp directory.
type Options struct {
	RootDir       string
	LockPath      string
	LockTimeout   time.Duration
	TotalAccounts int
}

// Manager owns the on-disk credential slots and performs the
// activate/sync-back swap under a host-wide lock. It is the only component
// that writes the active credential file, the rotation state, or the slots
// (and the slots only during sync-back).
type Manager struct {
	rootDir    string
	activeFile string
	slots      *SlotStore
	state      *StateStore
	lock       *FileLock
	audit      *AuditLog
}

// NewManager builds a manager from opts, applying defaults for anything
// unset.
func NewManager(opts Options) *Manager {
	root := opts.RootDir
	if root == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			root = filepath.Join(home, ".qwen")
		} else {
			root = ".qwen"
		}
	}
	total := opts.TotalAccounts
	if total <= 0 {
		total = DefaultTotalAccounts
	}
	lockPath := opts.LockPath
	if lockPath == "" {
		lockPath = DefaultLockPath
	}

	return &Manager{
		rootDir:    root,
		activeFile: filepath.Join(root, activeCredsName),
		slots:      NewSlotStore(filepath.Join(root, accountsDirName)),
		state:      NewStateStore(filepath.Join(root, stateFileName), total),
		lock:       NewFileLock(lockPath, opts.LockTimeout),
		audit:      NewAuditLog(filepath.Join(root, rotationLogName)),
	}
}

// RootDir returns the managed root directory.
func (m *Manager) RootDir() string { return m.rootDir }

// ActiveFile returns the path of the active credential file.
func (m *Manager) ActiveFile() string { return m.activeFile }

// Slots exposes the slot store for discovery and onboarding paths.
func (m *Manager) Slots() *SlotStore { return m.slots }

// GetState returns a snapshot of the persisted rotation state. Lock-free:
// the atomic state-write discipline guarantees a complete file is read.
func (m *Manager) GetState() RotationState {
	return m.state.Read()
}

// CreateInitialState writes a fresh default state. Used by onboarding
// after the slots have been populated.
func (m *Manager) CreateInitialState() error {
	return m.lock.WithLock(func() error {
		return m.state.Write(RotationState{
			CurrentIndex:  1,
			TotalAccounts: m.state.totalAccounts,
			Accounts:      make(map[string]AccountStats),
		})
	})
}

// SwitchTo activates the account at index. It fails with
// AccountNotFoundError when the slot is missing, leaving the rotation
// state untouched.
func (m *Manager) SwitchTo(index int, reason SwitchReason) error {
	return m.lock.WithLock(func() error {
		state := m.state.Read()
		from := state.CurrentIndex

		if err := m.swapCredentials(index, from); err != nil {
			return err
		}
		return m.commitSwitch(&state, from, index, reason)
	})
}

// SwitchNext activates the next discovered account in ascending index
// order, wrapping past the highest index back to the lowest. The returned
// advanced flag is false when the rotation wrapped (or when the current
// index was no longer discoverable and rotation restarted at the first
// slot). Wrapping is not an error, but callers driving quota-triggered
// rotation use it to detect that every account has been tried.
func (m *Manager) SwitchNext(reason SwitchReason) (advanced bool, newIndex int, err error) {
	err = m.lock.WithLock(func() error {
		state := m.state.Read()
		from := state.CurrentIndex

		available := m.slots.Discover()
		if len(available) == 0 {
			return &AccountNotFoundError{}
		}

		target, wrapped := nextIndex(available, from)

		if err := m.swapCredentials(target, from); err != nil {
			return err
		}

		state.TotalAccounts = len(available)
		if err := m.commitSwitch(&state, from, target, reason); err != nil {
			return err
		}

		advanced = !wrapped
		newIndex = target
		return nil
	})
	return advanced, newIndex, err
}

// nextIndex picks the element after current in the ascending id list. A
// current index missing from the list restarts rotation at the first slot
// and counts as a wrap.
func nextIndex(available []int, current int) (target int, wrapped bool) {
	for i, id := range available {
		if id == current {
			next := (i + 1) % len(available)
			return available[next], next == 0
		}
	}
	return available[0], true
}

// swapCredentials performs the physical swap: sync the active file back
// into the outgoing slot, then atomically activate the target slot. The
// sync-back is best-effort; activation is not.
func (m *Manager) swapCredentials(target, current int) error {
	m.syncBack(current)

	targetSlot := m.slots.SlotPath(target)
	if !m.slots.Exists(target) {
		return &AccountNotFoundError{Index: target, Path: targetSlot}
	}

	tmp := m.activeFile + ".tmp"
	if err := copyFile(targetSlot, tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("stage credentials for account %d: %w", target, err)
	}
	if err := os.Rename(tmp, m.activeFile); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("activate credentials for account %d: %w", target, err)
	}

	log.Debugf("activated account %d", target)
	return nil
}

// syncBack copies the active credential file into the slot for the
// outgoing account, preserving any token refresh the wrapped tool wrote
// while that account was active. A legacy symlinked active file is removed
// instead, so future syncs are physical copies. Failures are logged but
// never abort the swap: activating the next account matters more than
// preserving the outgoing one.
func (m *Manager) syncBack(current int) {
	if current <= 0 {
		return
	}
	info, err := os.Lstat(m.activeFile)
	if err != nil {
		return
	}
	if info.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(m.activeFile); err != nil {
			log.WithError(err).Warn("failed to remove legacy credential symlink")
		}
		return
	}

	if err := copyFile(m.activeFile, m.slots.SlotPath(current)); err != nil {
		log.WithError(err).Errorf("failed to sync credentials back to account %d", current)
		return
	}
	log.Debugf("synced credentials back to account %d", current)
}

// commitSwitch updates every counter of the bookkeeping together, persists
// the state, and appends the audit entry. It runs only after the physical
// swap succeeded.
func (m *Manager) commitSwitch(state *RotationState, from, to int, reason SwitchReason) error {
	now := time.Now()

	state.CurrentIndex = to
	state.LastSwitch = now.Format(time.RFC3339)
	state.SwitchesTotal++

	key := AccountKey(to)
	stats := state.Accounts[key]
	stats.SwitchesCount++
	stats.LastUsed = now.Format(time.RFC3339)
	state.Accounts[key] = stats

	if err := m.state.Write(*state); err != nil {
		return fmt.Errorf("persist rotation state: %w", err)
	}

	m.audit.Record(from, to, reason, now)
	log.Infof("switched account %d -> %d (%s)", from, to, reason)
	return nil
}

// ListAccounts combines slot discovery with the persisted per-account
// stats. Pure read, no lock: a listing racing an in-flight switch may be
// stale by one write, which is acceptable because readers never mutate
// shared files.
func (m *Manager) ListAccounts() map[string]AccountInfo {
	state := m.state.Read()
	result := make(map[string]AccountInfo)
	for _, idx := range m.slots.Discover() {
		key := AccountKey(idx)
		stats := state.Accounts[key]
		result[key] = AccountInfo{
			Index:         idx,
			Active:        idx == state.CurrentIndex,
			Exists:        true,
			SwitchesCount: stats.SwitchesCount,
			LastUsed:      stats.LastUsed,
		}
	}
	return result
}

// GetStats derives the aggregate usage summary. Pure read, no lock.
func (m *Manager) GetStats() Stats {
	state := m.state.Read()
	accounts := m.ListAccounts()

	out := Stats{
		Accounts:       make(map[string]int, len(accounts)),
		TotalSwitches:  state.SwitchesTotal,
		LastSwitch:     state.LastSwitch,
		CurrentAccount: AccountKey(state.CurrentIndex),
		MostUsed:       "none",
	}
	for key, info := range accounts {
		out.Accounts[key] = info.SwitchesCount
		if info.SwitchesCount > out.MostUsedCount ||
			(info.SwitchesCount == out.MostUsedCount && out.MostUsed == "none") {
			out.MostUsed = key
			out.MostUsedCount = info.SwitchesCount
		}
	}
	return out
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o600)
}
