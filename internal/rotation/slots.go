package rotation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	slotPrefix = "oauth_creds_"
	slotSuffix = ".json"
)

// SlotStore addresses per-account credential files inside a single
// directory. Filenames follow oauth_creds_<index>.json; anything else in
// the directory is ignored. The store never caches: each Discover call
// re-reads the directory so out-of-band additions and removals are picked
// up on the next call.
type SlotStore struct {
	dir string
}

// NewSlotStore returns a store rooted at dir. The directory does not need
// to exist yet.
func NewSlotStore(dir string) *SlotStore {
	return &SlotStore{dir: filepath.Clean(dir)}
}

// Dir returns the slot directory.
func (s *SlotStore) Dir() string { return s.dir }

// SlotPath returns the credential file path for an account index.
func (s *SlotStore) SlotPath(index int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%d%s", slotPrefix, index, slotSuffix))
}

// Exists reports whether the slot file for index is present.
func (s *SlotStore) Exists(index int) bool {
	info, err := os.Stat(s.SlotPath(index))
	return err == nil && !info.IsDir()
}

// Discover lists the account indices present in the slot directory,
// ascending and deduplicated. Filenames that do not parse as slots are
// skipped. A missing directory yields an empty list, not an error.
func (s *SlotStore) Discover() []int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	seen := make(map[int]struct{})
	var ids []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		idx, ok := parseSlotName(entry.Name())
		if !ok {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		ids = append(ids, idx)
	}
	sort.Ints(ids)
	return ids
}

// EnsureDir creates the slot directory if needed.
func (s *SlotStore) EnsureDir() error {
	return os.MkdirAll(s.dir, 0o700)
}

func parseSlotName(name string) (int, bool) {
	if !strings.HasPrefix(name, slotPrefix) || !strings.HasSuffix(name, slotSuffix) {
		return 0, false
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(name, slotPrefix), slotSuffix)
	idx, err := strconv.Atoi(raw)
	if err != nil || idx <= 0 {
		return 0, false
	}
	return idx, true
}
