package rotation

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

const watchDebounceInterval = 300 * time.Millisecond

// WatchSlots watches the slot directory and invokes onChange with the
// freshly discovered indices after filesystem activity settles. Events are
// debounced so a burst of writes (an onboarding flow dropping a file, an
// editor's temp dance) produces one callback. The watcher stops when ctx
// is cancelled. Returns an error only if the watcher could not start.
func (m *Manager) WatchSlots(ctx context.Context, onChange func([]int)) error {
	if err := m.slots.EnsureDir(); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(m.slots.Dir()); err != nil {
		_ = watcher.Close()
		return err
	}

	go m.watchLoop(ctx, watcher, onChange)
	log.Infof("watching %s for slot changes", m.slots.Dir())
	return nil
}

func (m *Manager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, onChange func([]int)) {
	defer watcher.Close()

	var timer *time.Timer
	var timerCh <-chan time.Time
	for {
		select {
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if _, isSlot := parseSlotName(filepath.Base(evt.Name)); !isSlot {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounceInterval)
				timerCh = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(watchDebounceInterval)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("slot watcher error")
		case <-timerCh:
			timerCh = nil
			timer = nil
			if onChange != nil {
				onChange(m.slots.Discover())
			}
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}
