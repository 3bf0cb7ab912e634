package rotation

import (
	"context"
	"time"

	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"
)

const lockRetryInterval = 50 * time.Millisecond

// FileLock serializes mutating rotation operations across every process on
// the host via an advisory lock on a shared lock file. An in-process mutex
// would not be enough here: a CLI invocation can race a long-running
// service against the same credential files.
type FileLock struct {
	path    string
	timeout time.Duration
}

// NewFileLock returns a lock on path. timeout bounds acquisition; zero
// means block until the lock is free.
func NewFileLock(path string, timeout time.Duration) *FileLock {
	return &FileLock{path: path, timeout: timeout}
}

// Path returns the lock file path.
func (l *FileLock) Path() string { return l.path }

// WithLock runs fn while holding the exclusive lock. The lock is released
// on every exit path. If acquisition fails or times out, fn is never
// invoked and a LockError is returned.
func (l *FileLock) WithLock(fn func() error) error {
	fl := flock.New(l.path)

	if l.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()
		ok, err := fl.TryLockContext(ctx, lockRetryInterval)
		if err != nil || !ok {
			if err == nil {
				err = ctx.Err()
			}
			return &LockError{Path: l.path, Err: err}
		}
	} else {
		if err := fl.Lock(); err != nil {
			return &LockError{Path: l.path, Err: err}
		}
	}
	defer func() {
		if err := fl.Unlock(); err != nil {
			log.WithError(err).Warnf("failed to release rotation lock %s", l.path)
		}
	}()

	return fn()
}
