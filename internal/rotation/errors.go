package rotation

import "fmt"

// AccountNotFoundError reports a switch target whose slot file is missing.
// Mutating operations return it before any state is touched.
type AccountNotFoundError struct {
	Index int
	Path  string
}

func (e *AccountNotFoundError) Error() string {
	if e.Index <= 0 {
		return "no accounts available"
	}
	return fmt.Sprintf("account %d not found (no slot at %s)", e.Index, e.Path)
}

// LockError reports a failure to acquire the cross-process rotation lock.
type LockError struct {
	Path string
	Err  error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("could not acquire rotation lock %s: %v", e.Path, e.Err)
}

func (e *LockError) Unwrap() error { return e.Err }
