package observe

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProperty = errors.New("unknown property")
	ErrNilTarget       = errors.New("nil watch target")
	ErrMaxDepth        = errors.New("notification depth exceeded")
	ErrTypeMismatch    = errors.New("value does not fit source map")
)

// WatchError is returned when a watcher callback fails during notification.
type WatchError struct {
	Key   string
	Cause error
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("watcher %q: %v", e.Key, e.Cause)
}

func (e *WatchError) Unwrap() error {
	return e.Cause
}
