package observe

import "fmt"

// Callback receives the new and previous value of a watched property.
type Callback func(value, oldValue any) error

// Watcher re-reads one property of a target object whenever it is notified and
// calls its callback when the value changed.
type Watcher struct {
	rt     *Runtime
	target *Object
	key    string
	value  any
	cb     Callback
}

// NewWatcher subscribes to target's key by reading it while tracking.
// Keys are single level, "a.b" names a property called "a.b".
func NewWatcher(target *Object, key string, cb Callback) (*Watcher, error) {
	if target == nil {
		return nil, ErrNilTarget
	}
	if !target.Has(key) {
		return nil, fmt.Errorf("watch %s: %w", joinPath(target.path, key), ErrUnknownProperty)
	}
	w := &Watcher{
		rt:     target.rt,
		target: target,
		key:    key,
		cb:     cb,
	}
	w.value = w.Get()
	return w, nil
}

// Get performs a tracked read of the watched property.
func (w *Watcher) Get() any {
	return w.rt.track(w, func() any {
		v, _ := w.target.Get(w.key)
		return v
	})
}

func (w *Watcher) Update() error {
	value := w.Get()
	oldValue := w.value
	if same(value, oldValue) {
		return nil
	}
	w.value = value

	w.rt.logger.Trace().Str("key", w.key).Msg("watcher changed")
	if w.cb == nil {
		return nil
	}
	if err := w.cb(value, oldValue); err != nil {
		return &WatchError{Key: joinPath(w.target.path, w.key), Cause: err}
	}
	return nil
}

func (w *Watcher) Value() any {
	return w.value
}

func (w *Watcher) Key() string {
	return w.key
}

func (w *Watcher) Target() *Object {
	return w.target
}
