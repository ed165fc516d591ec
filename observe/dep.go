package observe

import (
	"fmt"
	"reflect"

	"github.com/cespare/xxhash/v2"
	mapset "github.com/deckarep/golang-set/v2"
)

// Subscriber is anything a Dep can notify.
type Subscriber interface {
	Update() error
}

// Dep is the subscriber list of a single property.
type Dep struct {
	rt   *Runtime
	id   uint64
	path string

	// registration order
	subs []Subscriber
	// A subscriber re-registers on every tracked read, so registrations are
	// deduplicated by identity
	seen mapset.Set[Subscriber]
}

func newDep(rt *Runtime, path string) *Dep {
	return &Dep{
		rt:   rt,
		id:   xxhash.Sum64String(path),
		path: path,
		seen: mapset.NewThreadUnsafeSet[Subscriber](),
	}
}

func (d *Dep) ID() uint64 {
	return d.id
}

func (d *Dep) Path() string {
	return d.path
}

func (d *Dep) Len() int {
	return len(d.subs)
}

// AddSub registers sub. Subscribers that can't be hashed, like func types, are
// appended on every call and may be notified more than once per write.
func (d *Dep) AddSub(sub Subscriber) {
	if sub == nil {
		return
	}
	if reflect.ValueOf(sub).Comparable() && !d.seen.Add(sub) {
		return
	}
	d.subs = append(d.subs, sub)
}

// Notify calls Update on every subscriber in registration order.
//
// Without an error handler on the runtime the first failure stops the remaining
// notifications and is returned.
func (d *Dep) Notify() error {
	rt := d.rt
	if rt.depth >= rt.maxDepth {
		return fmt.Errorf("%s: %w (%d)", d.path, ErrMaxDepth, rt.maxDepth)
	}
	rt.depth++
	rt.PauseTracking()
	defer func() {
		rt.ResumeTracking()
		rt.depth--
	}()

	subs := make([]Subscriber, len(d.subs))
	copy(subs, d.subs)

	rt.logger.Trace().
		Str("path", d.path).
		Int("subscribers", len(subs)).
		Int("depth", rt.depth).
		Msg("notify")

	for _, sub := range subs {
		if err := sub.Update(); err != nil {
			if rt.onError == nil {
				return err
			}
			rt.onError(sub, err)
		}
	}
	return nil
}
