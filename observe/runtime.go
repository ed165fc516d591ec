package observe

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rs/zerolog"
)

const DefaultMaxDepth = 100

type OnErrorFunc func(from Subscriber, err error)

type Option func(*Runtime)

// WithMaxDepth bounds how deep a chain of writes triggered from watcher callbacks may go.
func WithMaxDepth(n int) Option {
	return func(rt *Runtime) {
		if n > 0 {
			rt.maxDepth = n
		}
	}
}

// WithErrorHandler isolates subscriber failures: each error is handed to fn and the
// remaining subscribers are still notified.
func WithErrorHandler(fn OnErrorFunc) Option {
	return func(rt *Runtime) {
		rt.onError = fn
	}
}

// WithShallowSet leaves maps written after install as plain values.
func WithShallowSet() Option {
	return func(rt *Runtime) {
		rt.shallowSet = true
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

type propertyKey struct {
	obj  *Object
	name string
}

// property is the value slot and registry behind one installed key.
type property struct {
	obj   *Object
	key   string
	path  string
	value any
	dep   *Dep
}

// Runtime holds the tracking context for a set of installed trees.
// It is not safe for concurrent use.
type Runtime struct {
	active     Subscriber
	pauseStack []Subscriber
	depth      int

	arena   map[propertyKey]*property
	objects map[uintptr]*Object
	roots   mapset.Set[*Object]

	maxDepth   int
	shallowSet bool
	onError    OnErrorFunc
	logger     zerolog.Logger
}

func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		arena:    map[propertyKey]*property{},
		objects:  map[uintptr]*Object{},
		roots:    mapset.NewThreadUnsafeSet[*Object](),
		maxDepth: DefaultMaxDepth,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// track runs read with sub as the active subscriber, restoring the previous one afterwards.
func (rt *Runtime) track(sub Subscriber, read func() any) any {
	prev := rt.active
	rt.active = sub
	defer func() {
		rt.active = prev
	}()
	return read()
}

func (rt *Runtime) Tracking() bool {
	return rt.active != nil
}

func (rt *Runtime) PauseTracking() {
	rt.pauseStack = append(rt.pauseStack, rt.active)
	rt.active = nil
}

func (rt *Runtime) ResumeTracking() {
	lastIdx := len(rt.pauseStack) - 1
	if lastIdx < 0 {
		return
	}
	rt.active = rt.pauseStack[lastIdx]
	rt.pauseStack = rt.pauseStack[:lastIdx]
}

// Untrack runs fn with tracking paused so reads inside it create no edges.
func (rt *Runtime) Untrack(fn func()) {
	rt.PauseTracking()
	defer rt.ResumeTracking()
	fn()
}

type DepInfo struct {
	ID          uint64
	Path        string
	Subscribers int
	// Stale registries belong to objects no longer reachable from an installed
	// root, typically ones replaced by a later write.
	Stale bool
}

// Graph returns every property registry owned by the runtime, sorted by path with
// live registries ahead of stale ones sharing a path.
func (rt *Runtime) Graph() []DepInfo {
	live := rt.reachable()
	infos := make([]DepInfo, 0, len(rt.arena))
	for key, p := range rt.arena {
		infos = append(infos, DepInfo{
			ID:          p.dep.ID(),
			Path:        p.path,
			Subscribers: p.dep.Len(),
			Stale:       !live.Contains(key.obj),
		})
	}
	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].Path != infos[j].Path {
			return infos[i].Path < infos[j].Path
		}
		return !infos[i].Stale && infos[j].Stale
	})
	return infos
}

// reachable walks the current values from every root without tracking.
func (rt *Runtime) reachable() mapset.Set[*Object] {
	seen := mapset.NewThreadUnsafeSet[*Object]()
	stack := rt.roots.ToSlice()
	for len(stack) > 0 {
		obj := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !seen.Add(obj) {
			continue
		}
		for _, key := range obj.keys {
			if child, ok := obj.prop(key).value.(*Object); ok {
				stack = append(stack, child)
			}
		}
	}
	return seen
}
