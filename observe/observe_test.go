package observe_test

import (
	"errors"
	"testing"

	"github.com/delaneyj/databind/observe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type change struct {
	value, oldValue any
}

func recorder(changes *[]change) observe.Callback {
	return func(value, oldValue any) error {
		*changes = append(*changes, change{value, oldValue})
		return nil
	}
}

// from the README scenario
func TestBasicUsage(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.Install(map[string]any{"info": "a"})
	require.NotNil(t, data)

	var changes []change
	w, err := observe.NewWatcher(data, "info", recorder(&changes))
	require.NoError(t, err)
	assert.Equal(t, "a", w.Value())

	require.NoError(t, data.Set("info", "b"))
	assert.Equal(t, []change{{"b", "a"}}, changes)

	require.NoError(t, data.Set("info", "b"))
	assert.Len(t, changes, 1)
}

// writing a new value calls the callback exactly once with (new, old)
func TestAutoRegistration(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.Install(map[string]any{"k": 1})

	var changes []change
	_, err := observe.NewWatcher(data, "k", recorder(&changes))
	require.NoError(t, err)
	assert.Equal(t, 1, data.Dep("k").Len())

	require.NoError(t, data.Set("k", 2))
	assert.Equal(t, []change{{2, 1}}, changes)
}

// writing the current value is a no-op
func TestEqualWriteIsNoop(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.Install(map[string]any{"k": "v1"})

	calls := 0
	_, err := observe.NewWatcher(data, "k", func(value, oldValue any) error {
		calls++
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, data.Set("k", "v1"))
	assert.Equal(t, 0, calls)
}

// every subscriber on a property is notified, in registration order
func TestMultipleSubscribersOrdered(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.Install(map[string]any{"k": 1})

	order := []string{}
	_, err := observe.NewWatcher(data, "k", func(value, oldValue any) error {
		order = append(order, "first")
		assert.Equal(t, 2, value)
		return nil
	})
	require.NoError(t, err)
	_, err = observe.NewWatcher(data, "k", func(value, oldValue any) error {
		order = append(order, "second")
		assert.Equal(t, 2, value)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, data.Set("k", 2))
	assert.Equal(t, []string{"first", "second"}, order)
}

// plain reads never create edges
func TestUntrackedReadIsIsolated(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.Install(map[string]any{"a": 1, "b": 1})

	calls := 0
	_, err := observe.NewWatcher(data, "a", func(value, oldValue any) error {
		calls++
		return nil
	})
	require.NoError(t, err)

	v, ok := data.Get("b")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 0, data.Dep("b").Len())

	require.NoError(t, data.Set("b", 2))
	assert.Equal(t, 0, calls)
}

// nested objects are instrumented, writes to a leaf don't reach watchers of the parent
func TestNestedObjects(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.Install(map[string]any{
		"user": map[string]any{"id": 1, "name": "tom"},
	})
	user := data.Child("user")
	require.NotNil(t, user)
	assert.Equal(t, "user", user.Path())
	assert.Equal(t, "user.id", user.Dep("id").Path())

	var idChanges, userChanges []change
	_, err := observe.NewWatcher(user, "id", recorder(&idChanges))
	require.NoError(t, err)
	_, err = observe.NewWatcher(data, "user", recorder(&userChanges))
	require.NoError(t, err)

	require.NoError(t, user.Set("id", 2))
	assert.Equal(t, []change{{2, 1}}, idChanges)
	assert.Empty(t, userChanges)

	require.NoError(t, data.Set("user", map[string]any{"id": 3}))
	require.Len(t, userChanges, 1)
	assert.Same(t, user, userChanges[0].oldValue)
}

// calling Update twice without a write fires at most once
func TestIdempotentUpdate(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.Install(map[string]any{"k": 1})

	calls := 0
	w, err := observe.NewWatcher(data, "k", func(value, oldValue any) error {
		calls++
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, w.Update())
	require.NoError(t, w.Update())
	assert.Equal(t, 0, calls)

	rt.Untrack(func() {
		require.NoError(t, data.Set("k", 5))
	})
	assert.Equal(t, 1, calls)
	require.NoError(t, w.Update())
	assert.Equal(t, 1, calls)
}

// re-reads during update don't grow the subscriber list
func TestRegistrationIsDeduplicated(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.Install(map[string]any{"k": 0})

	w, err := observe.NewWatcher(data, "k", nil)
	require.NoError(t, err)
	for i := 1; i <= 5; i++ {
		require.NoError(t, data.Set("k", i))
	}
	assert.Equal(t, 1, data.Dep("k").Len())
	assert.Equal(t, 5, w.Value())
}

func TestInstallNonComposite(t *testing.T) {
	rt := observe.NewRuntime()
	assert.Nil(t, rt.Install(nil))
	assert.Nil(t, rt.Install(42))
	assert.Nil(t, rt.Install("text"))
	assert.Nil(t, rt.Install([]any{1, 2}))
	assert.Nil(t, rt.Install(map[int]any{1: "x"}))
	assert.Empty(t, rt.Graph())
}

func TestInstallIsIdempotent(t *testing.T) {
	rt := observe.NewRuntime()
	src := map[string]any{"a": 1, "nested": map[string]any{"b": 2}}

	first := rt.Install(src)
	second := rt.Install(src)
	assert.Same(t, first, second)
	assert.Same(t, first, rt.Install(first))
	assert.Len(t, rt.Graph(), 3)
}

func TestInstallTypedMaps(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.Install(map[string]int{"b": 2, "a": 1})
	require.NotNil(t, data)
	assert.Equal(t, []string{"a", "b"}, data.Keys())

	v, ok := data.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestSharedAndCyclicMaps(t *testing.T) {
	rt := observe.NewRuntime()
	shared := map[string]any{"v": 1}
	root := map[string]any{"left": shared, "right": shared}
	root["self"] = root

	data := rt.Install(root)
	assert.Same(t, data.Child("left"), data.Child("right"))
	assert.Same(t, data, data.Child("self"))

	m := data.ToMap()
	assert.Equal(t, 1, m["left"].(map[string]any)["v"])
}

func TestUnknownProperty(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.Install(map[string]any{"a": 1})

	err := data.Set("missing", 1)
	assert.ErrorIs(t, err, observe.ErrUnknownProperty)

	_, err = observe.NewWatcher(data, "missing", nil)
	assert.ErrorIs(t, err, observe.ErrUnknownProperty)

	_, err = observe.NewWatcher(nil, "a", nil)
	assert.ErrorIs(t, err, observe.ErrNilTarget)

	_, ok := data.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, data.Dep("missing"))
}

// composite values written after install become reactive
func TestDeepSet(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.Install(map[string]any{"user": nil})

	require.NoError(t, data.Set("user", map[string]any{"id": 1}))
	user := data.Child("user")
	require.NotNil(t, user)

	var changes []change
	_, err := observe.NewWatcher(user, "id", recorder(&changes))
	require.NoError(t, err)
	require.NoError(t, user.Set("id", 2))
	assert.Equal(t, []change{{2, 1}}, changes)
}

func TestShallowSet(t *testing.T) {
	rt := observe.NewRuntime(observe.WithShallowSet())
	data := rt.Install(map[string]any{"user": nil})

	next := map[string]any{"id": 1}
	require.NoError(t, data.Set("user", next))
	assert.Nil(t, data.Child("user"))

	v, _ := data.Get("user")
	assert.Equal(t, next, v)

	calls := 0
	_, err := observe.NewWatcher(data, "user", func(value, oldValue any) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, data.Set("user", next))
	assert.Equal(t, 0, calls)
}

func TestSliceWritesCompareByReference(t *testing.T) {
	rt := observe.NewRuntime()
	list := []any{1, 2}
	data := rt.Install(map[string]any{"list": list})

	calls := 0
	_, err := observe.NewWatcher(data, "list", func(value, oldValue any) error {
		calls++
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, data.Set("list", list))
	assert.Equal(t, 0, calls)
	require.NoError(t, data.Set("list", []any{1, 2}))
	assert.Equal(t, 1, calls)
}

// callback failures abort the remaining notifications
func TestCallbackErrorPropagates(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.Install(map[string]any{"k": 1})

	boom := errors.New("boom")
	secondCalled := false
	_, err := observe.NewWatcher(data, "k", func(value, oldValue any) error {
		return boom
	})
	require.NoError(t, err)
	_, err = observe.NewWatcher(data, "k", func(value, oldValue any) error {
		secondCalled = true
		return nil
	})
	require.NoError(t, err)

	err = data.Set("k", 2)
	require.ErrorIs(t, err, boom)
	var watchErr *observe.WatchError
	require.ErrorAs(t, err, &watchErr)
	assert.Equal(t, "k", watchErr.Key)
	assert.False(t, secondCalled)

	v, _ := data.Get("k")
	assert.Equal(t, 2, v)
}

func TestErrorHandlerIsolatesFailures(t *testing.T) {
	var handled []error
	rt := observe.NewRuntime(observe.WithErrorHandler(func(from observe.Subscriber, err error) {
		handled = append(handled, err)
	}))
	data := rt.Install(map[string]any{"k": 1})

	boom := errors.New("boom")
	secondCalled := false
	_, err := observe.NewWatcher(data, "k", func(value, oldValue any) error {
		return boom
	})
	require.NoError(t, err)
	_, err = observe.NewWatcher(data, "k", func(value, oldValue any) error {
		secondCalled = true
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, data.Set("k", 2))
	assert.True(t, secondCalled)
	require.Len(t, handled, 1)
	assert.ErrorIs(t, handled[0], boom)
}

// a watcher that writes back into its own property must not recurse forever
func TestMaxDepth(t *testing.T) {
	rt := observe.NewRuntime(observe.WithMaxDepth(10))
	data := rt.Install(map[string]any{"n": 0})

	calls := 0
	_, err := observe.NewWatcher(data, "n", func(value, oldValue any) error {
		calls++
		return data.Set("n", value.(int)+1)
	})
	require.NoError(t, err)

	err = data.Set("n", 1)
	require.ErrorIs(t, err, observe.ErrMaxDepth)
	assert.Equal(t, 10, calls)
	assert.False(t, rt.Tracking())
}

// chained writes propagate synchronously through watchers
func TestChainedWrites(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.Install(map[string]any{"celsius": 0.0, "fahrenheit": 32.0})

	_, err := observe.NewWatcher(data, "celsius", func(value, oldValue any) error {
		return data.Set("fahrenheit", value.(float64)*9/5+32)
	})
	require.NoError(t, err)

	var changes []change
	_, err = observe.NewWatcher(data, "fahrenheit", recorder(&changes))
	require.NoError(t, err)

	require.NoError(t, data.Set("celsius", 100.0))
	assert.Equal(t, []change{{212.0, 32.0}}, changes)
}

type counter struct {
	updates int
}

func (p *counter) Update() error {
	p.updates++
	return nil
}

func TestCustomSubscriber(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.Install(map[string]any{"k": 1})

	p := &counter{}
	data.Dep("k").AddSub(p)
	data.Dep("k").AddSub(p)
	assert.Equal(t, 1, data.Dep("k").Len())

	require.NoError(t, data.Set("k", 2))
	assert.Equal(t, 1, p.updates)
}

// a watcher created from inside a callback doesn't steal edges from the outer one
func TestNestedWatcherCreation(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.Install(map[string]any{"a": 1, "b": 1})

	var inner *observe.Watcher
	_, err := observe.NewWatcher(data, "a", func(value, oldValue any) error {
		if inner != nil {
			return nil
		}
		var err error
		inner, err = observe.NewWatcher(data, "b", nil)
		return err
	})
	require.NoError(t, err)

	require.NoError(t, data.Set("a", 2))
	require.NotNil(t, inner)
	assert.False(t, rt.Tracking())
	assert.Equal(t, 1, data.Dep("a").Len())
	assert.Equal(t, 1, data.Dep("b").Len())
}

// should pause tracking
func TestPauseTracking(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.Install(map[string]any{"k": 1})

	rt.PauseTracking()
	assert.False(t, rt.Tracking())
	rt.ResumeTracking()
	// unbalanced resume is ignored
	rt.ResumeTracking()
	assert.False(t, rt.Tracking())

	v, _ := data.Get("k")
	assert.Equal(t, 1, v)
	assert.Equal(t, 0, data.Dep("k").Len())
}

func TestGraph(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.InstallAs("vm", map[string]any{
		"info": "a",
		"user": map[string]any{"id": 1},
	})
	_, err := observe.NewWatcher(data.Child("user"), "id", nil)
	require.NoError(t, err)

	graph := rt.Graph()
	require.Len(t, graph, 3)
	assert.Equal(t, "vm.info", graph[0].Path)
	assert.Equal(t, "vm.user", graph[1].Path)
	assert.Equal(t, "vm.user.id", graph[2].Path)
	assert.Equal(t, 1, graph[2].Subscribers)
	assert.Equal(t, data.Child("user").Dep("id").ID(), graph[2].ID)
	assert.NotEqual(t, graph[0].ID, graph[1].ID)
}

type funcSub func() error

func (f funcSub) Update() error { return f() }

type sliceSub struct {
	calls []int
}

func (s sliceSub) Update() error { return nil }

// subscribers that can't be hashed are still registered and notified
func TestUnhashableSubscribers(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.Install(map[string]any{"k": 1})

	calls := 0
	fn := funcSub(func() error {
		calls++
		return nil
	})
	dep := data.Dep("k")
	assert.NotPanics(t, func() {
		dep.AddSub(fn)
		dep.AddSub(sliceSub{calls: []int{1}})
		dep.AddSub(nil)
	})
	assert.Equal(t, 2, dep.Len())

	require.NoError(t, data.Set("k", 2))
	assert.Equal(t, 1, calls)
}

// writes land in the map handed to Install
func TestWritesReachSourceMap(t *testing.T) {
	rt := observe.NewRuntime()
	user := map[string]any{"id": 1}
	src := map[string]any{"info": "a", "user": user}
	data := rt.Install(src)

	require.NoError(t, data.Set("info", "b"))
	require.NoError(t, data.Child("user").Set("id", 2))
	assert.Equal(t, "b", src["info"])
	assert.Equal(t, 2, user["id"])

	next := map[string]any{"id": 3}
	require.NoError(t, data.Set("user", next))
	assert.Equal(t, next, src["user"])
	require.NoError(t, data.Child("user").Set("id", 4))
	assert.Equal(t, 4, next["id"])

	require.NoError(t, data.Set("info", nil))
	v, ok := src["info"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestTypedSourceMismatch(t *testing.T) {
	rt := observe.NewRuntime()
	src := map[string]int{"a": 1}
	data := rt.Install(src)

	calls := 0
	_, err := observe.NewWatcher(data, "a", func(value, oldValue any) error {
		calls++
		return nil
	})
	require.NoError(t, err)

	assert.ErrorIs(t, data.Set("a", "text"), observe.ErrTypeMismatch)
	assert.ErrorIs(t, data.Set("a", nil), observe.ErrTypeMismatch)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, src["a"])

	require.NoError(t, data.Set("a", 5))
	assert.Equal(t, 5, src["a"])
	assert.Equal(t, 1, calls)
}

// objects replaced by a write show up as stale registries
func TestGraphMarksReplacedObjectsStale(t *testing.T) {
	rt := observe.NewRuntime()
	data := rt.Install(map[string]any{"user": map[string]any{"id": 1}})

	require.NoError(t, data.Set("user", map[string]any{"id": 2}))
	require.NoError(t, data.Set("user", map[string]any{"id": 3}))

	var live, stale []string
	for _, info := range rt.Graph() {
		if info.Stale {
			stale = append(stale, info.Path)
		} else {
			live = append(live, info.Path)
		}
	}
	assert.Equal(t, []string{"user", "user.id"}, live)
	assert.Equal(t, []string{"user.id", "user.id"}, stale)

	graph := rt.Graph()
	require.Len(t, graph, 4)
	assert.Equal(t, "user.id", graph[1].Path)
	assert.False(t, graph[1].Stale)
}
