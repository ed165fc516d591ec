// Package mvvm wraps an installed data tree in a view model: top level properties are
// proxied onto the view model, watchers are created against its data and named
// methods run bound to it.
package mvvm

import (
	"errors"
	"fmt"

	"github.com/delaneyj/databind/observe"
)

var ErrUnknownMethod = errors.New("unknown method")

type Method func(vm *ViewModel) error

type Options struct {
	Data    map[string]any
	Methods map[string]Method
}

type ViewModel struct {
	rt      *observe.Runtime
	data    *observe.Object
	methods map[string]Method
}

func New(opts Options, ropts ...observe.Option) *ViewModel {
	rt := observe.NewRuntime(ropts...)
	data := opts.Data
	if data == nil {
		data = map[string]any{}
	}
	return &ViewModel{
		rt:      rt,
		data:    rt.Install(data),
		methods: opts.Methods,
	}
}

func (vm *ViewModel) Runtime() *observe.Runtime {
	return vm.rt
}

func (vm *ViewModel) Data() *observe.Object {
	return vm.data
}

func (vm *ViewModel) Keys() []string {
	return vm.data.Keys()
}

func (vm *ViewModel) Get(key string) (any, bool) {
	return vm.data.Get(key)
}

func (vm *ViewModel) Set(key string, value any) error {
	return vm.data.Set(key, value)
}

// Watch subscribes cb to a top level property.
func (vm *ViewModel) Watch(key string, cb observe.Callback) (*observe.Watcher, error) {
	return observe.NewWatcher(vm.data, key, cb)
}

// Call runs a named method. Reads it performs are never tracked.
func (vm *ViewModel) Call(name string) (err error) {
	fn, ok := vm.methods[name]
	if !ok {
		return fmt.Errorf("call %s: %w", name, ErrUnknownMethod)
	}
	vm.rt.Untrack(func() {
		err = fn(vm)
	})
	return err
}
