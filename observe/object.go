package observe

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Object is an installed data tree node. Its properties are fixed at install time
// and every access goes through the tracked accessors.
type Object struct {
	rt   *Runtime
	path string
	keys []string
	// keeps the source map alive while its address identifies this object
	src  any
}

func (o *Object) prop(key string) *property {
	return o.rt.arena[propertyKey{obj: o, name: key}]
}

func (o *Object) Runtime() *Runtime {
	return o.rt
}

func (o *Object) Path() string {
	return o.path
}

// Keys returns the property names in enumeration order.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

func (o *Object) Len() int {
	return len(o.keys)
}

func (o *Object) Has(key string) bool {
	return o.prop(key) != nil
}

// Get reads a property. If a subscriber is currently tracking, it is registered
// on the property.
func (o *Object) Get(key string) (any, bool) {
	p := o.prop(key)
	if p == nil {
		return nil, false
	}
	return o.rt.get(p), true
}

// Child reads a property holding a nested object, nil if it holds anything else.
func (o *Object) Child(key string) *Object {
	v, _ := o.Get(key)
	child, _ := v.(*Object)
	return child
}

// Set writes a property and notifies its subscribers when the value changed.
func (o *Object) Set(key string, value any) error {
	p := o.prop(key)
	if p == nil {
		return fmt.Errorf("set %s: %w", joinPath(o.path, key), ErrUnknownProperty)
	}
	return o.rt.set(p, value)
}

// sourceValue converts value into something the source map can hold at key.
func (o *Object) sourceValue(key string, value any) (reflect.Value, error) {
	elem := reflect.TypeOf(o.src).Elem()
	if obj, ok := value.(*Object); ok && obj != nil {
		value = obj.src
	}
	if value == nil {
		switch elem.Kind() {
		case reflect.Interface, reflect.Map, reflect.Slice, reflect.Pointer, reflect.Func, reflect.Chan:
			return reflect.Zero(elem), nil
		}
		return reflect.Value{}, fmt.Errorf("set %s: nil into %s: %w", joinPath(o.path, key), elem, ErrTypeMismatch)
	}
	v := reflect.ValueOf(value)
	if !v.Type().AssignableTo(elem) {
		return reflect.Value{}, fmt.Errorf("set %s: %s into %s: %w", joinPath(o.path, key), v.Type(), elem, ErrTypeMismatch)
	}
	return v, nil
}

// writeSource keeps the map handed to Install in step with the tree.
func (o *Object) writeSource(key string, v reflect.Value) {
	src := reflect.ValueOf(o.src)
	src.SetMapIndex(reflect.ValueOf(key).Convert(src.Type().Key()), v)
}

func (o *Object) Dep(key string) *Dep {
	p := o.prop(key)
	if p == nil {
		return nil
	}
	return p.dep
}

// ToMap copies the tree back into plain maps. Shared or cyclic objects map to
// the same copy.
func (o *Object) ToMap() map[string]any {
	return o.toMap(map[*Object]map[string]any{})
}

func (o *Object) toMap(copied map[*Object]map[string]any) map[string]any {
	if m, ok := copied[o]; ok {
		return m
	}
	m := make(map[string]any, len(o.keys))
	copied[o] = m
	for _, key := range o.keys {
		v, _ := o.Get(key)
		if child, ok := v.(*Object); ok {
			v = child.toMap(copied)
		}
		m[key] = v
	}
	return m
}

func (o *Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.ToMap())
}

func (o *Object) MarshalYAML() (any, error) {
	return o.ToMap(), nil
}

func (o *Object) String() string {
	return fmt.Sprintf("Object(%s)%v", o.path, o.keys)
}
