package observe

import (
	"reflect"
	"sort"
)

// Install makes every property of data observable and returns the instrumented tree.
// Values that are not string keyed maps have nothing to instrument and yield nil.
// Installing the same map or *Object twice returns the existing tree.
func (rt *Runtime) Install(data any) *Object {
	return rt.InstallAs("", data)
}

// InstallAs is Install with name prefixed to every property path.
func (rt *Runtime) InstallAs(name string, data any) *Object {
	obj := rt.install(name, data)
	if obj != nil && !rt.roots.Contains(obj) {
		rt.roots.Add(obj)
	}
	return obj
}

func (rt *Runtime) install(path string, data any) *Object {
	switch data := data.(type) {
	case nil:
		return nil
	case *Object:
		return data
	}

	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
		return nil
	}

	ptr := rv.Pointer()
	if obj, ok := rt.objects[ptr]; ok {
		return obj
	}
	obj := &Object{
		rt:   rt,
		path: path,
		src:  data,
	}
	// registered before walking children so cycles resolve to this object
	rt.objects[ptr] = obj

	values := make(map[string]any, rv.Len())
	keys := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := iter.Key().String()
		keys = append(keys, key)
		values[key] = iter.Value().Interface()
	}
	sort.Strings(keys)

	for _, key := range keys {
		rt.defineReactive(obj, key, values[key])
	}
	obj.keys = keys

	rt.logger.Debug().
		Str("path", path).
		Int("properties", len(keys)).
		Msg("installed")
	return obj
}

func (rt *Runtime) defineReactive(obj *Object, key string, value any) {
	p := &property{
		obj:  obj,
		key:  key,
		path: joinPath(obj.path, key),
	}
	if child := rt.install(p.path, value); child != nil {
		value = child
	}
	p.value = value
	p.dep = newDep(rt, p.path)
	rt.arena[propertyKey{obj: obj, name: key}] = p
}

func (rt *Runtime) get(p *property) any {
	rt.logger.Trace().Str("path", p.path).Bool("tracked", rt.active != nil).Msg("read")
	if rt.active != nil {
		p.dep.AddSub(rt.active)
	}
	return p.value
}

func (rt *Runtime) set(p *property, value any) error {
	src, err := p.obj.sourceValue(p.key, value)
	if err != nil {
		return err
	}
	if !rt.shallowSet {
		if child := rt.install(p.path, value); child != nil {
			value = child
		}
	}
	if same(p.value, value) {
		return nil
	}
	p.obj.writeSource(p.key, src)

	evt := rt.logger.Trace().Str("path", p.path)
	if _, ok := value.(*Object); ok {
		evt = evt.Str("value", "object")
	} else {
		evt = evt.Interface("value", value)
	}
	evt.Msg("write")

	p.value = value
	return p.dep.Notify()
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
