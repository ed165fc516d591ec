package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/delaneyj/databind/observe"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var errBadWrite = errors.New("write must look like path=value")

// session is one installed data tree with its watchers.
type session struct {
	logger   zerolog.Logger
	rt       *observe.Runtime
	root     *observe.Object
	watchers []*observe.Watcher
}

func newSession(cfg Config, logger zerolog.Logger) (*session, error) {
	data, err := loadData(cfg.Data)
	if err != nil {
		return nil, err
	}

	opts := []observe.Option{
		observe.WithLogger(logger),
		observe.WithMaxDepth(cfg.MaxDepth),
	}
	if cfg.ShallowSet {
		opts = append(opts, observe.WithShallowSet())
	}
	if cfg.IsolateErrors {
		opts = append(opts, observe.WithErrorHandler(func(from observe.Subscriber, err error) {
			logger.Error().Err(err).Msg("watcher failed")
		}))
	}

	rt := observe.NewRuntime(opts...)
	s := &session{
		logger: logger,
		rt:     rt,
		root:   rt.Install(data),
	}

	for _, path := range cfg.Watch {
		if err := s.watch(path); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *session) watch(path string) error {
	target, key, err := resolve(s.root, path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	w, err := observe.NewWatcher(target, key, func(value, oldValue any) error {
		s.logger.Info().
			Str("watch", path).
			Interface("value", value).
			Interface("old", oldValue).
			Msg("changed")
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug().Str("watch", path).Interface("value", w.Value()).Msg("watching")
	s.watchers = append(s.watchers, w)
	return nil
}

func (s *session) apply(writes []string) error {
	for _, write := range writes {
		path, raw, ok := strings.Cut(write, "=")
		if !ok {
			return fmt.Errorf("%q: %w", write, errBadWrite)
		}
		path = strings.TrimSpace(path)

		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return fmt.Errorf("parse value of %s: %w", path, err)
		}
		target, key, err := resolve(s.root, path)
		if err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
		if err := target.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// resolve walks a dotted path down to the object holding its last segment.
func resolve(root *observe.Object, path string) (*observe.Object, string, error) {
	segments := strings.Split(path, ".")
	target := root
	for _, segment := range segments[:len(segments)-1] {
		next := target.Child(segment)
		if next == nil {
			return nil, "", fmt.Errorf("%s is not an object: %w", joinSegments(target, segment), observe.ErrUnknownProperty)
		}
		target = next
	}
	key := segments[len(segments)-1]
	if !target.Has(key) {
		return nil, "", fmt.Errorf("%s: %w", joinSegments(target, key), observe.ErrUnknownProperty)
	}
	return target, key, nil
}

func joinSegments(obj *observe.Object, key string) string {
	if obj.Path() == "" {
		return key
	}
	return obj.Path() + "." + key
}

func loadData(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}

	var data map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err = dec.Decode(&data); err == nil {
			data, _ = jsonScalars(data).(map[string]any)
		}
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &data)
	default:
		return nil, fmt.Errorf("read data %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse data %s: %w", path, err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// jsonScalars turns json.Number into int or float64, the types YAML writes
// decode to.
func jsonScalars(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, e := range v {
			v[k] = jsonScalars(e)
		}
	case []any:
		for i, e := range v {
			v[i] = jsonScalars(e)
		}
	case json.Number:
		if n, err := strconv.ParseInt(v.String(), 10, 0); err == nil {
			return int(n)
		}
		f, _ := v.Float64()
		return f
	}
	return v
}
