package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/delaneyj/databind/observe"
	"github.com/urfave/cli/v3"
)

type Config struct {
	Data          string
	Watch         []string
	Set           []string
	MaxDepth      int
	ShallowSet    bool
	IsolateErrors bool
}

type fileConfig struct {
	Data          string   `toml:"data"`
	Watch         []string `toml:"watch"`
	Set           []string `toml:"set"`
	MaxDepth      int      `toml:"max_depth"`
	ShallowSet    bool     `toml:"shallow_set"`
	IsolateErrors bool     `toml:"isolate_errors"`
}

func DefaultConfig() Config {
	return Config{
		MaxDepth: observe.DefaultMaxDepth,
	}
}

func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown keys %v", undecoded)
	}

	if meta.IsDefined("data") {
		cfg.Data = strings.TrimSpace(raw.Data)
	}
	if meta.IsDefined("watch") {
		cfg.Watch = raw.Watch
	}
	if meta.IsDefined("set") {
		cfg.Set = raw.Set
	}
	if meta.IsDefined("max_depth") {
		if raw.MaxDepth <= 0 {
			return Config{}, fmt.Errorf("load config: max_depth must be positive, got %d", raw.MaxDepth)
		}
		cfg.MaxDepth = raw.MaxDepth
	}
	if meta.IsDefined("shallow_set") {
		cfg.ShallowSet = raw.ShallowSet
	}
	if meta.IsDefined("isolate_errors") {
		cfg.IsolateErrors = raw.IsolateErrors
	}
	return cfg, nil
}

// resolveConfig loads --config if given, then lets explicit flags win.
func resolveConfig(cmd *cli.Command) (Config, error) {
	cfg := DefaultConfig()
	if path := cmd.String(configKey); path != "" {
		var err error
		if cfg, err = loadConfig(path); err != nil {
			return Config{}, err
		}
	}

	if cmd.IsSet(dataKey) {
		cfg.Data = cmd.String(dataKey)
	}
	if cmd.IsSet(watchKey) {
		cfg.Watch = append(cfg.Watch, cmd.StringSlice(watchKey)...)
	}
	if cmd.IsSet(setKey) {
		cfg.Set = append(cfg.Set, cmd.StringSlice(setKey)...)
	}
	if cmd.IsSet(maxDepthKey) {
		cfg.MaxDepth = int(cmd.Uint(maxDepthKey))
	}
	if cmd.IsSet(shallowSetKey) {
		cfg.ShallowSet = cmd.Bool(shallowSetKey)
	}
	if cmd.IsSet(isolateErrorsKey) {
		cfg.IsolateErrors = cmd.Bool(isolateErrorsKey)
	}

	if cfg.Data == "" {
		return Config{}, fmt.Errorf("no data file, use --%s or set data in the config", dataKey)
	}
	return cfg, nil
}
