package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func run(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	s, err := newSession(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info().
		Str("data", cfg.Data).
		Int("watchers", len(s.watchers)).
		Int("writes", len(cfg.Set)).
		Msg("session ready")

	if err := s.apply(cfg.Set); err != nil {
		return err
	}

	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(s.root); err != nil {
		return fmt.Errorf("encode data: %w", err)
	}
	return enc.Close()
}
