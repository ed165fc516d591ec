package main

import (
	"context"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

const (
	logLevelKey      = "log-level"
	configKey        = "config"
	dataKey          = "data"
	watchKey         = "watch"
	setKey           = "set"
	maxDepthKey      = "max-depth"
	shallowSetKey    = "shallow-set"
	isolateErrorsKey = "isolate-errors"
	formatKey        = "format"
	staleKey         = "stale"
	iterationsKey    = "iterations"
)

var stdout io.Writer = os.Stdout

func main() {
	cmd := &cli.Command{
		Name:  "databind",
		Usage: "Install data trees, watch properties and inspect their dependencies",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    logLevelKey,
				Usage:   "trace, debug, info, warn or error",
				Value:   "info",
				Sources: cli.EnvVars("DATABIND_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:  configKey,
				Usage: "TOML config file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Apply writes to a data tree and log every watcher change",
				Flags:  sessionFlags(),
				Action: run,
			},
			{
				Name:  "graph",
				Usage: "Print the property registries after applying writes",
				Flags: append(sessionFlags(),
					&cli.StringFlag{
						Name:  formatKey,
						Usage: "table, dot or md",
						Value: "table",
					},
					&cli.BoolFlag{
						Name:  staleKey,
						Usage: "Include registries of objects replaced by writes",
					},
				),
				Action: graph,
			},
			{
				Name:  "bench",
				Usage: "Time write propagation across watcher fan-outs",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  iterationsKey,
						Usage: "Writes per configuration",
						Value: 100,
					},
				},
				Action: bench,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func sessionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  dataKey,
			Usage: "JSON or YAML data tree",
		},
		&cli.StringSliceFlag{
			Name:  watchKey,
			Usage: "Dotted property path to watch",
		},
		&cli.StringSliceFlag{
			Name:  setKey,
			Usage: "Write as path=value, value parsed as YAML",
		},
		&cli.UintFlag{
			Name:  maxDepthKey,
			Usage: "Maximum nested notification depth",
		},
		&cli.BoolFlag{
			Name:  shallowSetKey,
			Usage: "Leave maps written after install unobserved",
		},
		&cli.BoolFlag{
			Name:  isolateErrorsKey,
			Usage: "Keep notifying other watchers when one fails",
		},
	}
}

func newLogger(cmd *cli.Command) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cmd.String(logLevelKey))))
	if err != nil {
		return zerolog.Nop(), err
	}
	if lvl < zerolog.GlobalLevel() {
		zerolog.SetGlobalLevel(lvl)
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.TimeOnly,
	}).Level(lvl).With().Timestamp().Logger(), nil
}
