package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/delaneyj/databind/cmd/databind/templates"
	"github.com/delaneyj/databind/observe"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

func graph(ctx context.Context, cmd *cli.Command) error {
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
	if err := s.apply(cfg.Set); err != nil {
		return err
	}

	infos := s.rt.Graph()
	if !cmd.Bool(staleKey) {
		infos = liveInfos(infos)
	}
	switch format := cmd.String(formatKey); format {
	case "table":
		renderGraphTable(infos)
	case "dot":
		templates.WriteDot(stdout, infos)
	case "md":
		templates.WriteMarkdown(stdout, infos)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

// liveInfos drops registries left behind by replaced objects.
func liveInfos(infos []observe.DepInfo) []observe.DepInfo {
	live := infos[:0:0]
	for _, info := range infos {
		if !info.Stale {
			live = append(live, info)
		}
	}
	return live
}

func renderGraphTable(infos []observe.DepInfo) {
	table := tablewriter.NewWriter(stdout)
	table.SetHeader([]string{"path", "id", "subscribers"})

	total := 0
	for _, info := range infos {
		total += info.Subscribers
		table.Append([]string{
			info.Path,
			strconv.FormatUint(info.ID, 16),
			humanize.Comma(int64(info.Subscribers)),
		})
	}
	table.SetFooter([]string{
		humanize.Comma(int64(len(infos))) + " properties",
		"",
		humanize.Comma(int64(total)),
	})
	table.Render()
}
