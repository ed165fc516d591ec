package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/delaneyj/databind/observe"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

var (
	ww = []int{1, 10, 100}
	hh = []int{1, 10, 100, 1_000}
)

func bench(ctx context.Context, cmd *cli.Command) error {
	iters := int(cmd.Uint(iterationsKey))
	if iters == 0 {
		return fmt.Errorf("--%s must be positive", iterationsKey)
	}

	log.Printf("warming up")
	if _, err := benchmarkPropagate(1, 1, iters); err != nil {
		return err
	}

	tbl := table.NewWriter()
	tbl.SetTitle("databind propagation")
	tbl.SetOutputMirror(stdout)
	tbl.AppendHeader(table.Row{"benchmark", "notifications", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			calc, err := benchmarkPropagate(w, h, iters)
			if err != nil {
				return err
			}
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					humanize.Comma(int64(w * h * iters)),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}
	tbl.Render()
	return nil
}

// benchmarkPropagate times writing every one of w properties, each watched h times.
func benchmarkPropagate(w, h, iters int) (*tachymeter.Metrics, error) {
	data := make(map[string]any, w)
	keys := make([]string, w)
	for i := range keys {
		keys[i] = fmt.Sprintf("p%d", i)
		data[keys[i]] = 0
	}

	rt := observe.NewRuntime()
	root := rt.Install(data)
	notified := 0
	for _, key := range keys {
		for j := 0; j < h; j++ {
			if _, err := observe.NewWatcher(root, key, func(value, oldValue any) error {
				notified++
				return nil
			}); err != nil {
				return nil, err
			}
		}
	}

	tach := tachymeter.New(&tachymeter.Config{Size: iters})
	for i := 1; i <= iters; i++ {
		start := time.Now()
		for _, key := range keys {
			if err := root.Set(key, i); err != nil {
				return nil, err
			}
		}
		tach.AddTime(time.Since(start))
	}

	if expected := w * h * iters; notified != expected {
		return nil, fmt.Errorf("propagate %d * %d: %d notifications, expected %d", w, h, notified, expected)
	}
	return tach.Calc(), nil
}
