package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/mchmarny/nanotox/pkg/score"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const concurrencyFlagName = "concurrency"

func newBatchCmd() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Aliases:   []string{"b"},
		Usage:     "Score many request files concurrently",
		ArgsUsage: "FILE...",
		UsageText: `nanotox batch requests/*.yaml
   nanotox batch --concurrency 2 a.json b.json`,
		Action: cmdBatch,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  concurrencyFlagName,
				Usage: "Maximum files scored in parallel (default: number of CPUs)",
			},
		},
	}
}

// BatchItem is the outcome for one request file.
type BatchItem struct {
	File   string        `json:"file" yaml:"file"`
	Report *score.Report `json:"report,omitempty" yaml:"report,omitempty"`
	Error  string        `json:"error,omitempty" yaml:"error,omitempty"`
}

type BatchResult struct {
	Items    []*BatchItem `json:"items" yaml:"items"`
	Scored   int          `json:"scored" yaml:"scored"`
	Rejected int          `json:"rejected" yaml:"rejected"`
	Failed   int          `json:"failed" yaml:"failed"`
	Duration string       `json:"duration" yaml:"duration"`
}

func cmdBatch(ctx context.Context, cmd *cli.Command) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return errors.New("at least one request file is required")
	}

	engine, _, err := getConfig(cmd).getEngine()
	if err != nil {
		return err
	}

	res, err := scoreFiles(ctx, engine, files, int(cmd.Int(concurrencyFlagName)))
	if err != nil {
		return err
	}

	if err := encode(res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	if res.Rejected+res.Failed > 0 {
		return fmt.Errorf("%w: %d of %d file(s) not scored", errRejected, res.Rejected+res.Failed, len(files))
	}
	return nil
}

// scoreFiles evaluates each file on its own goroutine. The engine is
// immutable so no coordination beyond the result slots is needed.
func scoreFiles(ctx context.Context, engine *score.Engine, files []string, limit int) (*BatchResult, error) {
	start := time.Now()
	if limit < 1 {
		limit = runtime.NumCPU()
	}

	items := make([]*BatchItem, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := &BatchItem{File: file}
			req, err := readRequest(file)
			if err != nil {
				slog.Error("failed to read request", "file", file, "error", err)
				item.Error = err.Error()
			} else {
				item.Report = engine.Evaluate(*req)
			}
			items[i] = item
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch interrupted: %w", err)
	}

	res := &BatchResult{Items: items}
	for _, it := range items {
		switch {
		case it.Report == nil:
			res.Failed++
		case it.Report.Scored:
			res.Scored++
		default:
			res.Rejected++
		}
	}
	res.Duration = time.Since(start).String()

	slog.Debug("batch scored",
		"files", len(files),
		"scored", res.Scored,
		"rejected", res.Rejected,
		"failed", res.Failed)
	return res, nil
}
