package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/flash-cli/internal/config"
	"github.com/sells-group/flash-cli/internal/fetcher"
	"github.com/sells-group/flash-cli/internal/importer"
	"github.com/sells-group/flash-cli/internal/model"
	"github.com/sells-group/flash-cli/internal/predict"
)

var (
	batchFile  string
	batchSheet string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score every assessment in a CSV, XLSX or JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if batchFile == "" {
			return eris.New("batch: --file is required")
		}
		path, cleanup, err := fetcher.Localize(ctx, batchFile, fetcher.Options{
			Timeout:    cfg.Batch.FetchTimeout(),
			MaxRetries: cfg.Batch.FetchMaxRetries,
			Accept:     importer.Supported,
		})
		if err != nil {
			return eris.Wrap(err, "batch: fetch input")
		}
		defer cleanup()

		rows, err := importer.Read(path, importer.Options{SheetName: batchSheet})
		if err != nil {
			return eris.Wrap(err, "batch: read input")
		}

		svc, st, err := initService(ctx, config.ModeBatch)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sum, err := processBatch(ctx, rows, batchLimit, cfg.Batch.MaxConcurrent, func(ctx context.Context, rec model.AssessmentRecord) (*predict.Result, error) {
			return svc.Submit(ctx, rec, "")
		})
		if err != nil {
			return err
		}
		sum.print(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "input file or http(s)/ftp URL (.csv, .xlsx, .json, .jsonl, or a .zip holding one)")
	batchCmd.Flags().StringVar(&batchSheet, "sheet", "", "worksheet name for .xlsx input (default first sheet)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 100, "max number of rows to process")
	rootCmd.AddCommand(batchCmd)
}

// submitFunc scores one record.
type submitFunc func(ctx context.Context, rec model.AssessmentRecord) (*predict.Result, error)

type batchSummary struct {
	Total     int64
	Succeeded int64
	Degraded  int64
	Invalid   int64
	Failed    int64
}

func (s batchSummary) print(w io.Writer) {
	fmt.Fprintf(w, "total:     %d\n", s.Total)
	fmt.Fprintf(w, "succeeded: %d\n", s.Succeeded)
	fmt.Fprintf(w, "degraded:  %d\n", s.Degraded)
	fmt.Fprintf(w, "invalid:   %d\n", s.Invalid)
	fmt.Fprintf(w, "failed:    %d\n", s.Failed)
}

// processBatch applies limit, then scores rows concurrently. Individual
// failures are counted, not returned.
func processBatch(ctx context.Context, rows []importer.Row, limit, concurrency int, submit submitFunc) (batchSummary, error) {
	if len(rows) == 0 {
		zap.L().Info("no rows to process")
		return batchSummary{}, nil
	}

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	zap.L().Info("processing batch",
		zap.Int("rows", len(rows)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	var succeeded, degraded, invalid, failed atomic.Int64

	for _, row := range rows {
		g.Go(func() error {
			log := zap.L().With(zap.String("company", row.Label()), zap.Int("line", row.Line))

			res, err := submit(gctx, row.Record)
			if err != nil {
				var inv *predict.InvalidError
				if errors.As(err, &inv) {
					invalid.Add(1)
					log.Warn("assessment invalid", zap.Int("errors", len(inv.Errors)), zap.String("first", inv.Errors[0].String()))
				} else {
					failed.Add(1)
					log.Error("assessment failed", zap.Error(err))
				}
				return nil // don't abort batch on individual failure
			}

			if res.Degraded {
				degraded.Add(1)
			} else {
				succeeded.Add(1)
			}
			log.Info("assessment scored",
				zap.Float64("success_probability", res.Prediction.SuccessProbability),
				zap.String("verdict", res.Prediction.Verdict),
				zap.Bool("degraded", res.Degraded),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return batchSummary{}, eris.Wrap(err, "batch processing")
	}

	sum := batchSummary{
		Total:     int64(len(rows)),
		Succeeded: succeeded.Load(),
		Degraded:  degraded.Load(),
		Invalid:   invalid.Load(),
		Failed:    failed.Load(),
	}
	zap.L().Info("batch complete",
		zap.Int64("succeeded", sum.Succeeded),
		zap.Int64("degraded", sum.Degraded),
		zap.Int64("invalid", sum.Invalid),
		zap.Int64("failed", sum.Failed),
	)
	return sum, nil
}
