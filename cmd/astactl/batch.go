package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/export"
	"github.com/joseph-ayodele/astadocs/internal/ingest"
	"github.com/joseph-ayodele/astadocs/internal/repository"
)

var (
	batchXLSX    string
	batchWorkers int
	batchStore   bool
)

var batchCmd = &cobra.Command{
	Use:   "batch DIR",
	Short: "Process every listing/proposal pair found under DIR",
	Long: `batch walks DIR, pairs files named like "123_annuncio.pdf" and
"123_proposta.pdf", merges each pair and writes the merged records to an
XLSX workbook. Pairs that fail are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchXLSX, "xlsx", "", "output XLSX path (default DIR/../records.xlsx)")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 2, "pairs processed concurrently")
	batchCmd.Flags().BoolVar(&batchStore, "store", false, "also save merged records in the configured database")
	rootCmd.AddCommand(batchCmd)
}

type batchResult struct {
	key    string
	merged entity.Merged
	err    error
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	pairs, unpaired, stats, err := ingest.ScanPairs(dir, true)
	if err != nil {
		return err
	}
	for _, u := range unpaired {
		a.logger.Warn("batch.unpaired", "file", u)
	}
	if len(pairs) == 0 {
		return fmt.Errorf("no listing/proposal pairs found under %s", dir)
	}
	a.logger.Info("batch.scan.ok", "scanned", stats.Scanned, "paired", stats.Paired, "unpaired", stats.Unpaired)

	var store repository.Store
	if batchStore {
		store, err = repository.Open(ctx, a.cfg.Database, a.logger)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	bar := progressbar.NewOptions(len(pairs),
		progressbar.OptionSetDescription("processing pairs"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("pairs"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionOnCompletion(func() { fmt.Fprint(os.Stderr, "\n") }),
		progressbar.OptionSetRenderBlankState(true),
	)

	results := make([]batchResult, len(pairs))
	var barMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(batchWorkers, 1))
	for i, pair := range pairs {
		g.Go(func() error {
			results[i] = a.processPair(gctx, pair, store)
			barMu.Lock()
			_ = bar.Add(1)
			barMu.Unlock()
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var merged []entity.Merged
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", r.key, r.err)
			continue
		}
		merged = append(merged, r.merged)
	}

	out := batchXLSX
	if out == "" {
		out = filepath.Join(filepath.Dir(filepath.Clean(dir)), "records.xlsx")
	}
	data, err := export.NewService(nil, a.logger).MergedToXLSX(merged)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d pairs merged, %d failed, %d unpaired -> %s\n", len(merged), failed, len(unpaired), out)
	return err
}

func (a *app) processPair(ctx context.Context, pair ingest.Pair, store repository.Store) batchResult {
	res := batchResult{key: pair.Key}
	l, err := a.source.FromFile(pair.Listing)
	if err != nil {
		res.err = err
		return res
	}
	p, err := a.source.FromFile(pair.Proposal)
	if err != nil {
		res.err = err
		return res
	}
	outcome, err := a.proc.ProcessPair(ctx, l, p, a.mode())
	if err != nil {
		res.err = err
		return res
	}
	res.merged = outcome.Merged
	if a.archive != nil {
		if _, err := a.archive.Save(pair.Key, "merged", outcome.Merged); err != nil {
			a.logger.Warn("batch.archive.failed", "pair", pair.Key, "error", err)
		}
	}
	if store != nil {
		rec, err := outcome.Record()
		if err == nil {
			err = store.SaveRecord(ctx, rec)
		}
		if err != nil {
			a.logger.Warn("batch.store.failed", "pair", pair.Key, "error", err)
		}
	}
	return res
}
