package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/astadocs/internal/archive"
	"github.com/joseph-ayodele/astadocs/internal/cache"
	"github.com/joseph-ayodele/astadocs/internal/common"
	"github.com/joseph-ayodele/astadocs/internal/ingest"
	"github.com/joseph-ayodele/astadocs/internal/pipeline"
)

var (
	envFile string
	verbose bool
	draft   bool
	outDir  string
)

var rootCmd = &cobra.Command{
	Use:   "astactl",
	Short: "Extract and merge auction listings and purchase proposals",
	Long: `astactl runs the document pipeline locally: it converts listings
(annunci) and purchase proposals (proposte) to text, extracts their records,
optionally reconciles them with a model draft and merges each pair into one
record.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	rootCmd.PersistentFlags().BoolVar(&draft, "draft", false, "reconcile records with a model draft (needs LLM_ENABLED)")
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "", "also archive JSON results in this directory")
}

// app holds the collaborators a command needs.
type app struct {
	cfg     *common.Config
	logger  *slog.Logger
	proc    *pipeline.Processor
	source  *ingest.Source
	archive *archive.Writer
	cache   cache.Client
}

func newApp() (*app, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := common.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cc, err := cache.New(cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	proc, err := pipeline.Build(cfg, cc, logger)
	if err != nil {
		_ = cc.Close()
		return nil, err
	}
	if draft && !proc.CanDraft() {
		logger.Warn("cli.draft.unavailable", "hint", "set LLM_ENABLED and OPENAI_API_KEY")
	}
	a := &app{
		cfg:    cfg,
		logger: logger,
		proc:   proc,
		source: ingest.NewSource(cfg.Storage, cfg.Server.MaxUploadBytes, logger),
		cache:  cc,
	}
	if outDir != "" {
		a.archive = archive.NewWriter(outDir, logger)
	}
	return a, nil
}

func (a *app) Close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
}

func (a *app) mode() pipeline.Mode {
	return pipeline.Mode{Draft: draft && a.proc.CanDraft()}
}

// emit prints v as indented JSON and archives it when --out is set.
func (a *app) emit(w io.Writer, baseName, suffix string, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if a.archive == nil {
		return nil
	}
	path, err := a.archive.Save(baseName, suffix, v)
	if err != nil {
		return err
	}
	a.logger.Info("cli.saved", "path", path)
	return nil
}
