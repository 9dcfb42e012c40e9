package pipeline

import (
	"log/slog"

	"github.com/joseph-ayodele/astadocs/internal/bank"
	"github.com/joseph-ayodele/astadocs/internal/cache"
	"github.com/joseph-ayodele/astadocs/internal/common"
	"github.com/joseph-ayodele/astadocs/internal/extract"
	"github.com/joseph-ayodele/astadocs/internal/llm"
	"github.com/joseph-ayodele/astadocs/internal/llm/openai"
	"github.com/joseph-ayodele/astadocs/internal/merge"
	"github.com/joseph-ayodele/astadocs/internal/ocr"
)

// Build wires the capabilities selected by cfg into a Processor. Drafting
// and bank lookup stay off unless configured; cc may be nil.
func Build(cfg *common.Config, cc cache.Client, logger *slog.Logger) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tuning, err := common.LoadTuning(cfg.Extraction.TuningFile)
	if err != nil {
		return nil, err
	}
	exOpts, err := extract.NewOptions(tuning)
	if err != nil {
		return nil, err
	}
	mergeOpts, err := merge.OptionsFrom(cfg.Merge)
	if err != nil {
		return nil, err
	}
	if c := tuning.Fields.Characteristics; c != nil {
		mergeOpts.IncludeCharacteristics = *c
	}

	var draft *DraftStage
	if cfg.LLM.Enabled {
		client, err := openai.NewClient(openai.ConfigFrom(cfg.LLM), logger)
		if err != nil {
			return nil, err
		}
		var d llm.Drafter = client
		if cc != nil && cfg.Cache.TTL > 0 {
			d = llm.NewCachedDrafter(client, cc, cfg.Cache.TTL, logger)
		}
		draft = NewDraftStage(d, logger)
		logger.Info("pipeline.draft.enabled", "model", cfg.LLM.Model)
	} else {
		logger.Info("pipeline.draft.disabled")
	}

	enrich := &EnrichStage{Logger: logger}
	if cfg.Bank.Enabled {
		enrich.Lookup = bank.NewOpenIBANClient(bank.ConfigFrom(cfg.Bank, cfg.Cache), cc, logger)
	}

	text := NewTextStage(ocr.NewExtractor(ocr.ConfigFrom(cfg.OCR), logger), logger)
	return NewProcessor(logger, text, ExtractStage{Options: exOpts}, draft, enrich, merge.New(mergeOpts)), nil
}
