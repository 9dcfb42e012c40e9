package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/astadocs/constants"
	"github.com/joseph-ayodele/astadocs/internal/common"
	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/ocr"
)

type TextStage struct {
	Extractor TextExtractor
	Logger    *slog.Logger
}

func NewTextStage(tx TextExtractor, logger *slog.Logger) *TextStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextStage{Extractor: tx, Logger: logger}
}

// Run converts the payload to text. An empty payload is a missing mandatory
// input; empty text is not an error.
func (s *TextStage) Run(ctx context.Context, kind constants.DocKind, in entity.Payload) (entity.Document, ocr.Result, error) {
	doc := entity.Document{FileID: in.FileName, Kind: kind}
	if len(in.Data) == 0 {
		return doc, ocr.Result{}, common.NewAppError("MISSING_INPUT", string(kind)+" document is required", common.ErrInvalidInput)
	}

	res, err := s.Extractor.Extract(ctx, in.Data, in.FileName)
	if err != nil {
		s.Logger.Error("pipeline.text.failed", "kind", kind, "file", in.FileName, "error", err)
		return doc, res, err
	}
	for _, pe := range res.PageErrors {
		s.Logger.Warn("pipeline.text.page_error", "kind", kind, "file", in.FileName, "page", pe.Page, "error", pe.Err)
	}
	if res.Empty() {
		s.Logger.Warn("pipeline.text.empty", "kind", kind, "file", in.FileName, "method", res.Method)
	} else {
		s.Logger.Info("pipeline.text.ok",
			"kind", kind,
			"file", in.FileName,
			"method", res.Method,
			"pages", res.Pages,
			"chars", len(res.Text),
			"confidence", res.Confidence,
			"elapsed_ms", res.Duration.Milliseconds(),
		)
	}
	doc.Text = res.Text
	return doc, res, nil
}
