package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/astadocs/constants"
	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/llm"
	"github.com/joseph-ayodele/astadocs/internal/ocr"
	"github.com/joseph-ayodele/astadocs/internal/reconcile"
)

// DraftOutcome reports what the drafting capability contributed. A failed
// call and an unreadable answer both leave Draft empty; Err tells them apart.
type DraftOutcome struct {
	Attempted bool
	Status    reconcile.DraftStatus
	Model     string
	Valid     bool
	Image     bool
	Elapsed   time.Duration
	Err       error

	// Draft is the decoded answer, normalized in place by the reconciler.
	Draft map[string]any
}

// Failed reports whether the capability call itself failed.
func (o DraftOutcome) Failed() bool { return o.Err != nil }

type draftOutcomeJSON struct {
	Attempted bool   `json:"attempted"`
	Status    string `json:"status"`
	Model     string `json:"model,omitempty"`
	Valid     bool   `json:"valid"`
	Image     bool   `json:"image"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Error     string `json:"error,omitempty"`
}

func (o DraftOutcome) MarshalJSON() ([]byte, error) {
	out := draftOutcomeJSON{
		Attempted: o.Attempted,
		Status:    o.Status.String(),
		Model:     o.Model,
		Valid:     o.Valid,
		Image:     o.Image,
		ElapsedMS: o.Elapsed.Milliseconds(),
	}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	return json.Marshal(out)
}

type DraftStage struct {
	Drafter llm.Drafter
	Logger  *slog.Logger
}

func NewDraftStage(d llm.Drafter, logger *slog.Logger) *DraftStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &DraftStage{Drafter: d, Logger: logger}
}

// Run asks for a draft of doc. Low-confidence OCR of an image payload sends
// the image along. Errors are absorbed into the outcome.
func (s *DraftStage) Run(ctx context.Context, doc entity.Document, text ocr.Result, in entity.Payload) DraftOutcome {
	if s == nil || s.Drafter == nil {
		return DraftOutcome{Status: reconcile.DraftEmpty, Draft: map[string]any{}}
	}

	req := llm.DraftRequest{Kind: doc.Kind, FileID: doc.FileID, Text: doc.Text}
	if text.Format == constants.FormatImage && (text.Empty() || text.Confidence < ocr.LowConfidence) {
		req.ImageDataURL = llm.ImageDataURL(in.Data, in.FileName)
	}
	out := DraftOutcome{Attempted: true, Image: req.ImageDataURL != ""}
	if req.Text == "" && req.ImageDataURL == "" {
		s.Logger.Info("pipeline.draft.skipped", "kind", doc.Kind, "file", doc.FileID, "reason", "no text")
		out.Attempted = false
		out.Status = reconcile.DraftEmpty
		out.Draft = map[string]any{}
		return out
	}

	res, err := s.Drafter.Draft(ctx, req)
	out.Model, out.Valid, out.Elapsed = res.Model, res.Valid, res.Elapsed
	if err != nil {
		s.Logger.Warn("pipeline.draft.failed", "kind", doc.Kind, "file", doc.FileID, "error", err)
		out.Err = err
		out.Status = reconcile.DraftEmpty
		out.Draft = map[string]any{}
		return out
	}

	out.Draft, out.Status = reconcile.ParseDraft(res.Raw)
	s.Logger.Info("pipeline.draft.ok",
		"kind", doc.Kind,
		"file", doc.FileID,
		"model", res.Model,
		"valid", res.Valid,
		"status", out.Status.String(),
		"image", out.Image,
		"elapsed_ms", res.Elapsed.Milliseconds(),
	)
	return out
}
