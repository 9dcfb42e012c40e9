package llm

import (
	"context"
	"time"

	"github.com/joseph-ayodele/astadocs/constants"
)

// DraftRequest asks the drafting capability for a record of one document.
type DraftRequest struct {
	Kind   constants.DocKind
	FileID string
	Text   string

	// ImageDataURL optionally attaches a scanned page when the text layer is
	// too thin to read.
	ImageDataURL string
}

// DraftResult is the model's raw JSON answer. Raw may be invalid or partial;
// the reconciler decides what survives.
type DraftResult struct {
	Raw     []byte
	Model   string
	Valid   bool
	Elapsed time.Duration
}

// Drafter is the interface the pipeline depends on.
type Drafter interface {
	Draft(ctx context.Context, req DraftRequest) (DraftResult, error)
}
