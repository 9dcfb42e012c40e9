package pipeline

import (
	"context"

	"github.com/joseph-ayodele/astadocs/internal/ocr"
)

// TextExtractor is stage 1: payload -> text.
type TextExtractor interface {
	Extract(ctx context.Context, payload []byte, filename string) (ocr.Result, error)
}

// Mode selects optional stages for one request.
type Mode struct {
	// Draft asks the drafting capability for a record and reconciles it with
	// the extracted one.
	Draft bool
}
