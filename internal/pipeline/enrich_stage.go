package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/astadocs/internal/bank"
	"github.com/joseph-ayodele/astadocs/internal/entity"
)

// EnrichStage fills bank details from the beneficiary IBAN.
type EnrichStage struct {
	Lookup bank.Lookup
	Logger *slog.Logger
}

func (s *EnrichStage) Run(ctx context.Context, p *entity.Proposal) bank.Result {
	if s == nil || s.Lookup == nil {
		return bank.Result{}
	}
	return bank.Enrich(ctx, s.Lookup, p, s.Logger)
}
