package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/astadocs/constants"
	"github.com/joseph-ayodele/astadocs/internal/bank"
	"github.com/joseph-ayodele/astadocs/internal/common"
	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/merge"
	"github.com/joseph-ayodele/astadocs/internal/ocr"
	"github.com/joseph-ayodele/astadocs/internal/reconcile"
)

type ListingOutcome struct {
	Listing entity.Listing
	Text    ocr.Result
	Draft   DraftOutcome
}

type ProposalOutcome struct {
	Proposal entity.Proposal
	Text     ocr.Result
	Draft    DraftOutcome
	Bank     bank.Result
}

// Outcome is the result of processing one listing/proposal pair.
type Outcome struct {
	Listing  ListingOutcome
	Proposal ProposalOutcome
	Merged   entity.Merged
}

// Processor coordinates text extraction, pattern extraction, optional
// drafting, bank enrichment and the merge.
type Processor struct {
	Logger  *slog.Logger
	Text    *TextStage
	Extract ExtractStage
	Draft   *DraftStage
	Enrich  *EnrichStage
	Merger  *merge.Merger
}

func NewProcessor(logger *slog.Logger, text *TextStage, ex ExtractStage, draft *DraftStage, enrich *EnrichStage, merger *merge.Merger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if merger == nil {
		merger = merge.New(merge.DefaultOptions())
	}
	return &Processor{Logger: logger, Text: text, Extract: ex, Draft: draft, Enrich: enrich, Merger: merger}
}

// CanDraft reports whether a drafting capability is configured.
func (p *Processor) CanDraft() bool {
	return p.Draft != nil && p.Draft.Drafter != nil
}

// ProcessListing turns a listing payload into a record.
func (p *Processor) ProcessListing(ctx context.Context, in entity.Payload, mode Mode) (ListingOutcome, error) {
	doc, text, err := p.Text.Run(ctx, constants.DocKindListing, in)
	if err != nil {
		return ListingOutcome{Text: text}, err
	}
	out := ListingOutcome{Text: text, Listing: p.Extract.Listing(doc)}
	if mode.Draft {
		out.Draft = p.Draft.Run(ctx, doc, text, in)
		if out.Draft.Attempted {
			out.Listing = reconcile.Listing(out.Draft.Draft, out.Listing)
		}
	}
	return out, nil
}

// ProcessProposal turns a proposal payload into a record and looks up the
// bank of its IBAN.
func (p *Processor) ProcessProposal(ctx context.Context, in entity.Payload, mode Mode) (ProposalOutcome, error) {
	doc, text, err := p.Text.Run(ctx, constants.DocKindProposal, in)
	if err != nil {
		return ProposalOutcome{Text: text}, err
	}
	out := ProposalOutcome{Text: text, Proposal: p.Extract.Proposal(doc)}
	if mode.Draft {
		out.Draft = p.Draft.Run(ctx, doc, text, in)
		if out.Draft.Attempted {
			out.Proposal = reconcile.Proposal(out.Draft.Draft, out.Proposal)
		}
	}
	out.Bank = p.Enrich.Run(ctx, &out.Proposal)
	return out, nil
}

// ProcessPair processes both documents in parallel and merges them. The
// merge is the only point where the two sides meet.
func (p *Processor) ProcessPair(ctx context.Context, listing, proposal entity.Payload, mode Mode) (Outcome, error) {
	start := time.Now()
	p.Logger.Info("pipeline.pair.start",
		"annuncio", listing.FileName,
		"proposta", proposal.FileName,
		"draft", mode.Draft,
		"request_id", common.RequestIDFromContext(ctx),
		"job_id", common.JobIDFromContext(ctx),
	)

	var out Outcome
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := p.ProcessListing(gctx, listing, mode)
		out.Listing = res
		return err
	})
	g.Go(func() error {
		res, err := p.ProcessProposal(gctx, proposal, mode)
		out.Proposal = res
		return err
	})
	if err := g.Wait(); err != nil {
		p.Logger.Error("pipeline.pair.failed", "annuncio", listing.FileName, "proposta", proposal.FileName, "error", err)
		return out, err
	}

	out.Merged = p.Merger.Merge(out.Listing.Listing, out.Proposal.Proposal)
	p.Logger.Info("pipeline.pair.ok",
		"annuncio", listing.FileName,
		"proposta", proposal.FileName,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// Record builds the persisted form of a processed pair.
func (o Outcome) Record() (*entity.StoredRecord, error) {
	l, err := json.Marshal(o.Listing.Listing)
	if err != nil {
		return nil, err
	}
	p, err := json.Marshal(o.Proposal.Proposal)
	if err != nil {
		return nil, err
	}
	return &entity.StoredRecord{
		ListingFile:  o.Merged.Source.ListingFile,
		ProposalFile: o.Merged.Source.ProposalFile,
		Merged:       o.Merged,
		Listing:      l,
		Proposal:     p,
	}, nil
}
