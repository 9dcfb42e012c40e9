package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/astadocs/constants"
	"github.com/joseph-ayodele/astadocs/internal/bank"
	"github.com/joseph-ayodele/astadocs/internal/common"
	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/extract"
	"github.com/joseph-ayodele/astadocs/internal/llm"
	"github.com/joseph-ayodele/astadocs/internal/merge"
	"github.com/joseph-ayodele/astadocs/internal/ocr"
	"github.com/joseph-ayodele/astadocs/internal/reconcile"
)

const listingText = `Appartamento all'asta Via Roma 12, 20100 Milano
Tipo vendita
Vendita senza incanto
Data vendita: 15/05/2024 ore 10:30
Offerta minima € 125.000,00
Le offerte dovranno essere depositate entro il 10/05/2024 ore 13:00
Descrizione:
Trilocale luminoso con balcone.`

const proposalText = `PROPOSTA IRREVOCABILE DI ACQUISTO
Il sottoscritto Mario Rossi, nato a Roma il 01/01/1970
Identificativi catastali: Foglio 12 Particella 34 Sub 2 Categoria A/2
Deposito cauzionale pari al 10% del prezzo offerto
mediante bonifico sul conto intestato a SAVOY REOCO S.r.l., IBAN IT60 X054 2811 1010 0000 0123 456, BIC: BPMOIT22XXX
Luogo: Milano
Data: 02/05/2024`

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fakeText struct {
	results map[string]ocr.Result
	err     error
}

func (f fakeText) Extract(_ context.Context, payload []byte, filename string) (ocr.Result, error) {
	if f.err != nil {
		return ocr.Result{}, f.err
	}
	if r, ok := f.results[filename]; ok {
		return r, nil
	}
	return ocr.Result{Text: string(payload), Format: constants.FormatText, Method: ocr.MethodPlain}, nil
}

type fakeDrafter struct {
	mu   sync.Mutex
	raw  map[constants.DocKind]string
	err  map[constants.DocKind]error
	reqs []llm.DraftRequest
}

func (f *fakeDrafter) Draft(_ context.Context, req llm.DraftRequest) (llm.DraftResult, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if err := f.err[req.Kind]; err != nil {
		return llm.DraftResult{}, err
	}
	return llm.DraftResult{Raw: []byte(f.raw[req.Kind]), Model: "test-model", Valid: true, Elapsed: time.Millisecond}, nil
}

type fakeLookup struct {
	res   bank.Result
	calls int
}

func (f *fakeLookup) Lookup(context.Context, string) bank.Result {
	f.calls++
	return f.res
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func strp(s string) *string { return &s }

func newProcessor(tx TextExtractor, d llm.Drafter, l bank.Lookup) *Processor {
	logger := quietLogger()
	m := merge.New(merge.DefaultOptions())
	m.Now = func() time.Time { return time.Date(2024, 5, 2, 9, 0, 0, 0, m.Options.Location) }
	var draft *DraftStage
	if d != nil {
		draft = NewDraftStage(d, logger)
	}
	return NewProcessor(logger,
		NewTextStage(tx, logger),
		ExtractStage{Options: extract.DefaultOptions()},
		draft,
		&EnrichStage{Lookup: l, Logger: logger},
		m,
	)
}

func payload(name, text string) entity.Payload {
	return entity.Payload{FileName: name, Data: []byte(text)}
}

func TestProcessPairDeterministic(t *testing.T) {
	lookup := &fakeLookup{res: bank.Result{BankName: strp("Banca Popolare di Milano")}}
	p := newProcessor(fakeText{}, nil, lookup)

	out, err := p.ProcessPair(context.Background(),
		payload("annuncio.txt", listingText),
		payload("proposta.txt", proposalText),
		Mode{})
	require.NoError(t, err)

	m := out.Merged
	assert.Equal(t, "annuncio.txt", m.Source.ListingFile)
	assert.Equal(t, "proposta.txt", m.Source.ProposalFile)
	require.NotNil(t, m.Property.Locality)
	assert.Equal(t, "Milano", *m.Property.Locality)
	require.NotNil(t, m.Auction.MaximumBid)
	assert.InDelta(t, 126000.0, *m.Auction.MaximumBid, 0.001)
	require.NotNil(t, m.Payments.DepositDeadlineDate)
	assert.Equal(t, "2024-05-10", *m.Payments.DepositDeadlineDate)
	assert.Equal(t, "IT60X0542811101000000123456", *m.Payments.IBAN)
	assert.Equal(t, "BPMOIT22XXX", *m.Payments.BIC)
	require.NotNil(t, m.Payments.BankName)
	assert.Equal(t, "Banca Popolare di Milano", *m.Payments.BankName)
	assert.Equal(t, "34", *m.Cadastral.Mappale)
	assert.Equal(t, "2024-05-02", m.PublicationDate)

	assert.Equal(t, 1, lookup.calls)
	assert.False(t, out.Listing.Draft.Attempted)
	assert.False(t, out.Proposal.Draft.Attempted)
}

func TestProcessPairWithDraft(t *testing.T) {
	d := &fakeDrafter{
		raw: map[constants.DocKind]string{
			constants.DocKindListing: "Ecco il JSON: {\"offerta_minima\": \"€ 130.000,00\", \"indirizzo\": null}",
		},
		err: map[constants.DocKind]error{
			constants.DocKindProposal: errors.New("rate limited"),
		},
	}
	p := newProcessor(fakeText{}, d, nil)

	out, err := p.ProcessPair(context.Background(),
		payload("annuncio.txt", listingText),
		payload("proposta.txt", proposalText),
		Mode{Draft: true})
	require.NoError(t, err)

	ld := out.Listing.Draft
	assert.True(t, ld.Attempted)
	assert.Equal(t, reconcile.DraftSalvaged, ld.Status)
	assert.Equal(t, "test-model", ld.Model)
	require.NotNil(t, out.Listing.Listing.MinimumBid)
	assert.InDelta(t, 130000.0, *out.Listing.Listing.MinimumBid, 0.001)
	require.NotNil(t, out.Listing.Listing.Address)
	assert.Contains(t, *out.Listing.Listing.Address, "Milano")

	pd := out.Proposal.Draft
	assert.True(t, pd.Failed())
	assert.Equal(t, reconcile.DraftEmpty, pd.Status)
	assert.Equal(t, "IT60X0542811101000000123456", *out.Proposal.Proposal.IBAN)

	require.NotNil(t, out.Merged.Auction.MaximumBid)
	assert.InDelta(t, 131000.0, *out.Merged.Auction.MaximumBid, 0.001)
	assert.Len(t, d.reqs, 2)
}

func TestProcessPairMissingInput(t *testing.T) {
	p := newProcessor(fakeText{}, nil, nil)
	_, err := p.ProcessPair(context.Background(),
		entity.Payload{FileName: "annuncio.pdf"},
		payload("proposta.txt", proposalText),
		Mode{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestProcessPairTextFailure(t *testing.T) {
	p := newProcessor(fakeText{err: errors.New("pdftotext missing")}, nil, nil)
	_, err := p.ProcessPair(context.Background(),
		payload("annuncio.pdf", "x"),
		payload("proposta.pdf", "y"),
		Mode{})
	assert.ErrorContains(t, err, "pdftotext missing")
}

func TestEmptyTextIsNotAnError(t *testing.T) {
	tx := fakeText{results: map[string]ocr.Result{"scan.pdf": {Format: constants.FormatPDF, Method: ocr.MethodPDFOCR}}}
	d := &fakeDrafter{}
	p := newProcessor(tx, d, nil)

	out, err := p.ProcessListing(context.Background(), payload("scan.pdf", "%PDF-1.4"), Mode{Draft: true})
	require.NoError(t, err)
	assert.Equal(t, "scan.pdf", out.Listing.FileID)
	assert.Nil(t, out.Listing.SaleDate)
	assert.False(t, out.Draft.Attempted)
	assert.Empty(t, d.reqs)
}

func TestLowConfidenceImageIsAttached(t *testing.T) {
	tx := fakeText{results: map[string]ocr.Result{
		"proposta.png": {Text: "Pr0p0sta ???", Format: constants.FormatImage, Method: ocr.MethodImageOCR, Confidence: 0.2},
	}}
	d := &fakeDrafter{raw: map[constants.DocKind]string{constants.DocKindProposal: `{"iban_beneficiario":"IT60X0542811101000000123456"}`}}
	p := newProcessor(tx, d, nil)

	out, err := p.ProcessProposal(context.Background(), entity.Payload{FileName: "proposta.png", Data: pngHeader}, Mode{Draft: true})
	require.NoError(t, err)
	require.Len(t, d.reqs, 1)
	assert.Contains(t, d.reqs[0].ImageDataURL, "data:image/png;base64,")
	assert.True(t, out.Draft.Image)
	assert.Equal(t, "IT60X0542811101000000123456", *out.Proposal.IBAN)
}

func TestDraftOutcomeJSON(t *testing.T) {
	o := DraftOutcome{Attempted: true, Status: reconcile.DraftOK, Model: "m", Err: errors.New("boom")}
	data, err := o.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"attempted":true,"status":"ok","model":"m","valid":false,"image":false,"elapsed_ms":0,"error":"boom"}`, string(data))
}

func TestOutcomeRecord(t *testing.T) {
	p := newProcessor(fakeText{}, nil, nil)
	out, err := p.ProcessPair(context.Background(),
		payload("annuncio.txt", listingText),
		payload("proposta.txt", proposalText),
		Mode{})
	require.NoError(t, err)

	rec, err := out.Record()
	require.NoError(t, err)
	assert.Equal(t, "annuncio.txt", rec.ListingFile)
	assert.Equal(t, "proposta.txt", rec.ProposalFile)
	assert.Contains(t, string(rec.Listing), `"file_pdf":"annuncio.txt"`)
	assert.Contains(t, string(rec.Proposal), `"iban_beneficiario":"IT60X0542811101000000123456"`)
}
