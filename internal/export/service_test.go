package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/astadocs/internal/entity"
)

type fakeLister struct {
	recs []*entity.StoredRecord
	err  error
}

func (f fakeLister) ListRecords(context.Context, int) ([]*entity.StoredRecord, error) {
	return f.recs, f.err
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func strp(s string) *string { return &s }

func TestMergedToXLSX(t *testing.T) {
	minBid := 100000.0
	recs := []entity.Merged{{
		Source:          entity.MergedSource{ListingFile: "annuncio.pdf", ProposalFile: "proposta.pdf"},
		Property:        entity.MergedProperty{Address: strp("Via Roma 12, Milano")},
		Auction:         entity.MergedAuction{MinimumBid: &minBid},
		Payments:        entity.MergedPayments{IBAN: strp("IT60X0542811101000000123456")},
		PublicationDate: "2024-05-02",
	}}

	data, err := NewService(fakeLister{}, quietLogger()).MergedToXLSX(recs)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Annuncio", rows[0][0])
	assert.Equal(t, len(columns), len(rows[0]))
	assert.Equal(t, "annuncio.pdf", rows[1][0])
	assert.Equal(t, "Via Roma 12, Milano", rows[1][2])
	assert.Equal(t, "100000", rows[1][10])
	assert.Contains(t, rows[1], "IT60X0542811101000000123456")
}

func TestExportRecordsXLSXPropagatesError(t *testing.T) {
	_, err := NewService(fakeLister{err: errors.New("boom")}, quietLogger()).ExportRecordsXLSX(context.Background(), 10)
	assert.ErrorContains(t, err, "boom")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "città", truncate("città", 5))
}
