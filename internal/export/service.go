package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/utils"
)

const sheetName = "Records"

// RecordLister is the slice of the repository the exporter needs.
type RecordLister interface {
	ListRecords(ctx context.Context, limit int) ([]*entity.StoredRecord, error)
}

// Service produces XLSX bytes for merged records.
type Service struct {
	records RecordLister
	logger  *slog.Logger
}

func NewService(records RecordLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, logger: logger}
}

type column struct {
	header string
	width  float64
	value  func(m *entity.Merged) any
}

func str(p *string) any {
	if p == nil {
		return ""
	}
	return *p
}

func num(p *float64) any {
	if p == nil {
		return ""
	}
	return *p
}

func integer(p *int) any {
	if p == nil {
		return ""
	}
	return *p
}

var columns = []column{
	{"Annuncio", 28, func(m *entity.Merged) any { return m.Source.ListingFile }},
	{"Proposta", 28, func(m *entity.Merged) any { return m.Source.ProposalFile }},
	{"Indirizzo", 40, func(m *entity.Merged) any { return str(m.Property.Address) }},
	{"Via", 30, func(m *entity.Merged) any { return str(m.Property.Street) }},
	{"Civico", 8, func(m *entity.Merged) any { return str(m.Property.HouseNumber) }},
	{"Località", 20, func(m *entity.Merged) any { return str(m.Property.Locality) }},
	{"Tipo vendita", 14, func(m *entity.Merged) any { return str(m.Auction.SaleType) }},
	{"Data gara", 12, func(m *entity.Merged) any { return str(m.Auction.Date) }},
	{"Ora inizio", 10, func(m *entity.Merged) any { return str(m.Auction.StartTime) }},
	{"Ora fine", 10, func(m *entity.Merged) any { return str(m.Auction.EndTime) }},
	{"Offerta minima", 14, func(m *entity.Merged) any { return num(m.Auction.MinimumBid) }},
	{"Offerta massima", 14, func(m *entity.Merged) any { return num(m.Auction.MaximumBid) }},
	{"Termine visite", 12, func(m *entity.Merged) any { return str(m.Visits.DeadlineDate) }},
	{"Foglio", 8, func(m *entity.Merged) any { return str(m.Cadastral.Sheet) }},
	{"Particella", 10, func(m *entity.Merged) any { return str(m.Cadastral.Parcel) }},
	{"Sub", 6, func(m *entity.Merged) any { return str(m.Cadastral.Subunit) }},
	{"Categoria", 10, func(m *entity.Merged) any { return str(m.Cadastral.Category) }},
	{"Deposito", 14, func(m *entity.Merged) any { return num(m.Payments.DepositAmount) }},
	{"Cauzione %", 10, func(m *entity.Merged) any { return integer(m.Payments.DepositPercent) }},
	{"IBAN", 32, func(m *entity.Merged) any { return str(m.Payments.IBAN) }},
	{"BIC", 14, func(m *entity.Merged) any { return str(m.Payments.BIC) }},
	{"Banca", 28, func(m *entity.Merged) any { return str(m.Payments.BankName) }},
	{"Beneficiario", 28, func(m *entity.Merged) any { return str(m.Payments.Beneficiary) }},
	{"Irrevocabile (gg)", 10, func(m *entity.Merged) any { return integer(m.Terms.IrrevocableDays) }},
	{"Rogito (gg)", 10, func(m *entity.Merged) any { return integer(m.Terms.DeedWithinDays) }},
	{"Pubblicazione", 12, func(m *entity.Merged) any { return m.PublicationDate }},
	{"Descrizione", 60, func(m *entity.Merged) any { return truncate(utils.StrOrEmpty(m.Description), 500) }},
}

// ExportRecordsXLSX loads up to limit records (newest first) and renders them.
func (s *Service) ExportRecordsXLSX(ctx context.Context, limit int) ([]byte, error) {
	recs, err := s.records.ListRecords(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	merged := make([]entity.Merged, 0, len(recs))
	for _, r := range recs {
		merged = append(merged, r.Merged)
	}
	return s.MergedToXLSX(merged)
}

// MergedToXLSX returns a workbook with one row per merged record.
func (s *Service) MergedToXLSX(records []entity.Merged) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}
	idx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(idx)

	for i, c := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, c.header)
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheetName, name, name, c.width)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = f.SetCellStyle(sheetName, "A1", last, style)
	}

	for r := range records {
		m := &records[r]
		for i, c := range columns {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			_ = f.SetCellValue(sheetName, cell, c.value(m))
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
