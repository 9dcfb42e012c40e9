package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/astadocs/internal/entity"
)

const recordColumns = `id, listing_file, proposal_file, merged, listing, proposal, created_at`

// SaveRecord inserts a merged record, assigning ID and CreatedAt when unset.
func (s *SQLStore) SaveRecord(ctx context.Context, rec *entity.StoredRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	merged, err := json.Marshal(rec.Merged)
	if err != nil {
		return dbError(err)
	}
	_, err = s.db.ExecContext(ctx, s.bind(`INSERT INTO merged_record (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		rec.ID.String(),
		rec.ListingFile,
		rec.ProposalFile,
		string(merged),
		nullableJSON(rec.Listing),
		nullableJSON(rec.Proposal),
		rec.CreatedAt,
	)
	if err != nil {
		s.log.Error("record.save.failed", "record_id", rec.ID, "error", err)
		return dbError(err)
	}
	s.log.Info("record.saved", "record_id", rec.ID, "annuncio_file", rec.ListingFile, "proposta_file", rec.ProposalFile)
	return nil
}

// GetRecord loads one merged record; a missing id yields common.ErrNotFound.
func (s *SQLStore) GetRecord(ctx context.Context, id uuid.UUID) (*entity.StoredRecord, error) {
	row := s.db.QueryRowContext(ctx, s.bind(`SELECT `+recordColumns+` FROM merged_record WHERE id = ?`), id.String())
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("record", id)
	}
	if err != nil {
		s.log.Error("record.get.failed", "record_id", id, "error", err)
		return nil, dbError(err)
	}
	return rec, nil
}

// ListRecords returns the newest records first.
func (s *SQLStore) ListRecords(ctx context.Context, limit int) ([]*entity.StoredRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, s.bind(`SELECT `+recordColumns+` FROM merged_record ORDER BY created_at DESC LIMIT ?`), limit)
	if err != nil {
		s.log.Error("record.list.failed", "error", err)
		return nil, dbError(err)
	}
	defer rows.Close()

	var out []*entity.StoredRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, dbError(err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*entity.StoredRecord, error) {
	var (
		id           string
		merged, l, p jsonText
		created      nullTime
		rec          entity.StoredRecord
	)
	if err := row.Scan(&id, &rec.ListingFile, &rec.ProposalFile, &merged, &l, &p, &created); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	rec.ID = parsed
	if err := json.Unmarshal(merged, &rec.Merged); err != nil {
		return nil, err
	}
	if len(l) > 0 {
		rec.Listing = json.RawMessage(l)
	}
	if len(p) > 0 {
		rec.Proposal = json.RawMessage(p)
	}
	rec.CreatedAt = created.Time
	return &rec, nil
}
