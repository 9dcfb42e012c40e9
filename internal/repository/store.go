package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/astadocs/internal/common"
	"github.com/joseph-ayodele/astadocs/internal/entity"
)

// Store persists merged records and async job state.
type Store interface {
	SaveRecord(ctx context.Context, rec *entity.StoredRecord) error
	GetRecord(ctx context.Context, id uuid.UUID) (*entity.StoredRecord, error)
	ListRecords(ctx context.Context, limit int) ([]*entity.StoredRecord, error)
	SaveJob(ctx context.Context, job *entity.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	HealthCheck(ctx context.Context, timeout time.Duration) error
	Close()
}

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

func (d dialect) String() string {
	if d == dialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// SQLStore implements Store over database/sql for both Postgres and SQLite.
type SQLStore struct {
	db      *sql.DB
	pool    *pgxpool.Pool
	dialect dialect
	log     *slog.Logger
}

var _ Store = (*SQLStore)(nil)

// DefaultListLimit bounds ListRecords when the caller passes no limit.
const DefaultListLimit = 100

func dbError(err error) error {
	return common.NewAppError("DB_ERROR", err.Error(), common.ErrDatabase)
}

func notFound(what string, id uuid.UUID) error {
	return common.NewAppError("NOT_FOUND", what+" "+id.String()+" not found", common.ErrNotFound)
}

// bind rewrites ? placeholders to $n for Postgres.
func (s *SQLStore) bind(q string) string {
	if s.dialect != dialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Migrate creates the tables when missing.
func (s *SQLStore) Migrate(ctx context.Context) error {
	jsonType := "TEXT"
	tsType := "TIMESTAMP"
	if s.dialect == dialectPostgres {
		jsonType = "JSONB"
		tsType = "TIMESTAMPTZ"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS merged_record (
			id            TEXT PRIMARY KEY,
			listing_file  TEXT NOT NULL DEFAULT '',
			proposal_file TEXT NOT NULL DEFAULT '',
			merged        ` + jsonType + ` NOT NULL,
			listing       ` + jsonType + `,
			proposal      ` + jsonType + `,
			created_at    ` + tsType + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS merged_record_created_at_idx ON merged_record (created_at)`,
		`CREATE TABLE IF NOT EXISTS processing_job (
			id            TEXT PRIMARY KEY,
			status        TEXT NOT NULL,
			listing_file  TEXT NOT NULL DEFAULT '',
			proposal_file TEXT NOT NULL DEFAULT '',
			draft         BOOLEAN NOT NULL DEFAULT FALSE,
			record_id     TEXT,
			error_message TEXT,
			created_at    ` + tsType + ` NOT NULL,
			finished_at   ` + tsType + `
		)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			s.log.Error("db.migrate.failed", "dialect", s.dialect.String(), "error", err)
			return dbError(err)
		}
	}
	s.log.Debug("db.migrate.ok", "dialect", s.dialect.String())
	return nil
}
