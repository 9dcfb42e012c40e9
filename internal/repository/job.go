package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/astadocs/constants"
	"github.com/joseph-ayodele/astadocs/internal/entity"
)

const jobColumns = `id, status, listing_file, proposal_file, draft, record_id, error_message, created_at, finished_at`

// SaveJob inserts or updates a job row keyed by its ID.
func (s *SQLStore) SaveJob(ctx context.Context, job *entity.Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	var recordID, finished any
	if job.RecordID != nil {
		recordID = job.RecordID.String()
	}
	if job.FinishedAt != nil {
		finished = *job.FinishedAt
	}
	var errMsg any
	if job.ErrorMessage != nil {
		errMsg = *job.ErrorMessage
	}

	_, err := s.db.ExecContext(ctx, s.bind(`INSERT INTO processing_job (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			record_id = excluded.record_id,
			error_message = excluded.error_message,
			finished_at = excluded.finished_at`),
		job.ID.String(),
		string(job.Status),
		job.ListingFile,
		job.ProposalFile,
		job.Draft,
		recordID,
		errMsg,
		job.CreatedAt,
		finished,
	)
	if err != nil {
		s.log.Error("job.save.failed", "job_id", job.ID, "status", job.Status, "error", err)
		return dbError(err)
	}
	if job.Status == constants.JobStatusFailed {
		s.log.Warn("job.saved", "job_id", job.ID, "status", job.Status, "error", deref(job.ErrorMessage))
	} else {
		s.log.Debug("job.saved", "job_id", job.ID, "status", job.Status)
	}
	return nil
}

// GetJob loads a job; a missing id yields common.ErrNotFound.
func (s *SQLStore) GetJob(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	var (
		rawID, status string
		recordID      sql.NullString
		errMsg        sql.NullString
		created       nullTime
		finished      nullTime
		job           entity.Job
	)
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT `+jobColumns+` FROM processing_job WHERE id = ?`), id.String()).
		Scan(&rawID, &status, &job.ListingFile, &job.ProposalFile, &job.Draft, &recordID, &errMsg, &created, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("job", id)
	}
	if err != nil {
		s.log.Error("job.get.failed", "job_id", id, "error", err)
		return nil, dbError(err)
	}

	job.ID = id
	job.Status = constants.JobStatus(status)
	if recordID.Valid {
		if rid, err := uuid.Parse(recordID.String); err == nil {
			job.RecordID = &rid
		}
	}
	if errMsg.Valid {
		msg := errMsg.String
		job.ErrorMessage = &msg
	}
	job.CreatedAt = created.Time
	job.FinishedAt = finished.ptr()
	return &job, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
