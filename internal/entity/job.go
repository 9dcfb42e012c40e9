package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/astadocs/constants"
)

// Job represents an async listing/proposal processing job.
type Job struct {
	ID           uuid.UUID           `json:"id"`
	Status       constants.JobStatus `json:"status"`
	ListingFile  string              `json:"annuncio_file"`
	ProposalFile string              `json:"proposta_file"`
	Draft        bool                `json:"draft"`
	RecordID     *uuid.UUID          `json:"record_id,omitempty"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
}

// StoredRecord is a persisted merged record with its provenance.
type StoredRecord struct {
	ID           uuid.UUID       `json:"id"`
	ListingFile  string          `json:"annuncio_file"`
	ProposalFile string          `json:"proposta_file"`
	Merged       Merged          `json:"merged"`
	Listing      json.RawMessage `json:"annuncio,omitempty"`
	Proposal     json.RawMessage `json:"proposta,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
