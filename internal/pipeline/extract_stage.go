package pipeline

import (
	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/extract"
)

// ExtractStage runs the pattern extractors. It never fails.
type ExtractStage struct {
	Options extract.Options
}

func (s ExtractStage) Listing(doc entity.Document) entity.Listing {
	return extract.Listing(doc.Text, doc.FileID, s.Options)
}

func (s ExtractStage) Proposal(doc entity.Document) entity.Proposal {
	return extract.Proposal(doc.Text, doc.FileID, s.Options)
}
