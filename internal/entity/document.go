package entity

import "github.com/joseph-ayodele/astadocs/constants"

// Document is the text of one source document together with its file identifier.
type Document struct {
	FileID string            `json:"file_id"`
	Kind   constants.DocKind `json:"kind"`
	Text   string            `json:"text"`
}

// Payload is an undecoded source document as received from disk, URL or upload.
type Payload struct {
	FileName string
	Data     []byte
}
