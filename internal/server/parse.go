package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/joseph-ayodele/astadocs/constants"
	"github.com/joseph-ayodele/astadocs/internal/common"
	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/pipeline"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"ok": true}
	if s.store != nil {
		if err := s.store.HealthCheck(r.Context(), s.hcTimeout); err != nil {
			s.logger.Warn("health.db.down", "error", err)
			resp["ok"] = false
			resp["db"] = "down"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp["db"] = "up"
	}
	if s.proc != nil {
		resp["draft"] = s.proc.CanDraft()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleParseListing(w http.ResponseWriter, r *http.Request) {
	s.parseFromDir(w, r, constants.DocKindListing)
}

func (s *Server) handleParseProposal(w http.ResponseWriter, r *http.Request) {
	s.parseFromDir(w, r, constants.DocKindProposal)
}

// parseFromDir extracts a named file of the kind's directory, archives the
// record and returns it with out_json.
func (s *Server) parseFromDir(w http.ResponseWriter, r *http.Request, kind constants.DocKind) {
	file := strings.TrimSpace(r.URL.Query().Get("file"))
	v := common.NewValidator().Field("file", file, common.Required, common.FileName)
	if err := v.Error(); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := s.source.FromDir(kind, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.parseOne(r, kind, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	outPath, err := s.archive.Save(file, string(kind), rec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := flatten(rec, map[string]any{"out_json": outPath})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// parseOne runs the single-document pipeline and returns the record.
func (s *Server) parseOne(r *http.Request, kind constants.DocKind, in entity.Payload) (any, error) {
	mode := pipeline.Mode{Draft: draftRequested(r) && s.proc.CanDraft()}
	if kind == constants.DocKindListing {
		out, err := s.proc.ProcessListing(r.Context(), in, mode)
		if err != nil {
			return nil, err
		}
		return out.Listing, nil
	}
	out, err := s.proc.ProcessProposal(r.Context(), in, mode)
	if err != nil {
		return nil, err
	}
	return out.Proposal, nil
}

func draftRequested(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("draft")) {
	case "1", "true", "si", "yes":
		return true
	}
	return false
}

func (s *Server) handleParseProposalUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r); err != nil {
		s.writeError(w, r, err)
		return
	}
	_, fh, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, common.NewAppError("MISSING_FILE", "no file received (field 'file')", common.ErrInvalidInput))
		return
	}
	in, err := s.source.FromMultipart(fh, "proposta.pdf")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.parseOne(r, constants.DocKindProposal, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type mergeRequest struct {
	Listing  *entity.Listing  `json:"annuncio"`
	Proposal *entity.Proposal `json:"proposta"`
	OutName  string           `json:"out_name"`
}

// handleMerge joins two records extracted earlier.
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := decodeJSON(w, r, s.maxUpload, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Listing == nil || req.Proposal == nil {
		s.writeError(w, r, common.NewAppError("BAD_REQUEST", "body must contain { annuncio, proposta }", common.ErrInvalidInput))
		return
	}
	if err := common.NewValidator().Field("out_name", req.OutName, common.MaxLength(200)).Error(); err != nil {
		s.writeError(w, r, err)
		return
	}
	merged := s.merger.Merge(*req.Listing, *req.Proposal)
	if strings.TrimSpace(req.OutName) == "" {
		writeJSON(w, http.StatusOK, merged)
		return
	}
	outPath, err := s.archive.Save(req.OutName, "merged", merged)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := flatten(merged, map[string]any{"out_json": outPath})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(v); err != nil {
		return common.NewAppError("BAD_JSON", "invalid JSON body: "+err.Error(), common.ErrInvalidInput)
	}
	return nil
}

func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.maxUpload+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return common.NewAppError("BAD_MULTIPART", "invalid multipart body: "+err.Error(), common.ErrInvalidInput)
	}
	return nil
}
