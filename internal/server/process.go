package server

import (
	"context"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/astadocs/constants"
	"github.com/joseph-ayodele/astadocs/internal/common"
	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/pipeline"
)

// pairRequest carries both documents of a pair in any of the accepted
// forms: upload, base64, URL or a file name in the working directories.
type pairRequest struct {
	ListingURL     string `json:"annuncio_url"`
	ProposalURL    string `json:"proposta_url"`
	ListingName    string `json:"annuncio_name"`
	ProposalName   string `json:"proposta_name"`
	ListingBase64  string `json:"annuncio_base64"`
	ProposalBase64 string `json:"proposta_base64"`
	ListingFile    string `json:"annuncio"`
	ProposalFile   string `json:"proposta"`
	Draft          bool   `json:"draft"`
	CaseCode       any    `json:"codice_procedura"`
	ID             any    `json:"id"`

	listingUpload  *multipart.FileHeader
	proposalUpload *multipart.FileHeader
}

// docSpec is one side of a pairRequest.
type docSpec struct {
	Kind   constants.DocKind
	Upload *multipart.FileHeader
	Base64 string
	URL    string
	Name   string
	File   string
}

func (p pairRequest) specs() (docSpec, docSpec) {
	return docSpec{
			Kind:   constants.DocKindListing,
			Upload: p.listingUpload,
			Base64: p.ListingBase64,
			URL:    p.ListingURL,
			Name:   p.ListingName,
			File:   p.ListingFile,
		}, docSpec{
			Kind:   constants.DocKindProposal,
			Upload: p.proposalUpload,
			Base64: p.ProposalBase64,
			URL:    p.ProposalURL,
			Name:   p.ProposalName,
			File:   p.ProposalFile,
		}
}

// readPairRequest reads a pair from the query string (GET), a multipart
// form or a JSON body.
func (s *Server) readPairRequest(w http.ResponseWriter, r *http.Request) (pairRequest, error) {
	var req pairRequest
	ct := r.Header.Get("Content-Type")
	switch {
	case r.Method == http.MethodGet:
		q := r.URL.Query()
		req.ListingFile = q.Get("annuncio")
		req.ProposalFile = q.Get("proposta")
	case strings.HasPrefix(ct, "multipart/form-data"):
		if err := s.parseMultipart(w, r); err != nil {
			return req, err
		}
		req.ListingURL = r.FormValue("annuncio_url")
		req.ProposalURL = r.FormValue("proposta_url")
		req.ListingName = r.FormValue("annuncio_name")
		req.ProposalName = r.FormValue("proposta_name")
		req.ListingBase64 = r.FormValue("annuncio_base64")
		req.ProposalBase64 = r.FormValue("proposta_base64")
		req.ListingFile = r.URL.Query().Get("annuncio")
		req.ProposalFile = r.URL.Query().Get("proposta")
		if v := r.FormValue("codice_procedura"); v != "" {
			req.CaseCode = v
		}
		if v := r.FormValue("id"); v != "" {
			req.ID = v
		}
		req.Draft = isTrue(r.FormValue("draft"))
		if _, fh, err := r.FormFile("annuncio"); err == nil {
			req.listingUpload = fh
		}
		if _, fh, err := r.FormFile("proposta"); err == nil {
			req.proposalUpload = fh
		}
	default:
		if err := decodeJSON(w, r, 2*s.maxUpload+1<<20, &req); err != nil {
			return req, err
		}
	}
	req.Draft = req.Draft || draftRequested(r)
	return req, nil
}

func isTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "si", "yes":
		return true
	}
	return false
}

// resolve loads one document. Uploads win over base64, base64 over URL and
// URL over a file name in the working directory.
func (s *Server) resolve(ctx context.Context, d docSpec) (entity.Payload, error) {
	switch {
	case d.Upload != nil:
		return s.source.FromMultipart(d.Upload, string(d.Kind)+".pdf")
	case strings.TrimSpace(d.Base64) != "":
		name := d.Name
		if name == "" {
			name = string(d.Kind) + ".pdf"
		}
		return s.source.FromBase64(d.Base64, name)
	case strings.TrimSpace(d.URL) != "":
		return s.source.FromURL(ctx, d.URL, d.Name)
	case strings.TrimSpace(d.File) != "":
		name := strings.TrimSpace(d.File)
		if err := common.NewValidator().Field(string(d.Kind), name, common.FileName).Error(); err != nil {
			return entity.Payload{}, err
		}
		return s.source.FromDir(d.Kind, name)
	}
	return entity.Payload{}, common.NewAppError("MISSING_FILE",
		"missing "+string(d.Kind)+" (upload, base64, url or file name)", common.ErrInvalidInput)
}

// resolvePair loads both documents concurrently.
func (s *Server) resolvePair(ctx context.Context, req pairRequest) (entity.Payload, entity.Payload, error) {
	ls, ps := req.specs()
	var l, p entity.Payload
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		l, err = s.resolve(gctx, ls)
		return err
	})
	g.Go(func() (err error) {
		p, err = s.resolve(gctx, ps)
		return err
	})
	return l, p, g.Wait()
}

func baseName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

type processResponse struct {
	OK       bool          `json:"ok"`
	OutJSON  string        `json:"out_json"`
	RecordID string        `json:"record_id,omitempty"`
	Merged   entity.Merged `json:"merged"`
}

// handleProcess reads both documents (query names, uploads or JSON),
// merges them, archives the merged JSON and stores the record.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	req, err := s.readPairRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.processPair(w, r, req)
}

// handleProcessURLs downloads both documents from the given URLs.
func (s *Server) handleProcessURLs(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := decodeJSON(w, r, s.maxUpload, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	v := common.NewValidator().
		Field("annuncio_url", req.ListingURL, common.Required, common.HTTPURL).
		Field("proposta_url", req.ProposalURL, common.Required, common.HTTPURL)
	if err := v.Error(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.ListingName == "" {
		req.ListingName = "annuncio.pdf"
	}
	if req.ProposalName == "" {
		req.ProposalName = "proposta.pdf"
	}
	req.ListingBase64, req.ProposalBase64, req.ListingFile, req.ProposalFile = "", "", "", ""
	s.processPair(w, r, req)
}

func (s *Server) processPair(w http.ResponseWriter, r *http.Request, req pairRequest) {
	l, p, err := s.resolvePair(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	mode := pipeline.Mode{Draft: req.Draft && s.proc.CanDraft()}
	out, err := s.proc.ProcessPair(r.Context(), l, p, mode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	outPath, err := s.archive.Save(baseName(l.FileName)+"__"+baseName(p.FileName), "merged", out.Merged)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := processResponse{OK: true, OutJSON: outPath, Merged: out.Merged}
	if s.store != nil {
		rec, err := out.Record()
		if err == nil {
			err = s.store.SaveRecord(r.Context(), rec)
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.RecordID = rec.ID.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

type callAIMeta struct {
	CaseCode any `json:"codice_procedura"`
	ID       any `json:"id"`
}

type callAIDrafts struct {
	Listing  entity.Listing  `json:"annuncio"`
	Proposal entity.Proposal `json:"proposta"`
}

type callAIOutcomes struct {
	Listing  pipeline.DraftOutcome `json:"annuncio"`
	Proposal pipeline.DraftOutcome `json:"proposta"`
}

type callAIResponse struct {
	OK     bool           `json:"ok"`
	Meta   callAIMeta     `json:"meta"`
	AI     callAIDrafts   `json:"ai"`
	Draft  callAIOutcomes `json:"draft"`
	Merged entity.Merged  `json:"merged"`
}

// handleCallAI drafts both documents with the drafting capability,
// reconciles the drafts with the extracted records and merges them.
func (s *Server) handleCallAI(w http.ResponseWriter, r *http.Request) {
	if !s.proc.CanDraft() {
		s.writeError(w, r, common.UnavailableError("drafting capability is not configured"))
		return
	}
	req, err := s.readPairRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l, p, err := s.resolvePair(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.proc.ProcessPair(r.Context(), l, p, pipeline.Mode{Draft: true})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, callAIResponse{
		OK:     true,
		Meta:   callAIMeta{CaseCode: req.CaseCode, ID: req.ID},
		AI:     callAIDrafts{Listing: out.Listing.Listing, Proposal: out.Proposal.Proposal},
		Draft:  callAIOutcomes{Listing: out.Listing.Draft, Proposal: out.Proposal.Draft},
		Merged: out.Merged,
	})
}
