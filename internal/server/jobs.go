package server

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/joseph-ayodele/astadocs/internal/async"
	"github.com/joseph-ayodele/astadocs/internal/common"
	"github.com/joseph-ayodele/astadocs/internal/pipeline"
)

// handleCreateJob resolves both documents now and processes them on the
// job queue. The response carries the job id to poll.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	if s.queue == nil {
		s.writeError(w, r, common.UnavailableError("job queue is not running"))
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
	id, err := s.queue.Enqueue(r.Context(), async.Job{
		Listing:   l,
		Proposal:  p,
		Mode:      pipeline.Mode{Draft: req.Draft && s.proc.CanDraft()},
		RequestID: common.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "job_id": id.String()})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "job": job})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	rec, err := s.store.GetRecord(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "record": rec})
}

// handleExportRecords streams the newest records as an XLSX workbook.
// ?limit=N bounds the row count.
func (s *Server) handleExportRecords(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, common.InvalidArgumentError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	data, err := s.export.ExportRecordsXLSX(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="records.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := mux.Vars(r)["id"]
	if err := common.NewValidator().Field("id", raw, common.UUID).Error(); err != nil {
		s.writeError(w, r, err)
		return uuid.Nil, false
	}
	return uuid.MustParse(raw), true
}
