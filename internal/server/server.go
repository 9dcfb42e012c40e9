package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/joseph-ayodele/astadocs/internal/archive"
	"github.com/joseph-ayodele/astadocs/internal/async"
	"github.com/joseph-ayodele/astadocs/internal/export"
	"github.com/joseph-ayodele/astadocs/internal/ingest"
	"github.com/joseph-ayodele/astadocs/internal/merge"
	"github.com/joseph-ayodele/astadocs/internal/pipeline"
	"github.com/joseph-ayodele/astadocs/internal/repository"
)

// Deps are the collaborators the HTTP API is built from. They are
// constructed once in main.
type Deps struct {
	Processor      *pipeline.Processor
	Source         *ingest.Source
	Archive        *archive.Writer
	Store          repository.Store
	Queue          async.Queue
	Export         *export.Service
	Merger         *merge.Merger
	Logger         *slog.Logger
	MaxUploadBytes int64
	HealthTimeout  time.Duration
}

type Server struct {
	proc      *pipeline.Processor
	source    *ingest.Source
	archive   *archive.Writer
	store     repository.Store
	queue     async.Queue
	export    *export.Service
	merger    *merge.Merger
	logger    *slog.Logger
	maxUpload int64
	hcTimeout time.Duration
}

func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Merger == nil && d.Processor != nil {
		d.Merger = d.Processor.Merger
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = ingest.DefaultMaxBytes
	}
	if d.HealthTimeout <= 0 {
		d.HealthTimeout = 2 * time.Second
	}
	return &Server{
		proc:      d.Processor,
		source:    d.Source,
		archive:   d.Archive,
		store:     d.Store,
		queue:     d.Queue,
		export:    d.Export,
		merger:    d.Merger,
		logger:    d.Logger,
		maxUpload: d.MaxUploadBytes,
		hcTimeout: d.HealthTimeout,
	}
}

// Router wires every route behind the request-id, logging and recovery
// middleware.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(requestID, s.logRequests, s.recoverPanics)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/parse-annuncio", s.handleParseListing).Methods(http.MethodGet)
	r.HandleFunc("/parse-proposta", s.handleParseProposal).Methods(http.MethodGet)
	r.HandleFunc("/parse-proposta-upload", s.handleParseProposalUpload).Methods(http.MethodPost)
	r.HandleFunc("/merge", s.handleMerge).Methods(http.MethodPost)

	r.HandleFunc("/callAI", s.handleCallAI).Methods(http.MethodPost)
	r.HandleFunc("/process", s.handleProcess).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/process-urls", s.handleProcessURLs).Methods(http.MethodPost)

	r.HandleFunc("/jobs", s.handleCreateJob).Methods(http.MethodPost)
	r.HandleFunc("/jobs/{id}", s.handleGetJob).Methods(http.MethodGet)
	r.HandleFunc("/records/export.xlsx", s.handleExportRecords).Methods(http.MethodGet)
	r.HandleFunc("/records/{id}", s.handleGetRecord).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{OK: false, Error: "route not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{OK: false, Error: "method not allowed"})
	})
	return r
}
