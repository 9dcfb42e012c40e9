package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/astadocs/constants"
	"github.com/joseph-ayodele/astadocs/internal/archive"
	"github.com/joseph-ayodele/astadocs/internal/async"
	"github.com/joseph-ayodele/astadocs/internal/common"
	"github.com/joseph-ayodele/astadocs/internal/export"
	"github.com/joseph-ayodele/astadocs/internal/extract"
	"github.com/joseph-ayodele/astadocs/internal/ingest"
	"github.com/joseph-ayodele/astadocs/internal/llm"
	"github.com/joseph-ayodele/astadocs/internal/merge"
	"github.com/joseph-ayodele/astadocs/internal/ocr"
	"github.com/joseph-ayodele/astadocs/internal/pipeline"
	"github.com/joseph-ayodele/astadocs/internal/repository"
)

const listingText = `Appartamento all'asta Via Roma 12, 20100 Milano
Tipo vendita
Vendita senza incanto
Data vendita: 15/05/2024 ore 10:30
Offerta minima € 125.000,00
Descrizione:
Trilocale luminoso con balcone.`

const proposalText = `PROPOSTA IRREVOCABILE DI ACQUISTO
Il sottoscritto Mario Rossi, nato a Roma il 01/01/1970
Identificativi catastali: Foglio 12 Particella 34 Sub 2 Categoria A/2
mediante bonifico sul conto intestato a SAVOY REOCO S.r.l., IBAN IT60 X054 2811 1010 0000 0123 456, BIC: BPMOIT22XXX
Luogo: Milano
Data: 02/05/2024`

type stubDrafter struct{}

func (stubDrafter) Draft(_ context.Context, req llm.DraftRequest) (llm.DraftResult, error) {
	raw := `{"offerta_minima": 130000}`
	if req.Kind == constants.DocKindProposal {
		raw = `{"irrevocabile_giorni": 120}`
	}
	return llm.DraftResult{Raw: []byte(raw), Model: "stub", Valid: true}, nil
}

type testEnv struct {
	srv    *httptest.Server
	store  *repository.SQLStore
	outDir string
	queue  *async.ProcessorQueue
}

func newTestEnv(t *testing.T, drafter llm.Drafter) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	root := t.TempDir()
	storage := common.StorageConfig{
		ListingDir:  filepath.Join(root, "annunci"),
		ProposalDir: filepath.Join(root, "proposte"),
		OutputDir:   filepath.Join(root, "out"),
	}
	require.NoError(t, os.MkdirAll(storage.ListingDir, 0o755))
	require.NoError(t, os.MkdirAll(storage.ProposalDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(storage.ListingDir, "annuncio.txt"), []byte(listingText), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(storage.ProposalDir, "proposta.txt"), []byte(proposalText), 0o644))

	store, err := repository.OpenSQLite(context.Background(), ":memory:", logger)
	require.NoError(t, err)

	var draft *pipeline.DraftStage
	if drafter != nil {
		draft = pipeline.NewDraftStage(drafter, logger)
	}
	proc := pipeline.NewProcessor(logger,
		pipeline.NewTextStage(ocr.NewExtractor(ocr.Config{}, logger), logger),
		pipeline.ExtractStage{Options: extract.DefaultOptions()},
		draft,
		&pipeline.EnrichStage{Logger: logger},
		merge.New(merge.DefaultOptions()),
	)
	arch := archive.NewWriter(storage.OutputDir, logger)
	queue := async.NewProcessorQueue(proc, store, logger, async.WithWorkers(1), async.WithArchiver(arch))

	s := New(Deps{
		Processor: proc,
		Source:    ingest.NewSource(storage, 0, logger),
		Archive:   arch,
		Store:     store,
		Queue:     queue,
		Export:    export.NewService(store, logger),
		Logger:    logger,
	})
	env := &testEnv{srv: httptest.NewServer(s.Router()), store: store, outDir: storage.OutputDir, queue: queue}
	t.Cleanup(func() {
		env.srv.Close()
		queue.Shutdown(context.Background())
		store.Close()
	})
	return env
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, err := http.Get(env.srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	body := decode(t, resp)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "up", body["db"])
	assert.Equal(t, false, body["draft"])
}

func TestRequestIDIsPropagated(t *testing.T) {
	env := newTestEnv(t, nil)
	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/health", nil)
	req.Header.Set("X-Request-ID", "7b0e3f36-6a6c-4c1f-9c6a-3f6f0b1f2a10")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "7b0e3f36-6a6c-4c1f-9c6a-3f6f0b1f2a10", resp.Header.Get("X-Request-ID"))
}

func TestParseListingFromDir(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, err := http.Get(env.srv.URL + "/parse-annuncio?file=annuncio.txt")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)

	assert.Equal(t, "annuncio.txt", body["file_pdf"])
	assert.Equal(t, 125000.0, body["offerta_minima"])
	outPath, _ := body["out_json"].(string)
	require.NotEmpty(t, outPath)
	assert.FileExists(t, outPath)
	assert.Contains(t, filepath.Base(outPath), "annuncio__annuncio__")
}

func TestParseRejectsBadNames(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := http.Get(env.srv.URL + "/parse-annuncio?file=../annuncio.txt")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, decode(t, resp)["ok"])

	resp, err = http.Get(env.srv.URL + "/parse-annuncio")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(env.srv.URL + "/parse-proposta?file=manca.pdf")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestParseProposalUpload(t *testing.T) {
	env := newTestEnv(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "proposta.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte(proposalText))
	require.NoError(t, mw.Close())

	resp, err := http.Post(env.srv.URL+"/parse-proposta-upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "IT60X0542811101000000123456", body["iban_beneficiario"])
	assert.Equal(t, "proposta.txt", body["file_pdf"])
}

func TestMergeEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	req := map[string]any{
		"annuncio": map[string]any{"file_pdf": "a.pdf", "indirizzo": "Via Roma, 12, Milano", "offerta_minima": 100000},
		"proposta": map[string]any{"file_pdf": "p.pdf", "data_termine_deposito": "2024-05-10"},
	}
	resp := postJSON(t, env.srv.URL+"/merge", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	gara := body["gara"].(map[string]any)
	assert.Equal(t, 101000.0, gara["offerta_massima"])
	assert.Equal(t, "2024-05-12", gara["data"])
	assert.Nil(t, body["out_json"])

	req["out_name"] = "Pratica 7"
	resp = postJSON(t, env.srv.URL+"/merge", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decode(t, resp)
	assert.FileExists(t, body["out_json"].(string))

	resp = postJSON(t, env.srv.URL+"/merge", map[string]any{"annuncio": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestProcessFromDirPersistsRecord(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := http.Get(env.srv.URL + "/process?annuncio=annuncio.txt&proposta=proposta.txt")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, true, body["ok"])
	assert.Contains(t, filepath.Base(body["out_json"].(string)), "__merged__")
	merged := body["merged"].(map[string]any)
	assert.Equal(t, "IT60X0542811101000000123456", merged["pagamenti"].(map[string]any)["iban_beneficiario"])

	id := body["record_id"].(string)
	resp, err = http.Get(env.srv.URL + "/records/" + id)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode(t, resp)["record"].(map[string]any)
	assert.Equal(t, "annuncio.txt", rec["annuncio_file"])
}

func TestProcessMultipartAndBase64(t *testing.T) {
	env := newTestEnv(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("annuncio", "a.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte(listingText))
	require.NoError(t, mw.WriteField("proposta_base64", "data:text/plain;base64,"+base64.StdEncoding.EncodeToString([]byte(proposalText))))
	require.NoError(t, mw.WriteField("proposta_name", "p.txt"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(env.srv.URL+"/process", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	merged := decode(t, resp)["merged"].(map[string]any)
	fonte := merged["fonte"].(map[string]any)
	assert.Equal(t, "a.txt", fonte["annuncio_file"])
	assert.Equal(t, "p.txt", fonte["proposta_file"])
}

func TestProcessMissingDocument(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, err := http.Get(env.srv.URL + "/process?annuncio=annuncio.txt")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode(t, resp)["error"], "missing proposta")
}

func TestProcessURLs(t *testing.T) {
	env := newTestEnv(t, nil)
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a.txt":
			_, _ = w.Write([]byte(listingText))
		case "/p.txt":
			_, _ = w.Write([]byte(proposalText))
		default:
			http.NotFound(w, r)
		}
	}))
	defer files.Close()

	resp := postJSON(t, env.srv.URL+"/process-urls", map[string]any{
		"annuncio_url":  " " + files.URL + "/a.txt ",
		"proposta_url":  files.URL + "/p.txt",
		"annuncio_name": "annuncio.txt",
		"proposta_name": "proposta.txt",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode(t, resp)["ok"])

	resp = postJSON(t, env.srv.URL+"/process-urls", map[string]any{
		"annuncio_url": files.URL + "/missing.txt",
		"proposta_url": files.URL + "/p.txt",
	})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, env.srv.URL+"/process-urls", map[string]any{"annuncio_url": "ftp://x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCallAI(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := postJSON(t, env.srv.URL+"/callAI", map[string]any{})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()

	env = newTestEnv(t, stubDrafter{})
	resp = postJSON(t, env.srv.URL+"/callAI", map[string]any{
		"annuncio_base64":  base64.StdEncoding.EncodeToString([]byte(listingText)),
		"annuncio_name":    "annuncio.txt",
		"proposta_base64":  base64.StdEncoding.EncodeToString([]byte(proposalText)),
		"proposta_name":    "proposta.txt",
		"codice_procedura": "RG 123/2024",
		"id":               42,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, "RG 123/2024", meta["codice_procedura"])
	assert.Equal(t, 42.0, meta["id"])

	ai := body["ai"].(map[string]any)
	assert.Equal(t, 130000.0, ai["annuncio"].(map[string]any)["offerta_minima"])
	assert.Equal(t, 120.0, ai["proposta"].(map[string]any)["irrevocabile_giorni"])
	draft := body["draft"].(map[string]any)["annuncio"].(map[string]any)
	assert.Equal(t, "ok", draft["status"])
	assert.Equal(t, "stub", draft["model"])
	gara := body["merged"].(map[string]any)["gara"].(map[string]any)
	assert.Equal(t, 131000.0, gara["offerta_massima"])
}

func TestJobsLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := postJSON(t, env.srv.URL+"/jobs", map[string]any{"annuncio": "annuncio.txt", "proposta": "proposta.txt"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	jobID := decode(t, resp)["job_id"].(string)

	var job map[string]any
	require.Eventually(t, func() bool {
		resp, err := http.Get(env.srv.URL + "/jobs/" + jobID)
		if err != nil || resp.StatusCode != http.StatusOK {
			return false
		}
		job = decode(t, resp)["job"].(map[string]any)
		return job["status"] == string(constants.JobStatusDone)
	}, 5*time.Second, 20*time.Millisecond)

	recordID := job["record_id"].(string)
	resp, err := http.Get(env.srv.URL + "/records/" + recordID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestJobAndRecordLookups(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := http.Get(env.srv.URL + "/jobs/not-a-uuid")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(env.srv.URL + "/jobs/7b0e3f36-6a6c-4c1f-9c6a-3f6f0b1f2a10")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(env.srv.URL + "/records/7b0e3f36-6a6c-4c1f-9c6a-3f6f0b1f2a10")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestExportRecords(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, err := http.Get(env.srv.URL + "/process?annuncio=annuncio.txt&proposta=proposta.txt")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(env.srv.URL + "/records/export.xlsx")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))

	resp, err = http.Get(env.srv.URL + "/records/export.xlsx?limit=-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, err := http.Get(env.srv.URL + "/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, false, decode(t, resp)["ok"])
}
