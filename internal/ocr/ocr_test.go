package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/astadocs/constants"
)

type fakeRunner struct {
	pdftotext string
	pages     int
	pageText  map[int]string // missing page -> tesseract error
	calls     []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, name)
	switch name {
	case "pdftotext":
		return []byte(f.pdftotext), nil, nil
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := 1; i <= f.pages; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		n := pageNumber(args[0])
		if n == 0 {
			n = 1
		}
		if txt, ok := f.pageText[n]; ok {
			return []byte(txt), nil, nil
		}
		return nil, []byte("bad page"), errors.New("exit status 1")
	}
	return nil, nil, errors.New("unexpected command " + name)
}

func TestExtractPDFTextLayer(t *testing.T) {
	r := &fakeRunner{pdftotext: "Descrizione: bilocale in vendita all'asta con cantina\fPagina due\f"}
	e := NewExtractor(Config{}, nil, WithRunner(r))

	res, err := e.Extract(context.Background(), []byte("%PDF-1.7"), "annuncio.pdf")
	require.NoError(t, err)
	assert.Equal(t, MethodPDFText, res.Method)
	assert.Equal(t, constants.FormatPDF, res.Format)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "Descrizione: bilocale in vendita all'asta con cantina\n\nPagina due", res.Text)
	assert.Equal(t, []string{"pdftotext"}, r.calls)
}

func TestExtractPDFFallsBackToOCR(t *testing.T) {
	r := &fakeRunner{
		pdftotext: " ",
		pages:     3,
		pageText:  map[int]string{1: "Foglio 12 Particella 34", 3: "Luogo: Milano"},
	}
	e := NewExtractor(Config{}, nil, WithRunner(r))

	res, err := e.Extract(context.Background(), []byte("%PDF-1.7"), "proposta.pdf")
	require.NoError(t, err)
	assert.Equal(t, MethodPDFOCR, res.Method)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, "Foglio 12 Particella 34\n\nLuogo: Milano", res.Text)
	require.Len(t, res.PageErrors, 1)
	assert.Equal(t, 2, res.PageErrors[0].Page)
}

func TestExtractImage(t *testing.T) {
	r := &fakeRunner{pageText: map[int]string{1: "Offerta minima € 125.000,00\n-----\n"}}
	e := NewExtractor(Config{}, nil, WithRunner(r))

	res, err := e.Extract(context.Background(), []byte("\x89PNG\r\n\x1a\n"), "scan.png")
	require.NoError(t, err)
	assert.Equal(t, MethodImageOCR, res.Method)
	assert.Equal(t, "Offerta minima € 125.000,00", res.Text)
	assert.Greater(t, res.Confidence, float32(0.5))
}

func TestExtractImageFailure(t *testing.T) {
	e := NewExtractor(Config{}, nil, WithRunner(&fakeRunner{}))
	res, err := e.Extract(context.Background(), []byte("\x89PNG\r\n\x1a\n"), "scan.png")
	require.Error(t, err)
	require.Len(t, res.PageErrors, 1)
}

func TestExtractHTML(t *testing.T) {
	page := `<html><head><style>p{}</style><script>var x=1</script></head>
<body><h1>Appartamento all'asta</h1><div>Via Roma, 12, Milano</div>
<p>Descrizione:</p><p>Bilocale   luminoso.</p></body></html>`
	e := NewExtractor(Config{}, nil, WithRunner(&fakeRunner{}))

	res, err := e.Extract(context.Background(), []byte(page), "annuncio.html")
	require.NoError(t, err)
	assert.Equal(t, MethodHTML, res.Method)
	assert.Equal(t, "Appartamento all'asta\nVia Roma, 12, Milano\nDescrizione:\nBilocale luminoso.", res.Text)
}

func TestExtractPlainAndSniffed(t *testing.T) {
	e := NewExtractor(Config{}, nil, WithRunner(&fakeRunner{}))

	res, err := e.Extract(context.Background(), []byte("testo semplice"), "")
	require.NoError(t, err)
	assert.Equal(t, MethodPlain, res.Method)
	assert.Equal(t, "testo semplice", res.Text)

	res, err = e.Extract(context.Background(), []byte(""), "vuoto.txt")
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestExtractUnsupported(t *testing.T) {
	e := NewExtractor(Config{}, nil, WithRunner(&fakeRunner{}))
	_, err := e.Extract(context.Background(), []byte{0x00, 0x01, 0x02}, "blob.bin")
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, constants.FormatPDF, DetectFormat([]byte("%PDF-1.4"), "x"))
	assert.Equal(t, constants.FormatPDF, DetectFormat(nil, "X.PDF"))
	assert.Equal(t, constants.FormatImage, DetectFormat(nil, "a.jpeg"))
	assert.Equal(t, constants.FormatHTML, DetectFormat([]byte("<!DOCTYPE html><html></html>"), ""))
}

func TestPageNumber(t *testing.T) {
	assert.Equal(t, 7, pageNumber(filepath.Join("tmp", "page-07.png")))
	assert.Equal(t, 12, pageNumber("page-12.png"))
	assert.Equal(t, 0, pageNumber("input.png"))
}

func TestHeuristicConfidence(t *testing.T) {
	assert.Equal(t, float32(0), heuristicConfidence(""))
	good := heuristicConfidence("Foglio 12 Particella 34. Cauzione € 12.500,00 entro il 10/05/2024")
	bad := heuristicConfidence("#@@ ~~ ^^ |||| {{ }}")
	assert.Greater(t, good, bad)
	assert.Less(t, bad, float32(LowConfidence))
}

func TestTail(t *testing.T) {
	assert.Equal(t, "short", tail("short", 10))
	assert.Equal(t, "…6789", tail("0123456789", 4))
}
