// Package ocr turns document payloads (PDF, scanned images, saved HTML
// pages, plain text) into text using pdftotext, pdftoppm and tesseract.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/astadocs/constants"
	"github.com/joseph-ayodele/astadocs/internal/common"
)

// Extraction methods reported in Result.Method.
const (
	MethodPDFText  = "pdf-text"
	MethodPDFOCR   = "pdf-ocr"
	MethodImageOCR = "image-ocr"
	MethodHTML     = "html"
	MethodPlain    = "plain"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "ita"
	TessdataDir   string
	DPI           int // rasterization DPI for scanned PDFs, default 300
	MaxPages      int // 0 = no limit

	// MinTextChars is the text layer size below which a PDF is treated as
	// scanned and rasterized.
	MinTextChars int
	Timeout      time.Duration
}

// ConfigFrom maps the OCR configuration section onto Config.
func ConfigFrom(c common.OCRConfig) Config {
	return Config{
		Pdftotext:     c.Pdftotext,
		Pdftoppm:      c.Pdftoppm,
		Tesseract:     c.Tesseract,
		TesseractLang: c.TesseractLang,
		TessdataDir:   c.TessdataDir,
		DPI:           c.DPI,
		MaxPages:      c.MaxPages,
		MinTextChars:  c.MinTextChars,
		Timeout:       c.Timeout,
	}
}

// PageError records a page that could not be read. Other pages still count.
type PageError struct {
	Page int    `json:"page"`
	Err  string `json:"error"`
}

type Result struct {
	Text       string
	Pages      int
	Format     string // constants.FormatPDF | FormatImage | FormatHTML | FormatText
	Method     string
	Duration   time.Duration
	PageErrors []PageError
	Confidence float32
}

// Empty reports whether no text was recovered. This is not an error.
func (r Result) Empty() bool { return strings.TrimSpace(r.Text) == "" }

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithRunner replaces the command runner, typically with a stub in tests.
func WithRunner(r Runner) Option {
	return func(e *Extractor) { e.runner = r }
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "ita"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 40
	}
	e := &Extractor{cfg: cfg, logger: logger}
	e.runner = execRunner{logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract picks a strategy from the file extension, falling back to
// content sniffing when the name says nothing.
func (e *Extractor) Extract(ctx context.Context, payload []byte, filename string) (Result, error) {
	start := time.Now()
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	format := DetectFormat(payload, filename)
	e.logger.Debug("ocr.extract.start", "file", filename, "format", format, "len", len(payload))

	var (
		res Result
		err error
	)
	switch format {
	case constants.FormatPDF:
		res, err = e.withTempFile(payload, ".pdf", func(path string) (Result, error) {
			return e.extractPDF(ctx, path)
		})
	case constants.FormatImage:
		ext := filepath.Ext(filename)
		if ext == "" {
			ext = ".png"
		}
		res, err = e.withTempFile(payload, ext, func(path string) (Result, error) {
			return e.extractImage(ctx, path)
		})
	case constants.FormatHTML:
		res, err = htmlToText(payload)
	case constants.FormatText:
		res = Result{Text: string(payload), Pages: 1, Method: MethodPlain}
	default:
		e.logger.Error("ocr.extract.unsupported", "file", filename)
		return Result{}, common.NewAppError("UNSUPPORTED_FORMAT", fmt.Sprintf("unsupported document %q", filename), common.ErrInvalidInput)
	}
	res.Format = format
	res.Text = clean(res.Text)
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("ocr.extract.failed", "file", filename, "format", format, "error", err)
		return res, err
	}
	e.logger.Info("ocr.extract.ok",
		"file", filename,
		"method", res.Method,
		"pages", res.Pages,
		"page_errors", len(res.PageErrors),
		"len", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// DetectFormat maps filename extension or sniffed content to a format.
func DetectFormat(payload []byte, filename string) string {
	if f := constants.FormatForExt(filepath.Ext(filename)); f != "" {
		return f
	}
	sniffed := http.DetectContentType(payload)
	switch {
	case sniffed == "application/pdf":
		return constants.FormatPDF
	case strings.HasPrefix(sniffed, "image/"):
		return constants.FormatImage
	case strings.HasPrefix(sniffed, "text/html"):
		return constants.FormatHTML
	case strings.HasPrefix(sniffed, "text/plain"):
		return constants.FormatText
	}
	return ""
}

func (e *Extractor) withTempFile(payload []byte, ext string, fn func(path string) (Result, error)) (Result, error) {
	dir, err := os.MkdirTemp("", "astadocs-ocr-*")
	if err != nil {
		return Result{}, fmt.Errorf("temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("ocr.tempdir.remove_failed", "dir", dir, "error", err)
		}
	}()
	path := filepath.Join(dir, "input"+strings.ToLower(ext))
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return Result{}, fmt.Errorf("write temp file: %w", err)
	}
	return fn(path)
}
