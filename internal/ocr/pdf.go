package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// extractPDF reads the text layer and falls back to page OCR when the layer
// is thinner than MinTextChars.
func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	text, pages, err := e.pdfToText(ctx, path)
	if err != nil {
		e.logger.Warn("ocr.pdftotext.failed", "error", err)
	} else if utf8.RuneCountInString(strings.TrimSpace(text)) >= e.cfg.MinTextChars {
		e.logger.Debug("ocr.pdftotext.ok", "pages", pages, "len", len(text))
		return Result{Text: text, Pages: pages, Method: MethodPDFText, Confidence: 1}, nil
	}

	e.logger.Info("ocr.pdf.rasterize", "reason", "thin text layer", "len", len(strings.TrimSpace(text)))
	ocrRes, ocrErr := e.pdfToOCR(ctx, path)
	if ocrErr != nil {
		if err == nil && text != "" {
			// keep the thin layer rather than nothing
			return Result{Text: text, Pages: pages, Method: MethodPDFText, PageErrors: ocrRes.PageErrors}, nil
		}
		return ocrRes, ocrErr
	}
	return ocrRes, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (string, int, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, fmt.Errorf("pdftotext: %w: %s", err, tail(string(errb), 512))
	}
	text := strings.TrimRight(string(out), "\f")
	// pdftotext separates pages with a form feed
	return text, 1 + strings.Count(text, "\f"), nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (Result, error) {
	prefix := filepath.Join(filepath.Dir(path), "page")
	// pdftoppm -r 300 -png <in.pdf> <dir/page>
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, path, prefix)
	if _, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...); err != nil {
		return Result{}, fmt.Errorf("pdftoppm: %w: %s", err, tail(string(errb), 512))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Slice(matches, func(i, j int) bool { return pageNumber(matches[i]) < pageNumber(matches[j]) })
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return Result{}, fmt.Errorf("pdftoppm rendered no pages")
	}

	res := Result{Pages: len(matches), Method: MethodPDFOCR}
	var b strings.Builder
	for i, img := range matches {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		txt, err := e.tesseract(ctx, img)
		if err != nil {
			res.PageErrors = append(res.PageErrors, PageError{Page: i + 1, Err: err.Error()})
			e.logger.Warn("ocr.page.failed", "page", i+1, "error", err)
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(txt)
	}
	res.Text = b.String()
	res.Confidence = heuristicConfidence(res.Text)
	return res, nil
}

// pageNumber parses the page index pdftoppm appends ("page-07.png" -> 7).
func pageNumber(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if i := strings.LastIndexByte(base, '-'); i >= 0 {
		if n, err := strconv.Atoi(base[i+1:]); err == nil {
			return n
		}
	}
	return 0
}
