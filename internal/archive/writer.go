package archive

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/astadocs/internal/common"
	"github.com/joseph-ayodele/astadocs/internal/textnorm"
)

// Writer stores pretty-printed JSON results under a single output directory.
type Writer struct {
	Dir    string
	Now    func() time.Time
	Logger *slog.Logger
}

func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{Dir: dir, Now: time.Now, Logger: logger}
}

// FileName builds "<slug>__<suffix>__<timestamp>.json" where the timestamp is
// ISO-8601 UTC with ':' and '.' replaced by '-'.
func FileName(baseName, suffix string, at time.Time) string {
	base := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	slug := textnorm.Slug(base)
	if slug == "" {
		slug = "documento"
	}
	ts := at.UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return slug + "__" + suffix + "__" + ts + ".json"
}

// Save writes payload and returns the file path.
func (w *Writer) Save(baseName, suffix string, payload any) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", common.WrapError(err, "create output dir")
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", common.WrapError(err, "encode "+suffix)
	}
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	path := filepath.Join(w.Dir, FileName(baseName, suffix, now()))
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", common.WrapError(err, "write "+path)
	}
	if w.Logger != nil {
		w.Logger.Info("archive.saved", "path", path, "bytes", len(data))
	}
	return path, nil
}
