// Package ingest resolves document payloads from the configured directories,
// remote URLs, base64 strings and multipart uploads.
package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/astadocs/constants"
	"github.com/joseph-ayodele/astadocs/internal/common"
	"github.com/joseph-ayodele/astadocs/internal/entity"
)

// DefaultMaxBytes bounds a single document.
const DefaultMaxBytes = 20 << 20

// Source reads documents. It is safe for concurrent use.
type Source struct {
	ListingDir  string
	ProposalDir string
	MaxBytes    int64
	HTTP        *http.Client
	Logger      *slog.Logger
}

// NewSource builds a Source from the storage and server sections.
func NewSource(storage common.StorageConfig, maxBytes int64, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Source{
		ListingDir:  storage.ListingDir,
		ProposalDir: storage.ProposalDir,
		MaxBytes:    maxBytes,
		HTTP:        &http.Client{Timeout: 60 * time.Second},
		Logger:      logger,
	}
}

func (s *Source) dirFor(kind constants.DocKind) string {
	if kind == constants.DocKindProposal {
		return s.ProposalDir
	}
	return s.ListingDir
}

// FromDir reads name from the directory configured for kind. Names that
// would escape the directory are rejected.
func (s *Source) FromDir(kind constants.DocKind, name string) (entity.Payload, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return entity.Payload{}, common.NewAppError("MISSING_FILE", fmt.Sprintf("missing %s file name", kind), common.ErrInvalidInput)
	}
	clean := filepath.Clean("/" + filepath.ToSlash(name))[1:]
	if clean == "" || clean != filepath.ToSlash(name) || strings.Contains(name, "..") {
		return entity.Payload{}, common.NewAppError("BAD_PATH", fmt.Sprintf("invalid file name %q", name), common.ErrInvalidInput)
	}
	return s.FromFile(filepath.Join(s.dirFor(kind), filepath.FromSlash(clean)))
}

// FromFile reads an arbitrary local path; used by the CLI.
func (s *Source) FromFile(p string) (entity.Payload, error) {
	if !AllowedExt(filepath.Ext(p)) {
		return entity.Payload{}, common.NewAppError("UNSUPPORTED_FORMAT", fmt.Sprintf("unsupported file %q", filepath.Base(p)), common.ErrInvalidInput)
	}
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return entity.Payload{}, common.NewAppError("FILE_NOT_FOUND", filepath.Base(p), common.ErrNotFound)
		}
		return entity.Payload{}, fmt.Errorf("open %s: %w", p, err)
	}
	defer func() { _ = f.Close() }()

	data, err := s.readLimited(f)
	if err != nil {
		return entity.Payload{}, err
	}
	s.logger().Debug("ingest.file.ok", "file", filepath.Base(p), "len", len(data))
	return entity.Payload{FileName: filepath.Base(p), Data: data}, nil
}

// FromURL downloads a document. The file name is taken from name, else from
// the URL path with ".pdf" appended when it has no extension.
func (s *Source) FromURL(ctx context.Context, rawURL, name string) (entity.Payload, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return entity.Payload{}, common.NewAppError("BAD_URL", fmt.Sprintf("invalid url %q", rawURL), common.ErrInvalidInput)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return entity.Payload{}, fmt.Errorf("build request: %w", err)
	}
	client := s.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		s.logger().Warn("ingest.url.failed", "url", u.Redacted(), "error", err)
		return entity.Payload{}, common.NewAppError("DOWNLOAD_FAILED", u.Redacted(), fmt.Errorf("%w: %v", common.ErrUpstream, err))
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode/100 != 2 {
		return entity.Payload{}, common.NewAppError("DOWNLOAD_FAILED", fmt.Sprintf("download failed: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)), common.ErrUpstream)
	}
	data, err := s.readLimited(resp.Body)
	if err != nil {
		return entity.Payload{}, err
	}
	if name = strings.TrimSpace(name); name == "" {
		name = NameFromURL(u)
	}
	s.logger().Info("ingest.url.ok", "url", u.Redacted(), "file", name, "len", len(data), "elapsed_ms", time.Since(start).Milliseconds())
	return entity.Payload{FileName: name, Data: data}, nil
}

// NameFromURL derives a file name from the last path segment.
func NameFromURL(u *url.URL) string {
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		base = "documento"
	}
	if path.Ext(base) == "" {
		base += ".pdf"
	}
	return base
}

// FromBase64 decodes a plain or data-URL base64 payload.
func (s *Source) FromBase64(input, name string) (entity.Payload, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return entity.Payload{}, common.NewAppError("MISSING_FILE", "empty base64 payload", common.ErrInvalidInput)
	}
	if strings.HasPrefix(input, "data:") {
		if i := strings.IndexByte(input, ','); i >= 0 {
			input = input[i+1:]
		}
	}
	input = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' {
			return -1
		}
		return r
	}, input)
	data, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(input, "="))
	}
	if err != nil {
		return entity.Payload{}, common.NewAppError("BAD_BASE64", fmt.Sprintf("invalid base64 for %s", name), common.ErrInvalidInput)
	}
	if int64(len(data)) > s.maxBytes() {
		return entity.Payload{}, tooLarge(s.maxBytes())
	}
	if name = strings.TrimSpace(name); name == "" {
		name = "documento.pdf"
	}
	return entity.Payload{FileName: name, Data: data}, nil
}

// FromMultipart reads an uploaded file.
func (s *Source) FromMultipart(fh *multipart.FileHeader, fallbackName string) (entity.Payload, error) {
	if fh == nil {
		return entity.Payload{}, common.NewAppError("MISSING_FILE", "missing upload", common.ErrInvalidInput)
	}
	if fh.Size > s.maxBytes() {
		return entity.Payload{}, tooLarge(s.maxBytes())
	}
	f, err := fh.Open()
	if err != nil {
		return entity.Payload{}, fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = f.Close() }()
	data, err := s.readLimited(f)
	if err != nil {
		return entity.Payload{}, err
	}
	name := filepath.Base(fh.Filename)
	if name == "." || name == "/" || name == "" {
		name = fallbackName
	}
	return entity.Payload{FileName: name, Data: data}, nil
}

func (s *Source) readLimited(r io.Reader) ([]byte, error) {
	limit := s.maxBytes()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, tooLarge(limit)
	}
	return data, nil
}

func (s *Source) maxBytes() int64 {
	if s.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return s.MaxBytes
}

func (s *Source) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func tooLarge(limit int64) error {
	return common.NewAppError("PAYLOAD_TOO_LARGE", fmt.Sprintf("document exceeds %d bytes", limit), common.ErrInvalidInput)
}
