package bank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/astadocs/internal/cache"
	"github.com/joseph-ayodele/astadocs/internal/common"
	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/utils"
)

// ErrInvalidIBAN is returned in Result.Err when the checksum fails; no call
// is made.
var ErrInvalidIBAN = errors.New("invalid iban")

// Result separates "the call failed" (Err set) from "the call worked but
// the service knows nothing" (Err nil, both fields nil).
type Result struct {
	BIC      *string `json:"bic"`
	BankName *string `json:"bank_name"`
	Err      error   `json:"-"`
}

// Failed reports whether the lookup itself failed.
func (r Result) Failed() bool { return r.Err != nil }

// Empty reports a successful lookup that returned no data.
func (r Result) Empty() bool { return r.Err == nil && r.BIC == nil && r.BankName == nil }

// Lookup resolves an IBAN. Implementations never block past ctx.
type Lookup interface {
	Lookup(ctx context.Context, iban string) Result
}

// OpenIBANConfig configures the OpenIBAN client.
type OpenIBANConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
	Retries    int
	CacheTTL   time.Duration
}

// ConfigFrom maps the bank and cache configuration sections.
func ConfigFrom(b common.BankConfig, c common.CacheConfig) OpenIBANConfig {
	return OpenIBANConfig{
		BaseURL:    b.BaseURL,
		Timeout:    b.Timeout,
		RatePerSec: b.RatePerSec,
		Burst:      b.Burst,
		Retries:    b.Retries,
		CacheTTL:   c.TTL,
	}
}

// OpenIBANClient calls GET {base}/validate/{iban}?getBIC=true.
type OpenIBANClient struct {
	cfg     OpenIBANConfig
	http    *http.Client
	limiter *rate.Limiter
	cache   cache.Client
	logger  *slog.Logger
	backoff time.Duration
}

// NewOpenIBANClient builds the client once at startup. c may be nil.
func NewOpenIBANClient(cfg OpenIBANConfig, c cache.Client, logger *slog.Logger) *OpenIBANClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openiban.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &OpenIBANClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		cache:   c,
		logger:  logger,
		backoff: 250 * time.Millisecond,
	}
}

type openIBANResponse struct {
	Valid    bool     `json:"valid"`
	Messages []string `json:"messages"`
	BankData struct {
		BankCode string `json:"bankCode"`
		Name     string `json:"name"`
		BIC      string `json:"bic"`
	} `json:"bankData"`
}

// retryableError marks failures worth another attempt.
type retryableError struct{ err error }

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

// Lookup implements Lookup.
func (c *OpenIBANClient) Lookup(ctx context.Context, iban string) Result {
	iban = NormalizeIBAN(iban)
	if !ValidIBAN(iban) {
		c.logger.Warn("bank.lookup.invalid_iban", "iban", mask(iban))
		return Result{Err: ErrInvalidIBAN}
	}

	key := cache.Key("iban", iban)
	if c.cache != nil {
		if raw, err := c.cache.Get(ctx, key); err == nil {
			var res Result
			if json.Unmarshal(raw, &res) == nil {
				c.logger.Debug("bank.lookup.cache_hit", "iban", mask(iban))
				return res
			}
		}
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			delay := c.backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return Result{Err: ctx.Err()}
			case <-time.After(delay):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return Result{Err: fmt.Errorf("rate limiter: %w", err)}
		}

		res, err := c.call(ctx, iban)
		if err == nil {
			c.logger.Info("bank.lookup.ok",
				"iban", mask(iban),
				"bic", utils.StrOrEmpty(res.BIC),
				"attempts", attempt+1,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			c.store(ctx, key, res)
			return res
		}
		lastErr = err
		var re retryableError
		if !errors.As(err, &re) {
			break
		}
		c.logger.Debug("bank.lookup.retry", "iban", mask(iban), "attempt", attempt+1, "error", err)
	}

	c.logger.Warn("bank.lookup.failed", "iban", mask(iban), "error", lastErr, "elapsed_ms", time.Since(start).Milliseconds())
	return Result{Err: lastErr}
}

func (c *OpenIBANClient) call(ctx context.Context, iban string) (Result, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/validate/" + url.PathEscape(iban) + "?getBIC=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, retryableError{fmt.Errorf("openiban: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, retryableError{fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return Result{}, retryableError{fmt.Errorf("openiban status %d", resp.StatusCode)}
	}
	if resp.StatusCode/100 != 2 {
		return Result{}, fmt.Errorf("openiban status %d", resp.StatusCode)
	}

	var out openIBANResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Result{}, fmt.Errorf("decode openiban: %w", err)
	}
	if !out.Valid {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidIBAN, strings.Join(out.Messages, "; "))
	}
	return Result{
		BIC:      utils.StrPtr(strings.ToUpper(out.BankData.BIC)),
		BankName: utils.StrPtr(out.BankData.Name),
	}, nil
}

func (c *OpenIBANClient) store(ctx context.Context, key string, res Result) {
	if c.cache == nil {
		return
	}
	b, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, b, c.cfg.CacheTTL); err != nil {
		c.logger.Warn("bank.cache.set_failed", "error", err)
	}
}

// mask keeps the country, check digits and last four characters.
func mask(iban string) string {
	if len(iban) <= 8 {
		return iban
	}
	return iban[:4] + strings.Repeat("*", len(iban)-8) + iban[len(iban)-4:]
}

// Enrich fills the proposal's BIC and bank name when they are missing. A
// failed or empty lookup leaves the record unchanged.
func Enrich(ctx context.Context, l Lookup, p *entity.Proposal, logger *slog.Logger) Result {
	if l == nil || p == nil || p.IBAN == nil {
		return Result{}
	}
	if p.BIC != nil && p.BankName != nil {
		return Result{BIC: p.BIC, BankName: p.BankName}
	}
	if logger == nil {
		logger = slog.Default()
	}
	res := l.Lookup(ctx, *p.IBAN)
	switch {
	case res.Failed():
		logger.Warn("bank.enrich.failed", "file", p.FileID, "error", res.Err)
	case res.Empty():
		logger.Info("bank.enrich.empty", "file", p.FileID)
	default:
		p.BIC = utils.Coalesce(p.BIC, res.BIC)
		p.BankName = utils.Coalesce(p.BankName, res.BankName)
	}
	return res
}
