package bank

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/astadocs/internal/cache"
	"github.com/joseph-ayodele/astadocs/internal/entity"
	"github.com/joseph-ayodele/astadocs/internal/utils"
)

const testIBAN = "IT60X0542811101000000123456"

func TestValidIBAN(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{testIBAN, true},
		{"it60 x054 2811 1010 0000 0123 456", true},
		{"DE89370400440532013000", true},
		{"IT61X0542811101000000123456", false},
		{"IT60X054281110100000012345", false},
		{"IT60X05428111010000001234$6", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ValidIBAN(tc.in), tc.in)
	}
}

func newServer(t *testing.T, h http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}

func newClient(base string, retries int, c cache.Client) *OpenIBANClient {
	cl := NewOpenIBANClient(OpenIBANConfig{BaseURL: base, RatePerSec: 1000, Burst: 10, Retries: retries, CacheTTL: time.Hour}, c, nil)
	cl.backoff = time.Millisecond
	return cl
}

func TestLookupOK(t *testing.T) {
	base := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/validate/"+testIBAN, r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("getBIC"))
		_, _ = w.Write([]byte(`{"valid":true,"bankData":{"name":"Banca Popolare","bic":"bpmoit22xxx"}}`))
	})

	res := newClient(base, 0, nil).Lookup(context.Background(), testIBAN)
	require.False(t, res.Failed())
	assert.Equal(t, "BPMOIT22XXX", *res.BIC)
	assert.Equal(t, "Banca Popolare", *res.BankName)
}

func TestLookupEmptyIsNotFailure(t *testing.T) {
	base := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"valid":true,"bankData":{"name":"","bic":""}}`))
	})

	res := newClient(base, 0, nil).Lookup(context.Background(), testIBAN)
	assert.False(t, res.Failed())
	assert.True(t, res.Empty())
}

func TestLookupRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	base := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"valid":true,"bankData":{"bic":"BPMOIT22XXX"}}`))
	})

	res := newClient(base, 3, nil).Lookup(context.Background(), testIBAN)
	require.False(t, res.Failed())
	assert.Equal(t, int32(3), calls.Load())
}

func TestLookupGivesUp(t *testing.T) {
	var calls atomic.Int32
	base := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	res := newClient(base, 3, nil).Lookup(context.Background(), testIBAN)
	assert.True(t, res.Failed())
	assert.Equal(t, int32(1), calls.Load(), "client errors are not retried")
}

func TestLookupInvalidSkipsCall(t *testing.T) {
	var calls atomic.Int32
	base := newServer(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })

	res := newClient(base, 0, nil).Lookup(context.Background(), "IT00X0000000000000000000000")
	assert.ErrorIs(t, res.Err, ErrInvalidIBAN)
	assert.Zero(t, calls.Load())
}

func TestLookupUsesCache(t *testing.T) {
	var calls atomic.Int32
	base := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"valid":true,"bankData":{"bic":"BPMOIT22XXX"}}`))
	})
	mem := cache.NewMemoryClient(0)
	defer mem.Close()

	cl := newClient(base, 0, mem)
	first := cl.Lookup(context.Background(), testIBAN)
	second := cl.Lookup(context.Background(), testIBAN)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, *first.BIC, *second.BIC)
}

type stubLookup struct{ res Result }

func (s stubLookup) Lookup(context.Context, string) Result { return s.res }

func TestEnrich(t *testing.T) {
	p := &entity.Proposal{IBAN: utils.Ptr(testIBAN), BIC: utils.Ptr("KEEPIT22")}
	res := Enrich(context.Background(), stubLookup{Result{BIC: utils.Ptr("OTHER"), BankName: utils.Ptr("Banca")}}, p, nil)

	assert.False(t, res.Failed())
	assert.Equal(t, "KEEPIT22", *p.BIC)
	assert.Equal(t, "Banca", *p.BankName)
}

func TestEnrichFailureLeavesRecord(t *testing.T) {
	p := &entity.Proposal{IBAN: utils.Ptr(testIBAN)}
	res := Enrich(context.Background(), stubLookup{Result{Err: context.DeadlineExceeded}}, p, nil)

	assert.True(t, res.Failed())
	assert.Nil(t, p.BIC)
	assert.Nil(t, p.BankName)

	res = Enrich(context.Background(), stubLookup{}, &entity.Proposal{}, nil)
	assert.True(t, res.Empty())
}

func TestMask(t *testing.T) {
	assert.Equal(t, "IT60*******************3456", mask(testIBAN))
}
