package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func resolverServer(t *testing.T, searchBody, marketsBody string, hits *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			*hits++
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search":
			w.Write([]byte(searchBody))
		case "/coins/markets":
			w.Write([]byte(marketsBody))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
}

func TestIsOfficialMajorToken(t *testing.T) {
	srv := resolverServer(t,
		`{"coins":[{"id":"chainlink","symbol":"link","market_cap_rank":12}]}`,
		`[{"id":"chainlink","market_cap":8000000000}]`, nil)
	defer srv.Close()

	r := NewResolver(nopLogger{})
	r.SetBaseURL(srv.URL)
	assert.True(t, r.IsOfficial(context.Background(), "LINK"))
}

func TestIsOfficialSmallCapImposter(t *testing.T) {
	srv := resolverServer(t,
		`{"coins":[{"id":"fake-eth","symbol":"eth","market_cap_rank":2500}]}`,
		`[{"id":"fake-eth","market_cap":120000}]`, nil)
	defer srv.Close()

	r := NewResolver(nopLogger{})
	r.SetBaseURL(srv.URL)
	assert.False(t, r.IsOfficial(context.Background(), "ETH"))
}

func TestIsOfficialUnknownSymbol(t *testing.T) {
	srv := resolverServer(t, `{"coins":[]}`, `[]`, nil)
	defer srv.Close()

	r := NewResolver(nopLogger{})
	r.SetBaseURL(srv.URL)
	assert.False(t, r.IsOfficial(context.Background(), "ZZZZZ"))
}

func TestIsOfficialCachesResult(t *testing.T) {
	hits := 0
	srv := resolverServer(t,
		`{"coins":[{"id":"uniswap","symbol":"uni","market_cap_rank":20}]}`,
		`[{"id":"uniswap","market_cap":4000000000}]`, &hits)
	defer srv.Close()

	r := NewResolver(nopLogger{})
	r.SetBaseURL(srv.URL)

	assert.True(t, r.IsOfficial(context.Background(), "UNI"))
	first := hits
	assert.True(t, r.IsOfficial(context.Background(), "uni"))
	assert.Equal(t, first, hits) // served from cache
}

func TestIsOfficialLookupFailureIsFalse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewResolver(nopLogger{})
	r.SetBaseURL(srv.URL)
	assert.False(t, r.IsOfficial(context.Background(), "BTC"))
}

func TestIsOfficialEmptySymbol(t *testing.T) {
	r := NewResolver(nopLogger{})
	assert.False(t, r.IsOfficial(context.Background(), "  "))
}
