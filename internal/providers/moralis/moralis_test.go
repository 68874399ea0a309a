package moralis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func TestFetchActivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/analytics"):
			assert.Equal(t, "0x1", r.URL.Query().Get("chain"))
			assert.Equal(t, "key", r.Header.Get("X-API-Key"))
			w.Write([]byte(`{"totalBuys":{"24h":120},"totalSells":{"24h":80}}`))
		case strings.HasSuffix(r.URL.Path, "/erc20/metadata"):
			w.Write([]byte(`[{"name":"Test","symbol":"TST","created_at":"2024-03-01T00:00:00Z"}]`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New("key", nopLogger{})
	c.SetBaseURL(srv.URL)

	rec, err := c.FetchActivity(context.Background(), "0xabc", "1")
	require.NoError(t, err)
	assert.Equal(t, 120, rec.BuyCount24h)
	assert.Equal(t, 80, rec.SellCount24h)
	require.NotNil(t, rec.CreatedAt)
	assert.Equal(t, 2024, rec.CreatedAt.Year())
}

func TestFetchActivityMetadataFailureIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/analytics") {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"totalBuys":{"24h":5},"totalSells":{"24h":3}}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("key", nopLogger{})
	c.SetBaseURL(srv.URL)

	rec, err := c.FetchActivity(context.Background(), "0xabc", "1")
	require.NoError(t, err)
	assert.Equal(t, 5, rec.BuyCount24h)
	assert.Nil(t, rec.CreatedAt)
}

func TestFetchActivityUnsupportedChain(t *testing.T) {
	c := New("key", nopLogger{})
	_, err := c.FetchActivity(context.Background(), "0xabc", "1399811149")
	assert.Error(t, err)
}

func TestFetchPriceSnapshots(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.True(t, strings.HasSuffix(r.URL.Path, "/price"))
		assert.NotEmpty(t, r.URL.Query().Get("to_date"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"usdPrice": 1.25}`))
	}))
	defer srv.Close()

	c := New("key", nopLogger{})
	c.SetBaseURL(srv.URL)

	snaps, err := c.FetchPriceSnapshots(context.Background(), "0xabc", "1", 7, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Len(t, snaps, 4)
	assert.Equal(t, 1.25, snaps[0].Price)
	assert.True(t, snaps[0].Time.Before(snaps[3].Time))
}

func TestFetchPriceSnapshotsSkipsFailedPoints(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls%2 == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"usdPrice": 0.5}`))
	}))
	defer srv.Close()

	c := New("key", nopLogger{})
	c.SetBaseURL(srv.URL)

	snaps, err := c.FetchPriceSnapshots(context.Background(), "0xabc", "1", 7, 4)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
}

func TestFetchPriceSnapshotsAllFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New("key", nopLogger{})
	c.SetBaseURL(srv.URL)

	_, err := c.FetchPriceSnapshots(context.Background(), "0xabc", "1", 7, 3)
	assert.Error(t, err)
}
