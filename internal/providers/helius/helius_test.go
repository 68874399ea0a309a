package helius

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/tokenlab/internal/models"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type rpcCall struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

func rpcServer(t *testing.T, accountInfo string, pages []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		require.NoError(t, json.NewDecoder(r.Body).Decode(&call))
		w.Header().Set("Content-Type", "application/json")
		switch call.Method {
		case "getAccountInfo":
			w.Write([]byte(accountInfo))
		case "getTokenAccounts":
			var params struct {
				Page int `json:"page"`
			}
			require.NoError(t, json.Unmarshal(call.Params, &params))
			require.LessOrEqual(t, params.Page, len(pages))
			w.Write([]byte(pages[params.Page-1]))
		default:
			t.Fatalf("unexpected method %s", call.Method)
		}
	}))
}

const mintWithAuthorities = `{"result":{"value":{"data":{"parsed":{"info":{
	"freezeAuthority":"FrzAuth111",
	"mintAuthority":"MintAuth111",
	"supply":"1000000000",
	"decimals":9
}}}}}}`

const mintRevoked = `{"result":{"value":{"data":{"parsed":{"info":{
	"supply":"1000000000",
	"decimals":9
}}}}}}`

const mintFreezeOnly = `{"result":{"value":{"data":{"parsed":{"info":{
	"freezeAuthority":"FrzAuth111",
	"supply":"1000000000",
	"decimals":9
}}}}}}`

func TestFetchChainAgedAuthorities(t *testing.T) {
	page := `{"result":{"token_accounts":[
		{"owner":"whale","amount":400},
		{"owner":"fish1","amount":50},
		{"owner":"fish2","amount":50}
	]}}`
	srv := rpcServer(t, mintWithAuthorities, []string{page})
	defer srv.Close()

	c := New("key", nopLogger{})
	c.SetBaseURL(srv.URL)

	rec, err := c.FetchChainAged(context.Background(), "Mint111", 10)
	require.NoError(t, err)

	require.NotNil(t, rec.FreezeAuthority)
	assert.True(t, *rec.FreezeAuthority)
	require.NotNil(t, rec.MintAuthority)
	assert.True(t, *rec.MintAuthority)

	assert.Equal(t, 2, rec.Security.CriticalCount)
	assert.Equal(t, 90.0, rec.Security.Score)

	assert.Equal(t, 3, rec.HolderCount)
	assert.True(t, rec.Top10Measured)
	assert.InDelta(t, 1.0, rec.Top10HoldersPct, 1e-9)
	assert.InDelta(t, 0.8, rec.Top1HolderPct, 1e-9)
	assert.Equal(t, "whale", rec.TopHolders[0].Address)
}

func TestFetchChainAgedMatureMintAuthorityIsWarning(t *testing.T) {
	page := `{"result":{"token_accounts":[{"owner":"a","amount":10}]}}`
	srv := rpcServer(t, mintWithAuthorities, []string{page})
	defer srv.Close()

	c := New("key", nopLogger{})
	c.SetBaseURL(srv.URL)

	rec, err := c.FetchChainAged(context.Background(), "Mint111", 365)
	require.NoError(t, err)

	var mintCheck *models.SecurityCheck
	for i := range rec.Security.Checks {
		if rec.Security.Checks[i].Name == "mint_authority" {
			mintCheck = &rec.Security.Checks[i]
		}
	}
	require.NotNil(t, mintCheck)
	assert.Equal(t, models.SeverityWarning, mintCheck.Severity)
	assert.Equal(t, 25.0, mintCheck.Score)
}

func TestFetchChainAgedFreezeOnly(t *testing.T) {
	// Freeze authority present, mint authority revoked: exactly one
	// critical finding, and the revoked authority still counts as a
	// positive signal.
	page := `{"result":{"token_accounts":[{"owner":"a","amount":10}]}}`
	srv := rpcServer(t, mintFreezeOnly, []string{page})
	defer srv.Close()

	c := New("key", nopLogger{})
	c.SetBaseURL(srv.URL)

	rec, err := c.FetchChainAged(context.Background(), "Mint111", 10)
	require.NoError(t, err)

	require.NotNil(t, rec.FreezeAuthority)
	assert.True(t, *rec.FreezeAuthority)
	require.NotNil(t, rec.MintAuthority)
	assert.False(t, *rec.MintAuthority)

	assert.Equal(t, 1, rec.Security.CriticalCount)
	require.Len(t, rec.Security.CriticalFlags(), 1)
	assert.Contains(t, rec.Security.CriticalFlags()[0], "freeze authority")
	assert.Equal(t, 90.0, rec.Security.Score)
	assert.Contains(t, rec.PositiveSignals, "mint authority revoked")
}

func TestFetchChainAgedRevokedAuthorities(t *testing.T) {
	page := `{"result":{"token_accounts":[{"owner":"a","amount":10}]}}`
	srv := rpcServer(t, mintRevoked, []string{page})
	defer srv.Close()

	c := New("key", nopLogger{})
	c.SetBaseURL(srv.URL)

	rec, err := c.FetchChainAged(context.Background(), "Mint111", 10)
	require.NoError(t, err)
	assert.Zero(t, rec.Security.CriticalCount)
	assert.Contains(t, rec.PositiveSignals, "freeze authority revoked")
	assert.Contains(t, rec.PositiveSignals, "mint authority revoked")
}

func TestEnumerateHoldersGroupsByOwner(t *testing.T) {
	// Same owner across two token accounts counts once.
	page := `{"result":{"token_accounts":[
		{"owner":"dup","amount":30},
		{"owner":"dup","amount":20},
		{"owner":"solo","amount":50}
	]}}`
	srv := rpcServer(t, mintRevoked, []string{page})
	defer srv.Close()

	c := New("key", nopLogger{})
	c.SetBaseURL(srv.URL)

	rec, err := c.FetchChainAged(context.Background(), "Mint111", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.HolderCount)
	assert.InDelta(t, 0.5, rec.Top1HolderPct, 1e-9)
}

func TestEnumerateHoldersPaginates(t *testing.T) {
	full := make([]string, 0, 1000)
	for i := 0; i < 1000; i++ {
		full = append(full, fmt.Sprintf(`{"owner":"h%d","amount":1}`, i))
	}
	page1 := `{"result":{"token_accounts":[` + strings.Join(full, ",") + `]}}`
	page2 := `{"result":{"token_accounts":[{"owner":"last","amount":1}]}}`
	srv := rpcServer(t, mintRevoked, []string{page1, page2})
	defer srv.Close()

	c := New("key", nopLogger{})
	c.SetBaseURL(srv.URL)

	rec, err := c.FetchChainAged(context.Background(), "Mint111", 10)
	require.NoError(t, err)
	assert.Equal(t, 1001, rec.HolderCount)
}

func TestFetchChainAgedHolderFailureDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		require.NoError(t, json.NewDecoder(r.Body).Decode(&call))
		w.Header().Set("Content-Type", "application/json")
		if call.Method == "getAccountInfo" {
			w.Write([]byte(mintRevoked))
			return
		}
		w.Write([]byte(`{"error":{"message":"index unavailable"}}`))
	}))
	defer srv.Close()

	c := New("key", nopLogger{})
	c.SetBaseURL(srv.URL)

	rec, err := c.FetchChainAged(context.Background(), "Mint111", 10)
	require.NoError(t, err)
	assert.False(t, rec.Top10Measured)
	assert.Equal(t, models.Top10UnknownModerate, rec.Top10HoldersPct)
}

func TestFetchChainAgedMintNotFound(t *testing.T) {
	srv := rpcServer(t, `{"result":{"value":null}}`, nil)
	defer srv.Close()

	c := New("key", nopLogger{})
	c.SetBaseURL(srv.URL)

	_, err := c.FetchChainAged(context.Background(), "Missing", 10)
	assert.Error(t, err)
}
