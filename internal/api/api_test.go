package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zilswap-dashboard/internal/domain"
	"zilswap-dashboard/internal/observability"
	"zilswap-dashboard/internal/orchestrator"
	"zilswap-dashboard/internal/state"
	"zilswap-dashboard/internal/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStatus []orchestrator.TaskStats

func (f fakeStatus) Stats() []orchestrator.TaskStats { return f }

type fixture struct {
	store   *state.Store
	tokens  *memory.TokenStore
	history *memory.PriceHistoryStore
	router  *gin.Engine
	reg     *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   state.NewStore(),
		tokens:  memory.NewTokenStore(),
		history: memory.NewPriceHistoryStore(),
		reg:     prometheus.NewRegistry(),
	}
	f.store.InitTokens([]domain.Token{
		{Blockchain: domain.BlockchainZilliqa, Address: "zil1zwap", Symbol: "ZWAP", Name: "ZilSwap", Decimals: 12, Registered: true},
		{Blockchain: domain.BlockchainEthereum, Address: "0xABC", Symbol: "XSGD", Name: "XSGD", Decimals: 6, Registered: true},
		{Blockchain: domain.BlockchainZilliqa, Address: "zil1custom", Symbol: "CUST", Decimals: 2},
	})
	f.store.SetBridgeMappings([]domain.BridgeMapping{{
		SourceChain: domain.BlockchainEthereum, SourceAddress: "abc",
		DestChain: domain.BlockchainZilliqa, DestAddress: "zil1xyz",
	}})

	now := time.UnixMilli(1_700_000_000_000)
	f.router = NewRouter(Options{
		Store: f.store,
		Status: fakeStatus{{
			Name: "price", Interval: time.Minute, Runs: 3, Successes: 2, Failures: 1,
			LastError: errors.New("upstream down"),
		}},
		Tokens:   f.tokens,
		History:  f.history,
		Gatherer: f.reg,
		Metrics:  observability.NewMetrics("test", f.reg),
		Logger:   observability.Discard(),
		Now:      func() time.Time { return now },
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	res := decode[statusRes](t, w)
	assert.Equal(t, "ok", res.Status)
	assert.True(t, res.Initialized)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, "price", res.Tasks[0].Name)
	assert.Equal(t, "1m0s", res.Tasks[0].Interval)
	assert.Equal(t, "upstream down", res.Tasks[0].LastError)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/health", nil)

	w := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
}

func TestListTokens_WithoutWallet(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/tokens", nil)
	require.Equal(t, http.StatusOK, w.Code)

	res := decode[listRes](t, w)
	require.Len(t, res.Rows, 3)
	for _, r := range res.Rows {
		assert.Empty(t, r.BalanceText)
		assert.Empty(t, r.PercentageText)
	}
}

func TestListTokens_BridgedLogoAddress(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/tokens?search=xsgd", nil)
	require.Equal(t, http.StatusOK, w.Code)

	res := decode[listRes](t, w)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "zil1xyz", res.Rows[0].LogoAddress)
	assert.Equal(t, "XSGD", res.Rows[0].LogoCurrency)
}

func TestListTokens_EmptyState(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/tokens?search=nothing", nil)
	require.Equal(t, http.StatusOK, w.Code)

	res := decode[listRes](t, w)
	assert.Empty(t, res.Rows)
	assert.Equal(t, `No token found for "nothing"`, res.EmptyState)
}

func TestListTokens_BadShowContribution(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/tokens?show_contribution=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWallet_ConnectBalancesDisconnect(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPut, "/api/wallet/balances", []balanceReq{})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/api/wallet", connectWalletReq{Address: "zil1wallet", Provider: "zilpay"})
	require.Equal(t, http.StatusOK, w.Code)

	bal := decimal.RequireFromString("1234500000000000")
	contrib := decimal.RequireFromString("500000000000")
	pct := decimal.RequireFromString("12.3456")
	w = f.do(t, http.MethodPut, "/api/wallet/balances", []balanceReq{
		{Address: "zil1zwap", Balance: &bal, UserContribution: &contrib, ContributionPercentage: &pct},
		{Address: "zil1unknown", Balance: &bal},
	})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[balancesRes](t, w)
	assert.Equal(t, []string{"zil:zil1zwap"}, res.Updated)
	assert.Equal(t, []string{"zil:zil1unknown"}, res.Unknown)

	w = f.do(t, http.MethodGet, "/api/tokens?search=zwap", nil)
	list := decode[listRes](t, w)
	require.Len(t, list.Rows, 1)
	assert.Equal(t, "1,234.5 ZWAP", list.Rows[0].BalanceText)

	w = f.do(t, http.MethodGet, "/api/tokens?search=zwap&show_contribution=true", nil)
	list = decode[listRes](t, w)
	require.Len(t, list.Rows, 1)
	assert.Equal(t, "0.5 ZWAP", list.Rows[0].BalanceText)
	assert.Equal(t, "12.34%", list.Rows[0].PercentageText)

	w = f.do(t, http.MethodDelete, "/api/wallet", nil)
	require.Equal(t, http.StatusOK, w.Code)
	wallet := decode[walletRes](t, f.do(t, http.MethodGet, "/api/wallet", nil))
	assert.False(t, wallet.Connected)

	tok, _ := f.store.Token("zil:zil1zwap")
	assert.False(t, tok.Balance.IsSome())
}

func TestSetBalances_InvalidEntryRejectsBatch(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/wallet", connectWalletReq{Address: "zil1wallet"}).Code)
	before := f.store.Snapshot().Version

	five := decimal.NewFromInt(5)
	one := decimal.NewFromInt(1)
	w := f.do(t, http.MethodPut, "/api/wallet/balances", []balanceReq{
		{Address: "zil1zwap", Balance: &five},
		{Blockchain: "btc", Address: "x", Balance: &one},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	tok, ok := f.store.Token("zil:zil1zwap")
	require.True(t, ok)
	assert.False(t, tok.Balance.IsSome())
	assert.Equal(t, before, f.store.Snapshot().Version)
}

func TestSetBalances_OmittedFieldsKept(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/wallet", connectWalletReq{Address: "zil1wallet"}).Code)

	bal := decimal.NewFromInt(100)
	contrib := decimal.NewFromInt(40)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/api/wallet/balances", []balanceReq{
		{Address: "zil1zwap", Balance: &bal, UserContribution: &contrib},
	}).Code)

	pct := decimal.NewFromInt(7)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/api/wallet/balances", []balanceReq{
		{Address: "zil1zwap", ContributionPercentage: &pct},
	}).Code)

	tok, _ := f.store.Token("zil:zil1zwap")
	gotBal, ok := tok.Balance.Get()
	require.True(t, ok)
	assert.True(t, gotBal.Equal(bal))
	pool, ok := tok.Pool.Get()
	require.True(t, ok)
	gotContrib, ok := pool.UserContribution.Get()
	require.True(t, ok)
	assert.True(t, gotContrib.Equal(contrib))
	gotPct, ok := pool.ContributionPercentage.Get()
	require.True(t, ok)
	assert.True(t, gotPct.Equal(pct))
}

func TestSetBalances_MatchesAddressWithoutHexPrefix(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/wallet", connectWalletReq{Address: "zil1wallet"}).Code)

	bal := decimal.NewFromInt(3)
	w := f.do(t, http.MethodPut, "/api/wallet/balances", []balanceReq{
		{Blockchain: "eth", Address: "abc", Balance: &bal},
	})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[balancesRes](t, w)
	assert.Equal(t, []string{"eth:abc"}, res.Updated)
	assert.Empty(t, res.Unknown)
}

func TestSelectToken(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/tokens/select", listActionReq{Address: "ZIL1ZWAP"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"symbol":"ZWAP"`)

	w = f.do(t, http.MethodPost, "/api/tokens/select", listActionReq{Address: "zil1zwap", Search: "xsgd"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/api/tokens/select", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleUserToken(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/tokens/toggle", listActionReq{Address: "zil1custom"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_token":true`)
	assert.Equal(t, []string{"zil1custom"}, f.store.Tokens().UserTokens)

	list := decode[listRes](t, f.do(t, http.MethodGet, "/api/tokens?search=cust", nil))
	require.Len(t, list.Rows, 1)
	assert.Equal(t, "Remove", list.Rows[0].ToggleLabel)

	w = f.do(t, http.MethodPost, "/api/tokens/toggle", listActionReq{Address: "zil1custom"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.store.Tokens().UserTokens)

	w = f.do(t, http.MethodPost, "/api/tokens/toggle", listActionReq{Address: "zil1zwap"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAddToken(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/tokens", addTokenReq{Address: "zil1new", Symbol: "NEW", Decimals: 4})
	require.Equal(t, http.StatusCreated, w.Code)

	_, ok := f.store.Token("zil:zil1new")
	assert.True(t, ok)
	persisted, err := f.tokens.GetByAddress(context.Background(), domain.BlockchainZilliqa, "zil1new")
	require.NoError(t, err)
	assert.False(t, persisted.Registered)

	w = f.do(t, http.MethodPost, "/api/tokens", addTokenReq{Address: "zil1zwap"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"registered":true`)

	w = f.do(t, http.MethodPost, "/api/tokens", addTokenReq{Address: "x", Blockchain: "sol"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddToken_SameAddressWithAndWithoutHexPrefix(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/tokens", addTokenReq{Blockchain: "eth", Address: "abc"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"symbol":"XSGD"`)

	w = f.do(t, http.MethodPost, "/api/tokens", addTokenReq{Blockchain: "eth", Address: "0xDEF"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = f.do(t, http.MethodPost, "/api/tokens", addTokenReq{Blockchain: "eth", Address: "def"})
	assert.Equal(t, http.StatusOK, w.Code)

	var eth int
	for _, tok := range f.store.Tokens().Tokens {
		if tok.Blockchain == domain.BlockchainEthereum {
			eth++
		}
	}
	assert.Equal(t, 2, eth)
}

func TestReadOnlySlices(t *testing.T) {
	f := newFixture(t)
	f.store.MergePrices(domain.PriceMap{"ZIL": decimal.RequireFromString("0.02")})
	f.store.SetZap(domain.ZapRecord{CurrentEpoch: 9})

	w := f.do(t, http.MethodGet, "/api/prices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ZIL":"0.02"}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/zap", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"current_epoch":9`)

	w = f.do(t, http.MethodGet, "/api/bridge", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dest_address":"zil1xyz"`)
}

func TestPriceHistory(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.history.InsertBulk(context.Background(), []*domain.PricePoint{
		{Symbol: "ZIL", Price: decimal.RequireFromString("0.02"), TimestampMs: 1_699_999_000_000},
		{Symbol: "ZIL", Price: decimal.RequireFromString("0.03"), TimestampMs: 1_600_000_000_000},
	}))

	w := f.do(t, http.MethodGet, "/api/prices/zil/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	points := decode[[]pricePointRes](t, w)
	require.Len(t, points, 1)
	assert.True(t, points[0].Price.Equal(decimal.RequireFromString("0.02")))

	w = f.do(t, http.MethodGet, "/api/prices/zil/history?from=10&to=5", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPriceChange(t *testing.T) {
	f := newFixture(t)
	now := int64(1_700_000_000_000)
	hour := time.Hour.Milliseconds()
	require.NoError(t, f.history.InsertBulk(context.Background(), []*domain.PricePoint{
		{Symbol: "ZWAP", Price: decimal.RequireFromString("4"), TimestampMs: now - 25*hour},
		{Symbol: "ZWAP", Price: decimal.RequireFromString("4.5"), TimestampMs: now - 12*hour},
		{Symbol: "ZWAP", Price: decimal.RequireFromString("5"), TimestampMs: now - hour},
	}))

	w := f.do(t, http.MethodGet, "/api/prices/zwap/change", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[priceChangeRes](t, w)
	assert.Equal(t, "ZWAP", res.Symbol)
	assert.True(t, res.From.Equal(decimal.NewFromInt(4)))
	assert.True(t, res.To.Equal(decimal.NewFromInt(5)))
	assert.True(t, res.Percent.Equal(decimal.NewFromInt(25)))

	w = f.do(t, http.MethodGet, "/api/prices/zil/change", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/api/prices/zwap/change?window=-1h", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
