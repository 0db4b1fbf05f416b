package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"zilswap-dashboard/internal/broadcast"
	"zilswap-dashboard/internal/currencylist"
	"zilswap-dashboard/internal/domain"
	"zilswap-dashboard/internal/lookup"
	"zilswap-dashboard/internal/orchestrator"
	"zilswap-dashboard/internal/state"
	"zilswap-dashboard/internal/storage"
)

// -------- DTOs --------

type taskStatusRes struct {
	Name        string    `json:"name"`
	Interval    string    `json:"interval"`
	Runs        int64     `json:"runs"`
	Successes   int64     `json:"successes"`
	Failures    int64     `json:"failures"`
	Skips       int64     `json:"skips"`
	ApplyErrors int64     `json:"apply_errors"`
	InFlight    bool      `json:"in_flight"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

type statusRes struct {
	Status       string          `json:"status"`
	Uptime       string          `json:"uptime"`
	StateVersion uint64          `json:"state_version"`
	Initialized  bool            `json:"initialized"`
	Tasks        []taskStatusRes `json:"tasks"`
}

type rowRes struct {
	Index          int                    `json:"index"`
	Token          broadcast.TokenPayload `json:"token"`
	Symbol         string                 `json:"symbol"`
	Name           string                 `json:"name"`
	LogoCurrency   string                 `json:"logo_currency,omitempty"`
	LogoAddress    string                 `json:"logo_address"`
	BalanceText    string                 `json:"balance_text,omitempty"`
	PercentageText string                 `json:"percentage_text,omitempty"`
	ToggleLabel    string                 `json:"toggle_label,omitempty"`
}

type listRes struct {
	EmptyState string   `json:"empty_state,omitempty"`
	Rows       []rowRes `json:"rows"`
}

type listActionReq struct {
	Address          string `json:"address"           binding:"required"`
	Search           string `json:"search"`
	ShowContribution bool   `json:"show_contribution"`
}

type addTokenReq struct {
	Blockchain string `json:"blockchain"`
	Address    string `json:"address"    binding:"required"`
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	Decimals   int    `json:"decimals"`
}

type connectWalletReq struct {
	Address  string `json:"address"  binding:"required"`
	Provider string `json:"provider"`
}

type walletRes struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
	Provider  string `json:"provider,omitempty"`
}

type balanceReq struct {
	Blockchain             string           `json:"blockchain"`
	Address                string           `json:"address"                 binding:"required"`
	Balance                *decimal.Decimal `json:"balance"`
	UserContribution       *decimal.Decimal `json:"user_contribution"`
	ContributionPercentage *decimal.Decimal `json:"contribution_percentage"`
}

type balancesRes struct {
	Updated []string `json:"updated"`
	Unknown []string `json:"unknown,omitempty"`
}

type priceChangeRes struct {
	Symbol  string          `json:"symbol"`
	Window  string          `json:"window"`
	From    decimal.Decimal `json:"from"`
	To      decimal.Decimal `json:"to"`
	Percent decimal.Decimal `json:"percent"`
}

type pricePointRes struct {
	Price       decimal.Decimal `json:"price"`
	TimestampMs int64           `json:"timestamp_ms"`
}

// -------- Operator endpoints --------

// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /status
func (h *Handler) Status(c *gin.Context) {
	snap := h.store.Snapshot()
	res := statusRes{
		Status:       "ok",
		Uptime:       h.now().Sub(h.started).Truncate(time.Second).String(),
		StateVersion: snap.Version,
		Initialized:  snap.Token.Initialized,
		Tasks:        []taskStatusRes{},
	}
	if h.status != nil {
		for _, st := range h.status.Stats() {
			res.Tasks = append(res.Tasks, newTaskStatus(st))
		}
	}
	if !snap.Token.Initialized {
		res.Status = "starting"
	}
	c.JSON(http.StatusOK, res)
}

func newTaskStatus(st orchestrator.TaskStats) taskStatusRes {
	return taskStatusRes{
		Name:        st.Name,
		Interval:    st.Interval.String(),
		Runs:        st.Runs,
		Successes:   st.Successes,
		Failures:    st.Failures,
		Skips:       st.Skips,
		ApplyErrors: st.ApplyErrors,
		InFlight:    st.InFlight,
		LastSuccess: st.LastSuccess,
		LastError:   errorString(st.LastError),
	}
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// -------- Currency list --------

// GET /api/tokens?search=&show_contribution=
func (h *Handler) ListTokens(c *gin.Context) {
	showContribution, err := queryBool(c, "show_contribution")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "show_contribution must be a boolean"})
		return
	}

	snap := h.store.Snapshot()
	list := currencylist.New(currencylist.Props{
		Tokens:           currencylist.Filter(snap.Token.Tokens, c.Query("search")),
		Search:           c.Query("search"),
		ShowContribution: showContribution,
		UserTokens:       snap.Token.UserTokens,
	}, h.formatter)

	view := list.Build(snap)
	res := listRes{EmptyState: view.EmptyState, Rows: make([]rowRes, 0, len(view.Rows))}
	for _, r := range view.Rows {
		res.Rows = append(res.Rows, rowRes{
			Index:          r.Index,
			Token:          broadcast.NewTokenPayload(r.Token),
			Symbol:         r.Symbol,
			Name:           r.Name,
			LogoCurrency:   r.LogoCurrency,
			LogoAddress:    r.LogoAddress,
			BalanceText:    r.BalanceText,
			PercentageText: r.PercentageText,
			ToggleLabel:    r.ToggleLabel,
		})
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/tokens/select
func (h *Handler) SelectToken(c *gin.Context) {
	var req listActionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var selected *domain.Token
	list, idx := h.listFor(req, currencylist.Props{
		OnSelectCurrency: func(t domain.Token) { selected = &t },
	})
	if err := list.Select(idx); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "token not in list"})
		return
	}
	c.JSON(http.StatusOK, broadcast.NewTokenPayload(*selected))
}

// POST /api/tokens/toggle
func (h *Handler) ToggleUserToken(c *gin.Context) {
	var req listActionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var added bool
	list, idx := h.listFor(req, currencylist.Props{
		OnToggleUserToken: func(t domain.Token) { added = h.store.ToggleUserToken(t.Address) },
	})
	err := list.ToggleUserToken(idx)
	switch {
	case errors.Is(err, currencylist.ErrIndexOutOfRange):
		c.JSON(http.StatusNotFound, gin.H{"error": "token not in list"})
		return
	case errors.Is(err, currencylist.ErrRegisteredToken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	label := currencylist.LabelAdd
	if added {
		label = currencylist.LabelRemove
	}
	c.JSON(http.StatusOK, gin.H{"address": req.Address, "user_token": added, "toggle_label": label})
}

// listFor builds the list the request refers to and the index of its address, -1 if absent.
func (h *Handler) listFor(req listActionReq, callbacks currencylist.Props) (*currencylist.List, int) {
	snap := h.store.Snapshot()
	tokens := currencylist.Filter(snap.Token.Tokens, req.Search)
	list := currencylist.New(currencylist.Props{
		Tokens:            tokens,
		Search:            req.Search,
		ShowContribution:  req.ShowContribution,
		UserTokens:        snap.Token.UserTokens,
		OnSelectCurrency:  callbacks.OnSelectCurrency,
		OnToggleUserToken: callbacks.OnToggleUserToken,
	}, h.formatter)
	return list, currencylist.IndexOf(tokens, req.Address)
}

// POST /api/tokens adds an unregistered token to the registry.
func (h *Handler) AddToken(c *gin.Context) {
	var req addTokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	chain, ok := parseChain(req.Blockchain)
	if !ok || req.Decimals < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid blockchain or decimals"})
		return
	}

	tok := domain.Token{
		Blockchain: chain,
		Address:    strings.TrimSpace(req.Address),
		Symbol:     strings.TrimSpace(req.Symbol),
		Name:       strings.TrimSpace(req.Name),
		Decimals:   req.Decimals,
	}
	if existing, ok := h.store.Token(tok.Key()); ok {
		c.JSON(http.StatusOK, broadcast.NewTokenPayload(existing))
		return
	}

	if h.tokens != nil {
		if err := h.tokens.Upsert(c.Request.Context(), &tok); err != nil {
			if errors.Is(err, storage.ErrInvalidInput) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			h.logger.WithError(err).Error("persist token")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "persist token"})
			return
		}
	}
	h.store.UpsertTokens([]domain.Token{tok})
	c.JSON(http.StatusCreated, broadcast.NewTokenPayload(tok))
}

// -------- Wallet --------

// GET /api/wallet
func (h *Handler) GetWallet(c *gin.Context) {
	w, ok := h.store.Wallet().Wallet.Get()
	c.JSON(http.StatusOK, walletRes{Connected: ok, Address: w.Address, Provider: w.Provider})
}

// POST /api/wallet
func (h *Handler) ConnectWallet(c *gin.Context) {
	var req connectWalletReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w := domain.Wallet{Address: strings.TrimSpace(req.Address), Provider: req.Provider}
	h.store.ConnectWallet(w)
	h.logger.WithField("provider", w.Provider).Info("wallet connected")
	c.JSON(http.StatusOK, walletRes{Connected: true, Address: w.Address, Provider: w.Provider})
}

// DELETE /api/wallet
func (h *Handler) DisconnectWallet(c *gin.Context) {
	h.store.DisconnectWallet()
	c.JSON(http.StatusOK, walletRes{Connected: false})
}

// PUT /api/wallet/balances sets balances and pool contributions of the connected wallet.
// Omitted fields keep their current value. The batch is validated as a whole
// before anything is written.
func (h *Handler) SetBalances(c *gin.Context) {
	if !h.store.Wallet().Connected() {
		c.JSON(http.StatusConflict, gin.H{"error": "no wallet connected"})
		return
	}
	var reqs []balanceReq
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	keys := make([]string, len(reqs))
	for i, req := range reqs {
		chain, ok := parseChain(req.Blockchain)
		if !ok || strings.TrimSpace(req.Address) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("entry %d: invalid blockchain or address", i)})
			return
		}
		keys[i] = domain.TokenKey(chain, req.Address)
	}

	res := balancesRes{Updated: []string{}}
	for i, req := range reqs {
		key := keys[i]
		tok, known := h.store.Token(key)
		if !known {
			res.Unknown = append(res.Unknown, key)
			continue
		}

		if req.Balance != nil {
			h.store.SetTokenBalance(key, domain.Some(*req.Balance))
		}
		if req.UserContribution != nil || req.ContributionPercentage != nil {
			pool := tok.Pool.OrElse(domain.PoolContribution{})
			if req.UserContribution != nil {
				pool.UserContribution = domain.Some(*req.UserContribution)
			}
			if req.ContributionPercentage != nil {
				pool.ContributionPercentage = domain.Some(*req.ContributionPercentage)
			}
			h.store.SetPoolContribution(key, domain.Some(pool))
		}
		res.Updated = append(res.Updated, key)
	}
	c.JSON(http.StatusOK, res)
}

// -------- Read-only slices --------

// GET /api/prices
func (h *Handler) Prices(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Prices())
}

// GET /api/prices/:symbol/history?from=&to= (Unix ms, default last 24h)
func (h *Handler) PriceHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "price history not enabled"})
		return
	}
	to := h.now().UnixMilli()
	from := to - (24 * time.Hour).Milliseconds()
	var err error
	if v := c.Query("from"); v != "" {
		if from, err = strconv.ParseInt(v, 10, 64); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be Unix ms"})
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = strconv.ParseInt(v, 10, 64); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be Unix ms"})
			return
		}
	}
	if from > to {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from is after to"})
		return
	}

	points, err := h.history.GetByTimeRange(c.Request.Context(), strings.ToUpper(c.Param("symbol")), from, to)
	if err != nil {
		h.logger.WithError(err).Error("query price history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query price history"})
		return
	}
	res := make([]pricePointRes, 0, len(points))
	for _, p := range points {
		res = append(res, pricePointRes{Price: p.Price, TimestampMs: p.TimestampMs})
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/prices/:symbol/change?window=24h
func (h *Handler) PriceChange(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "price history not enabled"})
		return
	}
	window := 24 * time.Hour
	if v := c.Query("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window must be a positive duration"})
			return
		}
		window = d
	}

	symbol := strings.ToUpper(c.Param("symbol"))
	now := h.now().UnixMilli()
	start := now - window.Milliseconds()
	// Look back one more window so a point at or before start is found.
	points, err := h.history.GetByTimeRange(c.Request.Context(), symbol, start-window.Milliseconds(), now)
	if err != nil {
		h.logger.WithError(err).Error("query price history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query price history"})
		return
	}

	change, err := lookup.ChangeOver(start, points)
	switch {
	case errors.Is(err, lookup.ErrNoPriceData):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, lookup.ErrZeroBase):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, priceChangeRes{
		Symbol:  symbol,
		Window:  window.String(),
		From:    change.From,
		To:      change.To,
		Percent: change.Percent.Round(4),
	})
}

// GET /api/stats, /api/zap, /api/bridge serve the broadcast payload of the slice.
func (h *Handler) Stats(c *gin.Context)  { h.slice(c, state.SliceStats) }
func (h *Handler) Zap(c *gin.Context)    { h.slice(c, state.SliceZap) }
func (h *Handler) Bridge(c *gin.Context) { h.slice(c, state.SliceBridge) }

func (h *Handler) slice(c *gin.Context, slice state.Slice) {
	msg, err := broadcast.Encode(h.store.Snapshot(), slice)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", msg)
}

// -------- helpers --------

func parseChain(s string) (domain.Blockchain, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return domain.BlockchainZilliqa, true
	}
	chain := domain.Blockchain(s)
	return chain, chain.IsValid()
}
