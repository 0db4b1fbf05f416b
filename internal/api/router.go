// Package api exposes the dashboard state over HTTP.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"zilswap-dashboard/internal/format"
	"zilswap-dashboard/internal/observability"
	"zilswap-dashboard/internal/orchestrator"
	"zilswap-dashboard/internal/state"
	"zilswap-dashboard/internal/storage"
)

// StatusProvider reports refresh task statistics.
type StatusProvider interface {
	Stats() []orchestrator.TaskStats
}

// Options configures the HTTP surface.
type Options struct {
	Store     *state.Store
	Status    StatusProvider
	Tokens    storage.TokenStore        // optional, persists added tokens
	History   storage.PriceHistoryStore // optional, enables /api/prices/:symbol/history
	Feed      http.Handler              // optional WebSocket feed
	Formatter *format.MoneyFormatter
	Gatherer  prometheus.Gatherer // nil uses the default gatherer
	Metrics   *observability.Metrics
	Logger    *logrus.Entry
	Now       func() time.Time
}

// Handler serves the API.
type Handler struct {
	store     *state.Store
	status    StatusProvider
	tokens    storage.TokenStore
	history   storage.PriceHistoryStore
	formatter *format.MoneyFormatter
	logger    *logrus.Entry
	now       func() time.Time
	started   time.Time
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(opts Options) *gin.Engine {
	h := newHandler(opts)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(h.logger))
	r.Use(requestMetrics(opts.Metrics))

	r.GET("/health", h.Health)
	r.GET("/status", h.Status)
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(observability.HandlerFor(opts.Gatherer)))
	} else {
		r.GET("/metrics", gin.WrapH(observability.Handler()))
	}
	if opts.Feed != nil {
		r.GET("/ws", gin.WrapH(opts.Feed))
	}

	api := r.Group("/api")
	{
		api.GET("/tokens", h.ListTokens)
		api.POST("/tokens", h.AddToken)
		api.POST("/tokens/select", h.SelectToken)
		api.POST("/tokens/toggle", h.ToggleUserToken)

		api.GET("/wallet", h.GetWallet)
		api.POST("/wallet", h.ConnectWallet)
		api.DELETE("/wallet", h.DisconnectWallet)
		api.PUT("/wallet/balances", h.SetBalances)

		api.GET("/prices", h.Prices)
		api.GET("/prices/:symbol/history", h.PriceHistory)
		api.GET("/prices/:symbol/change", h.PriceChange)
		api.GET("/stats", h.Stats)
		api.GET("/zap", h.Zap)
		api.GET("/bridge", h.Bridge)
	}

	return r
}

func newHandler(opts Options) *Handler {
	h := &Handler{
		store:     opts.Store,
		status:    opts.Status,
		tokens:    opts.Tokens,
		history:   opts.History,
		formatter: opts.Formatter,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if h.formatter == nil {
		h.formatter = format.NewMoneyFormatter()
	}
	if h.logger == nil {
		h.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if h.now == nil {
		h.now = time.Now
	}
	h.started = h.now()
	return h
}

func requestLogger(logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("http request")
	}
}

func requestMetrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(route, c.Writer.Status())
	}
}

func queryBool(c *gin.Context, key string) (bool, error) {
	v := c.Query(key)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
