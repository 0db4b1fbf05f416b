// Package config loads server configuration from flags, environment,
// an optional .env file and an optional config file.
//
// Precedence, highest first: explicit flag, environment variable,
// config file, built-in default. Environment names are the flag names
// upper-cased with dashes replaced by underscores (postgres-dsn -> POSTGRES_DSN),
// except --config which reads CONFIG_FILE.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all server settings.
type Config struct {
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	MetricsNamespace string

	PriceAPI  string
	PriceIDs  map[string]string // upstream id -> symbol
	StatsAPI  string
	ZapAPI    string
	BridgeAPI string

	PriceInterval  time.Duration
	StatsInterval  time.Duration
	ZapInterval    time.Duration
	BridgeInterval time.Duration

	RequestTimeout time.Duration
	MaxRetries     int
	RateLimit      float64 // requests per second per upstream, 0 disables
	RateBurst      int

	UseMemory     bool
	PostgresDSN   string
	ClickhouseDSN string // optional, enables price history

	CentrifugoAddr string
	CentrifugoKey  string

	TokenSeedFile string
}

type option struct {
	key   string
	def   any
	usage string
}

var options = []option{
	{"config", "", "Optional config file (yaml, json or toml)"},
	{"http-addr", ":8080", "HTTP listen address for API, WebSocket and metrics"},
	{"log-level", "info", "Log level (debug, info, warn, error)"},
	{"log-format", "text", "Log format (text, json)"},
	{"metrics-namespace", "zilswap_dashboard", "Prometheus metrics namespace"},

	{"price-api", "https://api.coingecko.com/api/v3", "Price API base URL, empty disables the price task"},
	{"price-ids", "zilliqa=ZIL,zilswap=ZWAP", "Comma-separated id=SYMBOL pairs for the price API"},
	{"stats-api", "", "Pool stats API base URL, empty disables the stats task"},
	{"zap-api", "", "ZAP distribution API base URL, empty disables the zap task"},
	{"bridge-api", "", "Bridge API base URL, empty disables the bridge task"},

	{"price-interval", time.Minute, "Price refresh interval"},
	{"stats-interval", 30 * time.Second, "Pool stats refresh interval"},
	{"zap-interval", 5 * time.Minute, "ZAP epoch refresh interval"},
	{"bridge-interval", 10 * time.Minute, "Bridge mapping refresh interval"},

	{"request-timeout", 10 * time.Second, "Upstream HTTP request timeout"},
	{"max-retries", 3, "Upstream HTTP retries on 429 and 5xx"},
	{"rate-limit", 5.0, "Upstream requests per second, 0 disables"},
	{"rate-burst", 5, "Upstream request burst"},

	{"use-memory", false, "Use in-memory storage instead of PostgreSQL"},
	{"postgres-dsn", "", "PostgreSQL connection string"},
	{"clickhouse-dsn", "", "ClickHouse connection string, enables price history"},

	{"centrifugo-addr", "", "Centrifugo HTTP API address, empty disables publishing"},
	{"centrifugo-key", "", "Centrifugo API key"},

	{"token-seed", "", "YAML file with tokens to upsert into the registry on startup"},
}

// LoadDotEnv loads .env files if they exist. Variables already set in the
// environment are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Load parses args (without the program name) and returns a validated Config.
func Load(name string, args []string) (*Config, error) {
	v := viper.New()
	for _, o := range options {
		v.SetDefault(o.key, o.def)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("config", "CONFIG_FILE")

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	for _, o := range options {
		switch def := o.def.(type) {
		case string:
			fs.String(o.key, def, o.usage)
		case bool:
			fs.Bool(o.key, def, o.usage)
		case int:
			fs.Int(o.key, def, o.usage)
		case float64:
			fs.Float64(o.key, def, o.usage)
		case time.Duration:
			fs.Duration(o.key, def, o.usage)
		}
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	explicit := make(map[string]any)
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.(flag.Getter).Get()
	})

	configFile := v.GetString("config")
	if c, ok := explicit["config"]; ok {
		configFile = c.(string)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	for k, val := range explicit {
		v.Set(k, val)
	}

	priceIDs, err := ParsePriceIDs(v.GetString("price-ids"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:         v.GetString("http-addr"),
		LogLevel:         v.GetString("log-level"),
		LogFormat:        v.GetString("log-format"),
		MetricsNamespace: v.GetString("metrics-namespace"),

		PriceAPI:  v.GetString("price-api"),
		PriceIDs:  priceIDs,
		StatsAPI:  v.GetString("stats-api"),
		ZapAPI:    v.GetString("zap-api"),
		BridgeAPI: v.GetString("bridge-api"),

		PriceInterval:  v.GetDuration("price-interval"),
		StatsInterval:  v.GetDuration("stats-interval"),
		ZapInterval:    v.GetDuration("zap-interval"),
		BridgeInterval: v.GetDuration("bridge-interval"),

		RequestTimeout: v.GetDuration("request-timeout"),
		MaxRetries:     v.GetInt("max-retries"),
		RateLimit:      v.GetFloat64("rate-limit"),
		RateBurst:      v.GetInt("rate-burst"),

		UseMemory:     v.GetBool("use-memory"),
		PostgresDSN:   v.GetString("postgres-dsn"),
		ClickhouseDSN: v.GetString("clickhouse-dsn"),

		CentrifugoAddr: v.GetString("centrifugo-addr"),
		CentrifugoKey:  v.GetString("centrifugo-key"),

		TokenSeedFile: v.GetString("token-seed"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("--http-addr is required"))
	}
	if !c.UseMemory && c.PostgresDSN == "" {
		errs = append(errs, errors.New("--postgres-dsn is required (use --use-memory for in-memory storage)"))
	}
	for name, d := range map[string]time.Duration{
		"price-interval":  c.PriceInterval,
		"stats-interval":  c.StatsInterval,
		"zap-interval":    c.ZapInterval,
		"bridge-interval": c.BridgeInterval,
		"request-timeout": c.RequestTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("--%s must be positive, got %v", name, d))
		}
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("--max-retries must not be negative, got %d", c.MaxRetries))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("--rate-limit must not be negative, got %v", c.RateLimit))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("--rate-burst must be at least 1, got %d", c.RateBurst))
	}
	if c.CentrifugoAddr != "" && c.CentrifugoKey == "" {
		errs = append(errs, errors.New("--centrifugo-key is required with --centrifugo-addr"))
	}
	if c.PriceAPI != "" && len(c.PriceIDs) == 0 {
		errs = append(errs, errors.New("--price-ids is required with --price-api"))
	}

	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return errors.Join(errs...)
}

// ParsePriceIDs parses "id=SYMBOL,id2=SYMBOL2".
func ParsePriceIDs(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, sym, ok := strings.Cut(pair, "=")
		id, sym = strings.TrimSpace(id), strings.TrimSpace(sym)
		if !ok || id == "" || sym == "" {
			return nil, fmt.Errorf("invalid price id %q, want id=SYMBOL", pair)
		}
		out[id] = strings.ToUpper(sym)
	}
	return out, nil
}
