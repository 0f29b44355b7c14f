package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LLM providers understood by the chat relay.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Config holds runtime configuration for the server and the CLI.
type Config struct {
	HTTPAddr           string
	DatabaseURL        string
	DatabasePool       PoolConfig
	AllowedOrigins     []string
	LogLevel           string
	LogFormat          string
	QuestionnaireFile  string
	RateLimitPerMinute int
	TrustProxy         bool
	LLM                LLMConfig
	Tools              ToolsConfig
}

// PoolConfig bounds the PostgreSQL connection pool. Zero values fall back to
// the database package defaults.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// LLMConfig selects and tunes the chat model.
type LLMConfig struct {
	Provider      string
	APIKey        string
	BaseURL       string
	Model         string
	Temperature   float32
	MaxToolRounds int
	Timeout       time.Duration
}

// ToolsConfig describes the tools exposed to the chat model.
type ToolsConfig struct {
	// OpenAPIURL points at an OpenAPI document whose GET operations become tools.
	OpenAPIURL string
	// BaseURL is prepended to discovered paths; defaults to the document's origin.
	BaseURL    string
	FDAEnabled bool
	FDAAPIKey  string
	FDABaseURL string
}

// Load reads .env (when present) and the process environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() Config {
	cfg := Config{
		HTTPAddr:           getenv("HTTP_ADDR", ":8000"),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AllowedOrigins:     getlist("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		LogFormat:          getenv("LOG_FORMAT", "json"),
		QuestionnaireFile:  strings.TrimSpace(os.Getenv("QUESTIONNAIRE_FILE")),
		RateLimitPerMinute: getint("RATE_LIMIT_PER_MINUTE", 20),
		TrustProxy:         getbool("TRUST_PROXY", false),
	}
	cfg.DatabasePool = PoolConfig{
		MaxConns:        int32(getint("DB_MAX_CONNS", 10)),
		MinConns:        int32(getint("DB_MIN_CONNS", 1)),
		MaxConnLifetime: getduration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
		MaxConnIdleTime: getduration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
	}
	cfg.LLM = loadLLM()
	cfg.Tools = loadTools()
	return cfg
}

func loadLLM() LLMConfig {
	openaiKey := getenv("OPENAI_API_KEY", os.Getenv("MODEL_API_KEY"))
	geminiKey := os.Getenv("GEMINI_API_KEY")

	provider := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	if provider == "" {
		switch {
		case openaiKey != "":
			provider = ProviderOpenAI
		case geminiKey != "":
			provider = ProviderGemini
		default:
			provider = ProviderNone
		}
	}

	cfg := LLMConfig{
		Provider:      provider,
		Temperature:   float32(getfloat("LLM_TEMPERATURE", 0.7)),
		MaxToolRounds: getint("LLM_MAX_TOOL_ROUNDS", 10),
		Timeout:       getduration("LLM_TIMEOUT", 2*time.Minute),
	}
	switch provider {
	case ProviderOpenAI:
		cfg.APIKey = openaiKey
		cfg.BaseURL = os.Getenv("OPENAI_BASE_URL")
		cfg.Model = getenv("LLM_MODEL", "gpt-4")
	case ProviderGemini:
		cfg.APIKey = geminiKey
		cfg.BaseURL = os.Getenv("GEMINI_BASE_URL")
		cfg.Model = getenv("LLM_MODEL", "gemini-2.0-flash")
	}
	if cfg.MaxToolRounds < 1 {
		cfg.MaxToolRounds = 1
	}
	return cfg
}

func loadTools() ToolsConfig {
	cfg := ToolsConfig{
		OpenAPIURL: strings.TrimSpace(os.Getenv("TOOLS_OPENAPI_URL")),
		BaseURL:    strings.TrimRight(strings.TrimSpace(os.Getenv("TOOLS_BASE_URL")), "/"),
		FDAEnabled: getbool("FDA_ENABLED", true),
		FDAAPIKey:  os.Getenv("FDA_API_KEY"),
		FDABaseURL: getenv("FDA_BASE_URL", "https://api.fda.gov/drug"),
	}
	if cfg.BaseURL == "" && cfg.OpenAPIURL != "" {
		cfg.BaseURL = originOf(cfg.OpenAPIURL)
	}
	return cfg
}

// originOf returns scheme://host of raw, or "" when it does not parse.
func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getfloat(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getduration(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getlist(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
