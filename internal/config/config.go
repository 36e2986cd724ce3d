package config

import (
	"os"
	"strings"
)

const (
	DefaultWorkflowID = "7596631871829393448"
	DefaultAppID      = "7596359108564320290"
	DefaultLocale     = "zh"
	DefaultLogLevel   = "info"
)

type Config struct {
	// APIKey may be empty; requests then fail with a configuration error
	// unless ParamPrefix points at a stored token.
	APIKey        string
	WorkflowID    string
	AppID         string
	BaseURL       string
	ParamPrefix   string
	ExchangeTable string
	Locale        string
	LogLevel      string
}

// Load reads the process environment.
func Load() Config {
	return FromLookup(os.Getenv)
}

func FromLookup(getenv func(string) string) Config {
	return Config{
		APIKey:        strings.TrimSpace(getenv("CHAT_API_KEY")),
		WorkflowID:    envOr(getenv, "WORKFLOW_ID", DefaultWorkflowID),
		AppID:         envOr(getenv, "APP_ID", DefaultAppID),
		BaseURL:       strings.TrimSpace(getenv("COZE_BASE_URL")),
		ParamPrefix:   strings.TrimSpace(getenv("PARAM_PREFIX")),
		ExchangeTable: strings.TrimSpace(getenv("EXCHANGE_TABLE")),
		Locale:        envOr(getenv, "LOCALE", DefaultLocale),
		LogLevel:      envOr(getenv, "LOG_LEVEL", DefaultLogLevel),
	}
}

func envOr(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}
