package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/harunnryd/eventcorner/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Backend   BackendConfig   `koanf:"backend"`
	Widget    WidgetConfig    `koanf:"widget"`
	Form      FormConfig      `koanf:"form"`
	Auth      AuthConfig      `koanf:"auth"`
	Models    ModelsConfig    `koanf:"models"`
	Prompts   PromptsConfig   `koanf:"prompts"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

type ServerConfig struct {
	Port            int    `koanf:"port"`
	LogLevel        string `koanf:"log_level"`
	ReadTimeout     string `koanf:"read_timeout"`
	WriteTimeout    string `koanf:"write_timeout"`
	IdleTimeout     string `koanf:"idle_timeout"`
	ShutdownTimeout string `koanf:"shutdown_timeout"`
}

type BackendConfig struct {
	BaseURL     string `koanf:"base_url"`
	Timeout     string `koanf:"timeout"`
	ExtractPath string `koanf:"extract_path"`
	ChatPath    string `koanf:"chat_path"`
	EventPath   string `koanf:"event_path"`
	HealthPath  string `koanf:"health_path"`
	ChatContext string `koanf:"chat_context"`
}

type WidgetConfig struct {
	RoutePrefixes []string `koanf:"route_prefixes"`
}

type FormConfig struct {
	DefaultTimezone string `koanf:"default_timezone"`
	AbortRoute      string `koanf:"abort_route"`
	DetailRoute     string `koanf:"detail_route"`
}

type AuthConfig struct {
	SessionPath string `koanf:"session_path"`
}

type ModelsConfig struct {
	Default             string          `koanf:"default"`
	Fallback            string          `koanf:"fallback"`
	MaxFallbackAttempts int             `koanf:"max_fallback_attempts"`
	Registry            []ModelRegistry `koanf:"registry"`
}

type ModelRegistry struct {
	Name           string `koanf:"name"`
	Provider       string `koanf:"provider"`
	BaseURL        string `koanf:"base_url"`
	APIKey         string `koanf:"api_key"`
	RequestTimeout string `koanf:"request_timeout"`
}

type PromptsConfig struct {
	Chat       string `koanf:"chat"`
	Extraction string `koanf:"extraction"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `koanf:"requests_per_minute"`
	Burst             int `koanf:"burst"`
	// TrustProxyHeaders keys clients by X-Forwarded-For / X-Real-IP. Enable
	// only when a reverse proxy that overwrites those headers sits in front.
	TrustProxyHeaders bool `koanf:"trust_proxy_headers"`
}

const (
	DefaultServerPort                 = 5001
	DefaultServerLogLevel             = "info"
	DefaultServerReadTimeout          = "10s"
	DefaultServerWriteTimeout         = "120s"
	DefaultServerIdleTimeout          = "60s"
	DefaultServerShutdownTimeout      = "5s"
	DefaultBackendBaseURL             = "http://localhost:5000/api"
	DefaultBackendTimeout             = "60s"
	DefaultBackendExtractPath         = "/ai/create-event-conversation"
	DefaultBackendChatPath            = "/ai/chat"
	DefaultBackendEventPath           = "/events"
	DefaultBackendHealthPath          = "/ai/health"
	DefaultFormTimezone               = "Asia/Dhaka"
	DefaultFormAbortRoute             = "/organizer/dashboard"
	DefaultFormDetailRoute            = "/events/%s"
	DefaultModelDefault               = "llama3.2"
	DefaultModelFallback              = ""
	DefaultModelMaxFallbackAttempts   = 2
	DefaultOpenAIBaseURL              = "https://api.openai.com/v1"
	DefaultOllamaBaseURL              = "http://localhost:11434/v1"
	DefaultOllamaAPIKey               = "ollama"
	DefaultModelRequestTimeout        = "120s"
	DefaultRateLimitRequestsPerMinute = 60
	DefaultRateLimitBurst             = 10
	DefaultRateLimitTrustProxyHeaders = false
	DefaultChatSystemPrompt           = "You are a helpful AI assistant for Event Corner, an event management platform. Help users with finding events, understanding event details, creating events, and using the platform. Be friendly, concise, and helpful."
)

// DefaultRoutePrefixes are the dashboard route prefixes under which the chat widget mounts.
var DefaultRoutePrefixes = []string{"/participant", "/organizer", "/admin", "/dashboard"}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"server.port":                  DefaultServerPort,
		"server.log_level":             DefaultServerLogLevel,
		"server.read_timeout":          DefaultServerReadTimeout,
		"server.write_timeout":         DefaultServerWriteTimeout,
		"server.idle_timeout":          DefaultServerIdleTimeout,
		"server.shutdown_timeout":      DefaultServerShutdownTimeout,
		"backend.base_url":             DefaultBackendBaseURL,
		"backend.timeout":              DefaultBackendTimeout,
		"backend.extract_path":         DefaultBackendExtractPath,
		"backend.chat_path":            DefaultBackendChatPath,
		"backend.event_path":           DefaultBackendEventPath,
		"backend.health_path":          DefaultBackendHealthPath,
		"widget.route_prefixes":        DefaultRoutePrefixes,
		"form.default_timezone":        DefaultFormTimezone,
		"form.abort_route":             DefaultFormAbortRoute,
		"form.detail_route":            DefaultFormDetailRoute,
		"auth.session_path":            filepath.Join(os.Getenv("HOME"), ".eventcorner", "session.json"),
		"models.default":               DefaultModelDefault,
		"models.fallback":              DefaultModelFallback,
		"models.max_fallback_attempts": DefaultModelMaxFallbackAttempts,
		"models.registry": []ModelRegistry{
			{Name: DefaultModelDefault, Provider: "ollama", BaseURL: DefaultOllamaBaseURL},
		},
		"prompts.chat":                   DefaultChatSystemPrompt,
		"prompts.extraction":             DefaultExtractionSystemPrompt,
		"rate_limit.requests_per_minute": DefaultRateLimitRequestsPerMinute,
		"rate_limit.burst":               DefaultRateLimitBurst,
		"rate_limit.trust_proxy_headers": DefaultRateLimitTrustProxyHeaders,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".eventcorner", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables
	k.Load(env.Provider("EVENTCORNER_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "EVENTCORNER_")), "__", ".", -1)
	}), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	for i, m := range cfg.Models.Registry {
		if m.Provider == "" {
			cfg.Models.Registry[i].Provider = "ollama"
		}
	}

	if len(cfg.Widget.RoutePrefixes) == 0 {
		cfg.Widget.RoutePrefixes = append([]string(nil), DefaultRoutePrefixes...)
	}

	sessionPath, err := expandConfiguredPath(cfg.Auth.SessionPath)
	if err != nil {
		return nil, err
	}
	if sessionPath != "" {
		cfg.Auth.SessionPath = sessionPath
	}

	// Post-Process: Inject standard Env Vars if missing
	injectAPIKey(&cfg, "openai", os.Getenv("OPENAI_API_KEY"))
	injectAPIKey(&cfg, "anthropic", os.Getenv("ANTHROPIC_API_KEY"))
	injectAPIKey(&cfg, "gemini", os.Getenv("GEMINI_API_KEY"))

	return &cfg, nil
}

func injectAPIKey(cfg *Config, provider, key string) {
	if key == "" {
		return
	}
	for i, m := range cfg.Models.Registry {
		if m.Provider == provider && m.APIKey == "" {
			cfg.Models.Registry[i].APIKey = key
		}
	}
}

func expandConfiguredPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	expanded, err := pathutil.Expand(trimmed)
	if err != nil {
		return "", err
	}
	return expanded, nil
}
