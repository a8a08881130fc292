// Package config provides application settings loaded from environment variables.
//
// Settings are created via Load() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific API key and model lookup

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Defaults for the analysis endpoint and highlight appearance.
const (
	DefaultAPIURL         = "https://api.openai.com/v1/chat/completions"
	DefaultHighlightColor = "#ADD8E6"
	DefaultMinUnitLength  = 30
	DefaultConcurrency    = 5
)

// Highlight style variants.
const (
	StyleBackground = "background"
	StyleUnderline  = "underline"
	StyleDashed     = "dashed"
)

// Settings holds all application configuration.
type Settings struct {
	Provider       string
	APIURL         string
	APIKey         string
	Model          string
	HighlightColor string
	HighlightStyle string
	DBPath         string
	MinUnitLength  int
	Concurrency    int
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	defaultModel string
	apiKeyEnv    string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openai":    {"gpt-4o-mini", "OPENAI_API_KEY"},
	"anthropic": {"claude-haiku-4-20250514", "ANTHROPIC_API_KEY"},
	"gemini":    {"gemini-2.0-flash", "GEMINI_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"gpt":    "openai",
	"claude": "anthropic",
	"google": "gemini",
}

// Load creates settings from environment variables, applying defaults for
// anything unset. Returns an error for an unknown provider, an invalid
// highlight style, or unparseable numeric values.
func Load() (Settings, error) {
	provider := normalizeProvider(getEnv("KEYLIGHT_PROVIDER", "openai"))
	info, ok := providers[provider]
	if !ok {
		return Settings{}, fmt.Errorf("unknown provider: %q", provider)
	}

	style := getEnv("KEYLIGHT_HIGHLIGHT_STYLE", StyleBackground)
	switch style {
	case StyleBackground, StyleUnderline, StyleDashed:
	default:
		return Settings{}, fmt.Errorf("unknown highlight style: %q (expected %s, %s or %s)",
			style, StyleBackground, StyleUnderline, StyleDashed)
	}

	minLen, err := getEnvInt("KEYLIGHT_MIN_UNIT_LENGTH", DefaultMinUnitLength)
	if err != nil {
		return Settings{}, err
	}

	concurrency, err := getEnvInt("KEYLIGHT_CONCURRENCY", DefaultConcurrency)
	if err != nil {
		return Settings{}, err
	}
	if concurrency < 1 {
		return Settings{}, fmt.Errorf("KEYLIGHT_CONCURRENCY must be at least 1, got %d", concurrency)
	}

	// KEYLIGHT_API_KEY wins; the provider's own key env is the fallback.
	apiKey := os.Getenv("KEYLIGHT_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv(info.apiKeyEnv)
	}

	model := os.Getenv("KEYLIGHT_MODEL")
	if model == "" {
		model = info.defaultModel
	}

	return Settings{
		Provider:       provider,
		APIURL:         getEnv("KEYLIGHT_API_URL", DefaultAPIURL),
		APIKey:         apiKey,
		Model:          model,
		HighlightColor: getEnv("KEYLIGHT_HIGHLIGHT_COLOR", DefaultHighlightColor),
		HighlightStyle: style,
		DBPath:         getEnv("KEYLIGHT_DB", defaultDBPath()),
		MinUnitLength:  minLen,
		Concurrency:    concurrency,
	}, nil
}

// IsComplete reports whether the settings carry everything an analysis pass
// needs. Analysis is rejected up front when this is false.
func (s Settings) IsComplete() bool {
	return s.APIURL != "" && s.APIKey != "" && s.Model != ""
}

// SupportedProviders returns the list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	return result
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "keylight.db"
	}
	return filepath.Join(home, ".keylight", "keylight.db")
}

// Environment variable helpers with proper error handling

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}
