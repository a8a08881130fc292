// LLM Provider Factory - creates a provider from its canonical name.

package llm

import (
	"fmt"
)

// New creates a provider by name. endpoint is only honored by the OpenAI
// provider (OpenAI-compatible endpoints); the Anthropic and Gemini SDKs
// manage their own endpoints.
func New(name, apiKey, endpoint, model string, maxTokens int, temperature float32) (Provider, error) {
	switch name {
	case "openai":
		return NewOpenAIProvider(apiKey, endpoint, model, maxTokens, temperature), nil
	case "anthropic":
		return NewAnthropicProvider(apiKey, model, maxTokens, temperature), nil
	case "gemini":
		return NewGeminiProvider(apiKey, model, maxTokens, temperature), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q", name)
	}
}
