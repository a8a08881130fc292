// Package analysis sends page text to the configured language model and
// turns its free-form reply into keypoints.
//
// This is a boundary package: the remote reply is expected to look like a
// JSON array but is parsed defensively, and every failure mode (transport,
// non-2xx, unparseable reply) degrades to "no keypoints" with a log line.
// A single text unit failing must never abort the batch it belongs to.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	jsonutil "github.com/richinex/keylight/internal/json"
	"github.com/richinex/keylight/llm"
)

// Request parameters fixed for keypoint extraction.
const (
	Temperature = 0.3
	MaxTokens   = 500
)

const promptTemplate = `Extract the 3 to 5 most important key phrases from the following text.
Each phrase must be copied verbatim from the text, without any rewording.
Respond with ONLY a JSON array of strings and nothing else.

Text:
%s`

// Client extracts keypoints from text via an LLM provider.
type Client struct {
	provider llm.Provider
	log      *slog.Logger
}

// NewClient creates an analysis client on top of a provider.
func NewClient(provider llm.Provider, log *slog.Logger) *Client {
	return &Client{provider: provider, log: log}
}

// Extract asks the model for the keypoints of text. It returns nil on any
// failure; errors are logged, never surfaced, since the caller runs many
// extractions in a batch and one bad unit must not fail the rest.
func (c *Client) Extract(ctx context.Context, text string) []string {
	prompt := fmt.Sprintf(promptTemplate, text)

	resp, err := c.provider.Chat(ctx, []llm.ChatMessage{llm.UserMessage(prompt)})
	if err != nil {
		c.log.Warn("analysis call failed",
			"provider", c.provider.Name(),
			"model", c.provider.Model(),
			"error", err)
		return nil
	}

	keypoints := ParseReply(resp.Content)
	if len(keypoints) == 0 {
		c.log.Debug("analysis reply yielded no keypoints",
			"provider", c.provider.Name(),
			"reply_len", len(resp.Content))
	}
	return keypoints
}

// ParseReply parses a model reply into keypoints.
// Strict JSON-array parse first (code fences tolerated); replies that are a
// list but not JSON fall back to line splitting.
func ParseReply(reply string) []string {
	if strings.TrimSpace(reply) == "" {
		return nil
	}

	entries, err := jsonutil.ExtractStringArray(reply)
	if err != nil {
		entries = jsonutil.SplitLines(reply)
	}

	var keypoints []string
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			keypoints = append(keypoints, entry)
		}
	}
	return keypoints
}
