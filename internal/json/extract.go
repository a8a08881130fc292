// Package json provides JSON extraction utilities for parsing LLM responses.
//
// Models asked for a JSON array frequently return it wrapped in markdown code
// fences, embedded in commentary, or not as JSON at all. This package extracts
// a string array from such replies and offers a line-splitting fallback for
// replies that only look like a list.
package json

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractStringArray finds and parses a JSON string array in a response.
// It handles common LLM response patterns:
// 1. Pure JSON array - parses directly
// 2. Array wrapped in markdown code blocks (```json ... ```)
// 3. Array embedded in text - finds first '[' and last ']'
func ExtractStringArray(response string) ([]string, error) {
	response = stripMarkdownCodeBlocks(response)

	var result []string
	if err := json.Unmarshal([]byte(response), &result); err == nil {
		return result, nil
	}

	start := strings.Index(response, "[")
	if start != -1 {
		end := strings.LastIndex(response, "]")
		if end != -1 && end > start {
			if err := json.Unmarshal([]byte(response[start:end+1]), &result); err == nil {
				return result, nil
			}
		}
	}

	preview := response
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return nil, fmt.Errorf("failed to extract JSON array from response: %q", preview)
}

// SplitLines is the fallback for replies that are a list but not valid JSON.
// Each line becomes one entry; blank lines and lines that are only a bracket
// are discarded, and trailing commas and surrounding quotes are stripped.
func SplitLines(response string) []string {
	response = stripMarkdownCodeBlocks(response)

	var entries []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "[" || line == "]" {
			continue
		}
		line = strings.TrimSuffix(line, ",")
		line = strings.Trim(line, `"`)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		entries = append(entries, line)
	}
	return entries
}

// stripMarkdownCodeBlocks removes markdown code block markers from a response.
// Handles patterns like ```json\n...\n``` or ```\n...\n```
func stripMarkdownCodeBlocks(response string) string {
	trimmed := strings.TrimSpace(response)

	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimSpace(trimmed)
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	return trimmed
}
