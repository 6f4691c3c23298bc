package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	llmtypes "chorus/pkg/llm/types"
)

const jsonOnlyInstruction = "Respond with exactly one JSON object and nothing else. " +
	"No markdown, no code fences, no commentary outside the object."

// GenerateObject issues one text generation with a JSON-only instruction and
// decodes the response into T. It either returns a fully decoded value or an
// error; a response with no JSON object in it is an error rather than a
// silent zero value.
func GenerateObject[T any](ctx context.Context, client Client, prompt llmtypes.Prompt) (T, error) {
	var zero T

	if client == nil {
		return zero, errors.New("model client is not configured")
	}

	prompt.System = strings.TrimSpace(prompt.System + "\n\n" + jsonOnlyInstruction)

	raw, err := client.GenerateText(ctx, prompt)
	if err != nil {
		return zero, err
	}

	payload := ExtractJSONObject(raw)
	if payload == "" {
		return zero, fmt.Errorf("model response contains no JSON object: %q", truncate(raw, 120))
	}

	var out T
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return zero, fmt.Errorf("decode structured response: %w", err)
	}

	return out, nil
}

// ExtractJSONObject isolates the outermost JSON object in a model response,
// tolerating code fences and surrounding prose.
func ExtractJSONObject(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return ""
	}

	return strings.TrimSpace(cleaned[start : end+1])
}

func truncate(value string, max int) string {
	value = strings.TrimSpace(value)
	if len(value) <= max {
		return value
	}

	return value[:max] + "..."
}
