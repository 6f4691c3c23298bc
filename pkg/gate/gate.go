// Package gate classifies raw user input into a fixed quality taxonomy so
// obviously broken input can be rejected before any downstream work.
package gate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"chorus/pkg/llm"
	llmtypes "chorus/pkg/llm/types"
)

// Category is one entry of the fixed input-quality taxonomy.
type Category string

const (
	CategoryNormal                 Category = "normal"
	CategoryEmptyOrWhitespace      Category = "empty_or_whitespace"
	CategorySymbolsOnly            Category = "symbols_only"
	CategoryTooShortMeaningless    Category = "too_short_meaningless"
	CategoryKeyboardMash           Category = "keyboard_mash"
	CategoryRepeatedCharacters     Category = "repeated_characters"
	CategoryConsonantsOnly         Category = "consonants_only"
	CategoryLocaleGibberish        Category = "locale_gibberish"
	CategoryContainsSpecialKeyword Category = "contains_special_keyword"
)

// validity maps each category to whether the input should be accepted.
var validity = map[Category]bool{
	CategoryNormal:                 true,
	CategoryEmptyOrWhitespace:      false,
	CategorySymbolsOnly:            false,
	CategoryTooShortMeaningless:    false,
	CategoryKeyboardMash:           false,
	CategoryRepeatedCharacters:     false,
	CategoryConsonantsOnly:         false,
	CategoryLocaleGibberish:        false,
	CategoryContainsSpecialKeyword: true,
}

// Result is the outcome of one quality check. Request-scoped; never
// persisted.
type Result struct {
	Category        Category
	IsValid         bool
	Confidence      int
	Reason          string
	DetectedKeyword string
	CorrectedText   string
}

// ContainsSpecialKeyword reports whether a trigger keyword was detected.
func (r Result) ContainsSpecialKeyword() bool {
	return r.Category == CategoryContainsSpecialKeyword
}

// IsGibberish reports whether the input was classified as noise.
func (r Result) IsGibberish() bool {
	switch r.Category {
	case CategoryLocaleGibberish, CategoryKeyboardMash, CategoryConsonantsOnly, CategoryRepeatedCharacters:
		return true
	default:
		return false
	}
}

// Gate runs the quality classification.
type Gate struct {
	client   llm.Client
	keywords []string
	log      *slog.Logger
}

// New builds a gate. keywords are the organization-specific trigger words
// that classify as CategoryContainsSpecialKeyword even in garbled input.
func New(client llm.Client, keywords ...string) *Gate {
	clean := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			clean = append(clean, keyword)
		}
	}

	return &Gate{
		client:   client,
		keywords: clean,
		log:      slog.Default().With("component", "gate"),
	}
}

// structured response contract for the classification call.
type classification struct {
	Category        string `json:"category"`
	Confidence      int    `json:"confidence"`
	Reason          string `json:"reason"`
	DetectedKeyword string `json:"detected_keyword"`
	CorrectedText   string `json:"corrected_text"`
}

// Check classifies one raw input string.
//
// Blank input short-circuits without a model call. A failed model call
// fails open: the input is treated as normal with confidence 0 so callers
// can still apply stricter handling when they care.
func (g *Gate) Check(ctx context.Context, input string) Result {
	if strings.TrimSpace(input) == "" {
		return Result{
			Category:   CategoryEmptyOrWhitespace,
			IsValid:    false,
			Confidence: 100,
			Reason:     "input is empty or whitespace only",
		}
	}

	parsed, err := llm.GenerateObject[classification](ctx, g.client, llmtypes.Prompt{
		System: g.systemPrompt(),
		User:   input,
	})
	if err != nil {
		g.log.Warn("quality check failed, treating input as normal", "error", err)
		return Result{
			Category:   CategoryNormal,
			IsValid:    true,
			Confidence: 0,
			Reason:     "quality check unavailable",
		}
	}

	category := Category(strings.TrimSpace(strings.ToLower(parsed.Category)))
	valid, known := validity[category]
	if !known {
		g.log.Warn("model returned unknown quality category, treating input as normal", "category", parsed.Category)
		return Result{
			Category:   CategoryNormal,
			IsValid:    true,
			Confidence: 0,
			Reason:     fmt.Sprintf("unrecognized category %q", parsed.Category),
		}
	}

	return Result{
		Category:        category,
		IsValid:         valid,
		Confidence:      clampScore(parsed.Confidence),
		Reason:          strings.TrimSpace(parsed.Reason),
		DetectedKeyword: strings.TrimSpace(parsed.DetectedKeyword),
		CorrectedText:   strings.TrimSpace(parsed.CorrectedText),
	}
}

func (g *Gate) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You classify one chat message into exactly one quality category:\n")
	b.WriteString("- normal: meaningful text. Short but meaningful replies (\"ok\", \"thanks\", \"yes\") are normal, not too_short_meaningless.\n")
	b.WriteString("- empty_or_whitespace: nothing but whitespace.\n")
	b.WriteString("- symbols_only: only punctuation or symbols.\n")
	b.WriteString("- too_short_meaningless: too short to carry any meaning.\n")
	b.WriteString("- keyboard_mash: random keyboard rows like \"asdfgh\".\n")
	b.WriteString("- repeated_characters: one character or group repeated.\n")
	b.WriteString("- consonants_only: unpronounceable consonant strings.\n")
	b.WriteString("- locale_gibberish: garbled text in the message's own script, including mojibake.\n")
	b.WriteString("- contains_special_keyword: the message contains one of the trigger keywords below, no matter how garbled the rest is.\n")

	if len(g.keywords) > 0 {
		b.WriteString("\nTrigger keywords: ")
		b.WriteString(strings.Join(g.keywords, ", "))
		b.WriteString("\n")
	}

	b.WriteString("\nReturn fields: category, confidence (0-100), reason (short), ")
	b.WriteString("detected_keyword (only for contains_special_keyword), ")
	b.WriteString("corrected_text (your best reading of garbled input, else empty).")

	return b.String()
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}

	return score
}
