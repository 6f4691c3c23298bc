package openai

import (
	"testing"

	"chorus/pkg/config"
	llmtypes "chorus/pkg/llm/types"
)

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := New(config.OpenAIVendorConfig{}, "  ", "gpt-4o-mini"); err == nil {
		t.Fatal("expected error when API key is missing")
	}
}

func TestNewRequiresModel(t *testing.T) {
	t.Parallel()

	if _, err := New(config.OpenAIVendorConfig{}, "sk-test", ""); err == nil {
		t.Fatal("expected error when model is missing")
	}
}

func TestNewAppliesRequestTimeout(t *testing.T) {
	t.Parallel()

	client, err := New(config.OpenAIVendorConfig{RequestTimeoutSeconds: 15}, "sk-test", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if client.requestTimeout.Seconds() != 15 {
		t.Fatalf("requestTimeout = %v, want 15s", client.requestTimeout)
	}
}

func TestInstructions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		persona string
		system  string
		want    string
	}{
		{name: "both", persona: "You are Aria.", system: "Answer briefly.", want: "You are Aria.\n\nAnswer briefly."},
		{name: "persona only", persona: "You are Aria.", want: "You are Aria."},
		{name: "system only", system: "Answer briefly.", want: "Answer briefly."},
		{name: "neither", want: ""},
		{name: "whitespace trimmed", persona: "  You are Aria.  ", system: " ", want: "You are Aria."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := instructions(tc.persona, tc.system); got != tc.want {
				t.Fatalf("instructions(%q, %q) = %q, want %q", tc.persona, tc.system, got, tc.want)
			}
		})
	}
}

func TestFlattenTurns(t *testing.T) {
	t.Parallel()

	turns := []llmtypes.Turn{
		{Role: llmtypes.RoleSystem, Content: "You are Aria."},
		{Role: llmtypes.RoleUser, Content: "Mika: hello"},
		{Role: llmtypes.RoleAssistant, Content: "hi there"},
		{Role: llmtypes.RoleUser, Content: "   "},
		{Role: llmtypes.RoleUser, Content: "Mika: how are you?"},
	}

	system, input := flattenTurns(turns)
	if system != "You are Aria." {
		t.Fatalf("system = %q", system)
	}

	want := "user: Mika: hello\nassistant: hi there\nuser: Mika: how are you?"
	if input != want {
		t.Fatalf("input = %q, want %q", input, want)
	}
}
