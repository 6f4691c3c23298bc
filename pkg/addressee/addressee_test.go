package addressee

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chorus/pkg/chat"
	"chorus/pkg/llm/llmtest"
)

func multiBotTranscript() []chat.Message {
	return []chat.Message{
		{SenderID: "u1", SenderName: "Mika", Content: "I need a code review"},
		{SenderID: "1", SenderName: "Aria", IsBot: true, Content: "I can take it"},
		{SenderID: "2", SenderName: "Nova", IsBot: true, Content: "or I can, if it's frontend"},
	}
}

func TestResolveNoBotsShortCircuits(t *testing.T) {
	spy := &llmtest.Spy{}
	r := New(spy)

	result := r.Resolve(context.Background(), []chat.Message{
		{SenderID: "u1", SenderName: "Mika", Content: "anyone here?"},
	}, "anyone here?")

	if result.TargetActorID != "" || result.TargetName != "" {
		t.Fatalf("target = %+v, want empty", result)
	}
	if result.Confidence != 0 {
		t.Fatalf("confidence = %d, want 0", result.Confidence)
	}
	if spy.Calls() != 0 {
		t.Fatalf("model calls = %d, want 0", spy.Calls())
	}
}

func TestResolveSingleBotShortCircuits(t *testing.T) {
	spy := &llmtest.Spy{}
	r := New(spy)

	transcript := []chat.Message{
		{SenderID: "u1", SenderName: "Mika", Content: "hey"},
		{SenderID: "1", SenderName: "Aria", IsBot: true, Content: "hi!"},
		{SenderID: "u1", SenderName: "Mika", Content: "can you help?"},
		{SenderID: "1", SenderName: "Aria", IsBot: true, Content: "sure"},
	}

	result := r.Resolve(context.Background(), transcript, "thanks, one more thing")

	if result.TargetActorID != "1" || result.TargetName != "Aria" {
		t.Fatalf("target = %+v, want Aria", result)
	}
	if result.Confidence != 100 {
		t.Fatalf("confidence = %d, want 100", result.Confidence)
	}
	if spy.Calls() != 0 {
		t.Fatalf("model calls = %d, want 0", spy.Calls())
	}
}

func TestResolveMultiBotUsesModelVerdict(t *testing.T) {
	spy := &llmtest.Spy{Response: `{"target_id": "2", "target_name": "Nova", "confidence": 88, "reason": "frontend question"}`}
	r := New(spy)

	result := r.Resolve(context.Background(), multiBotTranscript(), "it's a React component")

	if result.TargetActorID != "2" || result.TargetName != "Nova" {
		t.Fatalf("target = %+v, want Nova", result)
	}
	if result.Confidence != 88 {
		t.Fatalf("confidence = %d, want 88", result.Confidence)
	}
	if result.Reasoning != "frontend question" {
		t.Fatalf("reasoning = %q", result.Reasoning)
	}
	if spy.Calls() != 1 {
		t.Fatalf("model calls = %d, want 1", spy.Calls())
	}

	system := spy.LastPrompt().System
	if !strings.Contains(system, "id=1 name=Aria") || !strings.Contains(system, "id=2 name=Nova") {
		t.Fatalf("candidates missing from prompt:\n%s", system)
	}
	if !strings.Contains(system, "\"no answer\" is not a valid output") {
		t.Fatalf("prompt must forbid abstaining:\n%s", system)
	}
}

func TestResolveFallsBackToMostRecentSpeakerOnError(t *testing.T) {
	spy := &llmtest.Spy{Err: errors.New("timeout")}
	r := New(spy)

	result := r.Resolve(context.Background(), multiBotTranscript(), "who's on it?")

	if result.TargetActorID != "2" {
		t.Fatalf("target = %+v, want most recent speaker Nova (id 2)", result)
	}
	if result.Confidence != 50 {
		t.Fatalf("confidence = %d, want 50", result.Confidence)
	}
	if result.Reasoning != "fallback to most recent speaker" {
		t.Fatalf("reasoning = %q", result.Reasoning)
	}
}

func TestResolveFallsBackOnUnlistedTarget(t *testing.T) {
	spy := &llmtest.Spy{Response: `{"target_id": "99", "target_name": "Ghost", "confidence": 70}`}
	r := New(spy)

	result := r.Resolve(context.Background(), multiBotTranscript(), "hello?")

	if result.TargetActorID != "2" || result.Confidence != 50 {
		t.Fatalf("result = %+v, want most-recent-speaker fallback", result)
	}
}

func TestResolveMatchesByNameWhenIDMissing(t *testing.T) {
	spy := &llmtest.Spy{Response: `{"target_name": "aria", "confidence": 75, "reason": "direct address"}`}
	r := New(spy)

	result := r.Resolve(context.Background(), multiBotTranscript(), "Aria, can you start?")

	if result.TargetActorID != "1" || result.TargetName != "Aria" {
		t.Fatalf("result = %+v, want Aria via case-insensitive name match", result)
	}
	if result.Confidence != 75 {
		t.Fatalf("confidence = %d, want 75", result.Confidence)
	}
}
