package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"chorus/pkg/bus"
	"chorus/pkg/chat"
	"chorus/pkg/llm/llmtest"
	"chorus/pkg/prompt"
)

func roomFixture() Room {
	return Room{
		ID: "room-1",
		Transcript: []chat.Message{
			{SenderID: "u1", SenderName: "Mika", Content: "I could use some feedback"},
			{SenderID: "1", SenderName: "Aria", IsBot: true, Content: "happy to help"},
		},
		Trigger: "Aria, can you look at my draft?",
		Bots: []Bot{
			{
				Info:   chat.BotInfo{ActorID: "1", Name: "Aria", Role: "mentor"},
				Prompt: prompt.Input{RawPersona: "You are Aria, a patient mentor."},
			},
			{
				Info: chat.BotInfo{ActorID: "2", Name: "Nova", Role: "critic"},
			},
		},
	}
}

// The spy serves one response for every structured call, so fixtures carry
// the fields of both the gate and decider contracts at once.
const acceptAndPickAria = `{
	"category": "normal", "is_valid": true,
	"should_anyone_reply": true, "responder_id": "1", "responder_name": "Aria",
	"confidence": 84, "reasoning": "directly addressed"
}`

func TestProcessComposesPromptForChosenBot(t *testing.T) {
	spy := &llmtest.Spy{Response: acceptAndPickAria}
	e := New(spy, nil, Options{})

	outcome := e.Process(context.Background(), roomFixture())

	if !outcome.Gate.IsValid {
		t.Fatalf("gate = %+v, want valid", outcome.Gate)
	}
	if !outcome.Decision.ShouldReply || outcome.Decision.ResponderActorID != "1" {
		t.Fatalf("decision = %+v, want Aria", outcome.Decision)
	}
	if outcome.SystemPrompt != "You are Aria, a patient mentor." {
		t.Fatalf("system prompt = %q", outcome.SystemPrompt)
	}
	// One gate call + one decider call.
	if spy.Calls() != 2 {
		t.Fatalf("model calls = %d, want 2", spy.Calls())
	}
}

func TestProcessRejectedInputSkipsDecision(t *testing.T) {
	spy := &llmtest.Spy{Response: `{"category": "keyboard_mash", "confidence": 96, "reason": "noise"}`}
	e := New(spy, nil, Options{})

	room := roomFixture()
	room.Trigger = "asdfghjkl"
	outcome := e.Process(context.Background(), room)

	if outcome.Gate.IsValid {
		t.Fatalf("gate = %+v, want invalid", outcome.Gate)
	}
	if outcome.Decision.ShouldReply {
		t.Fatal("decision should not fire for rejected input")
	}
	if outcome.SystemPrompt != "" {
		t.Fatalf("system prompt = %q, want empty", outcome.SystemPrompt)
	}
	if spy.Calls() != 1 {
		t.Fatalf("model calls = %d, want 1 (gate only)", spy.Calls())
	}
}

func TestProcessBlankTriggerMakesNoModelCalls(t *testing.T) {
	spy := &llmtest.Spy{}
	e := New(spy, nil, Options{})

	room := roomFixture()
	room.Trigger = "   "
	outcome := e.Process(context.Background(), room)

	if outcome.Decision.ShouldReply {
		t.Fatal("blank trigger must not produce a reply")
	}
	if spy.Calls() != 0 {
		t.Fatalf("model calls = %d, want 0", spy.Calls())
	}
}

func TestProcessPublishesEvents(t *testing.T) {
	spy := &llmtest.Spy{Response: acceptAndPickAria}
	events := bus.NewEventBus()
	t.Cleanup(events.Close)

	stream, unsubscribe := events.Subscribe(context.Background(), 8)
	t.Cleanup(unsubscribe)

	e := New(spy, events, Options{})
	e.Process(context.Background(), roomFixture())

	var types []bus.EventType
	for len(types) < 2 {
		select {
		case event := <-stream:
			types = append(types, event.Type)
			if event.RoomID != "room-1" {
				t.Fatalf("room = %q", event.RoomID)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out, got %v", types)
		}
	}

	if types[0] != bus.EventMessageGated || types[1] != bus.EventReplyDecided {
		t.Fatalf("event order = %v", types)
	}
}

func TestProcessRaisesEscalation(t *testing.T) {
	spy := &llmtest.Spy{Response: `{
		"category": "normal",
		"distress": 95, "negativity": 80, "urgency": 90,
		"primary_emotion": "fear", "summary": "user needs help",
		"should_anyone_reply": true, "responder_id": "1", "responder_name": "Aria",
		"confidence": 70, "reasoning": "distress"
	}`}
	events := bus.NewEventBus()
	t.Cleanup(events.Close)

	stream, unsubscribe := events.Subscribe(context.Background(), 8)
	t.Cleanup(unsubscribe)

	e := New(spy, events, Options{AnalyzeSentiment: true})
	room := roomFixture()
	room.Trigger = "please, everything is going wrong and I don't know what to do"
	outcome := e.Process(context.Background(), room)

	if outcome.Sentiment == nil || !outcome.Sentiment.NeedsAttention() {
		t.Fatalf("sentiment = %+v, want attention", outcome.Sentiment)
	}

	found := false
	deadline := time.After(time.Second)
	for !found {
		select {
		case event := <-stream:
			if event.Type == bus.EventEscalationRaised {
				if event.Payload["primary_emotion"] != "fear" {
					t.Fatalf("payload = %v", event.Payload)
				}
				found = true
			}
		case <-deadline:
			t.Fatal("escalation event not published")
		}
	}
}

func TestProcessDeciderFailureStillNominatesResponder(t *testing.T) {
	// Gate fails open, decider falls back: the pipeline must still name a
	// responder rather than go silent.
	spy := &llmtest.Spy{Err: errors.New("vendor outage")}
	e := New(spy, nil, Options{})

	outcome := e.Process(context.Background(), roomFixture())

	if !outcome.Decision.ShouldReply {
		t.Fatal("expected availability-biased fallback to reply")
	}
	if outcome.Decision.ResponderActorID != "1" {
		t.Fatalf("responder = %q, want first candidate", outcome.Decision.ResponderActorID)
	}
	if outcome.Decision.Confidence != 30 {
		t.Fatalf("confidence = %d, want 30", outcome.Decision.Confidence)
	}
}
