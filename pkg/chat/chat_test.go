package chat

import "testing"

func transcriptFixture() []Message {
	return []Message{
		{SenderID: "u1", SenderName: "Mika", Content: "hey everyone"},
		{SenderID: "b1", SenderName: "Aria", IsBot: true, Content: "hello!"},
		{SenderID: "b2", SenderName: "Nova", IsBot: true, Content: "hi there"},
		{SenderID: "b1", SenderName: "Aria", IsBot: true, Content: "what's up?"},
		{SenderID: "u1", SenderName: "Mika", Content: "nothing much"},
	}
}

func TestBotSpeakersOrderedByFirstAppearance(t *testing.T) {
	speakers := BotSpeakers(transcriptFixture())
	if len(speakers) != 2 {
		t.Fatalf("len(speakers) = %d, want 2", len(speakers))
	}
	if speakers[0].ActorID != "b1" || speakers[1].ActorID != "b2" {
		t.Fatalf("speakers = %+v, want b1 then b2", speakers)
	}
}

func TestBotSpeakersEmptyForHumanOnlyTranscript(t *testing.T) {
	speakers := BotSpeakers([]Message{{SenderID: "u1", Content: "hello"}})
	if len(speakers) != 0 {
		t.Fatalf("expected no speakers, got %+v", speakers)
	}
}

func TestLastBotSpeaker(t *testing.T) {
	speaker, ok := LastBotSpeaker(transcriptFixture())
	if !ok {
		t.Fatal("expected a bot speaker")
	}
	if speaker.ActorID != "b1" {
		t.Fatalf("speaker = %+v, want b1 (most recent)", speaker)
	}

	if _, ok := LastBotSpeaker(nil); ok {
		t.Fatal("expected no speaker for empty transcript")
	}
}

func TestRoleLabelFallsBackToGenericLabel(t *testing.T) {
	bot := BotInfo{ActorID: "b1", Name: "Aria"}
	if got := bot.RoleLabel(); got != "general assistant" {
		t.Fatalf("RoleLabel() = %q", got)
	}

	bot.Role = "  code reviewer "
	if got := bot.RoleLabel(); got != "code reviewer" {
		t.Fatalf("RoleLabel() = %q", got)
	}
}
