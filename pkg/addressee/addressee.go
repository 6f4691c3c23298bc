// Package addressee determines which bot, among several present in a
// conversation, a user's message is directed at.
package addressee

import (
	"context"
	"log/slog"
	"strings"

	"chorus/pkg/chat"
	"chorus/pkg/llm"
	llmtypes "chorus/pkg/llm/types"
)

// Result is the resolution outcome. Target fields are empty when the
// conversation contains no bots.
type Result struct {
	TargetActorID string
	TargetName    string
	Confidence    int
	Reasoning     string
}

type Resolver struct {
	client llm.Client
	log    *slog.Logger
}

func New(client llm.Client) *Resolver {
	return &Resolver{
		client: client,
		log:    slog.Default().With("component", "addressee"),
	}
}

type resolution struct {
	TargetID   string `json:"target_id"`
	TargetName string `json:"target_name"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason"`
}

// Resolve decides which bot the trailing user message is for.
//
// Zero bot speakers and single-bot transcripts resolve without a model
// call. With two or more candidate bots, the model must choose one; on
// failure or an unrecognized choice, the most recently speaking bot wins
// at fixed confidence 50.
func (r *Resolver) Resolve(ctx context.Context, transcript []chat.Message, userMessage string) Result {
	speakers := chat.BotSpeakers(transcript)

	switch len(speakers) {
	case 0:
		return Result{Confidence: 0, Reasoning: "no bots in conversation"}
	case 1:
		return Result{
			TargetActorID: speakers[0].ActorID,
			TargetName:    speakers[0].Name,
			Confidence:    100,
			Reasoning:     "only bot in conversation",
		}
	}

	parsed, err := llm.GenerateObject[resolution](ctx, r.client, llmtypes.Prompt{
		System: resolutionPrompt(speakers),
		User:   renderTranscript(transcript, userMessage),
	})
	if err != nil {
		r.log.Warn("addressee resolution failed, falling back to most recent speaker", "error", err)
		return r.fallback(transcript)
	}

	target, ok := matchSpeaker(speakers, parsed.TargetID, parsed.TargetName)
	if !ok {
		r.log.Warn("model chose an unlisted addressee, falling back to most recent speaker",
			"target_id", parsed.TargetID, "target_name", parsed.TargetName)
		return r.fallback(transcript)
	}

	return Result{
		TargetActorID: target.ActorID,
		TargetName:    target.Name,
		Confidence:    clampScore(parsed.Confidence),
		Reasoning:     strings.TrimSpace(parsed.Reason),
	}
}

// fallback picks the most recently speaking bot at fixed confidence 50.
// An empty transcript cannot normally reach here, but is handled anyway.
func (r *Resolver) fallback(transcript []chat.Message) Result {
	speaker, ok := chat.LastBotSpeaker(transcript)
	if !ok {
		return Result{Confidence: 0, Reasoning: "no bots in conversation"}
	}

	return Result{
		TargetActorID: speaker.ActorID,
		TargetName:    speaker.Name,
		Confidence:    50,
		Reasoning:     "fallback to most recent speaker",
	}
}

func resolutionPrompt(speakers []chat.BotInfo) string {
	var b strings.Builder
	b.WriteString("Several bots share one chat room. Decide which bot the final user message is directed at.\n\n")
	b.WriteString("Candidate bots:\n")
	for _, speaker := range speakers {
		b.WriteString("- id=" + speaker.ActorID + " name=" + speaker.Name + "\n")
	}
	b.WriteString("\nYou must choose exactly one of the listed bots; \"no answer\" is not a valid output.\n")
	b.WriteString("Return fields: target_id, target_name, confidence (0-100), reason (under 50 characters).")

	return b.String()
}

func renderTranscript(transcript []chat.Message, userMessage string) string {
	var b strings.Builder
	b.WriteString("Conversation:\n")
	for _, msg := range transcript {
		role := "user"
		if msg.IsBot {
			role = "bot"
		}
		b.WriteString("[" + role + "] " + msg.SenderName + ": " + msg.Content + "\n")
	}
	b.WriteString("\nMessage to classify: " + userMessage)

	return b.String()
}

func matchSpeaker(speakers []chat.BotInfo, targetID, targetName string) (chat.BotInfo, bool) {
	targetID = strings.TrimSpace(targetID)
	targetName = strings.TrimSpace(targetName)

	for _, speaker := range speakers {
		if targetID != "" && speaker.ActorID == targetID {
			return speaker, true
		}
	}
	for _, speaker := range speakers {
		if targetName != "" && strings.EqualFold(speaker.Name, targetName) {
			return speaker, true
		}
	}

	return chat.BotInfo{}, false
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
