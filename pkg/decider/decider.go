// Package decider makes the top-level reply-worthiness judgment: whether any
// bot in a room should answer the latest message, and which one.
//
// Every failure path biases toward responding. An unresponsive bot degrades
// the product experience more than an occasionally unwanted reply, so model
// failures nominate a responder at a reduced, observable confidence instead
// of going silent.
package decider

import (
	"context"
	"log/slog"
	"strings"

	"chorus/pkg/chat"
	"chorus/pkg/llm"
	llmtypes "chorus/pkg/llm/types"
)

// historyWindow bounds how many trailing transcript turns are shown to the
// model in the multi-bot judgment.
const historyWindow = 10

const (
	fallbackErrorConfidence  = 30
	fallbackRepairConfidence = 50
)

// Decision is the unified outcome shape for both the single-bot and
// multi-bot judgments. ShouldReply true implies responder fields are
// populated; false implies they are empty.
type Decision struct {
	ShouldReply      bool
	ResponderActorID string
	ResponderName    string
	Confidence       int
	Reasoning        string
}

type Decider struct {
	client llm.Client
	log    *slog.Logger
}

func New(client llm.Client) *Decider {
	return &Decider{
		client: client,
		log:    slog.Default().With("component", "decider"),
	}
}

// Decide judges the trigger message against the room's candidate bots.
func (d *Decider) Decide(ctx context.Context, transcript []chat.Message, trigger string, bots []chat.BotInfo) Decision {
	if strings.TrimSpace(trigger) == "" {
		return Decision{Reasoning: "empty message"}
	}
	if len(bots) == 0 {
		return Decision{Reasoning: "no bots available"}
	}

	if len(bots) == 1 {
		return d.decideSingle(ctx, transcript, trigger, bots[0])
	}

	return d.decideMulti(ctx, transcript, trigger, bots)
}

type singleVerdict struct {
	ShouldReply bool   `json:"should_reply"`
	Confidence  int    `json:"confidence"`
	Reason      string `json:"reason"`
}

// decideSingle runs the lighter one-candidate judgment. On model failure it
// defaults to replying at fixed confidence 30.
func (d *Decider) decideSingle(ctx context.Context, transcript []chat.Message, trigger string, bot chat.BotInfo) Decision {
	parsed, err := llm.GenerateObject[singleVerdict](ctx, d.client, llmtypes.Prompt{
		System: singleBotPrompt(bot),
		User:   renderContext(transcript, trigger),
	})
	if err != nil {
		d.log.Warn("single-bot judgment failed, defaulting to reply", "error", err, "bot", bot.ActorID)
		return Decision{
			ShouldReply:      true,
			ResponderActorID: bot.ActorID,
			ResponderName:    bot.Name,
			Confidence:       fallbackErrorConfidence,
			Reasoning:        "fallback due to analysis error",
		}
	}

	decision := Decision{
		ShouldReply: parsed.ShouldReply,
		Confidence:  clampScore(parsed.Confidence),
		Reasoning:   strings.TrimSpace(parsed.Reason),
	}
	if parsed.ShouldReply {
		decision.ResponderActorID = bot.ActorID
		decision.ResponderName = bot.Name
	}

	return decision
}

type multiVerdict struct {
	ShouldAnyoneReply bool   `json:"should_anyone_reply"`
	ResponderID       string `json:"responder_id"`
	ResponderName     string `json:"responder_name"`
	Confidence        int    `json:"confidence"`
	Reasoning         string `json:"reasoning"`
}

// decideMulti runs the full multi-candidate judgment. Contract violations
// (reply asserted with no responder) are repaired to the first candidate;
// model failures also nominate the first candidate rather than going silent.
func (d *Decider) decideMulti(ctx context.Context, transcript []chat.Message, trigger string, bots []chat.BotInfo) Decision {
	parsed, err := llm.GenerateObject[multiVerdict](ctx, d.client, llmtypes.Prompt{
		System: multiBotPrompt(bots),
		User:   renderContext(recentTurns(transcript), trigger),
	})
	if err != nil {
		d.log.Warn("multi-bot judgment failed, nominating first candidate", "error", err)
		return Decision{
			ShouldReply:      true,
			ResponderActorID: bots[0].ActorID,
			ResponderName:    bots[0].Name,
			Confidence:       fallbackErrorConfidence,
			Reasoning:        "fallback due to analysis error",
		}
	}

	if !parsed.ShouldAnyoneReply {
		return Decision{
			Confidence: clampScore(parsed.Confidence),
			Reasoning:  strings.TrimSpace(parsed.Reasoning),
		}
	}

	responder, ok := matchBot(bots, parsed.ResponderID, parsed.ResponderName)
	if !ok {
		// Reply asserted without a usable responder is a contract
		// violation, repaired rather than crashed on.
		d.log.Warn("model asserted a reply without a valid responder, repairing to first candidate",
			"responder_id", parsed.ResponderID, "responder_name", parsed.ResponderName)
		return Decision{
			ShouldReply:      true,
			ResponderActorID: bots[0].ActorID,
			ResponderName:    bots[0].Name,
			Confidence:       fallbackRepairConfidence,
			Reasoning:        "fallback selection",
		}
	}

	return Decision{
		ShouldReply:      true,
		ResponderActorID: responder.ActorID,
		ResponderName:    responder.Name,
		Confidence:       clampScore(parsed.Confidence),
		Reasoning:        strings.TrimSpace(parsed.Reasoning),
	}
}

func singleBotPrompt(bot chat.BotInfo) string {
	var b strings.Builder
	b.WriteString("One bot is present in a group chat: ")
	b.WriteString(bot.Name + " (" + bot.RoleLabel() + ").\n\n")
	b.WriteString("Decide whether the bot should answer the final message.\n")
	b.WriteString("Reply when: the bot is directly addressed, the message is a question or request it can serve, ")
	b.WriteString("the message naturally continues the bot's previous turn, or the user appears to be in distress.\n")
	b.WriteString("Do not reply when: users are talking to each other, the message is a bare acknowledgement, ")
	b.WriteString("or it is a greeting with no continuation.\n\n")
	b.WriteString("Return fields: should_reply (boolean), confidence (0-100), reason (short).")

	return b.String()
}

func multiBotPrompt(bots []chat.BotInfo) string {
	var b strings.Builder
	b.WriteString("Several bots share a group chat. Decide whether any bot should answer the final message, and if so which one.\n\n")
	b.WriteString("Candidate bots:\n")
	for _, bot := range bots {
		b.WriteString("- id=" + bot.ActorID + " name=" + bot.Name + " role=" + bot.RoleLabel() + "\n")
	}
	b.WriteString("\nFavor replying when a bot is directly addressed, when the message continues a bot's previous turn, ")
	b.WriteString("when it is a question or request suited to a specific bot's role, or when the user appears to need help.\n")
	b.WriteString("Favor staying silent for user-to-user exchange, repeated acknowledgements, or greetings with no continuation.\n\n")
	b.WriteString("Return fields: should_anyone_reply (boolean), responder_id (required and non-empty when true, absent when false), ")
	b.WriteString("responder_name, confidence (0-100), reasoning (short).")

	return b.String()
}

func renderContext(transcript []chat.Message, trigger string) string {
	var b strings.Builder
	if len(transcript) > 0 {
		b.WriteString("Conversation:\n")
		for _, msg := range transcript {
			role := "user"
			if msg.IsBot {
				role = "bot"
			}
			b.WriteString("[" + role + "] " + msg.SenderName + ": " + msg.Content + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Final message: " + trigger)

	return b.String()
}

func recentTurns(transcript []chat.Message) []chat.Message {
	if len(transcript) <= historyWindow {
		return transcript
	}

	return transcript[len(transcript)-historyWindow:]
}

func matchBot(bots []chat.BotInfo, id, name string) (chat.BotInfo, bool) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)

	for _, bot := range bots {
		if id != "" && bot.ActorID == id {
			return bot, true
		}
	}
	for _, bot := range bots {
		if name != "" && strings.EqualFold(bot.Name, name) {
			return bot, true
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
