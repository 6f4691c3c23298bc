// Package engine wires the decision pipeline together: quality gate, then
// reply-worthiness judgment, then system-prompt composition for the chosen
// bot. It owns no state beyond its collaborators and publishes an event per
// stage so operational consumers can observe decisions.
package engine

import (
	"context"
	"log/slog"
	"strconv"

	"chorus/pkg/addressee"
	"chorus/pkg/bus"
	"chorus/pkg/chat"
	"chorus/pkg/decider"
	"chorus/pkg/gate"
	"chorus/pkg/llm"
	"chorus/pkg/prompt"
	"chorus/pkg/sentiment"
)

// Bot pairs a room participant with its prompt configuration.
type Bot struct {
	Info   chat.BotInfo
	Prompt prompt.Input
}

// Room is one inbound message in context: the transcript so far, the
// trigger message to judge, and the bots present.
type Room struct {
	ID         string
	Transcript []chat.Message
	Trigger    string
	Bots       []Bot
}

// Outcome is the full result of processing one inbound message.
// SystemPrompt is populated only when a responder was chosen.
type Outcome struct {
	Gate         gate.Result
	Decision     decider.Decision
	Sentiment    *sentiment.Result
	SystemPrompt string
}

// Options tunes optional engine behavior.
type Options struct {
	// Keywords are the organization-specific trigger words forwarded to
	// the quality gate.
	Keywords []string
	// AnalyzeSentiment runs the sentiment pass on accepted messages and
	// raises escalation events when attention thresholds fire.
	AnalyzeSentiment bool
}

type Engine struct {
	gate     *gate.Gate
	decider  *decider.Decider
	resolver *addressee.Resolver
	analyzer *sentiment.Analyzer
	events   *bus.EventBus
	options  Options
	log      *slog.Logger
}

// New builds an engine on one model client. events may be nil when no
// subscriber cares.
func New(client llm.Client, events *bus.EventBus, options Options) *Engine {
	return &Engine{
		gate:     gate.New(client, options.Keywords...),
		decider:  decider.New(client),
		resolver: addressee.New(client),
		analyzer: sentiment.New(client),
		events:   events,
		options:  options,
		log:      slog.Default().With("component", "engine"),
	}
}

// Process runs the full pipeline for one inbound message. It is total:
// every failure inside an analyzer has already been converted into that
// analyzer's documented fallback.
func (e *Engine) Process(ctx context.Context, room Room) Outcome {
	outcome := Outcome{}

	outcome.Gate = e.gate.Check(ctx, room.Trigger)
	e.publish(ctx, bus.Event{
		Type:   bus.EventMessageGated,
		RoomID: room.ID,
		Payload: map[string]string{
			"category":   string(outcome.Gate.Category),
			"valid":      strconv.FormatBool(outcome.Gate.IsValid),
			"confidence": strconv.Itoa(outcome.Gate.Confidence),
		},
	})

	if !outcome.Gate.IsValid {
		outcome.Decision = decider.Decision{Reasoning: "input rejected by quality gate"}
		return outcome
	}

	if e.options.AnalyzeSentiment {
		result := e.analyzer.Analyze(ctx, room.Trigger)
		outcome.Sentiment = &result
		if result.NeedsAttention() {
			e.publish(ctx, bus.Event{
				Type:   bus.EventEscalationRaised,
				RoomID: room.ID,
				Payload: map[string]string{
					"primary_emotion": result.PrimaryEmotion,
					"distress":        strconv.Itoa(result.Distress),
					"negativity":      strconv.Itoa(result.Negativity),
					"urgency":         strconv.Itoa(result.Urgency),
					"summary":         result.Summary,
				},
			})
		}
	}

	infos := make([]chat.BotInfo, 0, len(room.Bots))
	for _, bot := range room.Bots {
		infos = append(infos, bot.Info)
	}

	outcome.Decision = e.decider.Decide(ctx, room.Transcript, room.Trigger, infos)
	e.publish(ctx, bus.Event{
		Type:   bus.EventReplyDecided,
		RoomID: room.ID,
		Payload: map[string]string{
			"should_reply": strconv.FormatBool(outcome.Decision.ShouldReply),
			"responder_id": outcome.Decision.ResponderActorID,
			"confidence":   strconv.Itoa(outcome.Decision.Confidence),
			"reasoning":    outcome.Decision.Reasoning,
		},
	})

	if outcome.Decision.ShouldReply {
		for _, bot := range room.Bots {
			if bot.Info.ActorID == outcome.Decision.ResponderActorID {
				outcome.SystemPrompt = prompt.Compose(bot.Prompt)
				break
			}
		}
	}

	return outcome
}

// ResolveAddressee exposes standalone addressee resolution over the same
// client, for callers that need "who is this for" without a full decision.
func (e *Engine) ResolveAddressee(ctx context.Context, transcript []chat.Message, userMessage string) addressee.Result {
	return e.resolver.Resolve(ctx, transcript, userMessage)
}

// AnalyzeSentiment exposes the sentiment pass for operational callers.
func (e *Engine) AnalyzeSentiment(ctx context.Context, message string) sentiment.Result {
	return e.analyzer.Analyze(ctx, message)
}

func (e *Engine) publish(ctx context.Context, event bus.Event) {
	if e.events == nil {
		return
	}
	if ok := e.events.Publish(ctx, event); !ok {
		e.log.Debug("event dropped", "type", string(event.Type))
	}
}
