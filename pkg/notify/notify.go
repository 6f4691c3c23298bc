// Package notify pushes escalation alerts to operators over Telegram. It is
// the operational consumer of the sentiment analyzer: it subscribes to
// escalation events and forwards them to a configured chat allow-list.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"chorus/pkg/bus"
	"chorus/pkg/config"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

const messagePreviewLimit = 240

// sender abstracts the telego bot for tests.
type sender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// Notifier forwards escalation events to operator chats.
type Notifier struct {
	cfg     config.NotifyConfig
	chatIDs []int64
	bot     sender
	log     *slog.Logger
}

// New validates notifier configuration and constructs the Telegram bot.
func New(cfg config.NotifyConfig, log *slog.Logger) (*Notifier, error) {
	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		return nil, errors.New("notify.bot_token is required")
	}

	chatIDs, err := parseChatIDs(cfg.ChatIDs)
	if err != nil {
		return nil, err
	}
	if len(chatIDs) == 0 {
		return nil, errors.New("notify.chat_ids must list at least one chat")
	}

	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	if log == nil {
		log = slog.Default()
	}

	return &Notifier{
		cfg:     cfg,
		chatIDs: chatIDs,
		bot:     bot,
		log:     log.With("component", "notify"),
	}, nil
}

// Run consumes escalation events until the context is canceled or the bus
// closes.
func (n *Notifier) Run(ctx context.Context, events *bus.EventBus) error {
	if events == nil {
		return errors.New("event bus is required")
	}

	stream, unsubscribe := events.Subscribe(ctx, 0)
	defer unsubscribe()

	n.log.Info("Escalation notifier started", "chats", len(n.chatIDs))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-stream:
			if !ok {
				return nil
			}
			if event.Type != bus.EventEscalationRaised {
				continue
			}
			n.deliver(ctx, event)
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, event bus.Event) {
	text := renderAlert(event)
	for _, chatID := range n.chatIDs {
		if _, err := n.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
			n.log.Error("Failed to send escalation alert", "chat_id", chatID, "error", err)
			continue
		}
		n.log.Info("Escalation alert sent", "chat_id", chatID, "room_id", event.RoomID, "content", previewText(text))
	}
}

// renderAlert formats one escalation event as a short operator message.
func renderAlert(event bus.Event) string {
	var b strings.Builder
	b.WriteString("Escalation")
	if event.RoomID != "" {
		b.WriteString(" in room " + event.RoomID)
	}
	b.WriteString("\n")

	if emotion := event.Payload["primary_emotion"]; emotion != "" {
		b.WriteString("emotion: " + emotion + "\n")
	}
	for _, axis := range []string{"distress", "negativity", "urgency"} {
		if value := event.Payload[axis]; value != "" {
			b.WriteString(axis + ": " + value + "\n")
		}
	}
	if summary := event.Payload["summary"]; summary != "" {
		b.WriteString(summary)
	}

	return strings.TrimSpace(b.String())
}

func parseChatIDs(raw []string) ([]int64, error) {
	chatIDs := make([]int64, 0, len(raw))
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		chatID, err := strconv.ParseInt(entry, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("notify.chat_ids entry %q is not a chat id: %w", entry, err)
		}
		chatIDs = append(chatIDs, chatID)
	}

	return chatIDs, nil
}

func previewText(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= messagePreviewLimit {
		return content
	}

	return content[:messagePreviewLimit] + "..."
}
