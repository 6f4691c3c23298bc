package notify

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"chorus/pkg/bus"
	"chorus/pkg/config"

	"github.com/mymmrac/telego"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*telego.SendMessageParams
}

func (f *fakeSender) SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, params)
	return &telego.Message{}, nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(config.NotifyConfig{}, nil); err == nil {
		t.Fatal("expected error for missing token")
	}

	if _, err := New(config.NotifyConfig{BotToken: "123:abc"}, nil); err == nil {
		t.Fatal("expected error for empty chat list")
	}

	if _, err := New(config.NotifyConfig{BotToken: "123:abc", ChatIDs: []string{"not-a-number"}}, nil); err == nil {
		t.Fatal("expected error for malformed chat id")
	}
}

func TestParseChatIDs(t *testing.T) {
	chatIDs, err := parseChatIDs([]string{" 100 ", "", "-200"})
	if err != nil {
		t.Fatalf("parseChatIDs error: %v", err)
	}
	if len(chatIDs) != 2 || chatIDs[0] != 100 || chatIDs[1] != -200 {
		t.Fatalf("chatIDs = %v", chatIDs)
	}
}

func TestRunForwardsEscalationsOnly(t *testing.T) {
	fake := &fakeSender{}
	n := &Notifier{
		chatIDs: []int64{100, 200},
		bot:     fake,
		log:     slog.Default(),
	}

	events := bus.NewEventBus()
	t.Cleanup(events.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = n.Run(ctx, events)
	}()

	// Give the subscriber time to register before publishing.
	time.Sleep(50 * time.Millisecond)

	events.Publish(ctx, bus.Event{Type: bus.EventMessageGated, RoomID: "room-1"})
	events.Publish(ctx, bus.Event{
		Type:   bus.EventEscalationRaised,
		RoomID: "room-1",
		Payload: map[string]string{
			"primary_emotion": "fear",
			"distress":        "95",
			"summary":         "user needs help",
		},
	})

	deadline := time.Now().Add(2 * time.Second)
	for fake.sentCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	<-done

	if fake.sentCount() != 2 {
		t.Fatalf("sent = %d, want one alert per configured chat", fake.sentCount())
	}
}

func TestRenderAlert(t *testing.T) {
	text := renderAlert(bus.Event{
		Type:   bus.EventEscalationRaised,
		RoomID: "room-7",
		Payload: map[string]string{
			"primary_emotion": "anger",
			"distress":        "80",
			"negativity":      "85",
			"urgency":         "90",
			"summary":         "heated exchange",
		},
	})

	for _, want := range []string{"room-7", "anger", "distress: 80", "urgency: 90", "heated exchange"} {
		if !strings.Contains(text, want) {
			t.Fatalf("alert missing %q:\n%s", want, text)
		}
	}
}
