package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"chorus/pkg/chat"
	"chorus/pkg/engine"
	"chorus/pkg/llm"
	llmtypes "chorus/pkg/llm/types"
	"chorus/pkg/roles"
	uichat "chorus/pkg/ui/chat"
)

var playgroundRoomPath string

var playgroundCmd = &cobra.Command{
	Use:   "playground",
	Short: "Chat with a simulated multi-bot room",
	Long:  "Opens a terminal chat room where every message runs through the decision pipeline and the chosen bot answers in character. Without a room file the room is seeded with two random archetypes.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd
		_ = args

		cfg, client, err := bootstrap()
		if err != nil {
			fmt.Printf("%v\n", err)
			return
		}

		room, err := playgroundRoom()
		if err != nil {
			fmt.Printf("failed to prepare room: %v\n", err)
			return
		}

		eng := engine.New(client, nil, engine.Options{Keywords: room.Keywords})
		session := &playgroundSession{
			engine:     eng,
			client:     client,
			roomID:     room.RoomID,
			bots:       room.toRoom().Bots,
			transcript: room.toRoom().Transcript,
		}

		info := uichat.RoomInfo{
			RoomID: room.RoomID,
			Vendor: cfg.Engine.Vendor,
			Model:  cfg.Engine.Model,
			Bots:   room.botNames(),
		}

		if err := uichat.Run(context.Background(), session.step, info); err != nil {
			fmt.Printf("playground failed: %v\n", err)
		}
	},
}

func playgroundRoom() (roomFile, error) {
	if playgroundRoomPath != "" {
		return loadRoomFile(playgroundRoomPath)
	}

	drawn := roles.PickN(2)
	room := roomFile{
		RoomID: "playground",
		Bots: []roomBot{
			{ActorID: "1", Name: "Aria", Role: drawn[0].MainRole},
			{ActorID: "2", Name: "Nova", Role: drawn[1].MainRole},
		},
	}
	for index, archetype := range drawn {
		room.Bots[index].Persona = fmt.Sprintf(
			"You are %s, a %s. Your goal: %s",
			room.Bots[index].Name, archetype.MainRole, archetype.FinalGoal,
		)
	}

	return room, nil
}

// playgroundSession carries the room transcript across turns.
type playgroundSession struct {
	engine     *engine.Engine
	client     llm.Client
	roomID     string
	bots       []engine.Bot
	transcript []chat.Message
}

func (s *playgroundSession) step(ctx context.Context, message string) (uichat.StepResult, error) {
	outcome := s.engine.Process(ctx, engine.Room{
		ID:         s.roomID,
		Transcript: s.transcript,
		Trigger:    message,
		Bots:       s.bots,
	})

	s.transcript = append(s.transcript, chat.Message{
		SenderID:   "user",
		SenderName: "You",
		Content:    message,
	})

	result := uichat.StepResult{Gate: outcome.Gate, Decision: outcome.Decision}
	if !outcome.Gate.IsValid || !outcome.Decision.ShouldReply {
		return result, nil
	}

	reply, err := s.client.GenerateFromTurns(ctx, outcome.SystemPrompt, replyTurns(s.transcript, outcome.Decision.ResponderActorID))
	if err != nil {
		return result, fmt.Errorf("generate reply: %w", err)
	}

	result.Reply = reply
	s.transcript = append(s.transcript, chat.Message{
		SenderID:   outcome.Decision.ResponderActorID,
		SenderName: outcome.Decision.ResponderName,
		IsBot:      true,
		Content:    reply,
	})

	return result, nil
}

// replyTurns renders the transcript from the responder's point of view:
// its own past messages become assistant turns, everything else is user
// input labeled with the speaker's name.
func replyTurns(transcript []chat.Message, responderID string) []llmtypes.Turn {
	turns := make([]llmtypes.Turn, 0, len(transcript))
	for _, msg := range transcript {
		if msg.IsBot && msg.SenderID == responderID {
			turns = append(turns, llmtypes.Turn{Role: llmtypes.RoleAssistant, Content: msg.Content})
			continue
		}

		name := strings.TrimSpace(msg.SenderName)
		if name == "" {
			name = msg.SenderID
		}
		turns = append(turns, llmtypes.Turn{
			Role:    llmtypes.RoleUser,
			Content: name + ": " + msg.Content,
		})
	}

	return turns
}

func init() {
	rootCmd.AddCommand(playgroundCmd)
	playgroundCmd.Flags().StringVarP(&playgroundRoomPath, "room", "r", "", "path to a room JSON file")
}
