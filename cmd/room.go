package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"chorus/pkg/chat"
	"chorus/pkg/engine"
	"chorus/pkg/prompt"
)

// roomFile is the on-disk description of a chat room moment: who is in
// the room, what has been said, and the message to decide on.
type roomFile struct {
	RoomID     string        `json:"room_id"`
	Trigger    string        `json:"trigger"`
	Keywords   []string      `json:"keywords,omitempty"`
	Transcript []roomMessage `json:"transcript"`
	Bots       []roomBot     `json:"bots"`
}

type roomMessage struct {
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	IsBot      bool   `json:"is_bot"`
	Content    string `json:"content"`
}

type roomBot struct {
	ActorID     string   `json:"actor_id"`
	Name        string   `json:"name"`
	Role        string   `json:"role,omitempty"`
	Persona     string   `json:"persona,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
}

func loadRoomFile(path string) (roomFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return roomFile{}, fmt.Errorf("read room file: %w", err)
	}

	var room roomFile
	if err := json.Unmarshal(data, &room); err != nil {
		return roomFile{}, fmt.Errorf("parse room file: %w", err)
	}

	if err := validateRoomFile(room); err != nil {
		return roomFile{}, err
	}

	return room, nil
}

func validateRoomFile(room roomFile) error {
	if len(room.Bots) == 0 {
		return errors.New("room file lists no bots")
	}
	for index, bot := range room.Bots {
		if strings.TrimSpace(bot.ActorID) == "" {
			return fmt.Errorf("bot %d is missing actor_id", index)
		}
		if strings.TrimSpace(bot.Name) == "" {
			return fmt.Errorf("bot %q is missing a name", bot.ActorID)
		}
	}

	return nil
}

func (r roomFile) toRoom() engine.Room {
	transcript := make([]chat.Message, 0, len(r.Transcript))
	for _, msg := range r.Transcript {
		transcript = append(transcript, chat.Message{
			SenderID:   msg.SenderID,
			SenderName: msg.SenderName,
			IsBot:      msg.IsBot,
			Content:    msg.Content,
		})
	}

	bots := make([]engine.Bot, 0, len(r.Bots))
	for _, bot := range r.Bots {
		bots = append(bots, engine.Bot{
			Info: chat.BotInfo{ActorID: bot.ActorID, Name: bot.Name, Role: bot.Role},
			Prompt: prompt.Input{
				RawPersona:  bot.Persona,
				Constraints: bot.Constraints,
			},
		})
	}

	return engine.Room{
		ID:         r.RoomID,
		Transcript: transcript,
		Trigger:    r.Trigger,
		Bots:       bots,
	}
}

func (r roomFile) botNames() []string {
	names := make([]string, 0, len(r.Bots))
	for _, bot := range r.Bots {
		names = append(names, bot.Name)
	}

	return names
}
