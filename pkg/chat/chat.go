// Package chat contains the conversation value objects shared by every
// analyzer: transcript entries and candidate bot descriptors. All types are
// plain immutable data owned by the caller.
package chat

import "strings"

// Message is one transcript entry, ordered by time within a transcript.
type Message struct {
	SenderID   string
	SenderName string
	IsBot      bool
	Content    string
}

// BotInfo describes one candidate bot participant in a room.
type BotInfo struct {
	ActorID string
	Name    string
	Role    string
}

// RoleLabel returns the bot's role description, or a generic label when the
// bot has none configured.
func (b BotInfo) RoleLabel() string {
	if role := strings.TrimSpace(b.Role); role != "" {
		return role
	}

	return "general assistant"
}

// BotSpeakers returns the distinct bots that authored at least one message,
// in order of first appearance.
func BotSpeakers(transcript []Message) []BotInfo {
	seen := make(map[string]struct{})
	speakers := make([]BotInfo, 0)
	for _, msg := range transcript {
		if !msg.IsBot {
			continue
		}
		if _, ok := seen[msg.SenderID]; ok {
			continue
		}
		seen[msg.SenderID] = struct{}{}
		speakers = append(speakers, BotInfo{ActorID: msg.SenderID, Name: msg.SenderName})
	}

	return speakers
}

// LastBotSpeaker returns the most recently speaking bot in the transcript.
func LastBotSpeaker(transcript []Message) (BotInfo, bool) {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].IsBot {
			return BotInfo{ActorID: transcript[i].SenderID, Name: transcript[i].SenderName}, true
		}
	}

	return BotInfo{}, false
}
