package store

import (
	"github.com/tmc/langchaingo/llms"
)

// MessageStore keeps conversation history per chat.
type MessageStore interface {
	Messages(chatID string) []llms.MessageContent
	Add(chatID string, msgs ...llms.MessageContent) error
	Reset(chatID string) error
}
