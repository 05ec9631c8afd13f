package store_test

import (
	"testing"

	"github.com/laibamasod/research-agent/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func Test_MemoryStore(t *testing.T) {
	// Create a new in-memory store
	st := store.NewMemoryStore()

	chatID := "chat1"
	msg1 := llms.TextParts(llms.ChatMessageTypeHuman, "Hello")
	msg2 := llms.TextParts(llms.ChatMessageTypeAI, "Hi there!")

	assert.Empty(t, st.Messages(chatID))

	require.NoError(t, st.Add(chatID, msg1))
	require.NoError(t, st.Add(chatID, msg2))

	// Retrieve messages from the store
	messages := st.Messages(chatID)
	require.Equal(t, 2, len(messages))
	assert.Equal(t, llms.ChatMessageTypeHuman, messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, messages[1].Role)

	// Separate chats do not share history
	assert.Empty(t, st.Messages("chat2"))
	require.NoError(t, st.Add("chat2", msg1, msg2))
	assert.Equal(t, 2, len(st.Messages("chat2")))

	// Reset the chat
	require.NoError(t, st.Reset(chatID))
	assert.Empty(t, st.Messages(chatID))
	assert.Equal(t, 2, len(st.Messages("chat2")))
}
