package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMemoryDefaults(t *testing.T) {
	t.Setenv("CHAT_STORE", "memory")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("SEND_RATE_PER_MINUTE", "not-a-number")
	t.Setenv("SUBSCRIBE_RETRY_MIN", "2s")
	t.Setenv("SUBSCRIBE_RETRY_MAX", "1s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, StoreMemory, cfg.ChatStore)
	assert.Equal(t, "chats", cfg.ChatsCollection)
	assert.Equal(t, 10, cfg.SendRatePerMinute)
	assert.Equal(t, 2*time.Second, cfg.SubscribeRetryMin)
	assert.Equal(t, 2*time.Second, cfg.SubscribeRetryMax)
}

func TestLoadFirestoreRequiresProject(t *testing.T) {
	t.Setenv("CHAT_STORE", "firestore")
	t.Setenv("FIREBASE_PROJECT_ID", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("CHAT_STORE", "redis")

	_, err := Load()
	assert.ErrorContains(t, err, "unsupported CHAT_STORE")
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, splitAndTrim(" https://a.example, ,https://b.example "))
}
