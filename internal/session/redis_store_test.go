package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	url := os.Getenv("MYCASE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("MYCASE_TEST_REDIS_URL is not set")
	}
	ctx := context.Background()

	store, err := NewRedisStore(ctx, url, time.Minute)
	require.NoError(t, err)
	defer store.Close()

	chatID := time.Now().UnixNano()
	defer store.Clear(ctx, chatID)

	s, err := store.Get(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, s.State())

	step := AwaitingAddress{Customer: Customer{UserID: 1}, Model: "Pixel 8", Photo: Photo{FileID: "x", Kind: PhotoKindPhoto}}
	require.NoError(t, store.Set(ctx, ChatSession{ChatID: chatID, Step: step}))

	s, err = store.Get(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, step, s.Step)

	require.NoError(t, store.Clear(ctx, chatID))
	s, err = store.Get(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, s.State())
}

func TestNewRedisStoreBadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not-a-url", time.Minute)
	assert.Error(t, err)
}
