package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatechat/internal/domain/entity"
	"estatechat/pkg/errors"
)

func newInit() entity.ConversationInit {
	return entity.ConversationInit{
		ListingID: "p1", ListingTitle: "2BHK in Baner",
		BuyerID: "u1", BuyerName: "Asha",
		OwnerID: "u2", OwnerName: "Ravi",
	}
}

func TestMemoryCreateConversationIsCreateIfAbsent(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()

	first, created, err := repo.CreateConversation(ctx, newInit().NewConversation())
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, first.CreatedAt.IsZero())

	second := newInit()
	second.ListingTitle = "renamed"
	stored, created, err := repo.CreateConversation(ctx, second.NewConversation())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "2BHK in Baner", stored.ListingTitle)
	assert.Equal(t, first.CreatedAt, stored.CreatedAt)
}

func TestMemoryMessagesAreOrderedEvenWithFrozenClock(t *testing.T) {
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewMemoryChatRepository().WithClock(func() time.Time { return frozen })
	ctx := context.Background()

	for _, body := range []string{"first", "second", "third"} {
		_, err := repo.AppendMessage(ctx, "c1", &entity.Message{SenderID: "u1", Message: body})
		require.NoError(t, err)
	}

	messages, err := repo.ListMessages(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Message)
	assert.Equal(t, "third", messages[2].Message)
	assert.True(t, messages[0].Timestamp.Before(messages[1].Timestamp))
	assert.False(t, messages[0].Read)
}

func TestMemoryRecordAndResetUnread(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()

	conv, _, err := repo.CreateConversation(ctx, newInit().NewConversation())
	require.NoError(t, err)

	require.NoError(t, repo.RecordMessage(ctx, conv.ID, "hi", "u2"))
	stored, err := repo.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UnreadCount["u2"])
	assert.Equal(t, "hi", stored.LastMessage)

	require.NoError(t, repo.ResetUnread(ctx, conv.ID, "u2"))
	stored, err = repo.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.UnreadCount["u2"])

	err = repo.ResetUnread(ctx, "missing", "u2")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestMemoryListenDeliversSnapshotsUntilCancelled(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx, cancel := context.WithCancel(context.Background())

	snapshots := make(chan []*entity.Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- repo.ListenMessages(ctx, "c1", func(m []*entity.Message) { snapshots <- m })
	}()

	assert.Empty(t, <-snapshots)

	_, err := repo.AppendMessage(context.Background(), "c1", &entity.Message{Message: "hello"})
	require.NoError(t, err)

	select {
	case snap := <-snapshots:
		require.Len(t, snap, 1)
		assert.Equal(t, "hello", snap[0].Message)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after append")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestMemoryListenEndsWhenOffline(t *testing.T) {
	repo := NewMemoryChatRepository()

	var once sync.Once
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- repo.ListenUserConversations(context.Background(), "u1", func([]*entity.Conversation) {
			once.Do(func() { close(started) })
		})
	}()
	<-started

	repo.SetOffline(true)
	err := <-done
	assert.True(t, errors.Is(err, errors.CodeUnavailable))
}

func TestMemoryUserConversationsNewestFirst(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()

	a := newInit()
	b := newInit()
	b.ListingID = "p2"
	convA, _, err := repo.CreateConversation(ctx, a.NewConversation())
	require.NoError(t, err)
	convB, _, err := repo.CreateConversation(ctx, b.NewConversation())
	require.NoError(t, err)

	list, err := repo.ListUserConversations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, convB.ID, list[0].ID)

	require.NoError(t, repo.RecordMessage(ctx, convA.ID, "bump", "u2"))
	list, err = repo.ListUserConversations(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, convA.ID, list[0].ID)

	none, err := repo.ListUserConversations(ctx, "stranger")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryListingRepository(t *testing.T) {
	repo := NewMemoryListingRepository(&entity.Listing{ID: "p1", Title: "Villa", OwnerID: "u2", Images: []string{"a.jpg"}})

	listing, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", listing.CoverImage())

	_, err = repo.GetByID(context.Background(), "nope")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}
