package view

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"estatechat/internal/adapter/repository"
	"estatechat/internal/domain/entity"
	"estatechat/internal/usecase"
)

var (
	buyer = entity.Identity{UserID: "u1", DisplayName: "Asha", Email: "asha@example.com"}
	owner = entity.Identity{UserID: "u2", DisplayName: "Ravi", Email: "ravi@example.com"}
)

func newService(t *testing.T) (*usecase.ChatUseCase, *repository.MemoryChatRepository) {
	t.Helper()
	store := repository.NewMemoryChatRepository()
	listings := repository.NewMemoryListingRepository(
		&entity.Listing{ID: "p1", Title: "3BHK Sea View", Images: []string{"p1.jpg"}, OwnerID: owner.UserID, OwnerName: owner.DisplayName, OwnerEmail: owner.Email},
		&entity.Listing{ID: "p2", Title: "Studio near Metro", OwnerID: "u3", OwnerName: "Meera"},
	)
	return usecase.NewChatUseCase(store, listings, usecase.RetryPolicy{Min: 10 * time.Millisecond, Max: 20 * time.Millisecond}), store
}

func listingInit(listingID, title string, b, o entity.Identity) entity.ConversationInit {
	return entity.ConversationInit{
		ListingID: listingID, ListingTitle: title,
		BuyerID: b.UserID, BuyerName: b.DisplayName, BuyerEmail: b.Email,
		OwnerID: o.UserID, OwnerName: o.DisplayName, OwnerEmail: o.Email,
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

// countingService records how often the list subscribes.
type countingService struct {
	*usecase.ChatUseCase
	conversationSubs atomic.Int32
}

func (c *countingService) SubscribeToUserConversations(ctx context.Context, userID string, fn func([]*entity.Conversation)) usecase.Unsubscribe {
	c.conversationSubs.Add(1)
	return c.ChatUseCase.SubscribeToUserConversations(ctx, userID, fn)
}

// gatedService blocks SendMessage until release is closed.
type gatedService struct {
	*usecase.ChatUseCase
	release chan struct{}
	err     error

	mu    sync.Mutex
	sends []usecase.SendMessageInput
}

func (g *gatedService) SendMessage(ctx context.Context, input usecase.SendMessageInput) error {
	g.mu.Lock()
	g.sends = append(g.sends, input)
	g.mu.Unlock()
	<-g.release
	return g.err
}

func (g *gatedService) sendCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sends)
}
