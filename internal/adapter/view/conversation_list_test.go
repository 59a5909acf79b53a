package view

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatechat/internal/domain/entity"
	"estatechat/internal/usecase"
	"estatechat/pkg/errors"
)

func TestConversationListShowsCounterpartAndOwnUnread(t *testing.T) {
	uc, _ := newService(t)
	ctx := context.Background()

	init := listingInit("p1", "3BHK Sea View", buyer, owner)
	require.NoError(t, uc.SendMessage(ctx, usecase.SendMessageInput{
		ConversationID: init.ConversationID(), SenderID: buyer.UserID, SenderName: buyer.DisplayName, Body: "hello", Init: &init,
	}))

	list := NewConversationList(uc, nil)
	list.SetUser(ctx, owner.UserID)
	defer list.Close()

	eventually(t, func() bool { return len(list.State(time.Now()).Items) == 1 })

	item := list.State(time.Now()).Items[0]
	assert.Equal(t, "p1_u1_u2", item.ID)
	assert.Equal(t, "Asha", item.Other.Name)
	assert.Equal(t, entity.RoleOwner, item.Role)
	assert.Equal(t, 1, item.Unread)
	assert.Equal(t, "hello", item.LastMessage)
	assert.Equal(t, "Just now", item.LastActive)

	buyerList := NewConversationList(uc, nil)
	buyerList.SetUser(ctx, buyer.UserID)
	defer buyerList.Close()
	eventually(t, func() bool { return len(buyerList.State(time.Now()).Items) == 1 })
	assert.Equal(t, 0, buyerList.State(time.Now()).Items[0].Unread)
	assert.Equal(t, "Ravi", buyerList.State(time.Now()).Items[0].Other.Name)
}

func TestConversationListFilterDoesNotResubscribe(t *testing.T) {
	uc, _ := newService(t)
	ctx := context.Background()
	svc := &countingService{ChatUseCase: uc}

	_, err := uc.CreateOrGetConversation(ctx, listingInit("p1", "Mine", entity.Identity{UserID: "b1", DisplayName: "Kiran"}, owner))
	require.NoError(t, err)
	_, err = uc.CreateOrGetConversation(ctx, listingInit("p2", "Studio", owner, entity.Identity{UserID: "u3", DisplayName: "Meera"}))
	require.NoError(t, err)

	list := NewConversationList(svc, nil)
	list.SetUser(ctx, owner.UserID)
	defer list.Close()
	eventually(t, func() bool { return len(list.State(time.Now()).Items) == 2 })

	list.SetFilter(FilterBuyers)
	state := list.State(time.Now())
	require.Len(t, state.Items, 1)
	assert.Equal(t, "p1", state.Items[0].ListingID)

	list.SetFilter(FilterSellers)
	state = list.State(time.Now())
	require.Len(t, state.Items, 1)
	assert.Equal(t, "p2", state.Items[0].ListingID)

	assert.Equal(t, int32(1), svc.conversationSubs.Load())

	list.SetUser(ctx, owner.UserID)
	assert.Equal(t, int32(1), svc.conversationSubs.Load())
}

func TestConversationListEmptyStates(t *testing.T) {
	uc, _ := newService(t)
	ctx := context.Background()

	list := NewConversationList(uc, nil)
	list.SetUser(ctx, buyer.UserID)
	defer list.Close()

	eventually(t, func() bool { return !list.State(time.Now()).Loading })
	assert.Equal(t, EmptyNoConversations, list.State(time.Now()).Empty)

	_, err := uc.CreateOrGetConversation(ctx, listingInit("p1", "3BHK", buyer, owner))
	require.NoError(t, err)
	eventually(t, func() bool { return len(list.State(time.Now()).Items) == 1 })

	list.SetFilter(FilterBuyers)
	state := list.State(time.Now())
	assert.Empty(t, state.Items)
	assert.Equal(t, EmptyNoMatches, state.Empty)
}

func TestConversationListSelectInvokesCallback(t *testing.T) {
	uc, _ := newService(t)
	ctx := context.Background()
	_, err := uc.CreateOrGetConversation(ctx, listingInit("p1", "3BHK", buyer, owner))
	require.NoError(t, err)

	var selected *entity.Conversation
	list := NewConversationList(uc, func(c *entity.Conversation) { selected = c })
	list.SetUser(ctx, buyer.UserID)
	defer list.Close()
	eventually(t, func() bool { return len(list.State(time.Now()).Items) == 1 })

	require.NoError(t, list.Select("p1_u1_u2"))
	require.NotNil(t, selected)
	assert.Equal(t, "3BHK", selected.ListingTitle)

	err = list.Select("unknown")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestConversationListSwitchUser(t *testing.T) {
	uc, _ := newService(t)
	ctx := context.Background()
	_, err := uc.CreateOrGetConversation(ctx, listingInit("p1", "3BHK", buyer, owner))
	require.NoError(t, err)

	list := NewConversationList(uc, nil)
	list.SetUser(ctx, buyer.UserID)
	defer list.Close()
	eventually(t, func() bool { return len(list.State(time.Now()).Items) == 1 })

	list.SetUser(ctx, "stranger")
	eventually(t, func() bool {
		s := list.State(time.Now())
		return !s.Loading && len(s.Items) == 0
	})
}
