package view

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatechat/pkg/errors"
)

func TestShellListingChatEndToEnd(t *testing.T) {
	uc, store := newService(t)
	ctx := context.Background()

	buyerShell := NewShell(ctx, uc, buyer, false)
	defer buyerShell.Close()

	require.NoError(t, buyerShell.OpenListingChat("p1"))
	state := buyerShell.State(time.Now())
	assert.Equal(t, LayoutDetail, state.Layout)
	assert.Nil(t, state.List)
	require.NotNil(t, state.Conversation)
	assert.Equal(t, "p1_u1_u2", state.Conversation.ConversationID)
	assert.Equal(t, "Ravi", state.Conversation.Other.Name)
	assert.Equal(t, 1, store.ConversationCount())

	require.NoError(t, buyerShell.PickQuickReply(0))
	require.NoError(t, buyerShell.Send())

	stored, err := store.GetConversation(ctx, "p1_u1_u2")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"u1": 0, "u2": 1}, stored.UnreadCount)
	assert.Equal(t, "Is this property still available?", stored.LastMessage)
	assert.Equal(t, "3BHK Sea View", stored.ListingTitle)
	assert.Equal(t, "p1.jpg", stored.ListingImage)

	ownerShell := NewShell(ctx, uc, owner, true)
	defer ownerShell.Close()
	eventually(t, func() bool {
		s := ownerShell.State(time.Now())
		return s.List != nil && len(s.List.Items) == 1
	})
	ownerState := ownerShell.State(time.Now())
	assert.Equal(t, LayoutSplit, ownerState.Layout)
	assert.Equal(t, 1, ownerState.List.Items[0].Unread)
	assert.Equal(t, 1, ownerState.List.TotalUnread)

	require.NoError(t, ownerShell.SelectConversation("p1_u1_u2"))
	stored, err = store.GetConversation(ctx, "p1_u1_u2")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.UnreadCount["u2"])

	eventually(t, func() bool {
		s := ownerShell.State(time.Now())
		return s.Conversation != nil && len(s.Conversation.Messages) == 1 && s.List.TotalUnread == 0
	})
	assert.Nil(t, ownerShell.State(time.Now()).Conversation.QuickReplies)

	require.NoError(t, ownerShell.SetDraft("Yes, it is."))
	require.NoError(t, ownerShell.Send())

	eventually(t, func() bool {
		s := buyerShell.State(time.Now())
		return s.Conversation != nil && len(s.Conversation.Messages) == 2
	})
	msgs := buyerShell.State(time.Now()).Conversation.Messages
	assert.True(t, msgs[0].Sent)
	assert.False(t, msgs[1].Sent)
	assert.Equal(t, "Yes, it is.", msgs[1].Body)

	stored, err = store.GetConversation(ctx, "p1_u1_u2")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UnreadCount["u1"])
}

func TestShellLayouts(t *testing.T) {
	uc, _ := newService(t)
	ctx := context.Background()

	shell := NewShell(ctx, uc, buyer, false)
	defer shell.Close()
	assert.Equal(t, LayoutList, shell.State(time.Now()).Layout)

	require.NoError(t, shell.OpenListingChat("p1"))
	assert.Equal(t, LayoutDetail, shell.State(time.Now()).Layout)

	shell.SetWide(true)
	state := shell.State(time.Now())
	assert.Equal(t, LayoutSplit, state.Layout)
	assert.NotNil(t, state.List)
	assert.NotNil(t, state.Conversation)

	shell.SetWide(false)
	shell.CloseConversation()
	state = shell.State(time.Now())
	assert.Equal(t, LayoutList, state.Layout)
	assert.Nil(t, state.Conversation)
}

func TestShellRejectsComposeWithoutConversation(t *testing.T) {
	uc, _ := newService(t)
	shell := NewShell(context.Background(), uc, buyer, false)
	defer shell.Close()

	assert.True(t, errors.Is(shell.SetDraft("hi"), errors.CodeBadRequest))
	assert.True(t, errors.Is(shell.PickQuickReply(0), errors.CodeBadRequest))
	assert.True(t, errors.Is(shell.Send(), errors.CodeBadRequest))
}

func TestShellOwnListingIsRejected(t *testing.T) {
	uc, store := newService(t)
	shell := NewShell(context.Background(), uc, owner, false)
	defer shell.Close()

	err := shell.OpenListingChat("p1")
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
	assert.Nil(t, shell.State(time.Now()).Conversation)
	assert.Equal(t, 0, store.ConversationCount())
}

func TestShellNotifiesOnChange(t *testing.T) {
	uc, _ := newService(t)
	shell := NewShell(context.Background(), uc, buyer, false)
	defer shell.Close()

	changes := make(chan struct{}, 64)
	shell.OnChange(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	shell.SetFilter(FilterSellers)

	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("no change notification")
	}
}
