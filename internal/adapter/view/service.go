package view

import (
	"context"

	"estatechat/internal/domain/entity"
	"estatechat/internal/usecase"
)

// ChatService is the part of the chat use case the views drive.
type ChatService interface {
	SubscribeToUserConversations(ctx context.Context, userID string, onUpdate func([]*entity.Conversation)) usecase.Unsubscribe
	SubscribeToMessages(ctx context.Context, conversationID string, onUpdate func([]*entity.Message)) usecase.Unsubscribe
	SendMessage(ctx context.Context, input usecase.SendMessageInput) error
	MarkAsRead(ctx context.Context, conversationID, userID string) error
	StartListingChat(ctx context.Context, buyer entity.Identity, listingID string) (*entity.Conversation, error)
}

var _ ChatService = (*usecase.ChatUseCase)(nil)
