package repository

import (
	"context"

	"estatechat/internal/domain/entity"
)

// ChatStore is the backing real-time document store for conversations.
//
// Listen methods block, invoking fn with the full current result on every
// change (the first call carries the initial snapshot). They return
// ctx.Err() once ctx is cancelled, or the store error that ended the stream.
type ChatStore interface {
	GetConversation(ctx context.Context, id string) (*entity.Conversation, error)
	// CreateConversation writes conv only if no document with conv.ID exists.
	// It always returns the stored document; created reports whether this
	// call was the writer.
	CreateConversation(ctx context.Context, conv *entity.Conversation) (stored *entity.Conversation, created bool, err error)
	AppendMessage(ctx context.Context, conversationID string, msg *entity.Message) (*entity.Message, error)
	// RecordMessage refreshes the summary after a message was appended and
	// increments recipientID's unread counter by one.
	RecordMessage(ctx context.Context, conversationID, body, recipientID string) error
	ResetUnread(ctx context.Context, conversationID, userID string) error

	ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error)
	ListUserConversations(ctx context.Context, userID string) ([]*entity.Conversation, error)

	ListenMessages(ctx context.Context, conversationID string, fn func([]*entity.Message)) error
	ListenUserConversations(ctx context.Context, userID string, fn func([]*entity.Conversation)) error
}
