package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"estatechat/internal/domain/entity"
	"estatechat/internal/domain/repository"
	"estatechat/pkg/errors"
	"estatechat/pkg/logger"
)

const messagesCollection = "messages"

type firestoreChatRepository struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreChatRepository(client *firestore.Client, collection string) repository.ChatStore {
	if collection == "" {
		collection = "chats"
	}
	return &firestoreChatRepository{
		client:     client,
		collection: collection,
	}
}

func (r *firestoreChatRepository) chats() *firestore.CollectionRef {
	return r.client.Collection(r.collection)
}

func (r *firestoreChatRepository) messages(conversationID string) *firestore.CollectionRef {
	return r.chats().Doc(conversationID).Collection(messagesCollection)
}

func (r *firestoreChatRepository) GetConversation(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.chats().Doc(id).Get(ctx)
	if err != nil {
		return nil, storeError("get conversation", "Conversation", err)
	}
	return decodeConversation(doc)
}

func (r *firestoreChatRepository) CreateConversation(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, bool, error) {
	ref := r.chats().Doc(conv.ID)

	// Create fails with AlreadyExists when another writer got there first,
	// so the first snapshot is never overwritten.
	_, err := ref.Create(ctx, map[string]interface{}{
		"id":              conv.ID,
		"listingId":       conv.ListingID,
		"listingTitle":    conv.ListingTitle,
		"listingImage":    conv.ListingImage,
		"buyerId":         conv.BuyerID,
		"buyerName":       conv.BuyerName,
		"buyerEmail":      conv.BuyerEmail,
		"ownerId":         conv.OwnerID,
		"ownerName":       conv.OwnerName,
		"ownerEmail":      conv.OwnerEmail,
		"participants":    conv.Participants,
		"lastMessage":     "",
		"lastMessageTime": firestore.ServerTimestamp,
		"createdAt":       firestore.ServerTimestamp,
		"unreadCount":     conv.UnreadCount,
	})
	created := true
	if err != nil {
		if status.Code(err) != codes.AlreadyExists {
			return nil, false, storeError("create conversation", "Conversation", err)
		}
		logger.Debug("conversation already exists", "conversation_id", conv.ID)
		created = false
	}

	stored, err := r.GetConversation(ctx, conv.ID)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

func (r *firestoreChatRepository) AppendMessage(ctx context.Context, conversationID string, msg *entity.Message) (*entity.Message, error) {
	ref := r.messages(conversationID).NewDoc()
	_, err := ref.Create(ctx, map[string]interface{}{
		"senderId":   msg.SenderID,
		"senderName": msg.SenderName,
		"message":    msg.Message,
		"timestamp":  firestore.ServerTimestamp,
		"read":       false,
	})
	if err != nil {
		return nil, storeError("append message", "Message", err)
	}

	doc, err := ref.Get(ctx)
	if err != nil {
		return nil, storeError("read appended message", "Message", err)
	}
	return decodeMessage(doc)
}

func (r *firestoreChatRepository) RecordMessage(ctx context.Context, conversationID, body, recipientID string) error {
	_, err := r.chats().Doc(conversationID).Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: body},
		{Path: "lastMessageTime", Value: firestore.ServerTimestamp},
		{FieldPath: firestore.FieldPath{"unreadCount", recipientID}, Value: firestore.Increment(1)},
	})
	if err != nil {
		return storeError("update conversation summary", "Conversation", err)
	}
	return nil
}

func (r *firestoreChatRepository) ResetUnread(ctx context.Context, conversationID, userID string) error {
	_, err := r.chats().Doc(conversationID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"unreadCount", userID}, Value: 0},
	})
	if err != nil {
		return storeError("reset unread count", "Conversation", err)
	}
	return nil
}

func (r *firestoreChatRepository) messagesQuery(conversationID string) firestore.Query {
	return r.messages(conversationID).OrderBy("timestamp", firestore.Asc)
}

func (r *firestoreChatRepository) userConversationsQuery(userID string) firestore.Query {
	return r.chats().
		Where("participants", "array-contains", userID).
		OrderBy("lastMessageTime", firestore.Desc)
}

func (r *firestoreChatRepository) ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	return collectMessages(r.messagesQuery(conversationID).Documents(ctx))
}

func (r *firestoreChatRepository) ListUserConversations(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	return collectConversations(r.userConversationsQuery(userID).Documents(ctx))
}

func (r *firestoreChatRepository) ListenMessages(ctx context.Context, conversationID string, fn func([]*entity.Message)) error {
	return listen(ctx, r.messagesQuery(conversationID), collectMessages, fn)
}

func (r *firestoreChatRepository) ListenUserConversations(ctx context.Context, userID string, fn func([]*entity.Conversation)) error {
	return listen(ctx, r.userConversationsQuery(userID), collectConversations, fn)
}

func listen[T any](ctx context.Context, q firestore.Query, collect func(*firestore.DocumentIterator) ([]T, error), fn func([]T)) error {
	it := q.Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return storeError("listen", "Snapshot", err)
		}

		items, err := collect(snap.Documents)
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fn(items)
	}
}

func collectMessages(iter *firestore.DocumentIterator) ([]*entity.Message, error) {
	defer iter.Stop()

	messages := make([]*entity.Message, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeError("iterate messages", "Message", err)
		}
		msg, err := decodeMessage(doc)
		if err != nil {
			logger.Warn("skipping malformed message", "path", doc.Ref.Path, "error", err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func collectConversations(iter *firestore.DocumentIterator) ([]*entity.Conversation, error) {
	defer iter.Stop()

	conversations := make([]*entity.Conversation, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeError("iterate conversations", "Conversation", err)
		}
		conv, err := decodeConversation(doc)
		if err != nil {
			logger.Warn("skipping malformed conversation", "conversation_id", doc.Ref.ID, "error", err)
			continue
		}
		conversations = append(conversations, conv)
	}
	return conversations, nil
}

func decodeConversation(doc *firestore.DocumentSnapshot) (*entity.Conversation, error) {
	var conv entity.Conversation
	if err := doc.DataTo(&conv); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	conv.ID = doc.Ref.ID
	if conv.UnreadCount == nil {
		conv.UnreadCount = make(map[string]int)
	}
	return &conv, nil
}

func decodeMessage(doc *firestore.DocumentSnapshot) (*entity.Message, error) {
	var msg entity.Message
	if err := doc.DataTo(&msg); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	msg.ID = doc.Ref.ID
	return &msg, nil
}

// storeError maps Firestore gRPC codes onto the application error taxonomy.
func storeError(action, resource string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return errors.NotFound(resource, err)
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted:
		return errors.Unavailable("Chat store unavailable", err)
	case codes.PermissionDenied:
		return errors.Forbidden("Chat store denied access", err)
	}
	return errors.Internal("Failed to "+action, err)
}
