package usecase

import (
	"context"
	"strings"
	"time"

	"estatechat/internal/domain/entity"
	"estatechat/internal/domain/repository"
	"estatechat/pkg/errors"
	"estatechat/pkg/logger"
)

type ChatUseCase struct {
	store    repository.ChatStore
	listings repository.ListingRepository
	retry    RetryPolicy
}

// RetryPolicy bounds the delay between resubscription attempts.
type RetryPolicy struct {
	Min time.Duration
	Max time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Min: 500 * time.Millisecond, Max: 30 * time.Second}
}

func NewChatUseCase(store repository.ChatStore, listings repository.ListingRepository, retry RetryPolicy) *ChatUseCase {
	if retry.Min <= 0 {
		retry = DefaultRetryPolicy()
	}
	if retry.Max < retry.Min {
		retry.Max = retry.Min
	}
	return &ChatUseCase{
		store:    store,
		listings: listings,
		retry:    retry,
	}
}

type SendMessageInput struct {
	ConversationID string
	SenderID       string
	SenderName     string
	Body           string
	// Init creates the conversation when it does not exist yet.
	Init *entity.ConversationInit
}

// CreateOrGetConversation returns the stored conversation for the triple,
// creating it when absent. An existing document is never overwritten.
func (uc *ChatUseCase) CreateOrGetConversation(ctx context.Context, init entity.ConversationInit) (*entity.Conversation, error) {
	if init.ListingID == "" || init.BuyerID == "" || init.OwnerID == "" {
		return nil, errors.BadRequest("listing, buyer and owner ids are required", nil)
	}
	if init.BuyerID == init.OwnerID {
		return nil, errors.BadRequest("You cannot start a chat on your own listing", nil)
	}

	id := init.ConversationID()
	existing, err := uc.store.GetConversation(ctx, id)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, errors.CodeNotFound) {
		logger.Error("CreateOrGetConversation: lookup failed", "conversation_id", id, "error", err)
		return nil, err
	}

	stored, created, err := uc.store.CreateConversation(ctx, init.NewConversation())
	if err != nil {
		logger.Error("CreateOrGetConversation: create failed", "conversation_id", id, "error", err)
		return nil, err
	}
	if created {
		logger.Info("conversation created", "conversation_id", id, "listing_id", init.ListingID)
	}
	return stored, nil
}

// StartListingChat opens (or reopens) the buyer's conversation about a listing.
func (uc *ChatUseCase) StartListingChat(ctx context.Context, buyer entity.Identity, listingID string) (*entity.Conversation, error) {
	if uc.listings == nil {
		return nil, errors.Internal("Listing provider not configured", nil)
	}
	listing, err := uc.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID == buyer.UserID {
		return nil, errors.BadRequest("You cannot start a chat on your own listing", nil)
	}

	return uc.CreateOrGetConversation(ctx, entity.ConversationInit{
		ListingID:    listing.ID,
		ListingTitle: listing.Title,
		ListingImage: listing.CoverImage(),
		BuyerID:      buyer.UserID,
		BuyerName:    buyer.DisplayName,
		BuyerEmail:   buyer.Email,
		OwnerID:      listing.OwnerID,
		OwnerName:    listing.OwnerName,
		OwnerEmail:   listing.OwnerEmail,
	})
}

// SendMessage appends a message and then updates the conversation summary.
// The body must already be trimmed and non-empty.
func (uc *ChatUseCase) SendMessage(ctx context.Context, input SendMessageInput) error {
	conv, err := uc.store.GetConversation(ctx, input.ConversationID)
	switch {
	case err == nil:
	case errors.Is(err, errors.CodeNotFound) && input.Init != nil:
		if input.Init.ConversationID() != input.ConversationID {
			return errors.BadRequest("Conversation id does not match its listing and participants", nil)
		}
		conv, err = uc.CreateOrGetConversation(ctx, *input.Init)
		if err != nil {
			return err
		}
	default:
		if !errors.Is(err, errors.CodeNotFound) {
			logger.Error("SendMessage: lookup failed", "conversation_id", input.ConversationID, "error", err)
		}
		return err
	}

	if !conv.IsParticipant(input.SenderID) {
		return errors.Forbidden("You are not a participant in this conversation", nil)
	}

	msg, err := uc.store.AppendMessage(ctx, conv.ID, &entity.Message{
		SenderID:   input.SenderID,
		SenderName: input.SenderName,
		Message:    input.Body,
	})
	if err != nil {
		logger.Error("SendMessage: append failed", "conversation_id", conv.ID, "error", err)
		return err
	}

	recipient := conv.Counterpart(input.SenderID).ID
	if err := uc.store.RecordMessage(ctx, conv.ID, input.Body, recipient); err != nil {
		logger.Error("SendMessage: summary update failed", "conversation_id", conv.ID, "message_id", msg.ID, "error", err)
		return err
	}
	return nil
}

// MarkAsRead zeroes userID's unread counter. A missing conversation is a
// no-op; only participants may clear their counter.
func (uc *ChatUseCase) MarkAsRead(ctx context.Context, conversationID, userID string) error {
	conv, err := uc.store.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			logger.Debug("MarkAsRead: conversation not found", "conversation_id", conversationID)
			return nil
		}
		logger.Error("MarkAsRead: lookup failed", "conversation_id", conversationID, "user_id", userID, "error", err)
		return err
	}
	if !conv.IsParticipant(userID) {
		return errors.Forbidden("You are not a participant in this conversation", nil)
	}

	err = uc.store.ResetUnread(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			logger.Debug("MarkAsRead: conversation not found", "conversation_id", conversationID)
			return nil
		}
		logger.Error("MarkAsRead failed", "conversation_id", conversationID, "user_id", userID, "error", err)
		return err
	}
	return nil
}

func (uc *ChatUseCase) GetConversation(ctx context.Context, userID, conversationID string) (*entity.Conversation, error) {
	conv, err := uc.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}
	return conv, nil
}

func (uc *ChatUseCase) ListMessages(ctx context.Context, userID, conversationID string) ([]*entity.Message, error) {
	if _, err := uc.GetConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return uc.store.ListMessages(ctx, conversationID)
}

func (uc *ChatUseCase) ListUserConversations(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	return uc.store.ListUserConversations(ctx, userID)
}

// TrimBody normalizes a composed message. ok is false when nothing is left to send.
func TrimBody(body string) (trimmed string, ok bool) {
	trimmed = strings.TrimSpace(body)
	return trimmed, trimmed != ""
}
