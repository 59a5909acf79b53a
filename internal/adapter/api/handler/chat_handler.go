package handler

import (
	"github.com/labstack/echo/v4"

	"estatechat/internal/adapter/api/middleware"
	"estatechat/internal/adapter/view"
	"estatechat/internal/domain/entity"
	"estatechat/internal/usecase"
	"estatechat/pkg/errors"
	"estatechat/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

// The caller is always the buyer of a conversation they create.
type createChatRequest struct {
	ListingID    string `json:"listing_id" validate:"required"`
	ListingTitle string `json:"listing_title" validate:"max=200"`
	ListingImage string `json:"listing_image" validate:"omitempty,url"`
	OwnerID      string `json:"owner_id" validate:"required"`
	OwnerName    string `json:"owner_name"`
	OwnerEmail   string `json:"owner_email" validate:"omitempty,email"`
}

func (r createChatRequest) init(buyer entity.Identity) entity.ConversationInit {
	return entity.ConversationInit{
		ListingID:    r.ListingID,
		ListingTitle: r.ListingTitle,
		ListingImage: r.ListingImage,
		BuyerID:      buyer.UserID,
		BuyerName:    buyer.DisplayName,
		BuyerEmail:   buyer.Email,
		OwnerID:      r.OwnerID,
		OwnerName:    r.OwnerName,
		OwnerEmail:   r.OwnerEmail,
	}
}

type sendMessageRequest struct {
	Message string             `json:"message" validate:"required,max=2000"`
	Init    *createChatRequest `json:"init,omitempty"`
}

type markReadResponse struct {
	ConversationID string `json:"conversation_id"`
	Unread         int    `json:"unread"`
}

// CreateChat creates the caller's conversation about a listing, or returns
// the existing one unchanged.
func (h *ChatHandler) CreateChat(c echo.Context) error {
	identity, err := middleware.CurrentIdentity(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}
	if req.OwnerID == identity.UserID {
		return response.Error(c, errors.BadRequest("You cannot start a chat on your own listing", nil))
	}

	conv, err := h.chatUseCase.CreateOrGetConversation(c.Request().Context(), req.init(identity))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, conv)
}

// StartListingChat opens the caller's conversation about the listing in the
// path, resolving the owner from the listing record.
func (h *ChatHandler) StartListingChat(c echo.Context) error {
	identity, err := middleware.CurrentIdentity(c)
	if err != nil {
		return response.Error(c, err)
	}

	conv, err := h.chatUseCase.StartListingChat(c.Request().Context(), identity, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, conv)
}

// GetUserChats lists the caller's conversations, newest activity first.
func (h *ChatHandler) GetUserChats(c echo.Context) error {
	identity, err := middleware.CurrentIdentity(c)
	if err != nil {
		return response.Error(c, err)
	}

	filter, ok := view.ParseFilter(c.QueryParam("filter"))
	if !ok {
		return response.Error(c, errors.BadRequest("filter must be one of: all buyers sellers", nil))
	}

	conversations, err := h.chatUseCase.ListUserConversations(c.Request().Context(), identity.UserID)
	if err != nil {
		return response.Error(c, err)
	}

	items := view.FilterConversations(conversations, identity.UserID, filter)
	return response.List(c, items, len(items))
}

func (h *ChatHandler) GetChatByID(c echo.Context) error {
	identity, err := middleware.CurrentIdentity(c)
	if err != nil {
		return response.Error(c, err)
	}

	conv, err := h.chatUseCase.GetConversation(c.Request().Context(), identity.UserID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, conv)
}

func (h *ChatHandler) GetChatMessages(c echo.Context) error {
	identity, err := middleware.CurrentIdentity(c)
	if err != nil {
		return response.Error(c, err)
	}

	messages, err := h.chatUseCase.ListMessages(c.Request().Context(), identity.UserID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.List(c, messages, len(messages))
}

// SendMessage posts a message as the caller. A buyer's first message may
// carry init to create the conversation with it.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	identity, err := middleware.CurrentIdentity(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}
	body, ok := usecase.TrimBody(req.Message)
	if !ok {
		return response.Error(c, errors.BadRequest("message is required", nil))
	}

	input := usecase.SendMessageInput{
		ConversationID: c.Param("id"),
		SenderID:       identity.UserID,
		SenderName:     identity.DisplayName,
		Body:           body,
	}
	if req.Init != nil {
		if err := c.Validate(req.Init); err != nil {
			return response.Error(c, err)
		}
		init := req.Init.init(identity)
		input.Init = &init
	}

	ctx := c.Request().Context()
	if err := h.chatUseCase.SendMessage(ctx, input); err != nil {
		return response.Error(c, err)
	}

	conv, err := h.chatUseCase.GetConversation(ctx, identity.UserID, input.ConversationID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, conv)
}

func (h *ChatHandler) MarkChatAsRead(c echo.Context) error {
	identity, err := middleware.CurrentIdentity(c)
	if err != nil {
		return response.Error(c, err)
	}

	id := c.Param("id")
	if err := h.chatUseCase.MarkAsRead(c.Request().Context(), id, identity.UserID); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, markReadResponse{ConversationID: id, Unread: 0})
}
