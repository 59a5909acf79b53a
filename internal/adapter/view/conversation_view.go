package view

import (
	"context"
	"sync"
	"time"

	"estatechat/internal/domain/entity"
	"estatechat/internal/usecase"
	"estatechat/pkg/errors"
	"estatechat/pkg/logger"
)

const (
	AlertSendFailed     = "Failed to send message. Please try again."
	AlertMarkReadFailed = "Could not update read status."
)

// ConversationView holds one open conversation: its live history and the
// compose box.
type ConversationView struct {
	chats ChatService
	user  entity.Identity
	loc   *time.Location

	mu          sync.Mutex
	onChange    func()
	conv        *entity.Conversation
	generation  int
	messages    []*entity.Message
	loaded      bool
	draft       string
	sending     bool
	alert       string
	unsubscribe usecase.Unsubscribe
}

type ConversationState struct {
	ConversationID string             `json:"conversation_id"`
	ListingID      string             `json:"listing_id"`
	ListingTitle   string             `json:"listing_title"`
	ListingImage   string             `json:"listing_image,omitempty"`
	Other          entity.Participant `json:"other"`
	Role           entity.Role        `json:"role"`
	Loading        bool               `json:"loading"`
	Messages       []MessageItem      `json:"messages"`
	QuickReplies   []string           `json:"quick_replies,omitempty"`
	Draft          string             `json:"draft"`
	CanSend        bool               `json:"can_send"`
	Sending        bool               `json:"sending"`
	Alert          string             `json:"alert,omitempty"`
	// ScrollTo is the newest message id; clients keep it in view.
	ScrollTo string `json:"scroll_to,omitempty"`
}

type MessageItem struct {
	ID         string    `json:"id"`
	SenderName string    `json:"sender_name"`
	Body       string    `json:"body"`
	SentAt     string    `json:"sent_at"`
	Timestamp  time.Time `json:"timestamp"`
	Sent       bool      `json:"sent"`
}

func NewConversationView(chats ChatService, user entity.Identity) *ConversationView {
	return &ConversationView{
		chats: chats,
		user:  user,
		loc:   time.Local,
	}
}

// WithLocation sets the zone message times are rendered in.
func (v *ConversationView) WithLocation(loc *time.Location) *ConversationView {
	v.mu.Lock()
	v.loc = loc
	v.mu.Unlock()
	return v
}

func (v *ConversationView) OnChange(fn func()) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

// Open shows conv. A different conversation id replaces the message
// subscription and clears the compose state; the same id only refreshes the
// record. Participants have their unread count cleared.
func (v *ConversationView) Open(ctx context.Context, conv *entity.Conversation) error {
	v.mu.Lock()
	if v.conv != nil && v.conv.ID == conv.ID && v.unsubscribe != nil {
		v.conv = conv.Clone()
		v.mu.Unlock()
		v.notify()
		return nil
	}
	previous := v.unsubscribe
	v.unsubscribe = nil
	v.conv = conv.Clone()
	v.generation++
	generation := v.generation
	v.messages = nil
	v.loaded = false
	v.draft = ""
	v.alert = ""
	v.sending = false
	v.mu.Unlock()

	if previous != nil {
		previous()
	}

	unsubscribe := v.chats.SubscribeToMessages(ctx, conv.ID, func(messages []*entity.Message) {
		v.apply(generation, messages)
	})
	v.mu.Lock()
	if v.generation == generation {
		v.unsubscribe = unsubscribe
		unsubscribe = nil
	}
	v.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}

	var err error
	if conv.IsParticipant(v.user.UserID) {
		if err = v.chats.MarkAsRead(ctx, conv.ID, v.user.UserID); err != nil {
			logger.Warn("mark as read failed", "conversation_id", conv.ID, "user_id", v.user.UserID, "error", err)
			v.mu.Lock()
			if v.generation == generation {
				v.alert = AlertMarkReadFailed
			}
			v.mu.Unlock()
		}
	}
	v.notify()
	return err
}

func (v *ConversationView) apply(generation int, messages []*entity.Message) {
	v.mu.Lock()
	if generation != v.generation {
		v.mu.Unlock()
		return
	}
	v.messages = messages
	v.loaded = true
	v.mu.Unlock()
	v.notify()
}

// Close drops the message subscription. Stored data is untouched.
func (v *ConversationView) Close() {
	v.mu.Lock()
	unsubscribe := v.unsubscribe
	v.unsubscribe = nil
	v.conv = nil
	v.messages = nil
	v.loaded = false
	v.draft = ""
	v.alert = ""
	v.generation++
	v.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (v *ConversationView) ConversationID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.conv == nil {
		return ""
	}
	return v.conv.ID
}

func (v *ConversationView) SetDraft(draft string) {
	v.mu.Lock()
	v.draft = draft
	v.mu.Unlock()
	v.notify()
}

// PickQuickReply copies a canned question into the compose box without
// sending it.
func (v *ConversationView) PickQuickReply(index int) error {
	if index < 0 || index >= len(QuickReplies) {
		return errors.BadRequest("Unknown quick reply", nil)
	}
	v.SetDraft(QuickReplies[index])
	return nil
}

// Send submits the trimmed draft. It does nothing while the draft is blank
// or another send is in flight. Only non-owners attach the creation
// snapshot, so an owner can never create a conversation by replying.
func (v *ConversationView) Send(ctx context.Context) error {
	v.mu.Lock()
	body, ok := usecase.TrimBody(v.draft)
	if !ok || v.sending || v.conv == nil {
		v.mu.Unlock()
		return nil
	}
	conv := v.conv
	generation := v.generation
	v.sending = true
	v.alert = ""
	v.mu.Unlock()
	v.notify()

	input := usecase.SendMessageInput{
		ConversationID: conv.ID,
		SenderID:       v.user.UserID,
		SenderName:     v.senderName(),
		Body:           body,
	}
	if conv.RoleOf(v.user.UserID) != entity.RoleOwner {
		init := conv.Init()
		input.Init = &init
	}

	err := v.chats.SendMessage(ctx, input)

	v.mu.Lock()
	if generation == v.generation {
		v.sending = false
		if err != nil {
			v.alert = AlertSendFailed
		} else {
			v.draft = ""
		}
	}
	v.mu.Unlock()
	if err != nil {
		logger.Warn("send message failed", "conversation_id", conv.ID, "user_id", v.user.UserID, "error", err)
	}
	v.notify()
	return err
}

func (v *ConversationView) senderName() string {
	if v.user.DisplayName != "" {
		return v.user.DisplayName
	}
	return v.user.Email
}

// State renders the open conversation, or nil when none is open.
func (v *ConversationView) State() *ConversationState {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.conv == nil {
		return nil
	}
	role := v.conv.RoleOf(v.user.UserID)
	state := &ConversationState{
		ConversationID: v.conv.ID,
		ListingID:      v.conv.ListingID,
		ListingTitle:   v.conv.ListingTitle,
		ListingImage:   v.conv.ListingImage,
		Other:          v.conv.Counterpart(v.user.UserID),
		Role:           role,
		Loading:        !v.loaded,
		Messages:       make([]MessageItem, 0, len(v.messages)),
		Draft:          v.draft,
		Sending:        v.sending,
		Alert:          v.alert,
	}
	_, hasBody := usecase.TrimBody(v.draft)
	state.CanSend = hasBody && !v.sending

	for _, msg := range v.messages {
		state.Messages = append(state.Messages, MessageItem{
			ID:         msg.ID,
			SenderName: msg.SenderName,
			Body:       msg.Message,
			SentAt:     MessageTime(msg.Timestamp, v.loc),
			Timestamp:  msg.Timestamp,
			Sent:       msg.SenderID == v.user.UserID,
		})
	}
	if n := len(v.messages); n > 0 {
		state.ScrollTo = v.messages[n-1].ID
	}
	if len(v.messages) == 0 && role == entity.RoleBuyer {
		state.QuickReplies = append([]string(nil), QuickReplies...)
	}
	return state
}

func (v *ConversationView) notify() {
	v.mu.Lock()
	fn := v.onChange
	v.mu.Unlock()
	if fn != nil {
		fn()
	}
}
