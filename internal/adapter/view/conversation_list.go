package view

import (
	"context"
	"sync"
	"time"

	"estatechat/internal/domain/entity"
	"estatechat/internal/usecase"
	"estatechat/pkg/errors"
)

const (
	EmptyNoConversations = "No conversations yet"
	EmptyNoMatches       = "No conversations in this category"
)

// ConversationList keeps the viewer's live conversation list and the
// active role filter. Changing the filter never resubscribes.
type ConversationList struct {
	chats    ChatService
	onSelect func(*entity.Conversation)

	mu            sync.Mutex
	onChange      func()
	userID        string
	generation    int
	filter        Filter
	conversations []*entity.Conversation
	loaded        bool
	unsubscribe   usecase.Unsubscribe
}

type ConversationListState struct {
	Filter      Filter             `json:"filter"`
	Tabs        []FilterTab        `json:"tabs"`
	Loading     bool               `json:"loading"`
	Items       []ConversationItem `json:"items"`
	Empty       string             `json:"empty,omitempty"`
	TotalUnread int                `json:"total_unread"`
}

type FilterTab struct {
	Filter Filter `json:"filter"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
	Active bool   `json:"active"`
}

type ConversationItem struct {
	ID           string             `json:"id"`
	ListingID    string             `json:"listing_id"`
	ListingTitle string             `json:"listing_title"`
	ListingImage string             `json:"listing_image,omitempty"`
	Other        entity.Participant `json:"other"`
	Role         entity.Role        `json:"role"`
	LastMessage  string             `json:"last_message"`
	LastActive   string             `json:"last_active"`
	Unread       int                `json:"unread"`
}

func NewConversationList(chats ChatService, onSelect func(*entity.Conversation)) *ConversationList {
	return &ConversationList{
		chats:    chats,
		onSelect: onSelect,
		filter:   FilterAll,
	}
}

func (l *ConversationList) OnChange(fn func()) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

// SetUser points the list at userID, replacing any previous subscription.
func (l *ConversationList) SetUser(ctx context.Context, userID string) {
	l.mu.Lock()
	if userID == l.userID && l.unsubscribe != nil {
		l.mu.Unlock()
		return
	}
	previous := l.unsubscribe
	l.unsubscribe = nil
	l.userID = userID
	l.generation++
	generation := l.generation
	l.conversations = nil
	l.loaded = false
	l.mu.Unlock()

	if previous != nil {
		previous()
	}
	if userID != "" {
		unsubscribe := l.chats.SubscribeToUserConversations(ctx, userID, func(conversations []*entity.Conversation) {
			l.apply(generation, conversations)
		})
		l.mu.Lock()
		if l.generation == generation {
			l.unsubscribe = unsubscribe
			unsubscribe = nil
		}
		l.mu.Unlock()
		if unsubscribe != nil {
			unsubscribe()
		}
	}
	l.notify()
}

func (l *ConversationList) apply(generation int, conversations []*entity.Conversation) {
	l.mu.Lock()
	if generation != l.generation {
		l.mu.Unlock()
		return
	}
	l.conversations = conversations
	l.loaded = true
	l.mu.Unlock()
	l.notify()
}

// Close drops the subscription.
func (l *ConversationList) Close() {
	l.mu.Lock()
	unsubscribe := l.unsubscribe
	l.unsubscribe = nil
	l.generation++
	l.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (l *ConversationList) SetFilter(f Filter) {
	l.mu.Lock()
	changed := l.filter != f
	l.filter = f
	l.mu.Unlock()
	if changed {
		l.notify()
	}
}

// Select hands the loaded record for id to the selection callback.
func (l *ConversationList) Select(id string) error {
	l.mu.Lock()
	var selected *entity.Conversation
	for _, conv := range l.conversations {
		if conv.ID == id {
			selected = conv.Clone()
			break
		}
	}
	l.mu.Unlock()

	if selected == nil {
		return errors.NotFound("Conversation", nil)
	}
	if l.onSelect != nil {
		l.onSelect(selected)
	}
	return nil
}

// State renders the list as seen at now. Relative times are recomputed on
// every call.
func (l *ConversationList) State(now time.Time) ConversationListState {
	l.mu.Lock()
	defer l.mu.Unlock()

	state := ConversationListState{
		Filter:  l.filter,
		Loading: !l.loaded && l.userID != "",
		Items:   []ConversationItem{},
	}
	for _, tab := range filterLabels {
		state.Tabs = append(state.Tabs, FilterTab{
			Filter: tab.filter,
			Label:  tab.label,
			Count:  len(FilterConversations(l.conversations, l.userID, tab.filter)),
			Active: tab.filter == l.filter,
		})
	}

	for _, conv := range l.conversations {
		state.TotalUnread += conv.UnreadFor(l.userID)
	}

	for _, conv := range FilterConversations(l.conversations, l.userID, l.filter) {
		state.Items = append(state.Items, ConversationItem{
			ID:           conv.ID,
			ListingID:    conv.ListingID,
			ListingTitle: conv.ListingTitle,
			ListingImage: conv.ListingImage,
			Other:        conv.Counterpart(l.userID),
			Role:         conv.RoleOf(l.userID),
			LastMessage:  conv.LastMessage,
			LastActive:   RelativeTime(conv.LastMessageTime, now),
			Unread:       conv.UnreadFor(l.userID),
		})
	}

	if !state.Loading && len(state.Items) == 0 {
		if len(l.conversations) == 0 {
			state.Empty = EmptyNoConversations
		} else {
			state.Empty = EmptyNoMatches
		}
	}
	return state
}

func (l *ConversationList) notify() {
	l.mu.Lock()
	fn := l.onChange
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
}
