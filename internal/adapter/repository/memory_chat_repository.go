package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"estatechat/internal/domain/entity"
	"estatechat/internal/domain/repository"
	"estatechat/pkg/errors"
)

// MemoryChatRepository is an in-process ChatStore with the same
// create-if-absent, ordering and live-query behavior as the Firestore one.
type MemoryChatRepository struct {
	mu            sync.RWMutex
	conversations map[string]*entity.Conversation
	messages      map[string][]*entity.Message
	watchers      map[*memoryWatcher]struct{}
	offline       error
	now           func() time.Time
	lastStamp     time.Time
}

var _ repository.ChatStore = (*MemoryChatRepository)(nil)

type memoryWatcher struct {
	notify chan struct{}
	match  func(change memoryChange) bool
}

type memoryChange struct {
	conversationID string
	participants   []string
	all            bool
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[string][]*entity.Message),
		watchers:      make(map[*memoryWatcher]struct{}),
		now:           time.Now,
	}
}

// WithClock swaps the time source used for server timestamps.
func (r *MemoryChatRepository) WithClock(now func() time.Time) *MemoryChatRepository {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
	return r
}

// SetOffline makes every operation fail with a connectivity error until
// called again with false. Active listeners end with that error.
func (r *MemoryChatRepository) SetOffline(offline bool) {
	r.mu.Lock()
	if offline {
		r.offline = errors.Unavailable("Chat store unavailable", nil)
	} else {
		r.offline = nil
	}
	r.mu.Unlock()
	r.broadcast(memoryChange{all: true})
}

// ConversationCount reports how many conversation documents exist.
func (r *MemoryChatRepository) ConversationCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conversations)
}

// stamp returns a strictly increasing server timestamp. Callers hold r.mu.
func (r *MemoryChatRepository) stamp() time.Time {
	t := r.now().UTC()
	if !t.After(r.lastStamp) {
		t = r.lastStamp.Add(time.Microsecond)
	}
	r.lastStamp = t
	return t
}

func (r *MemoryChatRepository) GetConversation(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.offline != nil {
		return nil, r.offline
	}
	conv, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return conv.Clone(), nil
}

func (r *MemoryChatRepository) CreateConversation(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, bool, error) {
	r.mu.Lock()
	if r.offline != nil {
		r.mu.Unlock()
		return nil, false, r.offline
	}
	if existing, ok := r.conversations[conv.ID]; ok {
		out := existing.Clone()
		r.mu.Unlock()
		return out, false, nil
	}

	stored := conv.Clone()
	now := r.stamp()
	stored.CreatedAt = now
	stored.LastMessageTime = now
	stored.LastMessage = ""
	r.conversations[stored.ID] = stored
	out := stored.Clone()
	r.mu.Unlock()

	r.broadcast(memoryChange{conversationID: out.ID, participants: out.Participants})
	return out, true, nil
}

func (r *MemoryChatRepository) AppendMessage(ctx context.Context, conversationID string, msg *entity.Message) (*entity.Message, error) {
	r.mu.Lock()
	if r.offline != nil {
		r.mu.Unlock()
		return nil, r.offline
	}
	stored := &entity.Message{
		ID:         uuid.New().String(),
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Message:    msg.Message,
		Timestamp:  r.stamp(),
		Read:       false,
	}
	r.messages[conversationID] = append(r.messages[conversationID], stored)
	out := stored.Clone()
	r.mu.Unlock()

	r.broadcast(memoryChange{conversationID: conversationID})
	return out, nil
}

func (r *MemoryChatRepository) RecordMessage(ctx context.Context, conversationID, body, recipientID string) error {
	r.mu.Lock()
	if r.offline != nil {
		r.mu.Unlock()
		return r.offline
	}
	conv, ok := r.conversations[conversationID]
	if !ok {
		r.mu.Unlock()
		return errors.NotFound("Conversation", nil)
	}
	conv.LastMessage = body
	conv.LastMessageTime = r.stamp()
	if conv.UnreadCount == nil {
		conv.UnreadCount = make(map[string]int)
	}
	conv.UnreadCount[recipientID]++
	participants := append([]string(nil), conv.Participants...)
	r.mu.Unlock()

	r.broadcast(memoryChange{conversationID: conversationID, participants: participants})
	return nil
}

func (r *MemoryChatRepository) ResetUnread(ctx context.Context, conversationID, userID string) error {
	r.mu.Lock()
	if r.offline != nil {
		r.mu.Unlock()
		return r.offline
	}
	conv, ok := r.conversations[conversationID]
	if !ok {
		r.mu.Unlock()
		return errors.NotFound("Conversation", nil)
	}
	if count, present := conv.UnreadCount[userID]; present && count == 0 {
		r.mu.Unlock()
		return nil
	}
	if conv.UnreadCount == nil {
		conv.UnreadCount = make(map[string]int)
	}
	conv.UnreadCount[userID] = 0
	participants := append([]string(nil), conv.Participants...)
	r.mu.Unlock()

	r.broadcast(memoryChange{conversationID: conversationID, participants: participants})
	return nil
}

func (r *MemoryChatRepository) ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.offline != nil {
		return nil, r.offline
	}
	stored := r.messages[conversationID]
	out := make([]*entity.Message, 0, len(stored))
	for _, msg := range stored {
		out = append(out, msg.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (r *MemoryChatRepository) ListUserConversations(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.offline != nil {
		return nil, r.offline
	}
	out := make([]*entity.Conversation, 0)
	for _, conv := range r.conversations {
		if contains(conv.Participants, userID) {
			out = append(out, conv.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastMessageTime.Equal(out[j].LastMessageTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].LastMessageTime.After(out[j].LastMessageTime)
	})
	return out, nil
}

func (r *MemoryChatRepository) ListenMessages(ctx context.Context, conversationID string, fn func([]*entity.Message)) error {
	return r.listen(ctx,
		func(c memoryChange) bool { return c.conversationID == conversationID },
		func() error {
			messages, err := r.ListMessages(ctx, conversationID)
			if err != nil {
				return err
			}
			fn(messages)
			return nil
		})
}

func (r *MemoryChatRepository) ListenUserConversations(ctx context.Context, userID string, fn func([]*entity.Conversation)) error {
	return r.listen(ctx,
		func(c memoryChange) bool { return contains(c.participants, userID) },
		func() error {
			conversations, err := r.ListUserConversations(ctx, userID)
			if err != nil {
				return err
			}
			fn(conversations)
			return nil
		})
}

// listen registers the watcher before the first read so no change between
// the initial snapshot and the wait is lost. Bursts coalesce into one
// snapshot of the latest state.
func (r *MemoryChatRepository) listen(ctx context.Context, match func(memoryChange) bool, emit func() error) error {
	w := &memoryWatcher{notify: make(chan struct{}, 1), match: match}
	r.mu.Lock()
	r.watchers[w] = struct{}{}
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.watchers, w)
		r.mu.Unlock()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.notify:
		}
	}
}

func (r *MemoryChatRepository) broadcast(change memoryChange) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for w := range r.watchers {
		if !change.all && !w.match(change) {
			continue
		}
		select {
		case w.notify <- struct{}{}:
		default:
		}
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
