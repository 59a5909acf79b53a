package view

import (
	"context"
	"sync"
	"time"

	"estatechat/internal/domain/entity"
	"estatechat/pkg/errors"
)

type Layout string

const (
	LayoutList   Layout = "list"
	LayoutDetail Layout = "detail"
	LayoutSplit  Layout = "split"
)

// Shell composes the conversation list and the open conversation for one
// viewer and owns which conversation is selected.
type Shell struct {
	ctx   context.Context
	chats ChatService
	user  entity.Identity
	list  *ConversationList
	view  *ConversationView

	mu       sync.Mutex
	onChange func()
	wide     bool
}

type ShellState struct {
	Layout       Layout                 `json:"layout"`
	User         entity.Identity        `json:"user"`
	List         *ConversationListState `json:"list,omitempty"`
	Conversation *ConversationState     `json:"conversation,omitempty"`
}

// NewShell mounts the list for user. ctx bounds every subscription the shell
// opens.
func NewShell(ctx context.Context, chats ChatService, user entity.Identity, wide bool) *Shell {
	s := &Shell{
		ctx:   ctx,
		chats: chats,
		user:  user,
		wide:  wide,
		view:  NewConversationView(chats, user),
	}
	s.list = NewConversationList(chats, s.open)
	s.list.OnChange(s.notify)
	s.view.OnChange(s.notify)
	s.list.SetUser(ctx, user.UserID)
	return s
}

func (s *Shell) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Shell) SetWide(wide bool) {
	s.mu.Lock()
	s.wide = wide
	s.mu.Unlock()
	s.notify()
}

func (s *Shell) SetFilter(f Filter) {
	s.list.SetFilter(f)
}

func (s *Shell) SelectConversation(id string) error {
	return s.list.Select(id)
}

// OpenListingChat opens the viewer's conversation about listingID as a buyer.
func (s *Shell) OpenListingChat(listingID string) error {
	conv, err := s.chats.StartListingChat(s.ctx, s.user, listingID)
	if err != nil {
		return err
	}
	return s.view.Open(s.ctx, conv)
}

func (s *Shell) open(conv *entity.Conversation) {
	// Read-status failures already surface as the view's alert.
	_ = s.view.Open(s.ctx, conv)
}

// CloseConversation clears the selection.
func (s *Shell) CloseConversation() {
	s.view.Close()
	s.notify()
}

func (s *Shell) SetDraft(draft string) error {
	if s.view.ConversationID() == "" {
		return errNoConversation()
	}
	s.view.SetDraft(draft)
	return nil
}

func (s *Shell) PickQuickReply(index int) error {
	if s.view.ConversationID() == "" {
		return errNoConversation()
	}
	return s.view.PickQuickReply(index)
}

func (s *Shell) Send() error {
	if s.view.ConversationID() == "" {
		return errNoConversation()
	}
	return s.view.Send(s.ctx)
}

// Close tears down every live subscription.
func (s *Shell) Close() {
	s.OnChange(nil)
	s.view.Close()
	s.list.Close()
}

func (s *Shell) State(now time.Time) ShellState {
	s.mu.Lock()
	wide := s.wide
	s.mu.Unlock()

	conv := s.view.State()
	state := ShellState{User: s.user, Conversation: conv}
	switch {
	case wide:
		state.Layout = LayoutSplit
	case conv != nil:
		state.Layout = LayoutDetail
	default:
		state.Layout = LayoutList
	}
	if state.Layout != LayoutDetail {
		list := s.list.State(now)
		state.List = &list
	}
	return state
}

func (s *Shell) notify() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func errNoConversation() error {
	return errors.BadRequest("No conversation is open", nil)
}
