package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"estatechat/internal/domain/entity"
	"estatechat/pkg/logger"
)

// Unsubscribe stops a live subscription. It is safe to call more than once;
// once it returns no further callbacks are made. It must not be called from
// inside the subscription's own callback.
type Unsubscribe func()

// SubscribeToMessages streams the full ascending message list of a
// conversation to onUpdate. A broken stream yields one empty snapshot and is
// reopened with backoff until unsubscribed.
func (uc *ChatUseCase) SubscribeToMessages(ctx context.Context, conversationID string, onUpdate func([]*entity.Message)) Unsubscribe {
	return uc.subscribe(ctx, "messages", conversationID, func(ctx context.Context, delivered func()) error {
		return uc.store.ListenMessages(ctx, conversationID, func(messages []*entity.Message) {
			delivered()
			onUpdate(messages)
		})
	}, func() { onUpdate([]*entity.Message{}) })
}

// SubscribeToUserConversations streams all conversations userID takes part
// in, most recently active first.
func (uc *ChatUseCase) SubscribeToUserConversations(ctx context.Context, userID string, onUpdate func([]*entity.Conversation)) Unsubscribe {
	return uc.subscribe(ctx, "conversations", userID, func(ctx context.Context, delivered func()) error {
		return uc.store.ListenUserConversations(ctx, userID, func(conversations []*entity.Conversation) {
			delivered()
			onUpdate(conversations)
		})
	}, func() { onUpdate([]*entity.Conversation{}) })
}

func (uc *ChatUseCase) subscribe(parent context.Context, kind, subject string, listen func(context.Context, func()) error, degrade func()) Unsubscribe {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = uc.retry.Min
	b.MaxInterval = uc.retry.Max

	go func() {
		defer close(done)
		for {
			err := listen(ctx, b.Reset)
			if ctx.Err() != nil {
				return
			}

			wait := b.NextBackOff()
			logger.Warn("subscription interrupted", "kind", kind, "subject", subject, "retry_in", wait, "error", err)
			degrade()

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}
