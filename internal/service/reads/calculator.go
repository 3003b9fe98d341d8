package reads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/talkline/talkline-server/internal/core"
	"github.com/talkline/talkline-server/internal/store"
)

// Calculator derives per-user read and unread state from receipts and pushes
// the resulting updates to live sessions.
type Calculator struct {
	store    store.Store
	presence *core.Registry
	log      *zerolog.Logger
}

// NewCalculator creates a read/unread calculator.
func NewCalculator(st store.Store, presence *core.Registry, logger *zerolog.Logger) *Calculator {
	return &Calculator{
		store:    st,
		presence: presence,
		log:      logger,
	}
}

// MarkRead creates a receipt for every message in the chat the user has not
// read yet and returns how many were created. Idempotent: a second call
// returns 0. The zero unread-count update is pushed unconditionally so client
// state converges even if an earlier push was dropped.
func (c *Calculator) MarkRead(ctx context.Context, userID, chatID int64) (int, error) {
	ids, err := c.store.UnreadMessageIDs(ctx, chatID, userID)
	if err != nil {
		return 0, fmt.Errorf("list unread: %w", core.ErrStoreUnavailable)
	}

	now := time.Now().UTC()
	created := 0
	for _, messageID := range ids {
		ok, err := c.store.CreateReceipt(ctx, messageID, userID, now)
		if err != nil {
			return created, fmt.Errorf("create receipt: %w", core.ErrStoreUnavailable)
		}
		if ok {
			created++
		}
	}

	if created > 0 {
		c.log.Debug().
			Int64("user_id", userID).
			Int64("chat_id", chatID).
			Int("count", created).
			Msg("messages marked read")
	}

	c.presence.Push(userID, core.Event{
		Kind:   core.EventUnreadCount,
		ChatID: chatID,
		Unread: &core.UnreadPayload{ChatID: chatID, Count: 0},
	})

	return created, nil
}

// MarkOneRead creates a single receipt idempotently. On creation the message's
// sender is told who read it and when; duplicate calls are complete no-ops.
// A sender reading their own message never produces a receipt or an event.
func (c *Calculator) MarkOneRead(ctx context.Context, messageID, userID int64) error {
	msg, err := c.store.GetMessageByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("message %d: %w", messageID, core.ErrChatNotFound)
		}
		return fmt.Errorf("lookup message: %w", core.ErrStoreUnavailable)
	}
	if msg.SenderID == userID {
		return nil
	}

	now := time.Now().UTC()
	created, err := c.store.CreateReceipt(ctx, messageID, userID, now)
	if err != nil {
		return fmt.Errorf("create receipt: %w", core.ErrStoreUnavailable)
	}
	if !created {
		return nil
	}

	reader, err := c.store.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup reader: %w", core.ErrStoreUnavailable)
	}

	c.presence.Push(msg.SenderID, core.Event{
		Kind:   core.EventReadReceipt,
		ChatID: msg.ChatID,
		Receipt: &core.ReceiptPayload{
			MessageID: messageID,
			ChatID:    msg.ChatID,
			ReaderID:  userID,
			Reader:    reader.Name,
			ReadAt:    now,
		},
	})
	return nil
}

// UnreadCount counts messages in the chat not authored by the user and
// lacking a receipt for the user.
func (c *Calculator) UnreadCount(ctx context.Context, userID, chatID int64) (int, error) {
	count, err := c.store.UnreadCount(ctx, chatID, userID)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", core.ErrStoreUnavailable)
	}
	return count, nil
}

// Summaries returns the user's conversation list ordered by most recent
// activity.
func (c *Calculator) Summaries(ctx context.Context, userID int64) ([]*store.ChatSummary, error) {
	summaries, err := c.store.ChatSummaries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("chat summaries: %w", core.ErrStoreUnavailable)
	}
	return summaries, nil
}

// History returns the chat's messages in conversation order with per-message
// read flags relative to the requesting user: for the user's own messages the
// flag means someone else read it, for others' messages it means the user has.
// Receipts are fetched in a single query and joined in memory.
func (c *Calculator) History(ctx context.Context, userID, chatID int64) ([]core.MessagePayload, error) {
	member, err := c.store.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", core.ErrStoreUnavailable)
	}
	if !member {
		return nil, core.ErrNotAParticipant
	}

	msgs, err := c.store.ListMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", core.ErrStoreUnavailable)
	}
	receipts, err := c.store.ReceiptsForChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", core.ErrStoreUnavailable)
	}

	history := make([]core.MessagePayload, 0, len(msgs))
	for _, msg := range msgs {
		read := false
		for _, readerID := range receipts[msg.ID] {
			if msg.SenderID == userID && readerID != userID {
				read = true
				break
			}
			if msg.SenderID != userID && readerID == userID {
				read = true
				break
			}
		}
		history = append(history, core.MessagePayload{
			ID:       msg.ID,
			ChatID:   msg.ChatID,
			SenderID: msg.SenderID,
			Sender:   msg.SenderName,
			Body:     msg.Body,
			Kind:     string(msg.Kind),
			FilePath: msg.FilePath,
			ReplyTo:  msg.ReplyTo,
			SentAt:   msg.SentAt,
			Read:     read,
		})
	}
	return history, nil
}
