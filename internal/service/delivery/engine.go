package delivery

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/talkline/talkline-server/internal/core"
	"github.com/talkline/talkline-server/internal/service/reads"
	"github.com/talkline/talkline-server/internal/store"
)

// Engine persists outgoing messages and fans them out to recipients, deciding
// per recipient between an inline update and a notification based on presence.
type Engine struct {
	store    store.Store
	presence *core.Registry
	reads    *reads.Calculator
	log      *zerolog.Logger
}

// NewEngine creates a delivery engine.
func NewEngine(st store.Store, presence *core.Registry, calc *reads.Calculator, logger *zerolog.Logger) *Engine {
	return &Engine{
		store:    st,
		presence: presence,
		reads:    calc,
		log:      logger,
	}
}

// KindFromPath infers the message kind from an attachment's file extension.
func KindFromPath(path string) store.MessageKind {
	if path == "" {
		return store.MessageKindText
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp":
		return store.MessageKindImage
	case ".mp4", ".avi", ".mov", ".wmv", ".flv", ".webm":
		return store.MessageKindVideo
	case ".mp3", ".wav", ".aac", ".ogg", ".m4a":
		return store.MessageKindAudio
	default:
		return store.MessageKindFile
	}
}

// SendMessage persists a message and fans it out. Recipients currently viewing
// the chat get a receipt and only a message event; everyone else gets a
// message plus a notification and stays unread. All participants, sender
// included, receive an updated conversation summary; the sender also gets a
// delivery confirmation. Persistence completes before any push.
func (e *Engine) SendMessage(ctx context.Context, chatID, senderID int64, body, attachmentPath string, replyTo *int64) (*store.Message, error) {
	chat, err := e.store.GetChatByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("chat %d: %w", chatID, core.ErrChatNotFound)
		}
		return nil, fmt.Errorf("lookup chat: %w", core.ErrStoreUnavailable)
	}

	member, err := e.store.IsParticipant(ctx, chatID, senderID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", core.ErrStoreUnavailable)
	}
	if !member {
		return nil, core.ErrNotAParticipant
	}

	if body == "" && attachmentPath == "" {
		return nil, core.ErrEmptyMessage
	}

	now := time.Now().UTC()
	msg := &store.Message{
		ChatID:   chatID,
		SenderID: senderID,
		Body:     body,
		Kind:     KindFromPath(attachmentPath),
		FilePath: attachmentPath,
		ReplyTo:  replyTo,
		SentAt:   now,
	}
	if err := e.store.InsertMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("insert message: %w", core.ErrStoreUnavailable)
	}
	if err := e.store.TouchChat(ctx, chatID, now); err != nil {
		return nil, fmt.Errorf("touch chat: %w", core.ErrStoreUnavailable)
	}

	participants, err := e.store.ListParticipants(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", core.ErrStoreUnavailable)
	}
	names, err := e.participantNames(ctx, participants)
	if err != nil {
		return nil, err
	}
	msg.SenderName = names[senderID]

	payload := core.MessagePayload{
		ID:       msg.ID,
		ChatID:   chatID,
		SenderID: senderID,
		Sender:   msg.SenderName,
		Body:     body,
		Kind:     string(msg.Kind),
		FilePath: attachmentPath,
		ReplyTo:  replyTo,
		SentAt:   now,
	}

	// Message is durable from here on: fan-out can run. Per-recipient work is
	// independent, so recipients are handled concurrently.
	var wg sync.WaitGroup
	for _, p := range participants {
		if p.UserID == senderID {
			continue
		}
		wg.Add(1)
		go func(recipientID int64) {
			defer wg.Done()
			e.deliverTo(ctx, chat, msg, payload, recipientID, names)
		}(p.UserID)
	}
	wg.Wait()

	e.confirmToSender(ctx, chat, msg, payload, names)

	return msg, nil
}

// deliverTo handles one recipient: implicit read and message event when they
// are viewing the chat, message plus notification otherwise, and an updated
// summary either way. Failures are logged and skipped; delivery to offline
// recipients is steady-state, not an error.
func (e *Engine) deliverTo(ctx context.Context, chat *store.Chat, msg *store.Message, payload core.MessagePayload, recipientID int64, names map[int64]string) {
	viewing := e.presence.IsViewing(recipientID, chat.ID)
	if viewing {
		if _, err := e.store.CreateReceipt(ctx, msg.ID, recipientID, msg.SentAt); err != nil {
			e.log.Error().Err(err).
				Int64("msg_id", msg.ID).
				Int64("user_id", recipientID).
				Msg("failed to create implicit receipt")
		}
	}

	e.presence.Push(recipientID, core.Event{Kind: core.EventMessage, ChatID: chat.ID, Message: &payload})
	if !viewing {
		e.presence.Push(recipientID, core.Event{Kind: core.EventNotification, ChatID: chat.ID, Message: &payload})
	}

	unread, err := e.store.UnreadCount(ctx, chat.ID, recipientID)
	if err != nil {
		e.log.Warn().Err(err).
			Int64("chat_id", chat.ID).
			Int64("user_id", recipientID).
			Msg("skipping summary push, unread count failed")
		return
	}

	e.presence.Push(recipientID, core.Event{
		Kind:   core.EventChatListUpdate,
		ChatID: chat.ID,
		Summary: &core.SummaryPayload{
			ChatID:        chat.ID,
			DisplayName:   displayNameFor(chat, recipientID, names),
			Kind:          string(chat.Kind),
			LastMessage:   msg.Body,
			LastSender:    msg.SenderName,
			LastMessageAt: msg.SentAt,
			UnreadCount:   unread,
		},
	})
}

// confirmToSender pushes the sender's summary (with the read-by-others flag
// for the fresh message) and the delivery confirmation.
func (e *Engine) confirmToSender(ctx context.Context, chat *store.Chat, msg *store.Message, payload core.MessagePayload, names map[int64]string) {
	readByOthers, err := e.store.MessageReadByOthers(ctx, msg.ID, msg.SenderID)
	if err != nil {
		e.log.Warn().Err(err).Int64("msg_id", msg.ID).Msg("read-by-others check failed")
	}

	e.presence.Push(msg.SenderID, core.Event{
		Kind:   core.EventChatListUpdate,
		ChatID: chat.ID,
		Summary: &core.SummaryPayload{
			ChatID:        chat.ID,
			DisplayName:   displayNameFor(chat, msg.SenderID, names),
			Kind:          string(chat.Kind),
			LastMessage:   msg.Body,
			LastSender:    msg.SenderName,
			LastMessageAt: msg.SentAt,
			UnreadCount:   0,
			ReadByOthers:  readByOthers,
		},
	})
	e.presence.Push(msg.SenderID, core.Event{Kind: core.EventMessageSent, ChatID: chat.ID, Message: &payload})
}

// SignIn registers a live session. The first session flips the user's durable
// status to online.
func (e *Engine) SignIn(ctx context.Context, s *core.Session) error {
	if first := e.presence.SignIn(s); first {
		if err := e.store.SetUserStatus(ctx, s.UserID, store.UserStatusOnline, time.Now().UTC()); err != nil {
			return fmt.Errorf("set status online: %w", core.ErrStoreUnavailable)
		}
	}
	e.log.Info().Int64("user_id", s.UserID).Str("session_id", s.ID).Msg("session signed in")
	return nil
}

// Disconnect removes a session. The last session flips the user's durable
// status to offline and records last-seen.
func (e *Engine) Disconnect(ctx context.Context, s *core.Session) {
	if last := e.presence.SignOut(s); last {
		if err := e.store.SetUserStatus(ctx, s.UserID, store.UserStatusOffline, time.Now().UTC()); err != nil {
			e.log.Error().Err(err).Int64("user_id", s.UserID).Msg("failed to set status offline")
		}
	}
	e.log.Info().Int64("user_id", s.UserID).Str("session_id", s.ID).Msg("session disconnected")
}

// EnterChat marks the chat as viewed by the session, marks its backlog read,
// and tells the other participants.
func (e *Engine) EnterChat(ctx context.Context, s *core.Session, chatID int64) error {
	member, err := e.store.IsParticipant(ctx, chatID, s.UserID)
	if err != nil {
		return fmt.Errorf("check membership: %w", core.ErrStoreUnavailable)
	}
	if !member {
		return core.ErrNotAParticipant
	}

	e.presence.Enter(s.ID, chatID)
	if _, err := e.reads.MarkRead(ctx, s.UserID, chatID); err != nil {
		return err
	}

	e.broadcastPresence(ctx, chatID, s.UserID, core.EventUserEnteredChat)
	return nil
}

// LeaveChat clears the session's viewing state and tells the other
// participants.
func (e *Engine) LeaveChat(ctx context.Context, s *core.Session, chatID int64) {
	e.presence.Leave(s.ID)
	e.broadcastPresence(ctx, chatID, s.UserID, core.EventUserLeftChat)
}

func (e *Engine) broadcastPresence(ctx context.Context, chatID, actorID int64, kind core.EventKind) {
	participants, err := e.store.ListParticipants(ctx, chatID)
	if err != nil {
		e.log.Warn().Err(err).Int64("chat_id", chatID).Msg("presence broadcast skipped")
		return
	}
	ev := core.Event{Kind: kind, ChatID: chatID, UserID: actorID}
	for _, p := range participants {
		if p.UserID == actorID {
			continue
		}
		e.presence.Push(p.UserID, ev)
	}
}

func (e *Engine) participantNames(ctx context.Context, participants []*store.Participant) (map[int64]string, error) {
	names := make(map[int64]string, len(participants))
	for _, p := range participants {
		user, err := e.store.GetUserByID(ctx, p.UserID)
		if err != nil {
			return nil, fmt.Errorf("lookup participant %d: %w", p.UserID, core.ErrStoreUnavailable)
		}
		names[p.UserID] = user.Name
	}
	return names, nil
}

// displayNameFor resolves the chat name shown to a viewer: for individual
// chats it is the other participant's name.
func displayNameFor(chat *store.Chat, viewerID int64, names map[int64]string) string {
	if chat.Kind != store.ChatKindIndividual {
		return chat.Name
	}
	for userID, name := range names {
		if userID != viewerID {
			return name
		}
	}
	return chat.Name
}
