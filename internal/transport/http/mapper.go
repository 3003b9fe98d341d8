package http

import (
	"github.com/talkline/talkline-server/internal/core"
	"github.com/talkline/talkline-server/internal/proto"
)

func messageFromPayload(p core.MessagePayload) proto.EventMessage {
	return proto.EventMessage{
		ID:       p.ID,
		ChatID:   p.ChatID,
		SenderID: p.SenderID,
		Sender:   p.Sender,
		Text:     p.Body,
		Kind:     p.Kind,
		FilePath: p.FilePath,
		ReplyTo:  p.ReplyTo,
		TS:       p.SentAt.Unix(),
		Read:     p.Read,
	}
}

func outboundFromEvent(event core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "message",
			Data:  messageFromPayload(*event.Message),
		}
	case core.EventMessageSent:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "message_sent",
			Data:  messageFromPayload(*event.Message),
		}
	case core.EventNotification:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "notification",
			Data: proto.EventNotification{
				ChatID:   event.ChatID,
				SenderID: event.Message.SenderID,
				Sender:   event.Message.Sender,
				Preview:  event.Message.Body,
				TS:       event.Message.SentAt.Unix(),
			},
		}
	case core.EventChatListUpdate:
		s := event.Summary
		upd := proto.EventChatListUpdate{
			ChatID:       s.ChatID,
			DisplayName:  s.DisplayName,
			Kind:         s.Kind,
			LastMessage:  s.LastMessage,
			LastSender:   s.LastSender,
			UnreadCount:  s.UnreadCount,
			ReadByOthers: s.ReadByOthers,
		}
		if !s.LastMessageAt.IsZero() {
			upd.LastMessageAt = s.LastMessageAt.Unix()
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "chat_list_update",
			Data:  upd,
		}
	case core.EventUnreadCount:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "unread_count_update",
			Data: proto.EventUnreadCount{
				ChatID: event.Unread.ChatID,
				Count:  event.Unread.Count,
			},
		}
	case core.EventReadReceipt:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "read_receipt",
			Data: proto.EventReadReceipt{
				MessageID: event.Receipt.MessageID,
				ChatID:    event.Receipt.ChatID,
				ReaderID:  event.Receipt.ReaderID,
				Reader:    event.Receipt.Reader,
				TS:        event.Receipt.ReadAt.Unix(),
			},
		}
	case core.EventUserEnteredChat:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "user_entered_chat",
			Data:  proto.EventChatPresence{ChatID: event.ChatID, UserID: event.UserID},
		}
	case core.EventUserLeftChat:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "user_left_chat",
			Data:  proto.EventChatPresence{ChatID: event.ChatID, UserID: event.UserID},
		}
	case core.EventHistory:
		messages := make([]proto.EventMessage, 0, len(event.Messages))
		for _, m := range event.Messages {
			messages = append(messages, messageFromPayload(m))
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "chat_history",
			Data: proto.EventHistory{
				ChatID:   event.ChatID,
				Messages: messages,
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
