package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeEnter       = "enter_chat"
	InboundTypeLeave       = "leave_chat"
	InboundTypeMsg         = "msg"
	InboundTypeHistory     = "history"
	InboundTypeMarkRead    = "mark_read"
	InboundTypeMarkOneRead = "mark_one_read"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// EnterData requests to start viewing a chat.
type EnterData struct {
	ChatID int64 `json:"chat_id"`
}

// MsgData is a chat message from the client.
type MsgData struct {
	ChatID   int64  `json:"chat_id"`
	Text     string `json:"text"`
	FilePath string `json:"file_path,omitempty"`
	ReplyTo  *int64 `json:"reply_to,omitempty"`
}

// HistoryData requests the message backlog of a chat.
type HistoryData struct {
	ChatID int64 `json:"chat_id"`
}

// MarkReadData marks an entire chat as read.
type MarkReadData struct {
	ChatID int64 `json:"chat_id"`
}

// MarkOneReadData marks a single message as read.
type MarkOneReadData struct {
	MessageID int64 `json:"message_id"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventMessage carries a delivered chat message.
type EventMessage struct {
	ID       int64  `json:"id"`
	ChatID   int64  `json:"chat_id"`
	SenderID int64  `json:"sender_id"`
	Sender   string `json:"sender"`
	Text     string `json:"text"`
	Kind     string `json:"kind"`
	FilePath string `json:"file_path,omitempty"`
	ReplyTo  *int64 `json:"reply_to,omitempty"`
	TS       int64  `json:"ts"`
	Read     bool   `json:"read"`
}

// EventNotification alerts a recipient who is not viewing the chat.
type EventNotification struct {
	ChatID   int64  `json:"chat_id"`
	SenderID int64  `json:"sender_id"`
	Sender   string `json:"sender"`
	Preview  string `json:"preview"`
	TS       int64  `json:"ts"`
}

// EventChatListUpdate refreshes one entry of the recipient's chat list.
type EventChatListUpdate struct {
	ChatID        int64  `json:"chat_id"`
	DisplayName   string `json:"display_name"`
	Kind          string `json:"kind"`
	LastMessage   string `json:"last_message,omitempty"`
	LastSender    string `json:"last_sender,omitempty"`
	LastMessageAt int64  `json:"last_message_at,omitempty"`
	UnreadCount   int    `json:"unread_count"`
	ReadByOthers  bool   `json:"read_by_others"`
}

// EventUnreadCount pushes the unread counter for a chat.
type EventUnreadCount struct {
	ChatID int64 `json:"chat_id"`
	Count  int   `json:"count"`
}

// EventReadReceipt notifies a sender that a message was read.
type EventReadReceipt struct {
	MessageID int64  `json:"message_id"`
	ChatID    int64  `json:"chat_id"`
	ReaderID  int64  `json:"reader_id"`
	Reader    string `json:"reader"`
	TS        int64  `json:"ts"`
}

// EventChatPresence notifies that a user entered or left a chat view.
type EventChatPresence struct {
	ChatID int64 `json:"chat_id"`
	UserID int64 `json:"user_id"`
}

// EventHistory carries a chat's message backlog.
type EventHistory struct {
	ChatID   int64          `json:"chat_id"`
	Messages []EventMessage `json:"messages"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
