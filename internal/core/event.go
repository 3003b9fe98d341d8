package core

import "time"

// EventKind is a notification the core emits to sessions.
type EventKind int

const (
	// EventMessage delivers a new chat message to a recipient.
	EventMessage EventKind = iota
	// EventMessageSent confirms persistence of a message to its sender.
	EventMessageSent
	// EventNotification signals a new message in a chat the recipient is not
	// currently viewing. Drives badges and push alerts.
	EventNotification
	// EventChatListUpdate carries an updated conversation summary.
	EventChatListUpdate
	// EventUnreadCount carries the recipient's unread count for one chat.
	EventUnreadCount
	// EventReadReceipt tells a sender that someone read their message.
	EventReadReceipt
	// EventUserEnteredChat tells chat members a participant opened the chat.
	EventUserEnteredChat
	// EventUserLeftChat tells chat members a participant closed the chat.
	EventUserLeftChat
	// EventHistory delivers ordered message history for one chat.
	EventHistory
	// EventError notifies a session about a domain error.
	EventError
)

// Event is pushed to sessions to describe what happened in the system.
type Event struct {
	Kind     EventKind
	ChatID   int64
	UserID   int64 // acting user for presence events
	Message  *MessagePayload
	Messages []MessagePayload // for EventHistory
	Summary  *SummaryPayload
	Unread   *UnreadPayload
	Receipt  *ReceiptPayload
	Error    *CoreError
}

// MessagePayload is the delivered form of a message.
type MessagePayload struct {
	ID       int64
	ChatID   int64
	SenderID int64
	Sender   string
	Body     string
	Kind     string
	FilePath string
	ReplyTo  *int64
	SentAt   time.Time
	Read     bool // relative to the receiving user, history only
}

// SummaryPayload is the per-recipient conversation summary.
type SummaryPayload struct {
	ChatID        int64
	DisplayName   string
	Kind          string
	LastMessage   string
	LastSender    string
	LastMessageAt time.Time
	UnreadCount   int
	// ReadByOthers is set only on the summary pushed to the sender of the
	// latest message: whether any other participant has read it yet.
	ReadByOthers bool
}

// UnreadPayload carries an unread-count update for one chat.
type UnreadPayload struct {
	ChatID int64
	Count  int
}

// ReceiptPayload names a read message, its reader, and when.
type ReceiptPayload struct {
	MessageID int64
	ChatID    int64
	ReaderID  int64
	Reader    string
	ReadAt    time.Time
}
