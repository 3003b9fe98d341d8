package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate")
)

// UserStatus is the durable presence status of a user.
type UserStatus string

const (
	UserStatusOnline  UserStatus = "online"
	UserStatusOffline UserStatus = "offline"
)

// User represents a registered user.
type User struct {
	ID           int64
	Name         string
	Phone        string
	Avatar       string
	PasswordHash string
	Status       UserStatus
	LastSeen     time.Time
	CreatedAt    time.Time
}

// ChatKind distinguishes individual and group chats.
type ChatKind string

const (
	ChatKindIndividual ChatKind = "individual"
	ChatKindGroup      ChatKind = "group"
)

// Chat represents a conversation.
type Chat struct {
	ID        int64
	Name      string
	Kind      ChatKind
	Icon      string
	PairKey   *string // for individual chats: "dm:{minUserID}:{maxUserID}"
	CreatedBy int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Participant is a membership edge between a chat and a user.
type Participant struct {
	ChatID   int64
	UserID   int64
	JoinedAt time.Time
	IsAdmin  bool
}

// MessageKind classifies message content.
type MessageKind string

const (
	MessageKindText  MessageKind = "text"
	MessageKindImage MessageKind = "image"
	MessageKindVideo MessageKind = "video"
	MessageKindAudio MessageKind = "audio"
	MessageKindFile  MessageKind = "file"
)

// Message is a persisted chat message. Immutable once created.
type Message struct {
	ID         int64
	ChatID     int64
	SenderID   int64
	SenderName string // populated on reads that join users
	Body       string
	Kind       MessageKind
	FilePath   string
	ReplyTo    *int64
	SentAt     time.Time
}

// ReadReceipt records that a user has observed a message.
type ReadReceipt struct {
	MessageID int64
	UserID    int64
	ReadAt    time.Time
}

// ChatSummary is the per-user view of a chat used for conversation lists.
// DisplayName resolves to the other participant's name for individual chats.
type ChatSummary struct {
	ChatID        int64
	DisplayName   string
	Kind          ChatKind
	Icon          string
	LastMessage   string
	LastSender    string
	LastMessageAt *time.Time
	UpdatedAt     time.Time
	UnreadCount   int
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, name, phone, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByPhone retrieves a user by phone number.
	GetUserByPhone(ctx context.Context, phone string) (*User, error)

	// ListUsers returns the user directory.
	ListUsers(ctx context.Context) ([]*User, error)

	// SetUserStatus updates durable presence status and last-seen timestamp.
	SetUserStatus(ctx context.Context, userID int64, status UserStatus, lastSeen time.Time) error
}

// ChatStore handles chat and participant persistence.
type ChatStore interface {
	// CreateIndividualChat inserts an individual chat plus both participant
	// rows as one transaction. Returns ErrDuplicate if a chat with the same
	// pair key already exists.
	CreateIndividualChat(ctx context.Context, pairKey string, userA, userB int64) (*Chat, error)

	// CreateGroupChat inserts a group chat, its admin creator, and all
	// members as one transaction.
	CreateGroupChat(ctx context.Context, name string, creatorID int64, memberIDs []int64) (*Chat, error)

	// GetChatByID retrieves a chat by ID.
	GetChatByID(ctx context.Context, id int64) (*Chat, error)

	// GetChatByPairKey retrieves an individual chat by its pair key.
	GetChatByPairKey(ctx context.Context, pairKey string) (*Chat, error)

	// DeleteChat removes a chat together with its messages, receipts, and
	// participants as one transaction.
	DeleteChat(ctx context.Context, chatID int64) error

	// TouchChat updates the chat's last-activity timestamp.
	TouchChat(ctx context.Context, chatID int64, at time.Time) error

	// AddParticipant adds a user to a chat. Idempotent.
	AddParticipant(ctx context.Context, chatID, userID int64, isAdmin bool) error

	// RemoveParticipant removes a user from a chat.
	RemoveParticipant(ctx context.Context, chatID, userID int64) error

	// IsParticipant checks whether the user is a member of the chat.
	IsParticipant(ctx context.Context, chatID, userID int64) (bool, error)

	// ListParticipants lists all members of a chat.
	ListParticipants(ctx context.Context, chatID int64) ([]*Participant, error)

	// ListChatIDsForUser lists IDs of all chats the user participates in.
	ListChatIDsForUser(ctx context.Context, userID int64) ([]int64, error)

	// ChatSummaries returns the user's conversation list ordered by most
	// recent activity, with per-chat unread counts and display names.
	ChatSummaries(ctx context.Context, userID int64) ([]*ChatSummary, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// InsertMessage persists a message and assigns its ID.
	InsertMessage(ctx context.Context, msg *Message) error

	// GetMessageByID retrieves a message with its sender name.
	GetMessageByID(ctx context.Context, id int64) (*Message, error)

	// ListMessages retrieves all messages of a chat ordered by
	// (sent_at, id) ascending.
	ListMessages(ctx context.Context, chatID int64) ([]*Message, error)
}

// ReceiptStore handles read receipt persistence.
type ReceiptStore interface {
	// CreateReceipt records that a user read a message. Returns whether a
	// new receipt was created; duplicates are ignored.
	CreateReceipt(ctx context.Context, messageID, userID int64, at time.Time) (bool, error)

	// HasReceipt checks whether a receipt exists for (message, user).
	HasReceipt(ctx context.Context, messageID, userID int64) (bool, error)

	// UnreadMessageIDs lists messages in the chat not authored by the user
	// and lacking a receipt for the user, in chat order.
	UnreadMessageIDs(ctx context.Context, chatID, userID int64) ([]int64, error)

	// UnreadCount counts messages in the chat not authored by the user and
	// lacking a receipt for the user.
	UnreadCount(ctx context.Context, chatID, userID int64) (int, error)

	// MessageReadByOthers reports whether anyone other than the sender has
	// a receipt for the message.
	MessageReadByOthers(ctx context.Context, messageID, senderID int64) (bool, error)

	// ReceiptsForChat returns, per message of the chat, the set of user IDs
	// holding a receipt.
	ReceiptsForChat(ctx context.Context, chatID int64) (map[int64][]int64, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ChatStore
	MessageStore
	ReceiptStore

	// Close closes the underlying database connection.
	Close() error
}
