package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/talkline/talkline-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := Setup(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports whether err is a SQLite uniqueness constraint failure.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, name, phone, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (name, phone, password_hash)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, name, phone, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert user: %w", store.ErrDuplicate)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(phone, ''), avatar, password_hash, status, last_seen, created_at
		FROM users
		WHERE id = ?
	`, id))
}

// GetUserByPhone retrieves a user by phone number.
func (s *SQLiteStore) GetUserByPhone(ctx context.Context, phone string) (*store.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(phone, ''), avatar, password_hash, status, last_seen, created_at
		FROM users
		WHERE phone = ?
	`, phone))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Phone,
		&user.Avatar,
		&user.PasswordHash,
		&user.Status,
		&user.LastSeen,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// ListUsers returns the user directory ordered by name.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*store.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(phone, ''), avatar, password_hash, status, last_seen, created_at
		FROM users
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		var user store.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Phone,
			&user.Avatar,
			&user.PasswordHash,
			&user.Status,
			&user.LastSeen,
			&user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}

	return users, rows.Err()
}

// SetUserStatus updates durable presence status and last-seen timestamp.
func (s *SQLiteStore) SetUserStatus(ctx context.Context, userID int64, status store.UserStatus, lastSeen time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET status = ?, last_seen = ? WHERE id = ?
	`, string(status), lastSeen, userID)
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user: %w", store.ErrNotFound)
	}
	return nil
}

// ==== ChatStore implementation ====

// CreateIndividualChat inserts an individual chat plus both participant rows
// as one transaction. The UNIQUE constraint on pair_key guarantees at most one
// chat per unordered user pair even under concurrent creation; the loser of
// the race gets store.ErrDuplicate.
func (s *SQLiteStore) CreateIndividualChat(ctx context.Context, pairKey string, userA, userB int64) (*store.Chat, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO chats (type, pair_key, created_by)
		VALUES ('individual', ?, ?)
	`, pairKey, userA)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert chat: %w", store.ErrDuplicate)
		}
		return nil, fmt.Errorf("insert chat: %w", err)
	}

	chatID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	memberQuery := `
		INSERT INTO chat_participants (chat_id, user_id)
		VALUES (?, ?)
	`
	if _, err := tx.ExecContext(ctx, memberQuery, chatID, userA); err != nil {
		return nil, fmt.Errorf("add first participant: %w", err)
	}
	if _, err := tx.ExecContext(ctx, memberQuery, chatID, userB); err != nil {
		return nil, fmt.Errorf("add second participant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetChatByID(ctx, chatID)
}

// CreateGroupChat inserts a group chat, its admin creator, and all members as
// one transaction. memberIDs must not contain the creator.
func (s *SQLiteStore) CreateGroupChat(ctx context.Context, name string, creatorID int64, memberIDs []int64) (*store.Chat, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO chats (name, type, created_by)
		VALUES (?, 'group', ?)
	`, name, creatorID)
	if err != nil {
		return nil, fmt.Errorf("insert chat: %w", err)
	}

	chatID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	memberQuery := `
		INSERT INTO chat_participants (chat_id, user_id, is_admin)
		VALUES (?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, memberQuery, chatID, creatorID, true); err != nil {
		return nil, fmt.Errorf("add creator: %w", err)
	}
	for _, memberID := range memberIDs {
		if _, err := tx.ExecContext(ctx, memberQuery, chatID, memberID, false); err != nil {
			return nil, fmt.Errorf("add member %d: %w", memberID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetChatByID(ctx, chatID)
}

// GetChatByID retrieves a chat by ID.
func (s *SQLiteStore) GetChatByID(ctx context.Context, id int64) (*store.Chat, error) {
	return s.scanChat(s.db.QueryRowContext(ctx, `
		SELECT id, name, type, icon, pair_key, created_by, created_at, updated_at
		FROM chats
		WHERE id = ?
	`, id))
}

// GetChatByPairKey retrieves an individual chat by its pair key.
func (s *SQLiteStore) GetChatByPairKey(ctx context.Context, pairKey string) (*store.Chat, error) {
	return s.scanChat(s.db.QueryRowContext(ctx, `
		SELECT id, name, type, icon, pair_key, created_by, created_at, updated_at
		FROM chats
		WHERE pair_key = ?
	`, pairKey))
}

func (s *SQLiteStore) scanChat(row *sql.Row) (*store.Chat, error) {
	var chat store.Chat
	var pairKey sql.NullString
	err := row.Scan(
		&chat.ID,
		&chat.Name,
		&chat.Kind,
		&chat.Icon,
		&pairKey,
		&chat.CreatedBy,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("chat: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query chat: %w", err)
	}
	if pairKey.Valid {
		chat.PairKey = &pairKey.String
	}
	return &chat, nil
}

// DeleteChat removes a chat together with its messages, receipts, and
// participants as one transaction.
func (s *SQLiteStore) DeleteChat(ctx context.Context, chatID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM message_reads
		WHERE message_id IN (SELECT id FROM messages WHERE chat_id = ?)
	`, chatID); err != nil {
		return fmt.Errorf("delete receipts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_participants WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("delete participants: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, chatID)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("chat: %w", store.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// TouchChat updates the chat's last-activity timestamp.
func (s *SQLiteStore) TouchChat(ctx context.Context, chatID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE chats SET updated_at = ? WHERE id = ?`, at, chatID)
	if err != nil {
		return fmt.Errorf("touch chat: %w", err)
	}
	return nil
}

// AddParticipant adds a user to a chat. Idempotent.
func (s *SQLiteStore) AddParticipant(ctx context.Context, chatID, userID int64, isAdmin bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO chat_participants (chat_id, user_id, is_admin)
		VALUES (?, ?, ?)
	`, chatID, userID, isAdmin)
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

// RemoveParticipant removes a user from a chat.
func (s *SQLiteStore) RemoveParticipant(ctx context.Context, chatID, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM chat_participants WHERE chat_id = ? AND user_id = ?
	`, chatID, userID)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	return nil
}

// IsParticipant checks whether the user is a member of the chat.
func (s *SQLiteStore) IsParticipant(ctx context.Context, chatID, userID int64) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM chat_participants WHERE chat_id = ? AND user_id = ?
	`, chatID, userID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query membership: %w", err)
	}
	return true, nil
}

// ListParticipants lists all members of a chat in join order.
func (s *SQLiteStore) ListParticipants(ctx context.Context, chatID int64) ([]*store.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chat_id, user_id, joined_at, is_admin
		FROM chat_participants
		WHERE chat_id = ?
		ORDER BY joined_at ASC, id ASC
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	var participants []*store.Participant
	for rows.Next() {
		var p store.Participant
		if err := rows.Scan(&p.ChatID, &p.UserID, &p.JoinedAt, &p.IsAdmin); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, &p)
	}

	return participants, rows.Err()
}

// ListChatIDsForUser lists IDs of all chats the user participates in.
func (s *SQLiteStore) ListChatIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chat_id FROM chat_participants WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user chats: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan chat id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// ChatSummaries returns the user's conversation list ordered by most recent
// activity. Individual chats take the other participant's name as display name.
func (s *SQLiteStore) ChatSummaries(ctx context.Context, userID int64) ([]*store.ChatSummary, error) {
	query := `
		SELECT
			c.id,
			c.type,
			c.icon,
			c.updated_at,
			COALESCE((SELECT m.body
				FROM messages m
				WHERE m.chat_id = c.id
				ORDER BY m.sent_at DESC, m.id DESC
				LIMIT 1), '') AS last_message,
			(SELECT m.sent_at
				FROM messages m
				WHERE m.chat_id = c.id
				ORDER BY m.sent_at DESC, m.id DESC
				LIMIT 1) AS last_message_time,
			COALESCE((SELECT u.name
				FROM messages m
				JOIN users u ON m.sender_id = u.id
				WHERE m.chat_id = c.id
				ORDER BY m.sent_at DESC, m.id DESC
				LIMIT 1), '') AS last_sender,
			(SELECT COUNT(*)
				FROM messages m
				WHERE m.chat_id = c.id
				AND m.sender_id != ?
				AND m.id NOT IN (
					SELECT r.message_id
					FROM message_reads r
					WHERE r.user_id = ?
				)) AS unread_count,
			CASE
				WHEN c.type = 'individual' THEN
					COALESCE((SELECT u.name
						FROM chat_participants cp2
						JOIN users u ON cp2.user_id = u.id
						WHERE cp2.chat_id = c.id AND cp2.user_id != ?
						LIMIT 1), c.name)
				ELSE c.name
			END AS display_name
		FROM chats c
		JOIN chat_participants cp ON c.id = cp.chat_id
		WHERE cp.user_id = ?
		ORDER BY COALESCE(last_message_time, c.updated_at) DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*store.ChatSummary
	for rows.Next() {
		var sum store.ChatSummary
		var lastMessageAt sql.NullTime
		if err := rows.Scan(
			&sum.ChatID,
			&sum.Kind,
			&sum.Icon,
			&sum.UpdatedAt,
			&sum.LastMessage,
			&lastMessageAt,
			&sum.LastSender,
			&sum.UnreadCount,
			&sum.DisplayName,
		); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if lastMessageAt.Valid {
			sum.LastMessageAt = &lastMessageAt.Time
		}
		summaries = append(summaries, &sum)
	}

	return summaries, rows.Err()
}

// ==== MessageStore implementation ====

// InsertMessage persists a message and assigns its ID.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *store.Message) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (chat_id, sender_id, body, kind, file_path, reply_to, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, msg.ChatID, msg.SenderID, msg.Body, string(msg.Kind), msg.FilePath, msg.ReplyTo, msg.SentAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	msg.ID = id
	return nil
}

// GetMessageByID retrieves a message with its sender name.
func (s *SQLiteStore) GetMessageByID(ctx context.Context, id int64) (*store.Message, error) {
	var msg store.Message
	var replyTo sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT m.id, m.chat_id, m.sender_id, u.name, m.body, m.kind, m.file_path, m.reply_to, m.sent_at
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.id = ?
	`, id).Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.SenderID,
		&msg.SenderName,
		&msg.Body,
		&msg.Kind,
		&msg.FilePath,
		&replyTo,
		&msg.SentAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	if replyTo.Valid {
		msg.ReplyTo = &replyTo.Int64
	}
	return &msg, nil
}

// ListMessages retrieves all messages of a chat in conversation order.
// The message ID breaks ties between equal sent timestamps.
func (s *SQLiteStore) ListMessages(ctx context.Context, chatID int64) ([]*store.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.chat_id, m.sender_id, u.name, m.body, m.kind, m.file_path, m.reply_to, m.sent_at
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.chat_id = ?
		ORDER BY m.sent_at ASC, m.id ASC
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		var replyTo sql.NullInt64
		if err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.SenderID,
			&msg.SenderName,
			&msg.Body,
			&msg.Kind,
			&msg.FilePath,
			&replyTo,
			&msg.SentAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if replyTo.Valid {
			msg.ReplyTo = &replyTo.Int64
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// ==== ReceiptStore implementation ====

// CreateReceipt records that a user read a message. Duplicates are ignored;
// the return value reports whether a new receipt row was created.
func (s *SQLiteStore) CreateReceipt(ctx context.Context, messageID, userID int64, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO message_reads (message_id, user_id, read_at)
		VALUES (?, ?, ?)
	`, messageID, userID, at)
	if err != nil {
		return false, fmt.Errorf("insert receipt: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// HasReceipt checks whether a receipt exists for (message, user).
func (s *SQLiteStore) HasReceipt(ctx context.Context, messageID, userID int64) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM message_reads WHERE message_id = ? AND user_id = ?
	`, messageID, userID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query receipt: %w", err)
	}
	return true, nil
}

// UnreadMessageIDs lists messages in the chat not authored by the user and
// lacking a receipt for the user, in chat order.
func (s *SQLiteStore) UnreadMessageIDs(ctx context.Context, chatID, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id
		FROM messages m
		WHERE m.chat_id = ?
		AND m.sender_id != ?
		AND m.id NOT IN (
			SELECT r.message_id
			FROM message_reads r
			WHERE r.user_id = ?
		)
		ORDER BY m.sent_at ASC, m.id ASC
	`, chatID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query unread messages: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan message id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// UnreadCount counts messages in the chat not authored by the user and
// lacking a receipt for the user.
func (s *SQLiteStore) UnreadCount(ctx context.Context, chatID, userID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM messages m
		WHERE m.chat_id = ?
		AND m.sender_id != ?
		AND m.id NOT IN (
			SELECT r.message_id
			FROM message_reads r
			WHERE r.user_id = ?
		)
	`, chatID, userID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("query unread count: %w", err)
	}
	return count, nil
}

// MessageReadByOthers reports whether anyone other than the sender has a
// receipt for the message.
func (s *SQLiteStore) MessageReadByOthers(ctx context.Context, messageID, senderID int64) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM message_reads WHERE message_id = ? AND user_id != ? LIMIT 1
	`, messageID, senderID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query receipt: %w", err)
	}
	return true, nil
}

// ReceiptsForChat returns, per message of the chat, the user IDs holding a
// receipt. One query instead of a lookup per message.
func (s *SQLiteStore) ReceiptsForChat(ctx context.Context, chatID int64) (map[int64][]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.message_id, r.user_id
		FROM message_reads r
		JOIN messages m ON r.message_id = m.id
		WHERE m.chat_id = ?
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("query chat receipts: %w", err)
	}
	defer rows.Close()

	receipts := make(map[int64][]int64)
	for rows.Next() {
		var messageID, userID int64
		if err := rows.Scan(&messageID, &userID); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		receipts[messageID] = append(receipts[messageID], userID)
	}

	return receipts, rows.Err()
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)
