package sqlite

import "database/sql"

// schema is applied on startup. CREATE TABLE IF NOT EXISTS keeps reopening an
// existing database file safe.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL,
	phone         TEXT UNIQUE,
	avatar        TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'offline' CHECK(status IN ('online', 'offline')),
	last_seen     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chats (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL CHECK(type IN ('individual', 'group')),
	icon       TEXT NOT NULL DEFAULT '',
	pair_key   TEXT UNIQUE,
	created_by INTEGER NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chat_participants (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id   INTEGER NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
	user_id   INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	is_admin  BOOLEAN NOT NULL DEFAULT 0,
	UNIQUE(chat_id, user_id)
);

CREATE TABLE IF NOT EXISTS messages (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id   INTEGER NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
	sender_id INTEGER NOT NULL REFERENCES users(id),
	body      TEXT NOT NULL DEFAULT '',
	kind      TEXT NOT NULL DEFAULT 'text' CHECK(kind IN ('text', 'image', 'video', 'audio', 'file')),
	file_path TEXT NOT NULL DEFAULT '',
	reply_to  INTEGER REFERENCES messages(id),
	sent_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_chat_sent ON messages(chat_id, sent_at, id);

CREATE TABLE IF NOT EXISTS message_reads (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id INTEGER NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
	user_id    INTEGER NOT NULL REFERENCES users(id),
	read_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(message_id, user_id)
);
`

// Setup applies the schema to the given database handle.
func Setup(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
