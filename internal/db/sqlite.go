package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/RichardoC/inbox/internal/models"
	"github.com/RichardoC/inbox/internal/seed"
	"github.com/RichardoC/inbox/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    avatar_ref TEXT NOT NULL DEFAULT '',
    is_online INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS conversations (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS messages (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    conversation_id TEXT NOT NULL,
    sender_id TEXT NOT NULL,
    receiver_id TEXT NOT NULL,
    content TEXT NOT NULL,
    sent_at TEXT NOT NULL,
    is_read INTEGER NOT NULL DEFAULT 0,
    kind TEXT NOT NULL DEFAULT 'text',
    media_ref TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS messages_conversation ON messages(conversation_id, seq);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts4(
    content,
    tokenize=porter
);

-- Keep the FTS index in step with messages
CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(docid, content) VALUES (new.seq, new.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    DELETE FROM messages_fts WHERE docid = old.seq;
END;`

const messageColumns = `id, sender_id, receiver_id, content, sent_at, is_read, kind, media_ref`

// Database is a store.Store backed by SQLite.
type Database struct {
	db *sql.DB
}

var _ store.Store = (*Database)(nil)

func New(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases coherent and serializes writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Database{db: db}, nil
}

func (db *Database) Close() error {
	return db.db.Close()
}

// Load replaces the whole content of the database with ds.
func (db *Database) Load(ds seed.Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}

	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"messages", "conversations", "users"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, u := range ds.Users {
		if _, err := tx.Exec(`
			INSERT INTO users (id, display_name, avatar_ref, is_online)
			VALUES (?, ?, ?, ?)`,
			u.ID, u.DisplayName, u.AvatarRef, u.IsOnline); err != nil {
			return fmt.Errorf("failed to insert user %s: %w", u.ID, err)
		}
	}

	for _, t := range ds.Threads {
		if _, err := tx.Exec("INSERT INTO conversations (id) VALUES (?)", t.PeerID); err != nil {
			return fmt.Errorf("failed to insert conversation %s: %w", t.PeerID, err)
		}
		for _, m := range t.Messages {
			if err := insertMessage(tx, t.PeerID, m); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertMessage(ex execer, conversationID string, m models.Message) error {
	_, err := ex.Exec(`
		INSERT INTO messages (`+messageColumns+`, conversation_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.ReceiverID, m.Content, m.SentAt, m.IsRead, string(m.Kind), m.MediaRef, conversationID)
	if err != nil {
		return fmt.Errorf("failed to insert message %s: %w", m.ID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner) (models.Message, error) {
	var (
		msg  models.Message
		kind string
	)
	err := row.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.SentAt, &msg.IsRead, &kind, &msg.MediaRef)
	msg.Kind = models.MessageKind(kind)
	return msg, err
}

func (db *Database) queryMessages(query string, args ...any) ([]models.Message, error) {
	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (db *Database) conversationExists(id string) (bool, error) {
	var n int
	err := db.db.QueryRow("SELECT COUNT(1) FROM conversations WHERE id = ?", id).Scan(&n)
	return n > 0, err
}

func (db *Database) isPeer(id string) (bool, error) {
	if id == models.SelfID {
		return false, nil
	}
	var n int
	err := db.db.QueryRow("SELECT COUNT(1) FROM users WHERE id = ?", id).Scan(&n)
	return n > 0, err
}

// resolve reports whether the conversation exists, or ErrNotFound when
// the id names neither a conversation nor a peer.
func (db *Database) resolve(conversationID string) (bool, error) {
	exists, err := db.conversationExists(conversationID)
	if err != nil || exists {
		return exists, err
	}
	peer, err := db.isPeer(conversationID)
	if err != nil {
		return false, err
	}
	if !peer {
		return false, fmt.Errorf("conversation %s: %w", conversationID, store.ErrNotFound)
	}
	return false, nil
}

func (db *Database) GetMessages(conversationID string) ([]models.Message, error) {
	exists, err := db.resolve(conversationID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []models.Message{}, nil
	}

	return db.queryMessages(`
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = ?
		ORDER BY seq ASC`, conversationID)
}

func (db *Database) AppendMessage(conversationID string, msg models.Message) error {
	if err := store.CheckAppend(conversationID, msg); err != nil {
		return err
	}
	exists, err := db.resolve(conversationID)
	if err != nil {
		return err
	}

	var n int
	if err := db.db.QueryRow("SELECT COUNT(1) FROM messages WHERE id = ?", msg.ID).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return store.DuplicateID(msg.ID)
	}

	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if !exists {
		if _, err := tx.Exec("INSERT INTO conversations (id) VALUES (?)", conversationID); err != nil {
			return fmt.Errorf("failed to create conversation %s: %w", conversationID, err)
		}
	}
	if err := insertMessage(tx, conversationID, msg); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *Database) ListConversations() ([]models.Conversation, error) {
	rows, err := db.db.Query(`
		SELECT c.id, ` + prefixed("m", messageColumns) + `
		FROM conversations c
		JOIN messages m ON m.conversation_id = c.id
		ORDER BY c.seq ASC, m.seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	var (
		currentID string
		current   []models.Message
	)
	flush := func() {
		if len(current) > 0 {
			conversations = append(conversations, store.Derive(currentID, current))
		}
	}
	for rows.Next() {
		var (
			convID string
			msg    models.Message
			kind   string
		)
		if err := rows.Scan(&convID, &msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.SentAt, &msg.IsRead, &kind, &msg.MediaRef); err != nil {
			return nil, err
		}
		msg.Kind = models.MessageKind(kind)
		if convID != currentID {
			flush()
			currentID, current = convID, nil
		}
		current = append(current, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	flush()
	return conversations, nil
}

func prefixed(alias, columns string) string {
	cols := strings.Split(columns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func (db *Database) FindUser(id string) (models.User, error) {
	var u models.User
	err := db.db.QueryRow(`
		SELECT id, display_name, avatar_ref, is_online
		FROM users WHERE id = ?`, id).Scan(&u.ID, &u.DisplayName, &u.AvatarRef, &u.IsOnline)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	return u, err
}

func (db *Database) ListUsers() ([]models.User, error) {
	rows, err := db.db.Query(`
		SELECT id, display_name, avatar_ref, is_online
		FROM users
		ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.AvatarRef, &u.IsOnline); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (db *Database) MarkRead(conversationID, readerID string) (int, error) {
	if _, err := db.resolve(conversationID); err != nil {
		return 0, err
	}

	res, err := db.db.Exec(`
		UPDATE messages SET is_read = 1
		WHERE conversation_id = ? AND receiver_id = ? AND is_read = 0`,
		conversationID, readerID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark read: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// SearchMessages runs a full-text query over message content. Each word
// of term is quoted so user input cannot break the MATCH syntax.
func (db *Database) SearchMessages(term string) ([]models.Message, error) {
	words := strings.Fields(term)
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: empty search term", store.ErrInvalidInput)
	}
	for i, w := range words {
		words[i] = `"` + strings.ReplaceAll(w, `"`, "") + `"`
	}

	messages, err := db.queryMessages(`
		SELECT `+prefixed("m", messageColumns)+`
		FROM messages m
		JOIN messages_fts fts ON m.seq = fts.docid
		JOIN conversations c ON c.id = m.conversation_id
		WHERE fts.content MATCH ?
		ORDER BY c.seq ASC, m.seq ASC`, strings.Join(words, " "))
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	return messages, nil
}
