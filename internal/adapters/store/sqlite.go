package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/outreach-agent/internal/core"
)

const timeLayout = time.RFC3339Nano

// SQLiteThreadRepository persists threads and their messages in SQLite
type SQLiteThreadRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteThreadRepository opens the database and creates the schema
func NewSQLiteThreadRepository(dbPath string, logger *zap.Logger) (*SQLiteThreadRepository, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS threads (
			thread_id TEXT PRIMARY KEY,
			influencer_name TEXT NOT NULL DEFAULT '',
			influencer_email TEXT NOT NULL DEFAULT '',
			brand TEXT NOT NULL DEFAULT '',
			channel_url TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			processed_at TEXT
		);
		CREATE TABLE IF NOT EXISTS messages (
			thread_id TEXT NOT NULL REFERENCES threads(thread_id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			message_id TEXT NOT NULL DEFAULT '',
			sender TEXT NOT NULL DEFAULT '',
			recipient TEXT NOT NULL DEFAULT '',
			subject TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			sent_at TEXT NOT NULL,
			PRIMARY KEY (thread_id, seq)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteThreadRepository{db: db, logger: logger}, nil
}

// Seed inserts fixture threads that are not stored yet
func (r *SQLiteThreadRepository) Seed(ctx context.Context, threads []*core.EmailThread) error {
	seeded := 0
	for _, t := range threads {
		_, err := r.Get(ctx, t.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, core.ErrThreadNotFound) {
			return err
		}
		if err := r.Save(ctx, t); err != nil {
			return err
		}
		seeded++
	}
	r.logger.Info("Seeded thread store", zap.Int("seeded", seeded), zap.Int("fixtures", len(threads)))
	return nil
}

// Get loads a thread with its messages
func (r *SQLiteThreadRepository) Get(ctx context.Context, threadID string) (*core.EmailThread, error) {
	t := &core.EmailThread{}
	var processedAt sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT thread_id, influencer_name, influencer_email, brand, channel_url, category, status, processed_at
		FROM threads
		WHERE thread_id = ?
	`, threadID).Scan(&t.ID, &t.InfluencerName, &t.InfluencerEmail, &t.Brand, &t.ChannelURL, &t.Category, &t.Status, &processedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrThreadNotFound
		}
		return nil, fmt.Errorf("failed to query thread: %w", err)
	}

	if processedAt.Valid {
		at, err := time.Parse(timeLayout, processedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse processed_at: %w", err)
		}
		t.ProcessedAt = &at
	}

	if t.Messages, err = r.loadMessages(ctx, threadID); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *SQLiteThreadRepository) loadMessages(ctx context.Context, threadID string) ([]core.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT message_id, sender, recipient, subject, body, sent_at
		FROM messages
		WHERE thread_id = ?
		ORDER BY seq
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []core.Message
	for rows.Next() {
		var m core.Message
		var sentAt string
		if err := rows.Scan(&m.ID, &m.From, &m.To, &m.Subject, &m.Body, &sentAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if m.Timestamp, err = time.Parse(timeLayout, sentAt); err != nil {
			return nil, fmt.Errorf("failed to parse message timestamp: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// List loads every thread
func (r *SQLiteThreadRepository) List(ctx context.Context) ([]*core.EmailThread, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT thread_id FROM threads ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan thread id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	threads := make([]*core.EmailThread, 0, len(ids))
	for _, id := range ids {
		t, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, nil
}

// Save upserts the thread row and appends messages not stored yet
func (r *SQLiteThreadRepository) Save(ctx context.Context, t *core.EmailThread) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var processedAt interface{}
	if t.ProcessedAt != nil {
		processedAt = t.ProcessedAt.UTC().Format(timeLayout)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO threads (thread_id, influencer_name, influencer_email, brand, channel_url, category, status, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			influencer_name = excluded.influencer_name,
			influencer_email = excluded.influencer_email,
			brand = excluded.brand,
			channel_url = excluded.channel_url,
			category = excluded.category,
			status = excluded.status,
			processed_at = excluded.processed_at
	`, t.ID, t.InfluencerName, t.InfluencerEmail, t.Brand, t.ChannelURL, t.Category, t.Status, processedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert thread: %w", err)
	}

	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE thread_id = ?`, t.ID).Scan(&stored); err != nil {
		return fmt.Errorf("failed to count messages: %w", err)
	}
	if stored > len(t.Messages) {
		return fmt.Errorf("thread %s has %d stored messages but %d supplied: messages are append-only", t.ID, stored, len(t.Messages))
	}

	for i := stored; i < len(t.Messages); i++ {
		m := t.Messages[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO messages (thread_id, seq, message_id, sender, recipient, subject, body, sent_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, i, m.ID, m.From, m.To, m.Subject, m.Body, m.Timestamp.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit thread: %w", err)
	}
	return nil
}

// Close closes the database
func (r *SQLiteThreadRepository) Close() error {
	return r.db.Close()
}
