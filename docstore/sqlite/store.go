// Package sqlite implements core.DocumentStore on top of SQLite using the
// pure Go modernc.org/sqlite driver.
//
// Messages and participant documents are stored as JSON. Run updates and
// output event appends are read-modify-write transactions, so status
// monotonicity and union semantics hold across processes sharing the file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/docstore"
	"github.com/hupe1980/agentlab/logging"
)

// Compile-time interface compliance check.
var _ core.DocumentStore = (*Store)(nil)

const (
	kindAgent = "agent"
	kindModel = "model"
)

// Options configures a Store.
type Options struct {
	Logger logging.Logger
	Clock  func() time.Time
}

// Store implements core.DocumentStore using SQLite.
type Store struct {
	db     *sql.DB
	logger logging.Logger
	clock  func() time.Time
}

// New opens (and if needed creates) the database at path.
// Parent directories are created if needed.
func New(path string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{Logger: logging.NoOpLogger{}, Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection serializes writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db, logger: opts.Logger, clock: opts.Clock}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s.logger.Info("SQLite document store initialized", "path", path)

	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS messages (
			chat_id TEXT NOT NULL,
			id TEXT NOT NULL,
			doc TEXT NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (chat_id, id)
		);

		CREATE TABLE IF NOT EXISTS participants (
			kind TEXT NOT NULL,
			id TEXT NOT NULL,
			doc TEXT NOT NULL,
			PRIMARY KEY (kind, id),
			CHECK (kind IN ('agent', 'model'))
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// PutMessage inserts or replaces a message of a chat.
func (s *Store) PutMessage(ctx context.Context, chatID string, msg core.Message) error {
	doc, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (chat_id, id, doc, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(chat_id, id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at
	`, chatID, msg.ID, string(doc), s.clock().UTC())
	if err != nil {
		return fmt.Errorf("storing message: %w", err)
	}
	return nil
}

// PutAgent stores an agent configuration document.
func (s *Store) PutAgent(ctx context.Context, id string, doc core.ConfigDoc) error {
	return s.putParticipant(ctx, kindAgent, id, doc)
}

// PutModel stores a model configuration document.
func (s *Store) PutModel(ctx context.Context, id string, doc core.ConfigDoc) error {
	return s.putParticipant(ctx, kindModel, id, doc)
}

func (s *Store) putParticipant(ctx context.Context, kind, id string, doc core.ConfigDoc) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", kind, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO participants (kind, id, doc) VALUES (?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET doc = excluded.doc
	`, kind, id, string(b))
	if err != nil {
		return fmt.Errorf("storing %s: %w", kind, err)
	}
	return nil
}

// GetMessage loads one message.
func (s *Store) GetMessage(ctx context.Context, chatID, messageID string) (*core.Message, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM messages WHERE chat_id = ? AND id = ?`, chatID, messageID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Kind: "message", ID: messageID}
	}
	if err != nil {
		return nil, fmt.Errorf("querying message: %w", err)
	}

	return decodeMessage(doc)
}

// ListMessages loads every message of a chat.
func (s *Store) ListMessages(ctx context.Context, chatID string) ([]core.Message, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM messages WHERE chat_id = ?`, chatID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var out []core.Message
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msg, err := decodeMessage(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *msg)
	}
	return out, rows.Err()
}

// UpdateRun applies a partial run update in a transaction.
func (s *Store) UpdateRun(ctx context.Context, chatID, messageID string, upd core.RunUpdate) error {
	return s.mutate(ctx, chatID, messageID, func(msg *core.Message) error {
		return docstore.ApplyRunUpdate(msg, upd, s.clock())
	})
}

// AppendOutputEvents union-appends events in a transaction.
func (s *Store) AppendOutputEvents(ctx context.Context, chatID, messageID string, events ...core.OutputEvent) error {
	return s.mutate(ctx, chatID, messageID, func(msg *core.Message) error {
		if msg.Run == nil {
			msg.Run = &core.RunState{Status: core.RunStatusPending}
		}
		merged, err := docstore.UnionEvents(msg.Run.OutputEvents, events...)
		if err != nil {
			return err
		}
		msg.Run.OutputEvents = merged
		return nil
	})
}

func (s *Store) mutate(ctx context.Context, chatID, messageID string, fn func(*core.Message) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var doc string
	err = tx.QueryRowContext(ctx,
		`SELECT doc FROM messages WHERE chat_id = ? AND id = ?`, chatID, messageID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return &core.NotFoundError{Kind: "message", ID: messageID}
	}
	if err != nil {
		return fmt.Errorf("querying message: %w", err)
	}

	msg, err := decodeMessage(doc)
	if err != nil {
		return err
	}

	if err := fn(msg); err != nil {
		return err
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE messages SET doc = ?, updated_at = ? WHERE chat_id = ? AND id = ?`,
		string(b), s.clock().UTC(), chatID, messageID,
	); err != nil {
		return fmt.Errorf("updating message: %w", err)
	}

	return tx.Commit()
}

// GetAgent returns the agent configuration document.
func (s *Store) GetAgent(ctx context.Context, agentID string) (core.ConfigDoc, error) {
	return s.getParticipant(ctx, kindAgent, agentID)
}

// GetModel returns the model configuration document.
func (s *Store) GetModel(ctx context.Context, modelID string) (core.ConfigDoc, error) {
	return s.getParticipant(ctx, kindModel, modelID)
}

func (s *Store) getParticipant(ctx context.Context, kind, id string) (core.ConfigDoc, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM participants WHERE kind = ? AND id = ?`, kind, id,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Kind: kind, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", kind, err)
	}

	var out core.ConfigDoc
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return nil, fmt.Errorf("decoding %s %s: %w", kind, id, err)
	}
	return out, nil
}

func decodeMessage(doc string) (*core.Message, error) {
	var msg core.Message
	if err := json.Unmarshal([]byte(doc), &msg); err != nil {
		return nil, fmt.Errorf("decoding message: %w", err)
	}
	return &msg, nil
}
