// Package storage persists drained buffer snapshots to SQLite together
// with an outbox of flush events and the buffer's settings.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ismaiel54/trading-storage-buffer/internal/buffer"
	"github.com/ismaiel54/trading-storage-buffer/internal/message"
	"github.com/ismaiel54/trading-storage-buffer/internal/msg"
	_ "modernc.org/sqlite"
)

// Store is the durable sink for flushed batches
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// WriteResult describes the outcome of WriteSnapshot
type WriteResult struct {
	BatchID     string
	Rows        int
	Duplicate   bool
	OutboxEvent *OutboxEvent
}

// Batch is one row of flush_batches
type Batch struct {
	BatchID           string
	Total             int
	CreatedUnixMillis int64
}

// OutboxEvent represents a flush event waiting to be published
type OutboxEvent struct {
	ID                  int64
	BatchID             string
	EventID             string
	Topic               string
	Key                 string
	PayloadJSON         string
	CreatedUnixMillis   int64
	PublishedUnixMillis sql.NullInt64
}

// Open creates or opens the store
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; serialize through a single connection
	db.SetMaxOpenConns(1)

	store := &Store{db: db, now: time.Now}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// migrate creates the necessary tables
func (s *Store) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS flush_batches (
			batch_id TEXT PRIMARY KEY,
			total INTEGER NOT NULL,
			created_unix_millis INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS buffered_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id TEXT NOT NULL,
			category TEXT NOT NULL,
			security_id TEXT NOT NULL,
			series TEXT NOT NULL,
			seq INTEGER NOT NULL,
			message_type TEXT NOT NULL,
			payload_json TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_buffered_batch
			ON buffered_messages(batch_id, category)`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id TEXT NOT NULL,
			event_id TEXT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			key TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			created_unix_millis INTEGER NOT NULL,
			published_unix_millis INTEGER NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_unpublished
			ON outbox_events(published_unix_millis)
			WHERE published_unix_millis IS NULL`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value INTEGER NOT NULL,
			updated_unix_millis INTEGER NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// WriteSnapshot persists every message of snap under batchID in one
// transaction. A batch id that was already written is reported as a
// duplicate and nothing is stored. With withEvent set a FlushEventMsg is
// queued in the outbox in the same transaction.
func (s *Store) WriteSnapshot(ctx context.Context, batchID string, snap buffer.Snapshot, withEvent bool) (WriteResult, error) {
	rows, err := snapshotRows(snap)
	if err != nil {
		return WriteResult{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return WriteResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRowContext(ctx,
		"SELECT total FROM flush_batches WHERE batch_id = ?",
		batchID,
	).Scan(&existing)
	if err == nil {
		return WriteResult{BatchID: batchID, Rows: existing, Duplicate: true}, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return WriteResult{}, fmt.Errorf("failed to check existing batch: %w", err)
	}

	now := s.now().UnixMilli()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO flush_batches (batch_id, total, created_unix_millis) VALUES (?, ?, ?)",
		batchID, len(rows), now,
	); err != nil {
		return WriteResult{}, fmt.Errorf("failed to insert batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO buffered_messages (batch_id, category, security_id, series, seq, message_type, payload_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return WriteResult{}, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, batchID, r.category, r.securityID, r.series, r.seq, r.messageType, r.payload); err != nil {
			return WriteResult{}, fmt.Errorf("failed to insert %s message: %w", r.category, err)
		}
	}

	result := WriteResult{BatchID: batchID, Rows: len(rows)}

	if withEvent {
		event := msg.FlushEventMsg{
			EventID:      "flush-" + batchID,
			BatchID:      batchID,
			Counts:       snap.Counts(),
			Total:        len(rows),
			TsUnixMillis: now,
		}
		eventJSON, err := json.Marshal(event)
		if err != nil {
			return WriteResult{}, fmt.Errorf("failed to marshal flush event: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO outbox_events (batch_id, event_id, topic, key, payload_json, created_unix_millis, published_unix_millis)
			 VALUES (?, ?, ?, ?, ?, ?, NULL)`,
			batchID, event.EventID, msg.TopicFlushes, batchID, string(eventJSON), now,
		); err != nil {
			return WriteResult{}, fmt.Errorf("failed to insert outbox event: %w", err)
		}

		result.OutboxEvent = &OutboxEvent{
			BatchID:           batchID,
			EventID:           event.EventID,
			Topic:             msg.TopicFlushes,
			Key:               batchID,
			PayloadJSON:       string(eventJSON),
			CreatedUnixMillis: now,
		}
	}

	if err := tx.Commit(); err != nil {
		return WriteResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

// CountByCategory returns the number of stored messages per category,
// across all batches when batchID is empty.
func (s *Store) CountByCategory(ctx context.Context, batchID string) (map[string]int, error) {
	query := "SELECT category, COUNT(*) FROM buffered_messages GROUP BY category"
	var args []any
	if batchID != "" {
		query = "SELECT category, COUNT(*) FROM buffered_messages WHERE batch_id = ? GROUP BY category"
		args = append(args, batchID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[category] = n
	}

	return counts, rows.Err()
}

// ListBatches returns the most recent batches first
func (s *Store) ListBatches(ctx context.Context, limit int) ([]Batch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT batch_id, total, created_unix_millis
		 FROM flush_batches
		 ORDER BY created_unix_millis DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.BatchID, &b.Total, &b.CreatedUnixMillis); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, b)
	}

	return batches, rows.Err()
}

// LoadMessages returns the stored messages of one category in a batch in
// write order.
func (s *Store) LoadMessages(ctx context.Context, batchID, category string) ([]message.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_type, payload_json
		 FROM buffered_messages
		 WHERE batch_id = ? AND category = ?
		 ORDER BY id ASC`,
		batchID, category,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []message.Message
	for rows.Next() {
		var typeName, payload string
		if err := rows.Scan(&typeName, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m, _, err := msg.Decode(envelopeJSON(typeName, payload))
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	return out, rows.Err()
}

// ListUnpublished returns unpublished outbox events
func (s *Store) ListUnpublished(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, batch_id, event_id, topic, key, payload_json, created_unix_millis, published_unix_millis
		 FROM outbox_events
		 WHERE published_unix_millis IS NULL
		 ORDER BY id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query unpublished events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		err := rows.Scan(
			&e.ID, &e.BatchID, &e.EventID, &e.Topic, &e.Key,
			&e.PayloadJSON, &e.CreatedUnixMillis, &e.PublishedUnixMillis,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// MarkPublished marks an event as published
func (s *Store) MarkPublished(ctx context.Context, eventID string, nowMillis int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE outbox_events SET published_unix_millis = ? WHERE event_id = ?",
		nowMillis, eventID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark event as published: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type row struct {
	category    string
	securityID  string
	series      string
	seq         int
	messageType string
	payload     string
}

// snapshotRows flattens snap into rows ordered by category, then key, then
// per-key insertion order.
func snapshotRows(snap buffer.Snapshot) ([]row, error) {
	var rows []row
	var err error

	secKey := func(k message.SecurityID) (string, string) { return k.String(), "" }

	if rows, err = appendKeyed(rows, buffer.CategoryTicks, snap.Ticks, secKey); err != nil {
		return nil, err
	}
	if rows, err = appendKeyed(rows, buffer.CategoryOrderLog, snap.OrderLog, secKey); err != nil {
		return nil, err
	}
	if rows, err = appendKeyed(rows, buffer.CategoryTransactions, snap.Transactions, secKey); err != nil {
		return nil, err
	}
	if rows, err = appendKeyed(rows, buffer.CategoryLevel1, snap.Level1, secKey); err != nil {
		return nil, err
	}
	if rows, err = appendKeyed(rows, buffer.CategoryPositionChanges, snap.PositionChanges, secKey); err != nil {
		return nil, err
	}
	if rows, err = appendKeyed(rows, buffer.CategoryOrderBooks, snap.OrderBooks, secKey); err != nil {
		return nil, err
	}
	if rows, err = appendKeyed(rows, buffer.CategoryCandles, snap.Candles, func(k message.CandleKey) (string, string) {
		return k.SecurityID.String(), string(k.Kind) + "/" + k.Arg
	}); err != nil {
		return nil, err
	}
	if rows, err = appendList(rows, buffer.CategoryNews, snap.News); err != nil {
		return nil, err
	}
	if rows, err = appendList(rows, buffer.CategoryBoardStates, snap.BoardStates); err != nil {
		return nil, err
	}

	return rows, nil
}

func appendKeyed[K comparable, V message.Message](rows []row, category string, m map[K][]V, keyOf func(K) (string, string)) ([]row, error) {
	type entry struct {
		key        K
		sec, series string
	}
	entries := make([]entry, 0, len(m))
	for k := range m {
		sec, series := keyOf(k)
		entries = append(entries, entry{key: k, sec: sec, series: series})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].sec != entries[j].sec {
			return entries[i].sec < entries[j].sec
		}
		return entries[i].series < entries[j].series
	})

	for _, e := range entries {
		for i, v := range m[e.key] {
			payload, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal %s message: %w", category, err)
			}
			rows = append(rows, row{
				category:    category,
				securityID:  e.sec,
				series:      e.series,
				seq:         i,
				messageType: v.Type().String(),
				payload:     string(payload),
			})
		}
	}
	return rows, nil
}

func appendList[V message.Message](rows []row, category string, list []V) ([]row, error) {
	for i, v := range list {
		payload, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s message: %w", category, err)
		}
		rows = append(rows, row{
			category:    category,
			seq:         i,
			messageType: v.Type().String(),
			payload:     string(payload),
		})
	}
	return rows, nil
}

func envelopeJSON(typeName, payload string) []byte {
	data, _ := json.Marshal(msg.Envelope{Type: typeName, Payload: json.RawMessage(payload)})
	return data
}
