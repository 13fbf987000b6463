package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"fx-signal-bot/internal/domain"

	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"
)

// SQLiteSignalStore persists the signal log to a local SQLite file.
type SQLiteSignalStore struct {
	db     *sql.DB
	tracer trace.Tracer
	mu     sync.Mutex
}

// OpenSQLiteSignalStore opens (or creates) the database at path and runs migrations.
func OpenSQLiteSignalStore(path string, tracer trace.Tracer) (*SQLiteSignalStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteSignalStore{db: db, tracer: tracer}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("sqlite signal log opened: %s", path)
	return s, nil
}

func (s *SQLiteSignalStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_log (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			pair       TEXT NOT NULL,
			timeframe  TEXT NOT NULL,
			direction  TEXT NOT NULL,
			strength   TEXT NOT NULL,
			rsi        REAL NOT NULL,
			macd       REAL NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_log_created_at ON signal_log(created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", strings.TrimSpace(stmt)[:40], err)
		}
	}
	return nil
}

func (s *SQLiteSignalStore) InsertSignal(ctx context.Context, rec domain.SignalRecord) (domain.SignalRecord, error) {
	_, span := s.tracer.Start(ctx, "sqlite-signal-store.insert-signal")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO signal_log
		(pair, timeframe, direction, strength, rsi, macd, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		rec.Pair, string(rec.Timeframe), string(rec.Direction), string(rec.Strength),
		rec.RSI, rec.MACD, rec.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return domain.SignalRecord{}, fmt.Errorf("%w: insert signal: %v", domain.ErrPersistence, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.SignalRecord{}, fmt.Errorf("%w: last insert id: %v", domain.ErrPersistence, err)
	}
	rec.ID = id
	rec.CreatedAt = time.UnixMilli(rec.CreatedAt.UTC().UnixMilli()).UTC()
	return rec, nil
}

func (s *SQLiteSignalStore) ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.SignalRecord, error) {
	_, span := s.tracer.Start(ctx, "sqlite-signal-store.list-signals")
	defer span.End()

	query := `SELECT id, pair, timeframe, direction, strength, rsi, macd, created_at FROM signal_log`
	args := make([]any, 0, 2)
	if filter.Pair != "" {
		query += ` WHERE pair = ?`
		args = append(args, filter.Pair)
	}
	limit := clampLimit(filter.Limit)
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list signals: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	out := make([]domain.SignalRecord, 0, limit)
	for rows.Next() {
		var rec domain.SignalRecord
		var timeframe, direction, strength string
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.Pair, &timeframe, &direction, &strength, &rec.RSI, &rec.MACD, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scan signal: %v", domain.ErrPersistence, err)
		}
		rec.Timeframe = domain.Timeframe(timeframe)
		rec.Direction = domain.Direction(direction)
		rec.Strength = domain.Strength(strength)
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate signals: %v", domain.ErrPersistence, err)
	}
	return out, nil
}

func (s *SQLiteSignalStore) Close() error {
	return s.db.Close()
}
