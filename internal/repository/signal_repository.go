package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fx-signal-bot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// SignalRepository is the Postgres signal log.
type SignalRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSignalRepository(pool PgxPool, tracer trace.Tracer) *SignalRepository {
	return &SignalRepository{pool: pool, tracer: tracer}
}

func (r *SignalRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "signal-repo.run-migrations")
	defer span.End()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_log (
			id         BIGSERIAL PRIMARY KEY,
			pair       TEXT NOT NULL,
			timeframe  TEXT NOT NULL,
			direction  TEXT NOT NULL,
			strength   TEXT NOT NULL,
			rsi        DOUBLE PRECISION NOT NULL,
			macd       DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_log_created_at ON signal_log (created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_signal_log_pair ON signal_log (pair, created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: migrate signal_log: %v", domain.ErrPersistence, err)
		}
	}
	return nil
}

func (r *SignalRepository) InsertSignal(ctx context.Context, rec domain.SignalRecord) (domain.SignalRecord, error) {
	_, span := r.tracer.Start(ctx, "signal-repo.insert-signal")
	defer span.End()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO signal_log (pair, timeframe, direction, strength, rsi, macd, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		rec.Pair,
		string(rec.Timeframe),
		string(rec.Direction),
		string(rec.Strength),
		rec.RSI,
		rec.MACD,
		rec.CreatedAt.UTC(),
	).Scan(&rec.ID)
	if err != nil {
		return domain.SignalRecord{}, fmt.Errorf("%w: insert signal: %v", domain.ErrPersistence, err)
	}
	return rec, nil
}

func (r *SignalRepository) ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.SignalRecord, error) {
	_, span := r.tracer.Start(ctx, "signal-repo.list-signals")
	defer span.End()

	args := make([]any, 0, 2)
	var sb strings.Builder
	sb.WriteString(`SELECT id, pair, timeframe, direction, strength, rsi, macd, created_at
		FROM signal_log
		WHERE 1=1`)
	if filter.Pair != "" {
		args = append(args, filter.Pair)
		sb.WriteString(fmt.Sprintf(" AND pair = $%d", len(args)))
	}
	limit := clampLimit(filter.Limit)
	args = append(args, limit)
	sb.WriteString(fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args)))

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list signals: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	out := make([]domain.SignalRecord, 0, limit)
	for rows.Next() {
		var rec domain.SignalRecord
		var timeframe, direction, strength string
		var createdAt time.Time
		if err := rows.Scan(
			&rec.ID,
			&rec.Pair,
			&timeframe,
			&direction,
			&strength,
			&rec.RSI,
			&rec.MACD,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scan signal: %v", domain.ErrPersistence, err)
		}
		rec.Timeframe = domain.Timeframe(timeframe)
		rec.Direction = domain.Direction(direction)
		rec.Strength = domain.Strength(strength)
		rec.CreatedAt = createdAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate signals: %v", domain.ErrPersistence, err)
	}
	return out, nil
}
