package db

import (
	"context"
	"fmt"
	"log"
	"os"

	"fx-signal-bot/internal/domain"
	"fx-signal-bot/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"
)

var Pool *pgxpool.Pool

func InitPostgres(ctx context.Context) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Println("DATABASE_URL not set, skipping Postgres connection")
		return
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("failed to ping Postgres: %v", err)
	}
	Pool = pool
	log.Println("Connected to Postgres")
}

// SignalLog is the append-only verdict store.
type SignalLog interface {
	InsertSignal(ctx context.Context, rec domain.SignalRecord) (domain.SignalRecord, error)
	ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.SignalRecord, error)
}

// OpenSignalLog picks Postgres when Pool is connected, then SQLite at
// sqlitePath, then a no-op store. The returned func releases the store.
func OpenSignalLog(ctx context.Context, tracer trace.Tracer, sqlitePath string) (SignalLog, func(), error) {
	if Pool != nil {
		repo := repository.NewSignalRepository(Pool, tracer)
		if err := repo.RunMigrations(ctx); err != nil {
			return nil, nil, fmt.Errorf("run signal migrations: %w", err)
		}
		log.Println("signal log: postgres")
		return repo, func() {}, nil
	}
	if sqlitePath != "" {
		store, err := repository.OpenSQLiteSignalStore(sqlitePath, tracer)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Printf("sqlite close error: %v", err)
			}
		}, nil
	}
	log.Println("signal log: disabled")
	return repository.NewNoopSignalStore(), func() {}, nil
}
