package repository

import (
	"context"

	"fx-signal-bot/internal/domain"
)

// NoopSignalStore is used when neither SQLite nor Postgres is configured.
type NoopSignalStore struct{}

func NewNoopSignalStore() *NoopSignalStore { return &NoopSignalStore{} }

func (NoopSignalStore) InsertSignal(_ context.Context, rec domain.SignalRecord) (domain.SignalRecord, error) {
	return rec, nil
}

func (NoopSignalStore) ListSignals(_ context.Context, _ domain.SignalFilter) ([]domain.SignalRecord, error) {
	return []domain.SignalRecord{}, nil
}
