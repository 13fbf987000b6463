package mcp

import (
	"context"

	"fx-signal-bot/internal/domain"
)

// SignalAnalyzer runs the fetch, indicator and classify pipeline.
type SignalAnalyzer interface {
	Analyze(ctx context.Context, pair string, timeframe domain.Timeframe) (*domain.Analysis, error)
	Pairs() []string
	Timeframes() []domain.Timeframe
}

// SignalHistory reads the persisted signal log.
type SignalHistory interface {
	ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.SignalRecord, error)
}
