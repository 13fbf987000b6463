package mcp

import (
	"fmt"
	"strings"

	"fx-signal-bot/internal/domain"
)

const (
	defaultSignalLimit = 50
	maxSignalLimit     = 200
)

type pairsListInput struct{}

type pairsListOutput struct {
	Pairs      []string        `json:"pairs"`
	Timeframes []timeframeInfo `json:"timeframes"`
}

type timeframeInfo struct {
	Timeframe domain.Timeframe `json:"timeframe"`
	Label     string           `json:"label"`
}

type signalAnalyzeInput struct {
	Pair      string `json:"pair" jsonschema:"currency pair, e.g. EUR/USD or eurusd"`
	Timeframe string `json:"timeframe,omitempty" jsonschema:"bar interval: 1min, 5min or 15min (M1, M5, M15 also accepted); defaults to 1min"`
}

type signalAnalyzeOutput struct {
	Analysis     *domain.Analysis `json:"analysis"`
	ActionWindow string           `json:"action_window"`
	Message      string           `json:"message"`
}

type signalsHistoryInput struct {
	Pair  string `json:"pair,omitempty" jsonschema:"optional currency pair filter"`
	Limit int    `json:"limit,omitempty" jsonschema:"number of records to return, max 200"`
}

type signalsHistoryOutput struct {
	Signals []domain.SignalRecord `json:"signals"`
}

func timeframeInfos(tfs []domain.Timeframe) []timeframeInfo {
	out := make([]timeframeInfo, 0, len(tfs))
	for _, tf := range tfs {
		out = append(out, timeframeInfo{Timeframe: tf, Label: tf.Label()})
	}
	return out
}

func normalizePair(pair string) (string, error) {
	p := domain.NormalizePair(pair)
	if p == "" {
		return "", fmt.Errorf("pair is required")
	}
	return p, nil
}

func normalizeTimeframe(raw string) (domain.Timeframe, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.Timeframe1m, nil
	}
	return domain.ParseTimeframe(raw)
}

func normalizeSignalLimit(limit int) int {
	if limit <= 0 {
		return defaultSignalLimit
	}
	if limit > maxSignalLimit {
		return maxSignalLimit
	}
	return limit
}

func normalizeHistoryFilter(in signalsHistoryInput) domain.SignalFilter {
	filter := domain.SignalFilter{Limit: normalizeSignalLimit(in.Limit)}
	if strings.TrimSpace(in.Pair) != "" {
		filter.Pair = domain.NormalizePair(in.Pair)
	}
	return filter
}
