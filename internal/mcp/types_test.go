package mcp

import (
	"errors"
	"testing"

	"fx-signal-bot/internal/domain"
)

func TestNormalizePair(t *testing.T) {
	p, err := normalizePair(" eur_usd ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != "EUR/USD" {
		t.Fatalf("expected EUR/USD, got %s", p)
	}
	if _, err := normalizePair("  "); err == nil {
		t.Fatal("expected missing pair error")
	}
}

func TestNormalizeTimeframe(t *testing.T) {
	tf, err := normalizeTimeframe("")
	if err != nil || tf != domain.Timeframe1m {
		t.Fatalf("expected 1min default, got %s err=%v", tf, err)
	}
	tf, err = normalizeTimeframe("m15")
	if err != nil || tf != domain.Timeframe15m {
		t.Fatalf("expected 15min, got %s err=%v", tf, err)
	}
	if _, err := normalizeTimeframe("4h"); !errors.Is(err, domain.ErrUnsupportedTimeframe) {
		t.Fatalf("expected unsupported timeframe, got %v", err)
	}
}

func TestNormalizeHistoryFilter(t *testing.T) {
	f := normalizeHistoryFilter(signalsHistoryInput{})
	if f.Pair != "" || f.Limit != defaultSignalLimit {
		t.Fatalf("unexpected default filter: %+v", f)
	}
	f = normalizeHistoryFilter(signalsHistoryInput{Pair: "gbpjpy", Limit: 999})
	if f.Pair != "GBP/JPY" || f.Limit != maxSignalLimit {
		t.Fatalf("unexpected filter: %+v", f)
	}
}
