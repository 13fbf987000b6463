package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"fx-signal-bot/internal/domain"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubAnalyzer struct {
	mu        sync.Mutex
	pairs     domain.PairSet
	err       error
	lastPair  string
	lastFrame domain.Timeframe
}

func (s *stubAnalyzer) Analyze(ctx context.Context, pair string, tf domain.Timeframe) (*domain.Analysis, error) {
	s.mu.Lock()
	s.lastPair, s.lastFrame = pair, tf
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	resolved, err := s.pairs.Resolve(pair)
	if err != nil {
		return nil, err
	}
	return &domain.Analysis{
		Pair:      resolved,
		Timeframe: tf,
		Snapshot:  domain.IndicatorSnapshot{RSI: 25.4, MACD: 0.00031},
		Verdict: domain.Verdict{
			Direction:   domain.DirectionBuy,
			Strength:    domain.StrengthStrong,
			RSI:         25.4,
			MACD:        0.00031,
			GeneratedAt: time.Unix(1700000000, 0).UTC(),
		},
	}, nil
}

func (s *stubAnalyzer) Pairs() []string { return s.pairs.List() }

func (s *stubAnalyzer) Timeframes() []domain.Timeframe {
	return append([]domain.Timeframe(nil), domain.SupportedTimeframes...)
}

func (s *stubAnalyzer) last() (string, domain.Timeframe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPair, s.lastFrame
}

type stubHistory struct {
	mu         sync.Mutex
	records    []domain.SignalRecord
	lastFilter domain.SignalFilter
}

func (s *stubHistory) ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.SignalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = filter
	return append([]domain.SignalRecord(nil), s.records...), nil
}

func (s *stubHistory) filter() domain.SignalFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFilter
}

func testServer() (*sdkmcp.Server, *stubAnalyzer, *stubHistory) {
	analyzer := &stubAnalyzer{pairs: domain.NewPairSet(domain.DefaultPairs)}
	history := &stubHistory{records: []domain.SignalRecord{{
		ID: 1, Pair: "EUR/USD", Timeframe: domain.Timeframe5m,
		Direction: domain.DirectionSell, Strength: domain.StrengthModerate,
		RSI: 64.2, MACD: -0.0002, CreatedAt: time.Unix(0, 0).UTC(),
	}}}

	srv := NewServer(nil, analyzer, history, ServerConfig{RequestTimeout: time.Second})
	return srv, analyzer, history
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}

func toolText(res *sdkmcp.CallToolResult) string {
	for _, c := range res.Content {
		if text, ok := c.(*sdkmcp.TextContent); ok {
			return text.Text
		}
	}
	return fmt.Sprintf("%+v", res.Content)
}
