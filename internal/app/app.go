// Package app assembles the analysis pipeline shared by the bot server and
// the MCP server.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"fx-signal-bot/internal/chart"
	"fx-signal-bot/internal/config"
	"fx-signal-bot/internal/db"
	"fx-signal-bot/internal/domain"
	"fx-signal-bot/internal/indicator"
	"fx-signal-bot/internal/metrics"
	"fx-signal-bot/internal/provider"
	"fx-signal-bot/internal/service"
	"fx-signal-bot/internal/signal"

	"go.opentelemetry.io/otel/trace"
)

type Pipeline struct {
	Service  *service.SignalService
	Charts   *chart.Renderer
	Signals  db.SignalLog
	Pairs    domain.PairSet
	Policy   signal.Policy
	closeLog func()
}

func (p *Pipeline) Close() {
	if p != nil && p.closeLog != nil {
		p.closeLog()
	}
}

// BuildPipeline wires provider, classifier, chart renderer and signal log
// from cfg. db.InitPostgres must run first for the Postgres log to be used.
func BuildPipeline(ctx context.Context, cfg *config.Config, tracer trace.Tracer, m *metrics.Metrics) (*Pipeline, error) {
	policy := signal.DefaultPolicy()
	pairList := domain.DefaultPairs
	if cfg.ThresholdsFile != "" {
		p, pairs, err := signal.LoadPolicyFile(cfg.ThresholdsFile)
		if err != nil {
			return nil, err
		}
		policy = p
		if len(pairs) > 0 {
			pairList = pairs
		}
		log.Printf("thresholds loaded from %s", cfg.ThresholdsFile)
	}
	classifier, err := signal.NewClassifier(policy)
	if err != nil {
		return nil, err
	}
	pairs := domain.NewPairSet(pairList)
	if len(pairs.List()) == 0 {
		return nil, fmt.Errorf("no valid currency pairs configured")
	}

	if cfg.MarketAPIKey == "" {
		log.Println("Warning: MARKET_API_KEY not set, provider requests will likely fail")
	}
	fetcher, err := provider.New(cfg.MarketProvider, tracer, provider.Options{
		BaseURL: cfg.MarketBaseURL,
		APIKey:  cfg.MarketAPIKey,
		Timeout: time.Duration(cfg.MarketTimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	params := indicator.DefaultParams()
	charts := chart.NewRenderer(params, chart.Bands{Lower: policy.StrongBuyBelow, Upper: policy.StrongSellAbove})

	signals, closeLog, err := db.OpenSignalLog(ctx, tracer, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open signal log: %w", err)
	}

	svc := service.NewSignalService(tracer, fetcher, classifier, signals, pairs, service.Options{
		BarCount: provider.ClampCount(cfg.MarketBarCount),
		Params:   params,
		Charts:   charts,
		Metrics:  m,
	})
	return &Pipeline{
		Service:  svc,
		Charts:   charts,
		Signals:  signals,
		Pairs:    pairs,
		Policy:   policy,
		closeLog: closeLog,
	}, nil
}
