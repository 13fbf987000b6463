package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"fx-signal-bot/internal/domain"
	"fx-signal-bot/internal/indicator"
	"fx-signal-bot/internal/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type PriceFetcher interface {
	Fetch(ctx context.Context, pair string, timeframe domain.Timeframe, count int) (domain.PriceSeries, error)
}

type SignalClassifier interface {
	Classify(rsi, macd float64) domain.Verdict
}

type SignalHistory interface {
	ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.SignalRecord, error)
}

type SignalChartRenderer interface {
	Render(series domain.PriceSeries, verdict domain.Verdict) ([]byte, error)
}

type Options struct {
	BarCount int
	Params   indicator.Params
	Charts   SignalChartRenderer
	Metrics  *metrics.Metrics
}

// SignalService runs the fetch, compute and classify pipeline.
type SignalService struct {
	tracer     trace.Tracer
	fetcher    PriceFetcher
	classifier SignalClassifier
	history    SignalHistory
	pairs      domain.PairSet
	barCount   int
	params     indicator.Params
	charts     SignalChartRenderer
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewSignalService(
	tracer trace.Tracer,
	fetcher PriceFetcher,
	classifier SignalClassifier,
	history SignalHistory,
	pairs domain.PairSet,
	opts Options,
) *SignalService {
	if opts.Params == (indicator.Params{}) {
		opts.Params = indicator.DefaultParams()
	}
	return &SignalService{
		tracer:     tracer,
		fetcher:    fetcher,
		classifier: classifier,
		history:    history,
		pairs:      pairs,
		barCount:   opts.BarCount,
		params:     opts.Params,
		charts:     opts.Charts,
		metrics:    opts.Metrics,
		now:        time.Now,
	}
}

func (s *SignalService) Pairs() []string {
	return s.pairs.List()
}

func (s *SignalService) Timeframes() []domain.Timeframe {
	return append([]domain.Timeframe(nil), domain.SupportedTimeframes...)
}

// Analyze fetches a fresh series for pair and timeframe and classifies its
// latest RSI and MACD. Nothing is persisted here.
func (s *SignalService) Analyze(ctx context.Context, pair string, timeframe domain.Timeframe) (*domain.Analysis, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.analyze")
	defer span.End()

	analysis, err := s.analyze(ctx, pair, timeframe)
	if err != nil {
		kind := domain.KindOf(err)
		s.metrics.ObserveFailure(string(kind))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		return nil, err
	}
	span.SetAttributes(
		attribute.String("pair", analysis.Pair),
		attribute.String("timeframe", string(analysis.Timeframe)),
		attribute.String("direction", string(analysis.Verdict.Direction)),
		attribute.String("strength", string(analysis.Verdict.Strength)),
	)
	s.metrics.ObserveAnalysis(analysis.Pair, string(analysis.Timeframe), string(analysis.Verdict.Direction))
	return analysis, nil
}

func (s *SignalService) analyze(ctx context.Context, rawPair string, timeframe domain.Timeframe) (*domain.Analysis, error) {
	if s.fetcher == nil || s.classifier == nil {
		return nil, fmt.Errorf("signal service is not fully initialized")
	}
	pair, err := s.pairs.Resolve(rawPair)
	if err != nil {
		return nil, err
	}
	if !timeframe.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedTimeframe, timeframe)
	}

	started := time.Now()
	series, err := s.fetcher.Fetch(ctx, pair, timeframe, s.barCount)
	s.metrics.ObserveFetch(time.Since(started))
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", pair, timeframe, err)
	}

	snap, err := indicator.Snapshot(series.Closes(), s.params)
	if err != nil {
		return nil, fmt.Errorf("indicators for %s %s: %w", pair, timeframe, err)
	}

	verdict := s.classifier.Classify(snap.RSI, snap.MACD)
	verdict.GeneratedAt = s.now().UTC()

	return &domain.Analysis{
		Pair:      pair,
		Timeframe: timeframe,
		Series:    series,
		Snapshot:  snap,
		Verdict:   verdict,
	}, nil
}

// Chart runs Analyze and renders the result as a PNG.
func (s *SignalService) Chart(ctx context.Context, pair string, timeframe domain.Timeframe) ([]byte, *domain.Analysis, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.chart")
	defer span.End()

	if s.charts == nil {
		return nil, nil, fmt.Errorf("chart rendering is not configured")
	}
	analysis, err := s.Analyze(ctx, pair, timeframe)
	if err != nil {
		return nil, nil, err
	}
	png, err := s.charts.Render(analysis.Series, analysis.Verdict)
	if err != nil {
		log.Printf("chart render error for %s %s: %v", analysis.Pair, analysis.Timeframe, err)
		return nil, analysis, fmt.Errorf("render chart: %w", err)
	}
	return png, analysis, nil
}

func (s *SignalService) ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.SignalRecord, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.list-signals")
	defer span.End()

	if s.history == nil {
		return []domain.SignalRecord{}, nil
	}
	if filter.Pair != "" {
		pair, err := s.pairs.Resolve(filter.Pair)
		if err != nil {
			return nil, err
		}
		filter.Pair = pair
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	return s.history.ListSignals(ctx, filter)
}
