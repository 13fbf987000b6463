package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"fx-signal-bot/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const AlphaVantageBaseURL = "https://www.alphavantage.co"

type alphaVantageBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

type AlphaVantage struct {
	tracer trace.Tracer
	opts   Options
}

func NewAlphaVantage(tracer trace.Tracer, opts Options) *AlphaVantage {
	return &AlphaVantage{tracer: tracer, opts: opts.withDefaults(AlphaVantageBaseURL)}
}

func (p *AlphaVantage) Fetch(ctx context.Context, pair string, timeframe domain.Timeframe, count int) (domain.PriceSeries, error) {
	ctx, span := p.tracer.Start(ctx, "alphavantage.fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("pair", pair),
		attribute.String("timeframe", string(timeframe)),
	)

	series, err := p.fetch(ctx, pair, timeframe, count)
	if err != nil {
		recordFailure(span, err)
		return domain.PriceSeries{}, err
	}
	span.SetAttributes(attribute.Int("bars", len(series.Bars)))
	return series, nil
}

func (p *AlphaVantage) fetch(ctx context.Context, pair string, timeframe domain.Timeframe, count int) (domain.PriceSeries, error) {
	if err := validateRequest(pair, timeframe); err != nil {
		return domain.PriceSeries{}, err
	}
	count = ClampCount(count)
	base, quote, _ := domain.SplitPair(pair)

	params := url.Values{}
	params.Set("function", "FX_INTRADAY")
	params.Set("from_symbol", base)
	params.Set("to_symbol", quote)
	params.Set("interval", string(timeframe))
	params.Set("outputsize", "compact")
	params.Set("apikey", p.opts.APIKey)
	endpoint := p.opts.BaseURL + "/query?" + params.Encode()

	var raw map[string]json.RawMessage
	if err := getJSON(ctx, p.opts.Client, p.opts.Timeout, endpoint, &raw); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("alphavantage %s %s: %w", pair, timeframe, err)
	}

	seriesKey := ""
	for key := range raw {
		if strings.HasPrefix(key, "Time Series") {
			seriesKey = key
			break
		}
	}
	if seriesKey == "" {
		return domain.PriceSeries{}, fmt.Errorf("alphavantage %s %s: %w: %s", pair, timeframe, domain.ErrDataUnavailable, alphaVantageReason(raw))
	}

	var byTime map[string]alphaVantageBar
	if err := json.Unmarshal(raw[seriesKey], &byTime); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("alphavantage %s %s: %w: decode %q: %v", pair, timeframe, domain.ErrDataUnavailable, seriesKey, err)
	}

	rows := make([]rawBar, 0, len(byTime))
	for ts, bar := range byTime {
		rows = append(rows, rawBar{
			Time:   ts,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		})
	}
	series, err := buildSeries(pair, timeframe, rows, count)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("alphavantage: %w", err)
	}
	return series, nil
}

// alphaVantageReason extracts the throttling or error note Alpha Vantage sends
// in place of a time series.
func alphaVantageReason(raw map[string]json.RawMessage) string {
	for _, key := range []string{"Error Message", "Note", "Information"} {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(msg, &text); err == nil && text != "" {
			return text
		}
	}
	return "response has no time series"
}
