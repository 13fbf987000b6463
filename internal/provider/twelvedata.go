package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"fx-signal-bot/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const TwelveDataBaseURL = "https://api.twelvedata.com"

type twelveDataResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
		Volume   string `json:"volume"`
	} `json:"values"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type TwelveData struct {
	tracer trace.Tracer
	opts   Options
}

func NewTwelveData(tracer trace.Tracer, opts Options) *TwelveData {
	return &TwelveData{tracer: tracer, opts: opts.withDefaults(TwelveDataBaseURL)}
}

func (p *TwelveData) Fetch(ctx context.Context, pair string, timeframe domain.Timeframe, count int) (domain.PriceSeries, error) {
	ctx, span := p.tracer.Start(ctx, "twelvedata.fetch")
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

func (p *TwelveData) fetch(ctx context.Context, pair string, timeframe domain.Timeframe, count int) (domain.PriceSeries, error) {
	if err := validateRequest(pair, timeframe); err != nil {
		return domain.PriceSeries{}, err
	}
	count = ClampCount(count)

	params := url.Values{}
	params.Set("symbol", pair)
	params.Set("interval", string(timeframe))
	params.Set("outputsize", strconv.Itoa(count))
	params.Set("apikey", p.opts.APIKey)
	endpoint := p.opts.BaseURL + "/time_series?" + params.Encode()

	var resp twelveDataResponse
	if err := getJSON(ctx, p.opts.Client, p.opts.Timeout, endpoint, &resp); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("twelvedata %s %s: %w", pair, timeframe, err)
	}
	if resp.Status == "error" {
		return domain.PriceSeries{}, fmt.Errorf("twelvedata %s %s: %w: code %d: %s", pair, timeframe, domain.ErrDataUnavailable, resp.Code, resp.Message)
	}
	if resp.Values == nil {
		return domain.PriceSeries{}, fmt.Errorf("twelvedata %s %s: %w: response has no values", pair, timeframe, domain.ErrDataUnavailable)
	}

	rows := make([]rawBar, 0, len(resp.Values))
	for _, v := range resp.Values {
		rows = append(rows, rawBar{
			Time:   v.Datetime,
			Open:   v.Open,
			High:   v.High,
			Low:    v.Low,
			Close:  v.Close,
			Volume: v.Volume,
		})
	}
	series, err := buildSeries(pair, timeframe, rows, count)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("twelvedata: %w", err)
	}
	return series, nil
}
