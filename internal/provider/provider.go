// Package provider fetches intraday price series from public market-data APIs.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"fx-signal-bot/internal/domain"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBarCount = 50
	MinBarCount     = 30
	MaxBarCount     = 50
	DefaultTimeout  = 10 * time.Second

	NameTwelveData   = "twelvedata"
	NameAlphaVantage = "alphavantage"

	maxBodyBytes = 4 << 20
)

// Fetcher returns up to count bars for pair and timeframe, oldest first.
type Fetcher interface {
	Fetch(ctx context.Context, pair string, timeframe domain.Timeframe, count int) (domain.PriceSeries, error)
}

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Client  *http.Client
}

func (o Options) withDefaults(baseURL string) Options {
	if strings.TrimSpace(o.BaseURL) == "" {
		o.BaseURL = baseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Client == nil {
		o.Client = &http.Client{Timeout: o.Timeout}
	}
	return o
}

// New returns the fetcher registered under name.
func New(name string, tracer trace.Tracer, opts Options) (Fetcher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameTwelveData:
		return NewTwelveData(tracer, opts), nil
	case NameAlphaVantage:
		return NewAlphaVantage(tracer, opts), nil
	}
	return nil, fmt.Errorf("unknown market provider %q", name)
}

// ClampCount keeps a requested bar count within [MinBarCount, MaxBarCount].
// Zero or negative selects DefaultBarCount.
func ClampCount(n int) int {
	switch {
	case n <= 0:
		return DefaultBarCount
	case n < MinBarCount:
		return MinBarCount
	case n > MaxBarCount:
		return MaxBarCount
	}
	return n
}

// getJSON issues a bounded GET and decodes the body into out.
func getJSON(ctx context.Context, client *http.Client, timeout time.Duration, endpoint string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		// url.Error carries the full URL, api key included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: unexpected status %d", domain.ErrTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", domain.ErrTransport, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrDataUnavailable, err)
	}
	return nil
}

// rawBar is one provider row before parsing. Prices arrive as strings.
type rawBar struct {
	Time   string
	Open   string
	High   string
	Low    string
	Close  string
	Volume string
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
}

func parseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func parsePrice(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

func (r rawBar) parse() (domain.Bar, bool) {
	ts, ok := parseTime(r.Time)
	if !ok {
		return domain.Bar{}, false
	}
	open, ok1 := parsePrice(r.Open)
	high, ok2 := parsePrice(r.High)
	low, ok3 := parsePrice(r.Low)
	closePrice, ok4 := parsePrice(r.Close)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return domain.Bar{}, false
	}
	var volume float64
	if v, err := strconv.ParseFloat(strings.TrimSpace(r.Volume), 64); err == nil && v > 0 && !math.IsInf(v, 0) {
		volume = v
	}
	return domain.Bar{
		Timestamp: ts,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
	}, true
}

// buildSeries parses rows, drops invalid and duplicate timestamps, sorts
// ascending and keeps the newest count bars.
func buildSeries(pair string, timeframe domain.Timeframe, rows []rawBar, count int) (domain.PriceSeries, error) {
	bars := make([]domain.Bar, 0, len(rows))
	seen := make(map[int64]struct{}, len(rows))
	for _, row := range rows {
		bar, ok := row.parse()
		if !ok {
			continue
		}
		key := bar.Timestamp.UnixNano()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return domain.PriceSeries{}, fmt.Errorf("%w: no usable bars for %s %s", domain.ErrDataUnavailable, pair, timeframe)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	if count > 0 && len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return domain.PriceSeries{Pair: pair, Timeframe: timeframe, Bars: bars}, nil
}

func validateRequest(pair string, timeframe domain.Timeframe) error {
	if _, _, ok := domain.SplitPair(pair); !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedPair, pair)
	}
	if !timeframe.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedTimeframe, timeframe)
	}
	return nil
}

// recordFailure marks span as failed with the error kind as its status.
func recordFailure(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(domain.KindOf(err)))
}
