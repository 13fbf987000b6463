package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fx-signal-bot/internal/chart"
	"fx-signal-bot/internal/domain"
	"fx-signal-bot/internal/indicator"
	"fx-signal-bot/internal/metrics"
	"fx-signal-bot/internal/service"
	"fx-signal-bot/internal/signal"
	"fx-signal-bot/internal/stream"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{series: flatSeries(40)}, &stubHistory{})

	w := serve(router, "/health")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Fatalf("unexpected health response: %d %s", w.Code, w.Body.String())
	}
}

func TestGetPairs(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{}, &stubHistory{})

	w := serve(router, "/api/pairs")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Pairs      []string `json:"pairs"`
		Timeframes []string `json:"timeframes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(resp.Pairs) != len(domain.DefaultPairs) || resp.Pairs[0] != "EUR/USD" {
		t.Fatalf("unexpected pairs: %v", resp.Pairs)
	}
	if len(resp.Timeframes) != 3 || resp.Timeframes[0] != "1min" {
		t.Fatalf("unexpected timeframes: %v", resp.Timeframes)
	}
}

func TestGetSignalSuccess(t *testing.T) {
	fetcher := &stubFetcher{series: flatSeries(40)}
	history := &stubHistory{}
	router := newTestRouter(t, fetcher, history)

	w := serve(router, "/api/signal?pair=eurusd&timeframe=M5")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if fetcher.lastPair != "EUR/USD" || fetcher.lastTF != domain.Timeframe5m {
		t.Fatalf("unexpected fetch: %s %s", fetcher.lastPair, fetcher.lastTF)
	}

	var resp SignalResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if resp.Analysis == nil || resp.Analysis.Verdict.Direction != domain.DirectionNeutral {
		t.Fatalf("flat series must be neutral, got %+v", resp.Analysis)
	}
	if resp.ActionWindow != "1 мин" {
		t.Fatalf("unexpected action window %q", resp.ActionWindow)
	}
	if !strings.HasPrefix(resp.Message, "🔔 Сигнал EUR/USD M5") {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if history.inserts != 0 {
		t.Fatal("the HTTP endpoint must not persist")
	}
}

func TestGetSignalErrorStatuses(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		fetch  *stubFetcher
		status int
		kind   domain.ErrorKind
	}{
		{"missing pair", "/api/signal", &stubFetcher{}, http.StatusBadRequest, ""},
		{"bad timeframe", "/api/signal?pair=EUR/USD&timeframe=4h", &stubFetcher{}, http.StatusBadRequest, ""},
		{"unsupported pair", "/api/signal?pair=BTC/USD", &stubFetcher{}, http.StatusBadRequest, domain.KindInvalidRequest},
		{"insufficient", "/api/signal?pair=EUR/USD", &stubFetcher{series: flatSeries(10)}, http.StatusUnprocessableEntity, domain.KindInsufficient},
		{"transport", "/api/signal?pair=EUR/USD", &stubFetcher{err: fmt.Errorf("%w: status 503", domain.ErrTransport)}, http.StatusBadGateway, domain.KindTransport},
		{"no data", "/api/signal?pair=EUR/USD", &stubFetcher{err: fmt.Errorf("%w: missing values", domain.ErrDataUnavailable)}, http.StatusBadGateway, domain.KindDataUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(t, tc.fetch, &stubHistory{})
			w := serve(router, tc.path)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if tc.kind == "" {
				return
			}
			var resp struct {
				Kind    domain.ErrorKind `json:"kind"`
				Message string           `json:"message"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("parse error: %v", err)
			}
			if resp.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, resp.Kind)
			}
			if !strings.HasPrefix(resp.Message, "⚠️ Ошибка анализа:") {
				t.Fatalf("unexpected message %q", resp.Message)
			}
		})
	}
}

func TestGetSignalChart(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{series: flatSeries(50)}, &stubHistory{})

	w := serve(router, "/api/signal/chart?pair=GBP/USD&timeframe=15min")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != chart.MimeType {
		t.Fatalf("unexpected content type %q", ct)
	}
	if _, err := png.Decode(bytes.NewReader(w.Body.Bytes())); err != nil {
		t.Fatalf("response is not a png: %v", err)
	}
}

func TestGetSignalsSuccess(t *testing.T) {
	history := &stubHistory{records: []domain.SignalRecord{{
		ID:        3,
		Pair:      "EUR/USD",
		Timeframe: domain.Timeframe1m,
		Direction: domain.DirectionBuy,
		Strength:  domain.StrengthStrong,
		RSI:       25,
		MACD:      0.0004,
		CreatedAt: time.Unix(0, 0).UTC(),
	}}}
	router := newTestRouter(t, &stubFetcher{}, history)

	w := serve(router, "/api/signals?pair=eur_usd&limit=5")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if history.lastFilter.Pair != "EUR/USD" || history.lastFilter.Limit != 5 {
		t.Fatalf("unexpected filter: %+v", history.lastFilter)
	}
	var resp struct {
		Signals []domain.SignalRecord `json:"signals"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(resp.Signals) != 1 || resp.Signals[0].ID != 3 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestGetSignalsDefaultLimit(t *testing.T) {
	history := &stubHistory{}
	router := newTestRouter(t, &stubFetcher{}, history)

	if w := serve(router, "/api/signals"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if history.lastFilter.Limit != 50 {
		t.Fatalf("expected default limit 50, got %d", history.lastFilter.Limit)
	}
}

func TestGetSignalsBadParams(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{}, &stubHistory{})

	for _, path := range []string{"/api/signals?limit=abc", "/api/signals?limit=201", "/api/signals?limit=0", "/api/signals?pair=XAU"} {
		if w := serve(router, path); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestServiceUnavailable(t *testing.T) {
	h := New(trace.NewNoopTracerProvider().Tracer("handler-test"), nil, nil, nil)
	router := gin.New()
	h.RegisterRoutes(router)

	for _, path := range []string{"/api/pairs", "/api/signal?pair=EUR/USD", "/api/signal/chart?pair=EUR/USD", "/api/signals"} {
		if w := serve(router, path); w.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", path, w.Code)
		}
	}
	if w := serve(router, "/metrics"); w.Code != http.StatusNotFound {
		t.Fatalf("metrics must not be registered without a gatherer, got %d", w.Code)
	}
}

func TestMetricsAndStreamRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := newTestService(t, &stubFetcher{series: flatSeries(40)}, &stubHistory{}, m)
	h := New(trace.NewNoopTracerProvider().Tracer("handler-test"), svc, stream.NewHub(), reg)
	router := gin.New()
	h.RegisterRoutes(router)

	if w := serve(router, "/api/signal?pair=EUR/USD"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w := serve(router, "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "fxsignal_analyses_total") {
		t.Fatalf("expected analyses counter in metrics output, got %d", w.Code)
	}

	// A plain GET is not a websocket handshake.
	if w := serve(router, "/ws/signals"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-upgrade request, got %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"https://dash.example.com"}))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example.com" {
		t.Fatalf("unexpected allow origin %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("foreign origin must not be allowed, got %q", got)
	}

	open := gin.New()
	open.Use(CORS(nil))
	open.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://any.example.com")
	w = httptest.NewRecorder()
	open.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
}

func newTestService(t *testing.T, fetcher service.PriceFetcher, history service.SignalHistory, m *metrics.Metrics) *service.SignalService {
	t.Helper()
	classifier, err := signal.NewClassifier(signal.DefaultPolicy())
	if err != nil {
		t.Fatalf("classifier: %v", err)
	}
	return service.NewSignalService(
		trace.NewNoopTracerProvider().Tracer("handler-test"),
		fetcher,
		classifier,
		history,
		domain.NewPairSet(domain.DefaultPairs),
		service.Options{
			Charts:  chart.NewRenderer(indicator.DefaultParams(), chart.Bands{}),
			Metrics: m,
		},
	)
}

func newTestRouter(t *testing.T, fetcher service.PriceFetcher, history service.SignalHistory) *gin.Engine {
	t.Helper()
	h := New(trace.NewNoopTracerProvider().Tracer("handler-test"), newTestService(t, fetcher, history, nil), nil, nil)
	router := gin.New()
	h.RegisterRoutes(router)
	return router
}

func serve(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func flatSeries(n int) domain.PriceSeries {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, n)
	for i := range bars {
		bars[i] = domain.Bar{Timestamp: base.Add(time.Duration(i) * time.Minute), Open: 1.0842, High: 1.0845, Low: 1.0840, Close: 1.0842}
	}
	return domain.PriceSeries{Bars: bars}
}

type stubFetcher struct {
	series   domain.PriceSeries
	err      error
	lastPair string
	lastTF   domain.Timeframe
}

func (s *stubFetcher) Fetch(_ context.Context, pair string, tf domain.Timeframe, _ int) (domain.PriceSeries, error) {
	s.lastPair, s.lastTF = pair, tf
	if s.err != nil {
		return domain.PriceSeries{}, s.err
	}
	out := s.series
	out.Pair, out.Timeframe = pair, tf
	return out, nil
}

type stubHistory struct {
	lastFilter domain.SignalFilter
	records    []domain.SignalRecord
	inserts    int
}

func (s *stubHistory) ListSignals(_ context.Context, filter domain.SignalFilter) ([]domain.SignalRecord, error) {
	s.lastFilter = filter
	if s.records == nil {
		return []domain.SignalRecord{}, nil
	}
	return s.records, nil
}

func (s *stubHistory) InsertSignal(_ context.Context, rec domain.SignalRecord) (domain.SignalRecord, error) {
	s.inserts++
	return rec, nil
}
