package domain

import (
	"strings"
	"time"
)

type Direction string

const (
	DirectionBuy     Direction = "BUY"
	DirectionSell    Direction = "SELL"
	DirectionNeutral Direction = "NEUTRAL"
)

type Strength string

const (
	StrengthWeak     Strength = "WEAK"
	StrengthModerate Strength = "MODERATE"
	StrengthStrong   Strength = "STRONG"
)

// Bar is one OHLCV sample. Volume is zero when the provider omits it.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// PriceSeries holds bars for one pair and timeframe, oldest first.
type PriceSeries struct {
	Pair      string    `json:"pair"`
	Timeframe Timeframe `json:"timeframe"`
	Bars      []Bar     `json:"bars"`
}

func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i := range s.Bars {
		out[i] = s.Bars[i].Close
	}
	return out
}

func (s PriceSeries) Latest() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

type IndicatorSnapshot struct {
	RSI        float64  `json:"rsi"`
	MACD       float64  `json:"macd"`
	MACDSignal *float64 `json:"macd_signal,omitempty"`
}

type Verdict struct {
	Direction   Direction `json:"direction"`
	Strength    Strength  `json:"strength"`
	RSI         float64   `json:"rsi"`
	MACD        float64   `json:"macd"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Analysis is the result of one fetch, compute and classify run.
type Analysis struct {
	Pair      string            `json:"pair"`
	Timeframe Timeframe         `json:"timeframe"`
	Series    PriceSeries       `json:"-"`
	Snapshot  IndicatorSnapshot `json:"snapshot"`
	Verdict   Verdict           `json:"verdict"`
}

// SignalRecord is one row of the append-only signal log.
type SignalRecord struct {
	ID        int64     `json:"id"`
	Pair      string    `json:"pair"`
	Timeframe Timeframe `json:"timeframe"`
	Direction Direction `json:"direction"`
	Strength  Strength  `json:"strength"`
	RSI       float64   `json:"rsi"`
	MACD      float64   `json:"macd"`
	CreatedAt time.Time `json:"created_at"`
}

func NewSignalRecord(a *Analysis) SignalRecord {
	return SignalRecord{
		Pair:      a.Pair,
		Timeframe: a.Timeframe,
		Direction: a.Verdict.Direction,
		Strength:  a.Verdict.Strength,
		RSI:       a.Verdict.RSI,
		MACD:      a.Verdict.MACD,
		CreatedAt: a.Verdict.GeneratedAt.UTC(),
	}
}

type SignalFilter struct {
	Pair  string
	Limit int
}

// NormalizePair accepts "eurusd", "EUR_USD" or "eur/usd" and returns "EUR/USD".
func NormalizePair(raw string) string {
	p := strings.ToUpper(strings.TrimSpace(raw))
	p = strings.NewReplacer("_", "/", "-", "/", " ", "").Replace(p)
	if len(p) == 6 && !strings.Contains(p, "/") {
		p = p[:3] + "/" + p[3:]
	}
	return p
}

// SplitPair returns the base and quote currency codes of a normalized pair.
func SplitPair(pair string) (string, string, bool) {
	base, quote, ok := strings.Cut(pair, "/")
	if !ok || len(base) != 3 || len(quote) != 3 {
		return "", "", false
	}
	return base, quote, true
}
