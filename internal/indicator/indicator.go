// Package indicator computes RSI and MACD over closing prices.
//
// All functions are pure: the same input yields bit-identical output.
package indicator

import (
	"fmt"
	"math"

	"fx-signal-bot/internal/domain"
)

const (
	DefaultRSIWindow  = 14
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

type Params struct {
	RSIWindow  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
}

func DefaultParams() Params {
	return Params{
		RSIWindow:  DefaultRSIWindow,
		MACDFast:   DefaultMACDFast,
		MACDSlow:   DefaultMACDSlow,
		MACDSignal: DefaultMACDSignal,
	}
}

// MinCloses is the shortest series for which Snapshot succeeds.
func (p Params) MinCloses() int {
	return max(p.RSIWindow+1, p.MACDSlow)
}

// RSI returns the Wilder relative strength index at the last close.
// It needs window+1 closes and returns 100 when there were no losses.
func RSI(closes []float64, window int) (float64, error) {
	if window <= 0 {
		return 0, fmt.Errorf("rsi window must be positive, got %d", window)
	}
	if len(closes) < window+1 {
		return 0, insufficient("rsi", window+1, len(closes))
	}
	series := RSISeries(closes, window)
	return series[len(series)-1], nil
}

// RSISeries returns RSI aligned with closes; the first window entries are NaN.
func RSISeries(closes []float64, window int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if window <= 0 || len(closes) <= window {
		return out
	}

	var gainSum, lossSum float64
	for i := 1; i <= window; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	avgGain := gainSum / float64(window)
	avgLoss := lossSum / float64(window)
	out[window] = rsiFromAvg(avgGain, avgLoss)

	for i := window + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain := math.Max(delta, 0)
		loss := math.Max(-delta, 0)
		avgGain = (avgGain*float64(window-1) + gain) / float64(window)
		avgLoss = (avgLoss*float64(window-1) + loss) / float64(window)
		out[i] = rsiFromAvg(avgGain, avgLoss)
	}
	return out
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// EMASeries returns the exponential moving average aligned with values.
// The value at period-1 is the simple mean of the first period samples;
// earlier entries are NaN.
func EMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(values) < period {
		return out
	}

	var sum float64
	for _, v := range values[:period] {
		sum += v
	}
	prev := sum / float64(period)
	out[period-1] = prev

	k := 2.0 / (float64(period) + 1.0)
	for i := period; i < len(values); i++ {
		prev = values[i]*k + prev*(1-k)
		out[i] = prev
	}
	return out
}

// EMA returns the last value of EMASeries.
func EMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("ema period must be positive, got %d", period)
	}
	if len(values) < period {
		return 0, insufficient("ema", period, len(values))
	}
	series := EMASeries(values, period)
	return series[len(series)-1], nil
}

// MACD returns EMA(fast) - EMA(slow) at the last close.
func MACD(closes []float64, fast, slow int) (float64, error) {
	if fast <= 0 || slow <= 0 || fast >= slow {
		return 0, fmt.Errorf("macd periods must satisfy 0 < fast < slow, got %d/%d", fast, slow)
	}
	if len(closes) < slow {
		return 0, insufficient("macd", slow, len(closes))
	}
	fastEMA, err := EMA(closes, fast)
	if err != nil {
		return 0, err
	}
	slowEMA, err := EMA(closes, slow)
	if err != nil {
		return 0, err
	}
	return fastEMA - slowEMA, nil
}

// MACDSeries returns the MACD line and its signal line aligned with closes.
// The line starts at slow-1 and the signal line at slow+signal-2.
func MACDSeries(closes []float64, fast, slow, signal int) ([]float64, []float64) {
	fastEMA := EMASeries(closes, fast)
	slowEMA := EMASeries(closes, slow)
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	sig := make([]float64, len(closes))
	for i := range sig {
		sig[i] = math.NaN()
	}
	start := slow - 1
	if start < 0 || start >= len(closes) {
		return line, sig
	}
	tail := EMASeries(line[start:], signal)
	copy(sig[start:], tail)
	return line, sig
}

// MACDSignal returns the signal line value at the last close, or false when
// the series is shorter than slow+signal-1.
func MACDSignal(closes []float64, fast, slow, signal int) (float64, bool) {
	if signal <= 0 || len(closes) < slow+signal-1 {
		return 0, false
	}
	_, sig := MACDSeries(closes, fast, slow, signal)
	last := sig[len(sig)-1]
	if math.IsNaN(last) {
		return 0, false
	}
	return last, true
}

// Snapshot computes RSI, MACD and, when the series is long enough, the MACD signal line.
func Snapshot(closes []float64, p Params) (domain.IndicatorSnapshot, error) {
	rsi, err := RSI(closes, p.RSIWindow)
	if err != nil {
		return domain.IndicatorSnapshot{}, err
	}
	macd, err := MACD(closes, p.MACDFast, p.MACDSlow)
	if err != nil {
		return domain.IndicatorSnapshot{}, err
	}
	snap := domain.IndicatorSnapshot{RSI: rsi, MACD: macd}
	if sig, ok := MACDSignal(closes, p.MACDFast, p.MACDSlow, p.MACDSignal); ok {
		snap.MACDSignal = &sig
	}
	return snap, nil
}

func insufficient(name string, need, got int) error {
	return fmt.Errorf("%w: %s needs %d closes, got %d", domain.ErrInsufficientData, name, need, got)
}
