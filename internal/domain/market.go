package domain

import (
	"fmt"
	"strings"
	"time"
)

// Timeframe is a provider interval identifier.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1min"
	Timeframe5m  Timeframe = "5min"
	Timeframe15m Timeframe = "15min"
)

var SupportedTimeframes = []Timeframe{Timeframe1m, Timeframe5m, Timeframe15m}

var timeframeDurations = map[Timeframe]time.Duration{
	Timeframe1m:  time.Minute,
	Timeframe5m:  5 * time.Minute,
	Timeframe15m: 15 * time.Minute,
}

var timeframeLabels = map[Timeframe]string{
	Timeframe1m:  "M1",
	Timeframe5m:  "M5",
	Timeframe15m: "M15",
}

func (t Timeframe) String() string {
	return string(t)
}

// Label is the short chart notation shown to users (M1, M5, M15).
func (t Timeframe) Label() string {
	if l, ok := timeframeLabels[t]; ok {
		return l
	}
	return string(t)
}

func (t Timeframe) Duration() (time.Duration, error) {
	d, ok := timeframeDurations[t]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedTimeframe, t)
	}
	return d, nil
}

func (t Timeframe) IsValid() bool {
	_, ok := timeframeDurations[t]
	return ok
}

// ParseTimeframe accepts provider names (1min), labels (M1) and short forms (1m).
func ParseTimeframe(raw string) (Timeframe, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case "1min", "m1", "1m", "1":
		return Timeframe1m, nil
	case "5min", "m5", "5m", "5":
		return Timeframe5m, nil
	case "15min", "m15", "15m", "15":
		return Timeframe15m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedTimeframe, raw)
}

var DefaultPairs = []string{
	"EUR/USD",
	"GBP/USD",
	"USD/JPY",
	"AUD/USD",
	"USD/CHF",
	"USD/CAD",
	"EUR/JPY",
	"GBP/JPY",
}

// PairSet is the set of currency pairs a deployment accepts.
type PairSet struct {
	ordered []string
	index   map[string]struct{}
}

func NewPairSet(pairs []string) PairSet {
	set := PairSet{index: make(map[string]struct{}, len(pairs))}
	for _, p := range pairs {
		p = NormalizePair(p)
		if _, _, ok := SplitPair(p); !ok {
			continue
		}
		if _, dup := set.index[p]; dup {
			continue
		}
		set.index[p] = struct{}{}
		set.ordered = append(set.ordered, p)
	}
	return set
}

func (s PairSet) List() []string {
	return append([]string(nil), s.ordered...)
}

func (s PairSet) Contains(pair string) bool {
	_, ok := s.index[pair]
	return ok
}

// Resolve normalizes raw and checks it against the set.
func (s PairSet) Resolve(raw string) (string, error) {
	p := NormalizePair(raw)
	if p == "" {
		return "", fmt.Errorf("%w: pair is required", ErrUnsupportedPair)
	}
	if !s.Contains(p) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPair, p)
	}
	return p, nil
}
