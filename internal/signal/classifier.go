package signal

import (
	"fmt"
	"math"
	"os"

	"fx-signal-bot/internal/domain"

	"gopkg.in/yaml.v3"
)

// Policy is the RSI/MACD threshold table used to classify a snapshot.
//
//	rsi <  StrongBuyBelow                     && macd > 0  -> STRONG BUY
//	rsi >  StrongSellAbove                    && macd < 0  -> STRONG SELL
//	StrongBuyBelow  <= rsi <= ModerateBuyMax  && macd > 0  -> MODERATE BUY
//	ModerateSellMin <= rsi <= StrongSellAbove && macd < 0  -> MODERATE SELL
//	anything else                                          -> NEUTRAL WEAK
type Policy struct {
	StrongBuyBelow  float64 `yaml:"strong_buy_below"`
	ModerateBuyMax  float64 `yaml:"moderate_buy_max"`
	ModerateSellMin float64 `yaml:"moderate_sell_min"`
	StrongSellAbove float64 `yaml:"strong_sell_above"`
}

func DefaultPolicy() Policy {
	return Policy{
		StrongBuyBelow:  30,
		ModerateBuyMax:  40,
		ModerateSellMin: 60,
		StrongSellAbove: 70,
	}
}

// Validate rejects tables whose bands overlap or leave [0,100].
func (p Policy) Validate() error {
	ordered := 0 <= p.StrongBuyBelow &&
		p.StrongBuyBelow <= p.ModerateBuyMax &&
		p.ModerateBuyMax < p.ModerateSellMin &&
		p.ModerateSellMin <= p.StrongSellAbove &&
		p.StrongSellAbove <= 100
	if !ordered {
		return fmt.Errorf("invalid threshold policy %+v: need 0 <= strong_buy_below <= moderate_buy_max < moderate_sell_min <= strong_sell_above <= 100", p)
	}
	return nil
}

type Classifier struct {
	policy Policy
}

func NewClassifier(policy Policy) (*Classifier, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{policy: policy}, nil
}

func (c *Classifier) Policy() Policy {
	return c.policy
}

// Classify maps an RSI/MACD pair onto exactly one verdict. GeneratedAt is left
// zero so that equal inputs give equal verdicts.
func (c *Classifier) Classify(rsi, macd float64) domain.Verdict {
	direction, strength := c.decide(rsi, macd)
	return domain.Verdict{
		Direction: direction,
		Strength:  strength,
		RSI:       rsi,
		MACD:      macd,
	}
}

func (c *Classifier) decide(rsi, macd float64) (domain.Direction, domain.Strength) {
	if math.IsNaN(rsi) || math.IsNaN(macd) {
		return domain.DirectionNeutral, domain.StrengthWeak
	}
	p := c.policy
	switch {
	case rsi < p.StrongBuyBelow && macd > 0:
		return domain.DirectionBuy, domain.StrengthStrong
	case rsi > p.StrongSellAbove && macd < 0:
		return domain.DirectionSell, domain.StrengthStrong
	case rsi >= p.StrongBuyBelow && rsi <= p.ModerateBuyMax && macd > 0:
		return domain.DirectionBuy, domain.StrengthModerate
	case rsi >= p.ModerateSellMin && rsi <= p.StrongSellAbove && macd < 0:
		return domain.DirectionSell, domain.StrengthModerate
	}
	return domain.DirectionNeutral, domain.StrengthWeak
}

// policyFile is the YAML layout of THRESHOLDS_FILE.
type policyFile struct {
	Thresholds *Policy  `yaml:"thresholds"`
	Pairs      []string `yaml:"pairs"`
}

// LoadPolicyFile reads thresholds and an optional pair list from a YAML file.
// Missing thresholds fall back to DefaultPolicy.
func LoadPolicyFile(path string) (Policy, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, nil, fmt.Errorf("read thresholds file: %w", err)
	}
	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Policy{}, nil, fmt.Errorf("parse thresholds file: %w", err)
	}
	policy := DefaultPolicy()
	if f.Thresholds != nil {
		policy = *f.Thresholds
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, nil, err
	}
	return policy, f.Pairs, nil
}
