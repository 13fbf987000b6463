package signal

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"fx-signal-bot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefault(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultPolicy())
	require.NoError(t, err)
	return c
}

func TestClassifyDecisionTable(t *testing.T) {
	c := newDefault(t)
	cases := []struct {
		rsi, macd float64
		dir       domain.Direction
		strength  domain.Strength
	}{
		{25, 0.001, domain.DirectionBuy, domain.StrengthStrong},
		{75, -0.001, domain.DirectionSell, domain.StrengthStrong},
		{30, 0.001, domain.DirectionBuy, domain.StrengthModerate},
		{40, 0.001, domain.DirectionBuy, domain.StrengthModerate},
		{60, -0.001, domain.DirectionSell, domain.StrengthModerate},
		{70, -0.001, domain.DirectionSell, domain.StrengthModerate},
		{50, 0.5, domain.DirectionNeutral, domain.StrengthWeak},
		{25, -0.001, domain.DirectionNeutral, domain.StrengthWeak},
		{75, 0.001, domain.DirectionNeutral, domain.StrengthWeak},
		{25, 0, domain.DirectionNeutral, domain.StrengthWeak},
		{40.01, 0.001, domain.DirectionNeutral, domain.StrengthWeak},
		{59.99, -0.001, domain.DirectionNeutral, domain.StrengthWeak},
	}
	for _, tc := range cases {
		v := c.Classify(tc.rsi, tc.macd)
		assert.Equal(t, tc.dir, v.Direction, "rsi=%v macd=%v", tc.rsi, tc.macd)
		assert.Equal(t, tc.strength, v.Strength, "rsi=%v macd=%v", tc.rsi, tc.macd)
		assert.Equal(t, tc.rsi, v.RSI)
		assert.Equal(t, tc.macd, v.MACD)
		assert.True(t, v.GeneratedAt.IsZero())
	}
}

func TestClassifyTotalAndExclusive(t *testing.T) {
	c := newDefault(t)
	p := c.Policy()
	for rsi := 0.0; rsi <= 100; rsi += 0.25 {
		for _, macd := range []float64{-1, -1e-6, 0, 1e-6, 1} {
			matches := 0
			if rsi < p.StrongBuyBelow && macd > 0 {
				matches++
			}
			if rsi > p.StrongSellAbove && macd < 0 {
				matches++
			}
			if rsi >= p.StrongBuyBelow && rsi <= p.ModerateBuyMax && macd > 0 {
				matches++
			}
			if rsi >= p.ModerateSellMin && rsi <= p.StrongSellAbove && macd < 0 {
				matches++
			}
			require.LessOrEqual(t, matches, 1, "overlap at rsi=%v macd=%v", rsi, macd)

			v := c.Classify(rsi, macd)
			switch v.Direction {
			case domain.DirectionBuy, domain.DirectionSell:
				require.Equal(t, 1, matches)
			case domain.DirectionNeutral:
				require.Equal(t, 0, matches)
				require.Equal(t, domain.StrengthWeak, v.Strength)
			default:
				t.Fatalf("unexpected direction %q", v.Direction)
			}
		}
	}
}

func TestClassifyNaNIsNeutral(t *testing.T) {
	v := newDefault(t).Classify(math.NaN(), 1)
	assert.Equal(t, domain.DirectionNeutral, v.Direction)
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())

	bad := DefaultPolicy()
	bad.ModerateBuyMax = 65
	assert.Error(t, bad.Validate())

	_, err := NewClassifier(Policy{StrongBuyBelow: 50, ModerateBuyMax: 40, ModerateSellMin: 60, StrongSellAbove: 70})
	assert.Error(t, err)
}

func TestLoadPolicyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.yaml")
	body := []byte(`thresholds:
  strong_buy_below: 25
  moderate_buy_max: 45
  moderate_sell_min: 55
  strong_sell_above: 75
pairs:
  - EUR/USD
  - gbpusd
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))

	policy, pairs, err := LoadPolicyFile(path)
	require.NoError(t, err)
	assert.Equal(t, Policy{StrongBuyBelow: 25, ModerateBuyMax: 45, ModerateSellMin: 55, StrongSellAbove: 75}, policy)
	assert.Equal(t, []string{"EUR/USD", "gbpusd"}, pairs)

	c, err := NewClassifier(policy)
	require.NoError(t, err)
	assert.Equal(t, domain.StrengthModerate, c.Classify(44, 0.1).Strength)
}

func TestLoadPolicyFileDefaultsAndErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pairs-only.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pairs: [USD/JPY]\n"), 0o600))

	policy, pairs, err := LoadPolicyFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), policy)
	assert.Equal(t, []string{"USD/JPY"}, pairs)

	_, _, err = LoadPolicyFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	badPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("thresholds:\n  strong_buy_below: 90\n"), 0o600))
	_, _, err = LoadPolicyFile(badPath)
	assert.Error(t, err)
}
