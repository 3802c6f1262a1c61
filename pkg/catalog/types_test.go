package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rsiDefinitionJSON = `{
  "id": "RSI",
  "label": "Relative Strength Index",
  "version": "2024-06-01",
  "settings": {"period": {"type": "int", "default": 14, "min": 2, "max": 200}},
  "components": ["line"],
  "pairings": [
    {
      "subject": {"type": "indicator", "component": "line"},
      "targets": [
        {"target": {"type": "value", "min": 0, "max": 100, "step": 1}, "operators": [">", "<", "crossesAbove"]}
      ],
      "ui": {"defaultValue": 30}
    }
  ]
}`

func TestIndicatorDefinition_Decode(t *testing.T) {
	var def IndicatorDefinition
	require.NoError(t, json.Unmarshal([]byte(rsiDefinitionJSON), &def))

	assert.Equal(t, "RSI", def.ID)
	assert.Equal(t, []string{"line"}, def.Components)
	require.Len(t, def.Pairings, 1)

	p := def.Pairings[0]
	assert.Equal(t, ComponentSubject{Component: "line"}, p.Subject)
	require.Len(t, p.Targets, 1)

	vt, ok := p.Targets[0].Target.(ValueTarget)
	require.True(t, ok, "expected a value target, got %T", p.Targets[0].Target)
	assert.Equal(t, 0.0, *vt.Min)
	assert.Equal(t, 100.0, *vt.Max)
	assert.Equal(t, []Operator{OpGreater, OpLess, OpCrossesAbove}, p.Targets[0].Operators)
	require.NotNil(t, p.Hints.DefaultValue)
	assert.Equal(t, 30.0, *p.Hints.DefaultValue)

	assert.Equal(t, map[string]interface{}{"period": float64(14)}, def.DefaultSettings())
}

func TestPairing_DecodeRejectsUnknownVariants(t *testing.T) {
	var p Pairing
	err := json.Unmarshal([]byte(`{"subject": {"type": "volume"}, "targets": []}`), &p)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown subject type")

	err = json.Unmarshal([]byte(`{"subject": {"type": "price"}, "targets": [{"target": {"type": "value"}, "operators": ["~"]}]}`), &p)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operator")

	err = json.Unmarshal([]byte(`{"targets": []}`), &p)
	assert.Error(t, err)
}

func TestSameSubjectAndTarget(t *testing.T) {
	assert.True(t, SameSubject(PriceSubject{Source: PriceClose}, PriceSubject{Source: PriceHL2}))
	assert.True(t, SameSubject(ComponentSubject{Component: "k"}, ComponentSubject{Component: "k"}))
	assert.False(t, SameSubject(ComponentSubject{Component: "k"}, ComponentSubject{Component: "d"}))
	assert.False(t, SameSubject(DerivedSubject{ID: "percent_b"}, ComponentSubject{Component: "percent_b"}))
	assert.False(t, SameSubject(nil, PriceSubject{}))

	assert.True(t, SameTarget(Range(0, 100, 1), ValueTarget{}))
	assert.True(t, SameTarget(ComponentTarget{Component: "signal"}, ComponentTarget{Component: "signal"}))
	assert.False(t, SameTarget(ComponentTarget{Component: "signal"}, ComponentTarget{Component: ZeroComponent}))
	assert.False(t, SameTarget(ValueTarget{}, nil))
}

func TestValueTarget_Contains(t *testing.T) {
	rng := Range(0, 100, 1)
	assert.True(t, rng.Contains(0))
	assert.True(t, rng.Contains(100))
	assert.False(t, rng.Contains(-0.5))
	assert.False(t, rng.Contains(150))

	open := ValueTarget{}
	assert.False(t, open.Bounded())
	assert.True(t, open.Contains(-1e9))
}

func TestFallback(t *testing.T) {
	def, ok := Fallback("macd")
	require.True(t, ok)
	assert.Equal(t, "MACD", def.ID)

	// each call returns an independent copy
	def.Pairings = nil
	again, _ := Fallback("MACD")
	assert.NotEmpty(t, again.Pairings)

	_, ok = Fallback("ICHIMOKU")
	assert.False(t, ok)

	ids := FallbackIDs()
	assert.Equal(t, []string{"BB", "EMA", "MACD", "MFI", "RSI", "SMA", "STOCH"}, ids)
}

func TestFallback_EveryDefinitionIsUsable(t *testing.T) {
	for _, id := range FallbackIDs() {
		def, ok := Fallback(id)
		require.True(t, ok, id)
		require.NotEmpty(t, def.Pairings, id)

		for _, p := range def.Pairings {
			if cs, ok := p.Subject.(ComponentSubject); ok {
				assert.True(t, def.HasComponent(cs.Component), "%s: subject %s is not a component", id, cs.Component)
			}
			for _, entry := range p.Targets {
				assert.NotEmpty(t, entry.Operators, "%s: target without operators", id)
				if ct, ok := entry.Target.(ComponentTarget); ok && !ct.IsZeroLine() {
					assert.True(t, def.HasComponent(ct.Component), "%s: target %s is not a component", id, ct.Component)
				}
			}
		}
	}
}
