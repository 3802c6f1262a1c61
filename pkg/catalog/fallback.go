package catalog

import (
	"sort"
	"strings"
)

// Fallback definitions are used when the catalog service is unreachable and
// nothing is cached. They mirror the service's published v1 schemas.
const fallbackVersion = "builtin-1"

var (
	comparisonOps = []Operator{OpGreater, OpLess, OpGreaterEqual, OpLessEqual}
	crossingOps   = []Operator{OpCrossesAbove, OpCrossesBelow}
	lineOps       = []Operator{OpCrossesAbove, OpCrossesBelow, OpGreater, OpLess}
	oscillatorOps = []Operator{OpLess, OpGreater, OpCrossesAbove, OpCrossesBelow, OpLessEqual, OpGreaterEqual}
)

func periodSetting(label string, def, min, max float64) SettingSchema {
	return SettingSchema{Type: "int", Label: label, Default: def, Min: Float(min), Max: Float(max)}
}

func sourceSetting() SettingSchema {
	options := make([]string, len(PriceSources))
	for i, s := range PriceSources {
		options[i] = string(s)
	}
	return SettingSchema{Type: "select", Label: "Source", Default: string(PriceClose), Options: options}
}

func priceHints() UIHints {
	return UIHints{PriceSources: PriceSources, DefaultPriceSource: PriceClose}
}

// FallbackRSI returns the built-in RSI definition
func FallbackRSI() *IndicatorDefinition {
	return &IndicatorDefinition{
		ID:      "RSI",
		Label:   "Relative Strength Index",
		Version: fallbackVersion,
		Settings: map[string]SettingSchema{
			"period": periodSetting("Period", 14, 2, 200),
			"source": sourceSetting(),
		},
		Components: []string{"line"},
		Pairings: []Pairing{
			{
				Subject: ComponentSubject{Component: "line"},
				Targets: []TargetOperators{
					{Target: Range(0, 100, 1), Operators: oscillatorOps},
				},
				Hints: UIHints{DefaultValue: Float(30), Placeholder: "30"},
			},
		},
	}
}

// FallbackMACD returns the built-in MACD definition
func FallbackMACD() *IndicatorDefinition {
	return &IndicatorDefinition{
		ID:      "MACD",
		Label:   "Moving Average Convergence Divergence",
		Version: fallbackVersion,
		Settings: map[string]SettingSchema{
			"fast":   periodSetting("Fast period", 12, 2, 100),
			"slow":   periodSetting("Slow period", 26, 3, 200),
			"signal": periodSetting("Signal period", 9, 2, 50),
			"source": sourceSetting(),
		},
		Components: []string{"macd", "signal", "histogram"},
		Pairings: []Pairing{
			{
				Subject: ComponentSubject{Component: "macd"},
				Targets: []TargetOperators{
					{Target: ComponentTarget{Component: "signal"}, Operators: lineOps},
					{Target: ComponentTarget{Component: ZeroComponent}, Operators: lineOps},
				},
			},
			{
				Subject: ComponentSubject{Component: "histogram"},
				Targets: []TargetOperators{
					{Target: ComponentTarget{Component: ZeroComponent}, Operators: lineOps},
					{Target: ValueTarget{}, Operators: comparisonOps},
				},
			},
			{
				Subject: ComponentSubject{Component: "signal"},
				Targets: []TargetOperators{
					{Target: ComponentTarget{Component: ZeroComponent}, Operators: lineOps},
				},
			},
		},
	}
}

func movingAverage(id, label, component string) *IndicatorDefinition {
	return &IndicatorDefinition{
		ID:      id,
		Label:   label,
		Version: fallbackVersion,
		Settings: map[string]SettingSchema{
			"period": periodSetting("Period", 20, 1, 500),
			"source": sourceSetting(),
		},
		Components: []string{component},
		Pairings: []Pairing{
			{
				Subject: PriceSubject{},
				Targets: []TargetOperators{
					{Target: ComponentTarget{Component: component}, Operators: lineOps},
				},
				Hints: priceHints(),
			},
		},
	}
}

// FallbackEMA returns the built-in EMA definition
func FallbackEMA() *IndicatorDefinition {
	return movingAverage("EMA", "Exponential Moving Average", "ema")
}

// FallbackSMA returns the built-in SMA definition
func FallbackSMA() *IndicatorDefinition {
	return movingAverage("SMA", "Simple Moving Average", "sma")
}

// FallbackBB returns the built-in Bollinger Bands definition
func FallbackBB() *IndicatorDefinition {
	return &IndicatorDefinition{
		ID:      "BB",
		Label:   "Bollinger Bands",
		Version: fallbackVersion,
		Settings: map[string]SettingSchema{
			"period": periodSetting("Period", 20, 2, 200),
			"stdDev": {Type: "float", Label: "Std deviation", Default: 2.0, Min: Float(0.5), Max: Float(5)},
			"source": sourceSetting(),
		},
		Components: []string{"upper", "middle", "lower"},
		Pairings: []Pairing{
			{
				Subject: PriceSubject{},
				Targets: []TargetOperators{
					{Target: ComponentTarget{Component: "lower"}, Operators: lineOps},
					{Target: ComponentTarget{Component: "middle"}, Operators: lineOps},
					{Target: ComponentTarget{Component: "upper"}, Operators: lineOps},
				},
				Hints: priceHints(),
			},
			{
				Subject: DerivedSubject{ID: "percent_b", Label: "%B"},
				Targets: []TargetOperators{
					{Target: Range(0, 1, 0.01), Operators: oscillatorOps},
				},
				Hints: UIHints{DefaultValue: Float(0), Placeholder: "0.00"},
			},
			{
				Subject: DerivedSubject{ID: "bandwidth", Label: "Bandwidth"},
				Targets: []TargetOperators{
					{Target: ValueTarget{Min: Float(0), Step: Float(0.01)}, Operators: comparisonOps},
				},
			},
		},
	}
}

// FallbackStochastic returns the built-in Stochastic definition
func FallbackStochastic() *IndicatorDefinition {
	return &IndicatorDefinition{
		ID:      "STOCH",
		Label:   "Stochastic Oscillator",
		Version: fallbackVersion,
		Settings: map[string]SettingSchema{
			"kPeriod": periodSetting("%K period", 14, 1, 100),
			"dPeriod": periodSetting("%D period", 3, 1, 50),
			"smooth":  periodSetting("Smoothing", 3, 1, 50),
		},
		Components: []string{"k", "d"},
		Pairings: []Pairing{
			{
				Subject: ComponentSubject{Component: "k"},
				Targets: []TargetOperators{
					{Target: ComponentTarget{Component: "d"}, Operators: crossingOps},
					{Target: Range(0, 100, 1), Operators: oscillatorOps},
				},
				Hints: UIHints{DefaultValue: Float(20)},
			},
			{
				Subject: ComponentSubject{Component: "d"},
				Targets: []TargetOperators{
					{Target: Range(0, 100, 1), Operators: oscillatorOps},
				},
				Hints: UIHints{DefaultValue: Float(20)},
			},
		},
	}
}

// FallbackMFI returns the built-in Money Flow Index definition
func FallbackMFI() *IndicatorDefinition {
	return &IndicatorDefinition{
		ID:      "MFI",
		Label:   "Money Flow Index",
		Version: fallbackVersion,
		Settings: map[string]SettingSchema{
			"period": periodSetting("Period", 14, 2, 200),
		},
		Components: []string{"line"},
		Pairings: []Pairing{
			{
				Subject: ComponentSubject{Component: "line"},
				Targets: []TargetOperators{
					{Target: Range(0, 100, 1), Operators: oscillatorOps},
				},
				Hints: UIHints{DefaultValue: Float(20)},
			},
		},
	}
}

var fallbackBuilders = map[string]func() *IndicatorDefinition{
	"RSI":   FallbackRSI,
	"MACD":  FallbackMACD,
	"EMA":   FallbackEMA,
	"SMA":   FallbackSMA,
	"BB":    FallbackBB,
	"STOCH": FallbackStochastic,
	"MFI":   FallbackMFI,
}

// Fallback returns a fresh copy of the built-in definition for id.
// Lookup is case-insensitive.
func Fallback(id string) (*IndicatorDefinition, bool) {
	build, ok := fallbackBuilders[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return nil, false
	}
	return build(), true
}

// FallbackSummaries lists the built-in indicators sorted by id
func FallbackSummaries() []IndicatorSummary {
	summaries := make([]IndicatorSummary, 0, len(fallbackBuilders))
	for _, build := range fallbackBuilders {
		summaries = append(summaries, build().Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID < summaries[j].ID
	})
	return summaries
}

// FallbackIDs lists the ids that have a built-in definition
func FallbackIDs() []string {
	summaries := FallbackSummaries()
	ids := make([]string, len(summaries))
	for i, s := range summaries {
		ids[i] = s.ID
	}
	return ids
}
