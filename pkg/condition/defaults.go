package condition

import (
	"github.com/google/uuid"

	"github.com/ducminhle1904/dca-strategy-wizard/pkg/catalog"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/pairing"
)

// Defaults is the canonical (subject, target, operator) of a definition
type Defaults struct {
	Subject     catalog.Subject
	Target      catalog.Target
	Operator    catalog.Operator
	PriceSource catalog.PriceSource
	Hints       catalog.UIHints
}

// DefaultsFor takes the first pairing, its first target and that target's
// first operator. Entries without targets or operators are skipped so the
// result is always a legal triple; ok is false when none exists. A subject
// or target repeated later in the definition is shadowed by its first
// occurrence and never chosen.
func DefaultsFor(def *catalog.IndicatorDefinition) (Defaults, bool) {
	if def == nil {
		return Defaults{}, false
	}
	for _, p := range def.Pairings {
		if p.Subject == nil {
			continue
		}
		for _, entry := range p.Targets {
			if entry.Target == nil || len(entry.Operators) == 0 {
				continue
			}
			if !pairing.HasTriple(def, p.Subject, entry.Target, entry.Operators[0]) {
				continue
			}
			d := Defaults{
				Subject:  p.Subject,
				Target:   entry.Target,
				Operator: entry.Operators[0],
				Hints:    p.Hints,
			}
			if _, isPrice := p.Subject.(catalog.PriceSubject); isPrice {
				d.PriceSource = defaultPriceSource(p.Hints)
				d.Subject = catalog.PriceSubject{Source: d.PriceSource}
			}
			return d, true
		}
	}
	return Defaults{}, false
}

func defaultPriceSource(hints catalog.UIHints) catalog.PriceSource {
	if hints.DefaultPriceSource.IsValid() {
		return hints.DefaultPriceSource
	}
	for _, s := range hints.PriceSources {
		if s.IsValid() {
			return s
		}
	}
	return catalog.DefaultPriceSource
}

// allowedPriceSource reports whether s may be kept for a pairing with hints
func allowedPriceSource(hints catalog.UIHints, s catalog.PriceSource) bool {
	if !s.IsValid() {
		return false
	}
	if len(hints.PriceSources) == 0 {
		return true
	}
	for _, allowed := range hints.PriceSources {
		if allowed == s {
			return true
		}
	}
	return false
}

// DefaultComparison returns the payload a fresh condition starts with for target
func DefaultComparison(target catalog.Target, hints catalog.UIHints) *Comparison {
	switch t := target.(type) {
	case catalog.ComponentTarget:
		return ComponentRef(t.Component)
	case catalog.ValueTarget:
		if hints.DefaultValue != nil && t.Contains(*hints.DefaultValue) {
			return Literal(*hints.DefaultValue)
		}
		if t.Min != nil {
			return Literal(*t.Min)
		}
		if t.Max != nil && *t.Max < 0 {
			return Literal(*t.Max)
		}
		return Literal(0)
	default:
		return nil
	}
}

// NewCondition builds a complete condition from def's defaults
func NewCondition(def *catalog.IndicatorDefinition, timeframe string) (Condition, bool) {
	d, ok := DefaultsFor(def)
	if !ok {
		return Condition{}, false
	}
	return Condition{
		ID: uuid.NewString(),
		Indicator: IndicatorRef{
			Name:     def.ID,
			Settings: def.DefaultSettings(),
		},
		Timeframe:  timeframe,
		Subject:    d.Subject,
		Target:     d.Target,
		Operator:   d.Operator,
		Comparison: DefaultComparison(d.Target, d.Hints),
	}, true
}
