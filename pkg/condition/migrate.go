package condition

import (
	"strings"

	"github.com/ducminhle1904/dca-strategy-wizard/pkg/catalog"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/pairing"
)

// IsResolved reports whether the condition's triple is legal under def
func IsResolved(c Condition, def *catalog.IndicatorDefinition) bool {
	if c.Subject == nil || c.Target == nil {
		return false
	}
	return pairing.HasTriple(def, c.Subject, c.Target, c.Operator)
}

// Migrate reinterprets c against def. A condition whose subject and target
// still resolve keeps them (only an illegal operator is re-derived). Otherwise
// the definition's defaults are taken, preserving the user's comparison
// intent where the default subject offers a matching target: a literal keeps
// its value on a value target whose range contains it, a component reference
// keeps a component target with the same name. The previous operator survives
// when it is still allowed. Migrate is idempotent.
func Migrate(c Condition, def *catalog.IndicatorDefinition) Condition {
	out := c.Clone()
	if def == nil {
		return out
	}
	bindIndicator(&out, def)

	if out.Subject != nil && out.Target != nil {
		if p, ok := pairing.FindPairing(def, out.Subject); ok {
			if entry, ok := pairing.FindTarget(def, out.Subject, out.Target); ok && len(entry.Operators) > 0 {
				out.Subject = resolvePriceSource(out.Subject, p.Hints)
				out.Target = entry.Target
				out.Operator = pickOperator(out.Operator, entry.Operators)
				if ct, isComponent := entry.Target.(catalog.ComponentTarget); isComponent {
					out.Comparison = ComponentRef(ct.Component)
				}
				return out
			}
		}
	}

	d, ok := DefaultsFor(def)
	if !ok {
		return out
	}

	subject := d.Subject
	if prev, wasPrice := c.Subject.(catalog.PriceSubject); wasPrice {
		if _, isPrice := subject.(catalog.PriceSubject); isPrice && allowedPriceSource(d.Hints, prev.Source) {
			subject = catalog.PriceSubject{Source: prev.Source}
		}
	}

	target, comparison := d.Target, DefaultComparison(d.Target, d.Hints)
	if preserved, cmp, ok := preserveIntent(c, pairing.ValidTargets(def, d.Subject)); ok {
		target, comparison = preserved, cmp
	}

	out.Subject = subject
	out.Target = target
	out.Comparison = comparison
	out.Operator = pickOperator(c.Operator, pairing.ValidOperators(def, d.Subject, target))
	return out
}

// preserveIntent looks for a target on the default subject that keeps what
// the condition used to compare against
func preserveIntent(c Condition, targets []catalog.TargetOperators) (catalog.Target, *Comparison, bool) {
	kind, value, component := comparisonIntent(c)
	switch kind {
	case ComparisonValue:
		for _, entry := range targets {
			vt, ok := entry.Target.(catalog.ValueTarget)
			if !ok || len(entry.Operators) == 0 {
				continue
			}
			// A literal outside the new range is not clamped; defaults win.
			if vt.Contains(value) {
				return entry.Target, Literal(value), true
			}
			return nil, nil, false
		}
	case ComparisonComponent:
		for _, entry := range targets {
			ct, ok := entry.Target.(catalog.ComponentTarget)
			if ok && ct.Component == component && len(entry.Operators) > 0 {
				return entry.Target, ComponentRef(component), true
			}
		}
	}
	return nil, nil, false
}

// comparisonIntent reads what the condition compared against, preferring the
// explicit payload over the target
func comparisonIntent(c Condition) (ComparisonKind, float64, string) {
	if c.Comparison != nil {
		switch c.Comparison.Kind {
		case ComparisonValue:
			return ComparisonValue, c.Comparison.Value, ""
		case ComparisonComponent:
			if c.Comparison.Component != "" {
				return ComparisonComponent, 0, c.Comparison.Component
			}
		}
	}
	if ct, ok := c.Target.(catalog.ComponentTarget); ok {
		return ComparisonComponent, 0, ct.Component
	}
	return "", 0, ""
}

func pickOperator(prev catalog.Operator, allowed []catalog.Operator) catalog.Operator {
	for _, op := range allowed {
		if op == prev {
			return prev
		}
	}
	if len(allowed) == 0 {
		return prev
	}
	return allowed[0]
}

func resolvePriceSource(s catalog.Subject, hints catalog.UIHints) catalog.Subject {
	ps, ok := s.(catalog.PriceSubject)
	if !ok {
		return s
	}
	if allowedPriceSource(hints, ps.Source) {
		return ps
	}
	return catalog.PriceSubject{Source: defaultPriceSource(hints)}
}

// bindIndicator points the condition at def, resetting settings when the
// indicator itself changed
func bindIndicator(c *Condition, def *catalog.IndicatorDefinition) {
	switch {
	case c.Indicator.Name == def.ID:
	case strings.EqualFold(c.Indicator.Name, def.ID):
		c.Indicator.Name = def.ID
	default:
		c.Indicator.Name = def.ID
		c.Indicator.Settings = def.DefaultSettings()
	}
	if c.Indicator.Settings == nil {
		c.Indicator.Settings = def.DefaultSettings()
	}
}

// DefinitionLookup resolves an indicator name to its current definition
type DefinitionLookup func(name string) (*catalog.IndicatorDefinition, bool)

// MigrateRuleSet migrates every condition whose indicator resolves through
// lookup and returns the repaired copy along with the number of conditions
// that changed.
func MigrateRuleSet(rules *EntryRuleSet, lookup DefinitionLookup) (*EntryRuleSet, int) {
	if rules == nil {
		return nil, 0
	}
	out := *rules
	changed := 0

	migrate := func(c Condition) Condition {
		def, ok := lookup(c.Indicator.Name)
		if !ok {
			return c
		}
		if !IsResolved(c, def) {
			changed++
		}
		return Migrate(c, def)
	}

	for i, c := range rules.MainTriggers {
		if c == nil {
			continue
		}
		migrated := migrate(*c)
		out.MainTriggers[i] = &migrated
	}
	out.SetA = migrateGroup(rules.SetA, migrate)
	out.SetB = migrateGroup(rules.SetB, migrate)
	return &out, changed
}

func migrateGroup(g *SupportingGroup, migrate func(Condition) Condition) *SupportingGroup {
	if g == nil {
		return nil
	}
	out := &SupportingGroup{Logic: g.Logic, Conditions: make([]Condition, len(g.Conditions))}
	for i, c := range g.Conditions {
		out.Conditions[i] = migrate(c)
	}
	return out
}
