// Package validation runs the local, network-independent checks on a single
// condition and on a full entry rule set. Issues are plain human-readable
// strings; nothing here returns an error or panics.
package validation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ducminhle1904/dca-strategy-wizard/pkg/catalog"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/condition"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/pairing"
)

// ValidateCondition checks required fields, literal range, price source,
// sequence bounds and timing qualifier amounts
func ValidateCondition(c condition.Condition) []string {
	issues := make([]string, 0)

	if strings.TrimSpace(c.Indicator.Name) == "" {
		issues = append(issues, "indicator is required")
	}
	if strings.TrimSpace(c.Timeframe) == "" {
		issues = append(issues, "timeframe is required")
	}
	if c.Operator == "" {
		issues = append(issues, "operator is required")
	} else if !c.Operator.IsValid() {
		issues = append(issues, fmt.Sprintf("operator %q is not recognised", c.Operator))
	}
	if c.Comparison == nil {
		issues = append(issues, "comparison value is required")
	}

	issues = append(issues, validateSubject(c)...)
	issues = append(issues, validateComparison(c)...)
	issues = append(issues, validateTiming(c)...)

	return issues
}

func validateSubject(c condition.Condition) []string {
	switch s := c.Subject.(type) {
	case catalog.PriceSubject:
		if s.Source == "" {
			return []string{"price source is required when comparing price"}
		}
		if !s.Source.IsValid() {
			return []string{fmt.Sprintf("price source %q is not supported", s.Source)}
		}
	case catalog.ComponentSubject, catalog.DerivedSubject, nil:
	}
	return nil
}

func validateComparison(c condition.Condition) []string {
	if c.Comparison == nil {
		return nil
	}

	if c.Comparison.Kind == condition.ComparisonValue {
		v := c.Comparison.Value
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return []string{"comparison value must be a finite number"}
		}
	}

	if c.Subject == nil || c.Target == nil {
		return nil
	}

	switch t := c.Target.(type) {
	case catalog.ValueTarget:
		if c.Comparison.Kind != condition.ComparisonValue {
			return []string{"comparison must be a numeric value for this target"}
		}
		v := c.Comparison.Value
		if t.Min != nil && v < *t.Min {
			return []string{fmt.Sprintf("value %s is below the minimum of %s",
				pairing.FormatNumber(v), pairing.FormatNumber(*t.Min))}
		}
		if t.Max != nil && v > *t.Max {
			return []string{fmt.Sprintf("value %s is above the maximum of %s",
				pairing.FormatNumber(v), pairing.FormatNumber(*t.Max))}
		}
	case catalog.ComponentTarget:
		if c.Comparison.Kind != condition.ComparisonComponent {
			return []string{fmt.Sprintf("comparison must reference %s", pairing.TargetLabel(t))}
		}
		if c.Comparison.Component != t.Component {
			return []string{fmt.Sprintf("comparison references %s but the target is %s",
				strings.ToUpper(c.Comparison.Component), pairing.TargetLabel(t))}
		}
	}
	return nil
}

func validateTiming(c condition.Condition) []string {
	var issues []string

	if c.Sequence != nil && (*c.Sequence < condition.MinSequence || *c.Sequence > condition.MaxSequence) {
		issues = append(issues, fmt.Sprintf("sequence must be between %d and %d, got: %d",
			condition.MinSequence, condition.MaxSequence, *c.Sequence))
	}
	issues = append(issues, validateWindow("must occur within", c.MustOccurWithin)...)
	issues = append(issues, validateWindow("stays valid for", c.StaysValidFor)...)

	return issues
}

func validateWindow(name string, w *condition.Window) []string {
	if w == nil {
		return nil
	}
	var issues []string
	if w.Amount <= 0 {
		issues = append(issues, fmt.Sprintf("%s amount must be positive, got: %d", name, w.Amount))
	}
	if !w.Unit.IsValid() {
		issues = append(issues, fmt.Sprintf("%s unit %q is not supported", name, w.Unit))
	}
	return issues
}

// ValidateConditionWith runs ValidateCondition and also checks that the
// condition's triple is legal under def
func ValidateConditionWith(c condition.Condition, def *catalog.IndicatorDefinition) []string {
	issues := ValidateCondition(c)
	if def == nil || c.Subject == nil || c.Target == nil || c.Operator == "" {
		return issues
	}
	if !pairing.HasTriple(def, c.Subject, c.Target, c.Operator) {
		issues = append(issues, fmt.Sprintf("%s %s %s is not a valid combination for %s",
			pairing.SubjectLabel(c.Subject), pairing.OperatorLabel(c.Operator),
			pairing.TargetLabel(c.Target), def.ID))
	}
	return issues
}

// ValidateRuleSet checks trigger cardinality, every condition, the supporting
// condition limit, the time window and sequence uniqueness across active main
// triggers. Each issue is prefixed with the position it belongs to.
func ValidateRuleSet(rules *condition.EntryRuleSet) []string {
	issues := make([]string, 0)
	if rules == nil {
		return append(issues, "at least one main trigger is required")
	}

	active := rules.ActiveTriggers()
	if len(active) == 0 {
		issues = append(issues, "at least one main trigger is required")
	}
	for _, slot := range active {
		issues = append(issues, prefixed(condition.TriggerLabel(slot.Slot), ValidateCondition(*slot.Condition))...)
	}

	issues = append(issues, validateGroup("A", rules.SetA)...)
	issues = append(issues, validateGroup("B", rules.SetB)...)
	issues = append(issues, validateSupportingLimit(rules)...)
	issues = append(issues, validateTimeWindow(rules.TimeWindow)...)
	issues = append(issues, validateSequences(active)...)

	if rules.Timing != "" && rules.Timing != condition.TimingOnBarClose && rules.Timing != condition.TimingNextBarOpen {
		issues = append(issues, fmt.Sprintf("entry timing %q is not supported", rules.Timing))
	}
	if rules.CooldownBars != nil && *rules.CooldownBars < 0 {
		issues = append(issues, fmt.Sprintf("cooldown must be zero or more bars, got: %d", *rules.CooldownBars))
	}

	return issues
}

func validateGroup(name string, g *condition.SupportingGroup) []string {
	if g.Len() == 0 {
		return nil
	}
	var issues []string
	if g.Logic != condition.LogicAnd && g.Logic != condition.LogicOr {
		issues = append(issues, fmt.Sprintf("Set %s: logic must be AND or OR, got: %q", name, g.Logic))
	}
	for i, c := range g.Conditions {
		issues = append(issues, prefixed(condition.GroupLabel(name, i+1), ValidateCondition(c))...)
	}
	return issues
}

// validateSupportingLimit reports every condition past the combined limit,
// counting set A before set B
func validateSupportingLimit(rules *condition.EntryRuleSet) []string {
	total := rules.SupportingCount()
	if total <= condition.MaxSupportingConditions {
		return nil
	}

	var issues []string
	seen := 0
	for _, g := range []struct {
		name  string
		group *condition.SupportingGroup
	}{{"A", rules.SetA}, {"B", rules.SetB}} {
		for i := 0; i < g.group.Len(); i++ {
			seen++
			if seen > condition.MaxSupportingConditions {
				issues = append(issues, fmt.Sprintf("%s: supporting conditions exceed the limit of %d (%d configured)",
					condition.GroupLabel(g.name, i+1), condition.MaxSupportingConditions, total))
			}
		}
	}
	return issues
}

func validateTimeWindow(w *condition.TimeWindow) []string {
	if w == nil || !w.Enabled {
		return nil
	}

	var issues []string
	start, startErr := parseClock(w.Start)
	if startErr != nil {
		issues = append(issues, fmt.Sprintf("time window start %q must be HH:MM", w.Start))
	}
	end, endErr := parseClock(w.End)
	if endErr != nil {
		issues = append(issues, fmt.Sprintf("time window end %q must be HH:MM", w.End))
	}
	if startErr == nil && endErr == nil && !start.Before(end) {
		issues = append(issues, fmt.Sprintf("time window start %s must be before end %s", w.Start, w.End))
	}
	if w.Timezone != "" {
		if _, err := time.LoadLocation(w.Timezone); err != nil {
			issues = append(issues, fmt.Sprintf("time window timezone %q is not recognised", w.Timezone))
		}
	}
	return issues
}

func parseClock(s string) (time.Time, error) {
	return time.Parse("15:04", strings.TrimSpace(s))
}

func validateSequences(active []condition.SlotCondition) []string {
	var issues []string
	seen := make(map[int]bool)
	reported := make(map[int]bool)
	for _, slot := range active {
		if slot.Condition.Sequence == nil {
			continue
		}
		seq := *slot.Condition.Sequence
		if seen[seq] && !reported[seq] {
			issues = append(issues, fmt.Sprintf("duplicate sequence %d across main triggers", seq))
			reported[seq] = true
		}
		seen[seq] = true
	}
	return issues
}

func prefixed(label string, issues []string) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = label + ": " + issue
	}
	return out
}
