// Package pairing answers "what may be compared to what" for an indicator
// definition. Every function is pure and total: absence is an empty result,
// never an error.
package pairing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ducminhle1904/dca-strategy-wizard/pkg/catalog"
)

// ValidSubjects returns the distinct subjects across all pairings, in pairing order
func ValidSubjects(def *catalog.IndicatorDefinition) []catalog.Subject {
	if def == nil {
		return nil
	}
	subjects := make([]catalog.Subject, 0, len(def.Pairings))
	for _, p := range def.Pairings {
		if p.Subject == nil || containsSubject(subjects, p.Subject) {
			continue
		}
		subjects = append(subjects, p.Subject)
	}
	return subjects
}

func containsSubject(subjects []catalog.Subject, s catalog.Subject) bool {
	for _, existing := range subjects {
		if catalog.SameSubject(existing, s) {
			return true
		}
	}
	return false
}

// FindPairing returns the first pairing whose subject matches
func FindPairing(def *catalog.IndicatorDefinition, subject catalog.Subject) (*catalog.Pairing, bool) {
	if def == nil || subject == nil {
		return nil, false
	}
	for i := range def.Pairings {
		if catalog.SameSubject(def.Pairings[i].Subject, subject) {
			return &def.Pairings[i], true
		}
	}
	return nil, false
}

// ValidTargets returns the targets and operators allowed for subject. The
// result is a copy; callers may reorder or extend it.
func ValidTargets(def *catalog.IndicatorDefinition, subject catalog.Subject) []catalog.TargetOperators {
	p, ok := FindPairing(def, subject)
	if !ok {
		return nil
	}
	targets := make([]catalog.TargetOperators, len(p.Targets))
	for i, entry := range p.Targets {
		targets[i] = catalog.TargetOperators{
			Target:    entry.Target,
			Operators: append([]catalog.Operator(nil), entry.Operators...),
		}
	}
	return targets
}

// FindTarget returns the pairing entry for (subject, target)
func FindTarget(def *catalog.IndicatorDefinition, subject catalog.Subject, target catalog.Target) (*catalog.TargetOperators, bool) {
	p, ok := FindPairing(def, subject)
	if !ok {
		return nil, false
	}
	for i := range p.Targets {
		if catalog.SameTarget(p.Targets[i].Target, target) {
			return &p.Targets[i], true
		}
	}
	return nil, false
}

// ValidOperators returns a copy of the operators allowed for (subject, target)
func ValidOperators(def *catalog.IndicatorDefinition, subject catalog.Subject, target catalog.Target) []catalog.Operator {
	entry, ok := FindTarget(def, subject, target)
	if !ok {
		return nil
	}
	return append([]catalog.Operator(nil), entry.Operators...)
}

// HasTriple reports whether (subject, target, op) is legal under def
func HasTriple(def *catalog.IndicatorDefinition, subject catalog.Subject, target catalog.Target, op catalog.Operator) bool {
	for _, allowed := range ValidOperators(def, subject, target) {
		if allowed == op {
			return true
		}
	}
	return false
}

// SubjectLabel renders a subject as a short human string
func SubjectLabel(s catalog.Subject) string {
	switch v := s.(type) {
	case catalog.PriceSubject:
		if v.Source == "" {
			return "Price"
		}
		return fmt.Sprintf("Price (%s)", v.Source)
	case catalog.ComponentSubject:
		return strings.ToUpper(v.Component)
	case catalog.DerivedSubject:
		if v.Label != "" {
			return v.Label
		}
		return strings.ToUpper(v.ID)
	default:
		return "Unknown"
	}
}

// TargetLabel renders a target as a short human string
func TargetLabel(t catalog.Target) string {
	switch v := t.(type) {
	case catalog.ComponentTarget:
		if v.IsZeroLine() {
			return "Zero line"
		}
		return strings.ToUpper(v.Component)
	case catalog.ValueTarget:
		switch {
		case v.Min != nil && v.Max != nil:
			return fmt.Sprintf("Value (%s-%s)", FormatNumber(*v.Min), FormatNumber(*v.Max))
		case v.Min != nil:
			return fmt.Sprintf("Value (≥ %s)", FormatNumber(*v.Min))
		case v.Max != nil:
			return fmt.Sprintf("Value (≤ %s)", FormatNumber(*v.Max))
		default:
			return "Value"
		}
	default:
		return "Unknown"
	}
}

var operatorLabels = map[catalog.Operator]string{
	catalog.OpGreater:      "is above",
	catalog.OpLess:         "is below",
	catalog.OpGreaterEqual: "is at or above",
	catalog.OpLessEqual:    "is at or below",
	catalog.OpEqual:        "equals",
	catalog.OpNotEqual:     "does not equal",
	catalog.OpCrossesAbove: "crosses above",
	catalog.OpCrossesBelow: "crosses below",
}

// OperatorLabel renders an operator as a verb phrase
func OperatorLabel(op catalog.Operator) string {
	if label, ok := operatorLabels[op]; ok {
		return label
	}
	return string(op)
}

// FormatNumber prints integers without a fraction and trims trailing zeros otherwise
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
