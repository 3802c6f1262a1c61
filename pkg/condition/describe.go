package condition

import (
	"fmt"
	"strings"

	"github.com/ducminhle1904/dca-strategy-wizard/pkg/catalog"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/pairing"
)

// TriggerLabel names a main trigger slot for issue messages
func TriggerLabel(slot int) string {
	return fmt.Sprintf("Main trigger %d", slot)
}

// GroupLabel names a supporting condition for issue messages
func GroupLabel(group string, index int) string {
	return fmt.Sprintf("Set %s condition %d", group, index)
}

// Describe renders the condition as a sentence. It is the local stand-in for
// the remote sentence generator.
func Describe(c Condition) string {
	var b strings.Builder

	indicator := c.Indicator.Name
	if indicator == "" {
		indicator = "Indicator"
	}

	switch s := c.Subject.(type) {
	case catalog.PriceSubject:
		b.WriteString(pairing.SubjectLabel(s))
	case catalog.ComponentSubject:
		if strings.EqualFold(s.Component, indicator) {
			b.WriteString(strings.ToUpper(indicator))
		} else {
			fmt.Fprintf(&b, "%s %s", strings.ToUpper(indicator), pairing.SubjectLabel(s))
		}
	case catalog.DerivedSubject:
		fmt.Fprintf(&b, "%s %s", strings.ToUpper(indicator), pairing.SubjectLabel(s))
	default:
		b.WriteString(strings.ToUpper(indicator))
	}

	if c.Operator != "" {
		b.WriteString(" ")
		b.WriteString(pairing.OperatorLabel(c.Operator))
	}

	if rhs := describeRight(c); rhs != "" {
		b.WriteString(" ")
		b.WriteString(rhs)
	}

	if c.Timeframe != "" {
		fmt.Fprintf(&b, " on the %s chart", c.Timeframe)
	}

	var qualifiers []string
	if c.Sequence != nil {
		qualifiers = append(qualifiers, fmt.Sprintf("step %d", *c.Sequence))
	}
	if c.MustOccurWithin != nil {
		qualifiers = append(qualifiers, fmt.Sprintf("within %s", describeWindow(*c.MustOccurWithin)))
	}
	if c.StaysValidFor != nil {
		qualifiers = append(qualifiers, fmt.Sprintf("valid for %s", describeWindow(*c.StaysValidFor)))
	}
	if len(qualifiers) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(qualifiers, ", "))
	}

	return b.String()
}

func describeRight(c Condition) string {
	if c.Comparison != nil {
		switch c.Comparison.Kind {
		case ComparisonValue:
			return pairing.FormatNumber(c.Comparison.Value)
		case ComparisonComponent:
			return pairing.TargetLabel(catalog.ComponentTarget{Component: c.Comparison.Component})
		}
	}
	if c.Target != nil {
		return pairing.TargetLabel(c.Target)
	}
	return ""
}

func describeWindow(w Window) string {
	unit := string(w.Unit)
	if w.Amount == 1 {
		unit = strings.TrimSuffix(unit, "s")
	}
	return fmt.Sprintf("%d %s", w.Amount, unit)
}
