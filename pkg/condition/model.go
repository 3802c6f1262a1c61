package condition

import (
	"encoding/json"
	"fmt"

	"github.com/ducminhle1904/dca-strategy-wizard/pkg/catalog"
)

// Sequence bounds for ordering multiple triggers
const (
	MinSequence = 1
	MaxSequence = 10
)

// IndicatorRef names the indicator a condition reads and its setting values
type IndicatorRef struct {
	Name     string                 `json:"name"`
	Settings map[string]interface{} `json:"settings,omitempty"`
}

// ComparisonKind tags the comparison payload
type ComparisonKind string

const (
	ComparisonValue     ComparisonKind = "value"
	ComparisonComponent ComparisonKind = "component"
)

// Comparison is the right-hand payload: a literal or another component of the
// same indicator
type Comparison struct {
	Kind      ComparisonKind `json:"kind"`
	Value     float64        `json:"value,omitempty"`
	Component string         `json:"component,omitempty"`
}

// Literal builds a literal comparison payload
func Literal(v float64) *Comparison {
	return &Comparison{Kind: ComparisonValue, Value: v}
}

// ComponentRef builds a component comparison payload
func ComponentRef(name string) *Comparison {
	return &Comparison{Kind: ComparisonComponent, Component: name}
}

// WindowUnit is the unit of a timing qualifier
type WindowUnit string

const (
	UnitBars    WindowUnit = "bars"
	UnitMinutes WindowUnit = "minutes"
	UnitHours   WindowUnit = "hours"
	UnitDays    WindowUnit = "days"
)

// IsValid reports whether u is a known unit
func (u WindowUnit) IsValid() bool {
	switch u {
	case UnitBars, UnitMinutes, UnitHours, UnitDays:
		return true
	default:
		return false
	}
}

// Window is an amount+unit bound used by timing qualifiers
type Window struct {
	Amount int        `json:"amount"`
	Unit   WindowUnit `json:"unit"`
}

// Condition is one comparison statement plus optional timing qualifiers.
// It is valid only while its (Subject, Target, Operator) triple appears in the
// indicator's current pairings; Migrate repairs it when it does not.
type Condition struct {
	ID              string
	Indicator       IndicatorRef
	Timeframe       string
	Subject         catalog.Subject
	Target          catalog.Target
	Operator        catalog.Operator
	Comparison      *Comparison
	Sequence        *int
	MustOccurWithin *Window
	StaysValidFor   *Window
}

// PriceSource returns the subject's price source when the subject is price
func (c *Condition) PriceSource() (catalog.PriceSource, bool) {
	if ps, ok := c.Subject.(catalog.PriceSubject); ok {
		return ps.Source, true
	}
	return "", false
}

// Clone returns a deep copy
func (c Condition) Clone() Condition {
	out := c
	if c.Indicator.Settings != nil {
		out.Indicator.Settings = make(map[string]interface{}, len(c.Indicator.Settings))
		for k, v := range c.Indicator.Settings {
			out.Indicator.Settings[k] = v
		}
	}
	if c.Comparison != nil {
		cmp := *c.Comparison
		out.Comparison = &cmp
	}
	if c.Sequence != nil {
		seq := *c.Sequence
		out.Sequence = &seq
	}
	if c.MustOccurWithin != nil {
		w := *c.MustOccurWithin
		out.MustOccurWithin = &w
	}
	if c.StaysValidFor != nil {
		w := *c.StaysValidFor
		out.StaysValidFor = &w
	}
	return out
}

// legacyRight is the loose right-hand side older drafts carried
type legacyRight struct {
	Type      string   `json:"type"`
	Value     *float64 `json:"value,omitempty"`
	Component string   `json:"component,omitempty"`
}

type conditionJSON struct {
	ID              string               `json:"id"`
	Indicator       IndicatorRef         `json:"indicator"`
	Timeframe       string               `json:"timeframe"`
	Subject         *catalog.SubjectJSON `json:"subject,omitempty"`
	Target          *catalog.TargetJSON  `json:"target,omitempty"`
	Operator        catalog.Operator     `json:"operator,omitempty"`
	Comparison      *Comparison          `json:"comparison,omitempty"`
	Right           *legacyRight         `json:"right,omitempty"`
	Sequence        *int                 `json:"sequence,omitempty"`
	MustOccurWithin *Window              `json:"mustOccurWithin,omitempty"`
	StaysValidFor   *Window              `json:"staysValidFor,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal(conditionJSON{
		ID:              c.ID,
		Indicator:       c.Indicator,
		Timeframe:       c.Timeframe,
		Subject:         catalog.EncodeSubject(c.Subject),
		Target:          catalog.EncodeTarget(c.Target),
		Operator:        c.Operator,
		Comparison:      c.Comparison,
		Sequence:        c.Sequence,
		MustOccurWithin: c.MustOccurWithin,
		StaysValidFor:   c.StaysValidFor,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Unknown subject or target
// variants decode as absent so migration can repair them instead of the whole
// draft failing to load.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var wire conditionJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	subject, err := wire.Subject.Decode()
	if err != nil {
		subject = nil
	}
	target, err := wire.Target.Decode()
	if err != nil {
		target = nil
	}

	comparison := wire.Comparison
	if comparison == nil && wire.Right != nil {
		comparison, err = wire.Right.comparison()
		if err != nil {
			return fmt.Errorf("condition %s: %w", wire.ID, err)
		}
	}

	*c = Condition{
		ID:              wire.ID,
		Indicator:       wire.Indicator,
		Timeframe:       wire.Timeframe,
		Subject:         subject,
		Target:          target,
		Operator:        wire.Operator,
		Comparison:      comparison,
		Sequence:        wire.Sequence,
		MustOccurWithin: wire.MustOccurWithin,
		StaysValidFor:   wire.StaysValidFor,
	}
	return nil
}

func (r *legacyRight) comparison() (*Comparison, error) {
	switch r.Type {
	case "value", "number":
		if r.Value == nil {
			return nil, nil
		}
		return Literal(*r.Value), nil
	case "indicator", "component":
		if r.Component == "" {
			return nil, nil
		}
		return ComponentRef(r.Component), nil
	default:
		return nil, fmt.Errorf("unknown legacy right-hand type %q", r.Type)
	}
}
