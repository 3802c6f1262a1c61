package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PriceSource names the OHLC series a price subject reads from
type PriceSource string

const (
	PriceClose PriceSource = "close"
	PriceOpen  PriceSource = "open"
	PriceHigh  PriceSource = "high"
	PriceLow   PriceSource = "low"
	PriceHL2   PriceSource = "hl2"
	PriceHLC3  PriceSource = "hlc3"
	PriceOHLC4 PriceSource = "ohlc4"
)

// DefaultPriceSource is used when a pairing carries no hint
const DefaultPriceSource = PriceClose

// PriceSources lists every accepted price source in display order
var PriceSources = []PriceSource{PriceClose, PriceOpen, PriceHigh, PriceLow, PriceHL2, PriceHLC3, PriceOHLC4}

// IsValid reports whether s is a known price source
func (s PriceSource) IsValid() bool {
	for _, known := range PriceSources {
		if s == known {
			return true
		}
	}
	return false
}

// ZeroComponent is the sentinel component used for a zero line target
const ZeroComponent = "zero"

// SubjectKind tags the active Subject variant
type SubjectKind string

const (
	SubjectPrice     SubjectKind = "price"
	SubjectIndicator SubjectKind = "indicator"
	SubjectDerived   SubjectKind = "derived"
)

// Subject is the left-hand side of a comparison. The variants are closed:
// PriceSubject, ComponentSubject and DerivedSubject.
type Subject interface {
	Kind() SubjectKind
	isSubject()
}

// PriceSubject compares a price series. Source may be empty until resolved.
type PriceSubject struct {
	Source PriceSource
}

// ComponentSubject compares a component of the current indicator
type ComponentSubject struct {
	Component string
}

// DerivedSubject compares a synthetic series such as %B
type DerivedSubject struct {
	ID    string
	Label string
}

func (PriceSubject) Kind() SubjectKind     { return SubjectPrice }
func (ComponentSubject) Kind() SubjectKind { return SubjectIndicator }
func (DerivedSubject) Kind() SubjectKind   { return SubjectDerived }

func (PriceSubject) isSubject()     {}
func (ComponentSubject) isSubject() {}
func (DerivedSubject) isSubject()   {}

// TargetKind tags the active Target variant
type TargetKind string

const (
	TargetComponent TargetKind = "component"
	TargetValue     TargetKind = "value"
)

// Target is the right-hand side of a comparison, meaningful only relative to
// a chosen Subject. The variants are closed: ComponentTarget and ValueTarget.
type Target interface {
	Kind() TargetKind
	isTarget()
}

// ComponentTarget compares against another component, including ZeroComponent
type ComponentTarget struct {
	Component string
}

// ValueTarget compares against a literal, optionally bounded
type ValueTarget struct {
	Min  *float64
	Max  *float64
	Step *float64
}

func (ComponentTarget) Kind() TargetKind { return TargetComponent }
func (ValueTarget) Kind() TargetKind     { return TargetValue }

func (ComponentTarget) isTarget() {}
func (ValueTarget) isTarget()     {}

// IsZeroLine reports whether the target is the zero-line sentinel
func (t ComponentTarget) IsZeroLine() bool {
	return strings.EqualFold(t.Component, ZeroComponent)
}

// Bounded reports whether the value target carries a range
func (t ValueTarget) Bounded() bool {
	return t.Min != nil || t.Max != nil
}

// Contains reports whether v is inside the target's range
func (t ValueTarget) Contains(v float64) bool {
	if t.Min != nil && v < *t.Min {
		return false
	}
	if t.Max != nil && v > *t.Max {
		return false
	}
	return true
}

// Float returns a pointer to v, for building bounded ValueTargets
func Float(v float64) *float64 {
	return &v
}

// Range builds a bounded ValueTarget
func Range(min, max, step float64) ValueTarget {
	return ValueTarget{Min: Float(min), Max: Float(max), Step: Float(step)}
}

// SameSubject compares subjects by variant: price by kind only, indicator
// components by name, derived series by id.
func SameSubject(a, b Subject) bool {
	if a == nil || b == nil {
		return false
	}
	switch av := a.(type) {
	case PriceSubject:
		_, ok := b.(PriceSubject)
		return ok
	case ComponentSubject:
		bv, ok := b.(ComponentSubject)
		return ok && av.Component == bv.Component
	case DerivedSubject:
		bv, ok := b.(DerivedSubject)
		return ok && av.ID == bv.ID
	default:
		return false
	}
}

// SameTarget compares targets by variant: components by name, values by kind
func SameTarget(a, b Target) bool {
	if a == nil || b == nil {
		return false
	}
	switch av := a.(type) {
	case ComponentTarget:
		bv, ok := b.(ComponentTarget)
		return ok && av.Component == bv.Component
	case ValueTarget:
		_, ok := b.(ValueTarget)
		return ok
	default:
		return false
	}
}

// Operator is a comparison operator. Legality is decided per pairing.
type Operator string

const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
	OpCrossesAbove Operator = "crossesAbove"
	OpCrossesBelow Operator = "crossesBelow"
)

// Operators lists every operator the engine knows
var Operators = []Operator{
	OpGreater, OpLess, OpGreaterEqual, OpLessEqual,
	OpEqual, OpNotEqual, OpCrossesAbove, OpCrossesBelow,
}

// IsValid reports whether op is a known operator
func (op Operator) IsValid() bool {
	for _, known := range Operators {
		if op == known {
			return true
		}
	}
	return false
}

// IsCrossing reports whether op compares two consecutive bars
func (op Operator) IsCrossing() bool {
	return op == OpCrossesAbove || op == OpCrossesBelow
}

// TargetOperators is one allowed target of a pairing with its operators
type TargetOperators struct {
	Target    Target
	Operators []Operator
}

// UIHints carries presentation defaults for a pairing
type UIHints struct {
	PriceSources       []PriceSource `json:"priceSources,omitempty"`
	DefaultPriceSource PriceSource   `json:"defaultPriceSource,omitempty"`
	DefaultValue       *float64      `json:"defaultValue,omitempty"`
	Placeholder        string        `json:"placeholder,omitempty"`
}

// Pairing is the legality table row for one subject
type Pairing struct {
	Subject Subject
	Targets []TargetOperators
	Hints   UIHints
}

// SettingSchema describes one configurable indicator setting
type SettingSchema struct {
	Type    string      `json:"type"`
	Label   string      `json:"label,omitempty"`
	Default interface{} `json:"default,omitempty"`
	Min     *float64    `json:"min,omitempty"`
	Max     *float64    `json:"max,omitempty"`
	Options []string    `json:"options,omitempty"`
}

// IndicatorSummary is one entry of the indicator list
type IndicatorSummary struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Version string `json:"version"`
}

// IndicatorDefinition is the full per-indicator schema. Treat it as immutable
// once obtained.
type IndicatorDefinition struct {
	ID         string                   `json:"id"`
	Label      string                   `json:"label"`
	Version    string                   `json:"version"`
	Settings   map[string]SettingSchema `json:"settings"`
	Components []string                 `json:"components"`
	Pairings   []Pairing                `json:"pairings"`
}

// Summary returns the list entry for the definition
func (d *IndicatorDefinition) Summary() IndicatorSummary {
	return IndicatorSummary{ID: d.ID, Label: d.Label, Version: d.Version}
}

// HasComponent reports whether the indicator exposes the named component
func (d *IndicatorDefinition) HasComponent(name string) bool {
	for _, c := range d.Components {
		if c == name {
			return true
		}
	}
	return false
}

// DefaultSettings returns a fresh map of every setting's default value
func (d *IndicatorDefinition) DefaultSettings() map[string]interface{} {
	settings := make(map[string]interface{}, len(d.Settings))
	for name, schema := range d.Settings {
		if schema.Default != nil {
			settings[name] = schema.Default
		}
	}
	return settings
}

// SubjectJSON is the wire form of a Subject
type SubjectJSON struct {
	Type      SubjectKind `json:"type"`
	Source    PriceSource `json:"source,omitempty"`
	Component string      `json:"component,omitempty"`
	ID        string      `json:"id,omitempty"`
	Label     string      `json:"label,omitempty"`
}

// EncodeSubject converts s to its wire form; nil stays nil
func EncodeSubject(s Subject) *SubjectJSON {
	switch v := s.(type) {
	case PriceSubject:
		return &SubjectJSON{Type: SubjectPrice, Source: v.Source}
	case ComponentSubject:
		return &SubjectJSON{Type: SubjectIndicator, Component: v.Component}
	case DerivedSubject:
		return &SubjectJSON{Type: SubjectDerived, ID: v.ID, Label: v.Label}
	default:
		return nil
	}
}

// Decode converts the wire form back into a Subject
func (w *SubjectJSON) Decode() (Subject, error) {
	if w == nil {
		return nil, nil
	}
	switch w.Type {
	case SubjectPrice:
		return PriceSubject{Source: w.Source}, nil
	case SubjectIndicator, "indicator-component", "component":
		if w.Component == "" {
			return nil, fmt.Errorf("indicator subject requires a component")
		}
		return ComponentSubject{Component: w.Component}, nil
	case SubjectDerived:
		if w.ID == "" {
			return nil, fmt.Errorf("derived subject requires an id")
		}
		return DerivedSubject{ID: w.ID, Label: w.Label}, nil
	default:
		return nil, fmt.Errorf("unknown subject type %q", w.Type)
	}
}

// TargetJSON is the wire form of a Target
type TargetJSON struct {
	Type      TargetKind `json:"type"`
	Component string     `json:"component,omitempty"`
	Min       *float64   `json:"min,omitempty"`
	Max       *float64   `json:"max,omitempty"`
	Step      *float64   `json:"step,omitempty"`
}

// EncodeTarget converts t to its wire form; nil stays nil
func EncodeTarget(t Target) *TargetJSON {
	switch v := t.(type) {
	case ComponentTarget:
		return &TargetJSON{Type: TargetComponent, Component: v.Component}
	case ValueTarget:
		return &TargetJSON{Type: TargetValue, Min: v.Min, Max: v.Max, Step: v.Step}
	default:
		return nil
	}
}

// Decode converts the wire form back into a Target
func (w *TargetJSON) Decode() (Target, error) {
	if w == nil {
		return nil, nil
	}
	switch w.Type {
	case TargetComponent:
		if w.Component == "" {
			return nil, fmt.Errorf("component target requires a component")
		}
		return ComponentTarget{Component: w.Component}, nil
	case TargetValue:
		return ValueTarget{Min: w.Min, Max: w.Max, Step: w.Step}, nil
	default:
		return nil, fmt.Errorf("unknown target type %q", w.Type)
	}
}

type targetOperatorsJSON struct {
	Target    *TargetJSON `json:"target"`
	Operators []Operator  `json:"operators"`
}

// MarshalJSON implements json.Marshaler
func (t TargetOperators) MarshalJSON() ([]byte, error) {
	return json.Marshal(targetOperatorsJSON{Target: EncodeTarget(t.Target), Operators: t.Operators})
}

// UnmarshalJSON implements json.Unmarshaler
func (t *TargetOperators) UnmarshalJSON(data []byte) error {
	var wire targetOperatorsJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	target, err := wire.Target.Decode()
	if err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("pairing target is required")
	}
	for _, op := range wire.Operators {
		if !op.IsValid() {
			return fmt.Errorf("unknown operator %q", op)
		}
	}
	t.Target = target
	t.Operators = wire.Operators
	return nil
}

type pairingJSON struct {
	Subject *SubjectJSON      `json:"subject"`
	Targets []TargetOperators `json:"targets"`
	Hints   UIHints           `json:"ui,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (p Pairing) MarshalJSON() ([]byte, error) {
	return json.Marshal(pairingJSON{Subject: EncodeSubject(p.Subject), Targets: p.Targets, Hints: p.Hints})
}

// UnmarshalJSON implements json.Unmarshaler
func (p *Pairing) UnmarshalJSON(data []byte) error {
	var wire pairingJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	subject, err := wire.Subject.Decode()
	if err != nil {
		return err
	}
	if subject == nil {
		return fmt.Errorf("pairing subject is required")
	}
	p.Subject = subject
	p.Targets = wire.Targets
	p.Hints = wire.Hints
	return nil
}
