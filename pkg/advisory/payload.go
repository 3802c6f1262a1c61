// Package advisory runs the best-effort remote checks for a condition: a
// structural validation and a natural-language sentence. Results augment local
// validation and never decide whether a draft can be saved.
package advisory

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/ducminhle1904/dca-strategy-wizard/pkg/catalog"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/condition"
)

// Payload is the fully resolved condition sent to the remote checks
type Payload struct {
	IndicatorID string                 `json:"indicatorId"`
	Timeframe   string                 `json:"timeframe"`
	Settings    map[string]interface{} `json:"settings,omitempty"`
	Subject     *catalog.SubjectJSON   `json:"subject,omitempty"`
	Target      *catalog.TargetJSON    `json:"target,omitempty"`
	Operator    catalog.Operator       `json:"operator"`
	Value       *float64               `json:"value,omitempty"`
	Component   string                 `json:"component,omitempty"`
	PriceSource catalog.PriceSource    `json:"priceSource,omitempty"`
}

// FromCondition builds the payload for c
func FromCondition(c condition.Condition) Payload {
	p := Payload{
		IndicatorID: c.Indicator.Name,
		Timeframe:   c.Timeframe,
		Settings:    c.Indicator.Settings,
		Operator:    c.Operator,
	}
	if c.Subject != nil {
		p.Subject = catalog.EncodeSubject(c.Subject)
	}
	if c.Target != nil {
		p.Target = catalog.EncodeTarget(c.Target)
	}
	if source, ok := c.PriceSource(); ok {
		p.PriceSource = source
	}
	if c.Comparison != nil {
		switch c.Comparison.Kind {
		case condition.ComparisonValue:
			p.Value = catalog.Float(c.Comparison.Value)
		case condition.ComparisonComponent:
			p.Component = c.Comparison.Component
		}
	}
	return p
}

// Condition rebuilds the condition a payload describes
func (p Payload) Condition() (condition.Condition, error) {
	c := condition.Condition{
		Indicator: condition.IndicatorRef{Name: p.IndicatorID, Settings: p.Settings},
		Timeframe: p.Timeframe,
		Operator:  p.Operator,
	}
	if p.Subject != nil {
		s, err := p.Subject.Decode()
		if err != nil {
			return c, fmt.Errorf("subject: %w", err)
		}
		if ps, ok := s.(catalog.PriceSubject); ok && ps.Source == "" && p.PriceSource != "" {
			s = catalog.PriceSubject{Source: p.PriceSource}
		}
		c.Subject = s
	}
	if p.Target != nil {
		t, err := p.Target.Decode()
		if err != nil {
			return c, fmt.Errorf("target: %w", err)
		}
		c.Target = t
	}
	switch {
	case p.Value != nil:
		c.Comparison = condition.Literal(*p.Value)
	case p.Component != "":
		c.Comparison = condition.ComponentRef(p.Component)
	}
	return c, nil
}

// Key identifies the payload. Responses carry the key of the payload that
// produced them so results for superseded edits can be dropped.
func (p Payload) Key() string {
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
