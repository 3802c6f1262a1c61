// Package draft holds the bot configuration being assembled in the wizard and
// its save/load boundary. The draft is stored as one JSON document under a
// fixed key.
package draft

import (
	"fmt"
	"strings"
	"time"

	"github.com/ducminhle1904/dca-strategy-wizard/pkg/condition"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/validation"
)

// StorageKey is the fixed key the draft is stored under
const StorageKey = "dca-wizard:draft"

// Draft defaults
const (
	DefaultCapital     = 1000.0
	DefaultBaseAmount  = 40.0
	DefaultMaxOrders   = 5
	DefaultStepPercent = 0.01
	DefaultStepScale   = 1.0
	DefaultVolumeScale = 1.5
	DefaultTPPercent   = 0.02
	MaxPercent         = 1.0
	MinStepScale       = 1.0
	MaxSymbolsPerDraft = 20
)

// Capital is the money the bot may deploy
type Capital struct {
	TotalUSDT  float64 `json:"total_usdt"`
	BaseAmount float64 `json:"base_amount"`
}

// Risk holds exit thresholds as fractions (0.02 = 2%)
type Risk struct {
	TPPercent float64 `json:"tp_percent"`
	SLPercent float64 `json:"sl_percent,omitempty"`
}

// DCA describes the averaging-down ladder
type DCA struct {
	MaxOrders   int     `json:"max_orders"`
	StepPercent float64 `json:"step_percent"`
	StepScale   float64 `json:"step_scale"`
	VolumeScale float64 `json:"volume_scale"`
}

// BotDraft is the configuration being edited: bot metadata around the entry
// rule set.
type BotDraft struct {
	Name      string                  `json:"name"`
	Exchange  string                  `json:"exchange,omitempty"`
	Symbols   []string                `json:"symbols"`
	Capital   Capital                 `json:"capital"`
	Risk      Risk                    `json:"risk"`
	DCA       DCA                     `json:"dca"`
	Entry     *condition.EntryRuleSet `json:"entry"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// New returns a draft with default capital, risk and DCA settings
func New(name string) *BotDraft {
	return &BotDraft{
		Name:     name,
		Exchange: "bybit",
		Capital:  Capital{TotalUSDT: DefaultCapital, BaseAmount: DefaultBaseAmount},
		Risk:     Risk{TPPercent: DefaultTPPercent},
		DCA: DCA{
			MaxOrders:   DefaultMaxOrders,
			StepPercent: DefaultStepPercent,
			StepScale:   DefaultStepScale,
			VolumeScale: DefaultVolumeScale,
		},
		Entry: condition.NewEntryRuleSet(),
	}
}

// Clone returns a deep copy that shares nothing with d
func (d *BotDraft) Clone() *BotDraft {
	out := *d
	if d.Symbols != nil {
		out.Symbols = append([]string(nil), d.Symbols...)
	}
	out.Entry = d.Entry.Clone()
	return &out
}

// NormalizeSymbols upper-cases symbols and removes blanks and duplicates
func (d *BotDraft) NormalizeSymbols() {
	seen := make(map[string]bool, len(d.Symbols))
	out := d.Symbols[:0]
	for _, s := range d.Symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	d.Symbols = out
}

// Issues returns every local problem with the draft: metadata checks
// followed by the entry rule set issues.
func (d *BotDraft) Issues() []string {
	var issues []string

	if strings.TrimSpace(d.Name) == "" {
		issues = append(issues, "bot name is required")
	}
	if len(d.Symbols) == 0 {
		issues = append(issues, "at least one symbol is required")
	}
	if len(d.Symbols) > MaxSymbolsPerDraft {
		issues = append(issues, fmt.Sprintf("at most %d symbols are allowed, got: %d", MaxSymbolsPerDraft, len(d.Symbols)))
	}
	if d.Capital.TotalUSDT <= 0 {
		issues = append(issues, fmt.Sprintf("capital must be positive, got: %.2f", d.Capital.TotalUSDT))
	}
	if d.Capital.BaseAmount <= 0 {
		issues = append(issues, fmt.Sprintf("base amount must be positive, got: %.2f", d.Capital.BaseAmount))
	} else if d.Capital.TotalUSDT > 0 && d.Capital.BaseAmount > d.Capital.TotalUSDT {
		issues = append(issues, fmt.Sprintf("base amount %.2f exceeds capital %.2f", d.Capital.BaseAmount, d.Capital.TotalUSDT))
	}
	if d.Risk.TPPercent <= 0 || d.Risk.TPPercent > MaxPercent {
		issues = append(issues, fmt.Sprintf("TP percent must be within (0, %.2f], got %.4f", MaxPercent, d.Risk.TPPercent))
	}
	if d.Risk.SLPercent < 0 || d.Risk.SLPercent > MaxPercent {
		issues = append(issues, fmt.Sprintf("SL percent must be between 0 and %.2f, got: %.4f", MaxPercent, d.Risk.SLPercent))
	}
	if d.DCA.MaxOrders < 0 {
		issues = append(issues, fmt.Sprintf("DCA max orders must be non-negative, got: %d", d.DCA.MaxOrders))
	}
	if d.DCA.MaxOrders > 0 {
		if d.DCA.StepPercent <= 0 || d.DCA.StepPercent > MaxPercent {
			issues = append(issues, fmt.Sprintf("DCA step percent must be within (0, %.2f], got %.4f", MaxPercent, d.DCA.StepPercent))
		}
		if d.DCA.StepScale < MinStepScale {
			issues = append(issues, fmt.Sprintf("DCA step scale must be at least %.1f, got: %.2f", MinStepScale, d.DCA.StepScale))
		}
		if d.DCA.VolumeScale <= 0 {
			issues = append(issues, fmt.Sprintf("DCA volume scale must be positive, got: %.2f", d.DCA.VolumeScale))
		}
	}

	return append(issues, validation.ValidateRuleSet(d.Entry)...)
}

// Savable reports whether the draft has no local issues
func (d *BotDraft) Savable() bool {
	return len(d.Issues()) == 0
}
