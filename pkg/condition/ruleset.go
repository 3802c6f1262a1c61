package condition

// Rule set limits
const (
	MaxMainTriggers         = 2
	MaxSupportingConditions = 10
)

// Timing controls when a satisfied rule set enters
type Timing string

const (
	TimingOnBarClose  Timing = "onBarClose"
	TimingNextBarOpen Timing = "nextBarOpen"
)

// GroupLogic combines the conditions of a supporting group
type GroupLogic string

const (
	LogicAnd GroupLogic = "AND"
	LogicOr  GroupLogic = "OR"
)

// SupportingGroup is a named AND/OR list of conditions
type SupportingGroup struct {
	Logic      GroupLogic  `json:"logic"`
	Conditions []Condition `json:"conditions"`
}

// Len returns the number of conditions, tolerating a nil group
func (g *SupportingGroup) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Conditions)
}

// Clone returns a deep copy of the group
func (g *SupportingGroup) Clone() *SupportingGroup {
	if g == nil {
		return nil
	}
	out := &SupportingGroup{Logic: g.Logic}
	if g.Conditions != nil {
		out.Conditions = make([]Condition, len(g.Conditions))
		for i, c := range g.Conditions {
			out.Conditions[i] = c.Clone()
		}
	}
	return out
}

// TimeWindow restricts entries to a time of day
type TimeWindow struct {
	Enabled  bool   `json:"enabled"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone,omitempty"`
}

// EntryRuleSet is the full set of conditions that decide when a strategy
// enters a position. Slot 2 of MainTriggers is optional.
type EntryRuleSet struct {
	MainTriggers [MaxMainTriggers]*Condition `json:"mainTriggers"`
	SetA         *SupportingGroup            `json:"setA,omitempty"`
	SetB         *SupportingGroup            `json:"setB,omitempty"`
	Timing       Timing                      `json:"timing"`
	CooldownBars *int                        `json:"cooldownBars,omitempty"`
	TimeWindow   *TimeWindow                 `json:"timeWindow,omitempty"`
	ResetIfStale bool                        `json:"resetIfStale"`
}

// SlotCondition pairs an active main trigger with its 1-based slot
type SlotCondition struct {
	Slot      int
	Condition *Condition
}

// ActiveTriggers returns the non-empty main trigger slots in order
func (r *EntryRuleSet) ActiveTriggers() []SlotCondition {
	active := make([]SlotCondition, 0, MaxMainTriggers)
	for i, c := range r.MainTriggers {
		if c != nil {
			active = append(active, SlotCondition{Slot: i + 1, Condition: c})
		}
	}
	return active
}

// SupportingCount returns the combined size of both supporting groups
func (r *EntryRuleSet) SupportingCount() int {
	return r.SetA.Len() + r.SetB.Len()
}

// TotalConditions counts main triggers plus supporting conditions
func (r *EntryRuleSet) TotalConditions() int {
	return len(r.ActiveTriggers()) + r.SupportingCount()
}

// Each visits every condition with a human label for its position
func (r *EntryRuleSet) Each(fn func(label string, c *Condition)) {
	for _, slot := range r.ActiveTriggers() {
		fn(TriggerLabel(slot.Slot), slot.Condition)
	}
	for _, g := range []struct {
		name  string
		group *SupportingGroup
	}{{"A", r.SetA}, {"B", r.SetB}} {
		if g.group == nil {
			continue
		}
		for i := range g.group.Conditions {
			fn(GroupLabel(g.name, i+1), &g.group.Conditions[i])
		}
	}
}

// Clone returns a deep copy; a nil rule set clones to nil
func (r *EntryRuleSet) Clone() *EntryRuleSet {
	if r == nil {
		return nil
	}
	out := *r
	for i, c := range r.MainTriggers {
		if c != nil {
			cloned := c.Clone()
			out.MainTriggers[i] = &cloned
		}
	}
	out.SetA = r.SetA.Clone()
	out.SetB = r.SetB.Clone()
	if r.CooldownBars != nil {
		bars := *r.CooldownBars
		out.CooldownBars = &bars
	}
	if r.TimeWindow != nil {
		w := *r.TimeWindow
		out.TimeWindow = &w
	}
	return &out
}

// NewEntryRuleSet returns an empty rule set with default timing
func NewEntryRuleSet() *EntryRuleSet {
	return &EntryRuleSet{Timing: TimingOnBarClose}
}
