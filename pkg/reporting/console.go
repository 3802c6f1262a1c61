package reporting

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/dca-strategy-wizard/pkg/catalog"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/condition"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/draft"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/pairing"
)

// DefaultConsoleReporter prints rounded tables to a writer
type DefaultConsoleReporter struct {
	out io.Writer
}

// NewDefaultConsoleReporter creates a reporter writing to w; nil means stdout
func NewDefaultConsoleReporter(w io.Writer) *DefaultConsoleReporter {
	if w == nil {
		w = os.Stdout
	}
	return &DefaultConsoleReporter{out: w}
}

func (r *DefaultConsoleReporter) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

// PrintCatalog lists the available indicators
func (r *DefaultConsoleReporter) PrintCatalog(summaries []catalog.IndicatorSummary, offline bool) {
	title := "INDICATORS"
	if offline {
		title += " (OFFLINE, BUILT-IN)"
	}
	t := r.newTable(title)
	t.AppendHeader(table.Row{"ID", "Label", "Version"})
	for _, s := range summaries {
		t.AppendRow(table.Row{s.ID, s.Label, s.Version})
	}
	t.Render()
}

// PrintPairings lists every legal subject, target and operator combination
func (r *DefaultConsoleReporter) PrintPairings(def *catalog.IndicatorDefinition) {
	if def == nil {
		return
	}
	t := r.newTable(fmt.Sprintf("%s PAIRINGS", strings.ToUpper(def.ID)))
	t.AppendHeader(table.Row{"Subject", "Target", "Operators"})

	for i, subject := range pairing.ValidSubjects(def) {
		if i > 0 {
			t.AppendSeparator()
		}
		for _, entry := range pairing.ValidTargets(def, subject) {
			ops := make([]string, len(entry.Operators))
			for j, op := range entry.Operators {
				ops[j] = pairing.OperatorLabel(op)
			}
			t.AppendRow(table.Row{
				pairing.SubjectLabel(subject),
				pairing.TargetLabel(entry.Target),
				strings.Join(ops, ", "),
			})
		}
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true, Align: text.AlignLeft},
		{Number: 3, WidthMax: 60},
	})
	t.Render()
}

// PrintDraft shows the bot metadata and every entry condition
func (r *DefaultConsoleReporter) PrintDraft(d *draft.BotDraft) {
	if d == nil {
		return
	}
	t := r.newTable("BOT DRAFT")
	t.AppendRows([]table.Row{
		{"Name", d.Name},
		{"Exchange", d.Exchange},
		{"Symbols", strings.Join(d.Symbols, ", ")},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Capital", fmt.Sprintf("$%.2f", d.Capital.TotalUSDT)},
		{"Base Amount", fmt.Sprintf("$%.2f", d.Capital.BaseAmount)},
		{"Take Profit", fmt.Sprintf("%.2f%%", d.Risk.TPPercent*100)},
		{"DCA Orders", fmt.Sprintf("%d (step %.2f%% x%.2f)", d.DCA.MaxOrders, d.DCA.StepPercent*100, d.DCA.StepScale)},
	})

	if d.Entry != nil {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Timing", string(d.Entry.Timing)})
		d.Entry.Each(func(label string, c *condition.Condition) {
			t.AppendRow(table.Row{label, condition.Describe(*c)})
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, WidthMax: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, WidthMax: 80, Align: text.AlignLeft},
	})
	t.Render()
}

// PrintIssues prints a numbered issue list, or a single OK row
func (r *DefaultConsoleReporter) PrintIssues(title string, issues []string) {
	t := r.newTable(title)
	if len(issues) == 0 {
		t.AppendRow(table.Row{"OK", "no issues"})
		t.Render()
		return
	}
	t.AppendHeader(table.Row{"#", "Issue"})
	for i, issue := range issues {
		t.AppendRow(table.Row{i + 1, issue})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, WidthMax: 90},
	})
	t.Render()
}

// ReviewRow is one condition line of the review table
type ReviewRow struct {
	Label    string
	Sentence string
	Remote   bool
	Issues   int
}

// PrintReviews shows the sentence for every condition and where it came from
func (r *DefaultConsoleReporter) PrintReviews(rows []ReviewRow) {
	t := r.newTable("ENTRY CONDITIONS")
	t.AppendHeader(table.Row{"Condition", "Reads As", "Source", "Issues"})
	for _, row := range rows {
		source := "local"
		if row.Remote {
			source = "service"
		}
		t.AppendRow(table.Row{row.Label, row.Sentence, source, row.Issues})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 70},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
}
