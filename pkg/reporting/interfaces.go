// Package reporting renders catalog, pairing and validation output for the
// console and writes workbook and JSON exports.
package reporting

import (
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/catalog"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/draft"
)

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	PrintCatalog(summaries []catalog.IndicatorSummary, offline bool)
	PrintPairings(def *catalog.IndicatorDefinition)
	PrintDraft(d *draft.BotDraft)
	PrintIssues(title string, issues []string)
	PrintReviews(rows []ReviewRow)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteCatalogXLSX(defs []*catalog.IndicatorDefinition, issues []string, path string) error
	WriteJSON(v interface{}, path string) error
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle  int
	BaseStyle    int
	SectionStyle int
	IssueStyle   int
}
