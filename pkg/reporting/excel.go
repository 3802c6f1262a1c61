package reporting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/dca-strategy-wizard/pkg/catalog"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/pairing"
)

// Workbook sheet names
const (
	IndicatorsSheet = "Indicators"
	PairingsSheet   = "Pairings"
	IssuesSheet     = "Issues"
)

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteCatalogXLSX writes the definitions, their pairings and the current
// issues to a workbook.
func (r *DefaultExcelReporter) WriteCatalogXLSX(defs []*catalog.IndicatorDefinition, issues []string, path string) error {
	if err := NewDefaultPathManager().EnsureDirectoryExists(path); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName(fx.GetSheetName(0), IndicatorsSheet)
	if _, err := fx.NewSheet(PairingsSheet); err != nil {
		return err
	}
	if _, err := fx.NewSheet(IssuesSheet); err != nil {
		return err
	}

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	sorted := make([]*catalog.IndicatorDefinition, 0, len(defs))
	for _, def := range defs {
		if def != nil {
			sorted = append(sorted, def)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	if err := r.writeIndicatorsSheet(fx, sorted, styles); err != nil {
		return err
	}
	if err := r.writePairingsSheet(fx, sorted, styles); err != nil {
		return err
	}
	if err := r.writeIssuesSheet(fx, issues, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: border,
	})
	if err != nil {
		return styles, err
	}

	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		Border:    border,
	})
	if err != nil {
		return styles, err
	}

	styles.SectionStyle, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "1F4E79"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
		Border: border,
	})
	if err != nil {
		return styles, err
	}

	styles.IssueStyle, err = fx.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: "C00000"},
		Alignment: &excelize.Alignment{WrapText: true},
		Border:    border,
	})
	return styles, err
}

func writeHeader(fx *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		fx.SetCellStyle(sheet, cell, cell, style)
	}
	return nil
}

func writeRow(fx *excelize.File, sheet string, row int, values []interface{}, style int) error {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := fx.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
		fx.SetCellStyle(sheet, cell, cell, style)
	}
	return nil
}

func (r *DefaultExcelReporter) writeIndicatorsSheet(fx *excelize.File, defs []*catalog.IndicatorDefinition, styles ExcelStyles) error {
	sheet := IndicatorsSheet
	if err := writeHeader(fx, sheet, []string{"ID", "Label", "Version", "Components", "Settings", "Pairings"}, styles.HeaderStyle); err != nil {
		return err
	}

	for i, def := range defs {
		settings := make([]string, 0, len(def.Settings))
		for name, s := range def.Settings {
			if s.Default != nil {
				settings = append(settings, fmt.Sprintf("%s=%v", name, s.Default))
			} else {
				settings = append(settings, name)
			}
		}
		sort.Strings(settings)

		values := []interface{}{
			def.ID,
			def.Label,
			def.Version,
			strings.Join(def.Components, ", "),
			strings.Join(settings, ", "),
			len(def.Pairings),
		}
		if err := writeRow(fx, sheet, i+2, values, styles.BaseStyle); err != nil {
			return err
		}
	}

	fx.SetColWidth(sheet, "A", "A", 10)
	fx.SetColWidth(sheet, "B", "B", 24)
	fx.SetColWidth(sheet, "C", "C", 12)
	fx.SetColWidth(sheet, "D", "E", 32)
	fx.SetColWidth(sheet, "F", "F", 10)
	return nil
}

func (r *DefaultExcelReporter) writePairingsSheet(fx *excelize.File, defs []*catalog.IndicatorDefinition, styles ExcelStyles) error {
	sheet := PairingsSheet
	if err := writeHeader(fx, sheet, []string{"Indicator", "Subject", "Target", "Operators"}, styles.HeaderStyle); err != nil {
		return err
	}

	row := 2
	for _, def := range defs {
		if err := writeRow(fx, sheet, row, []interface{}{def.Label, "", "", ""}, styles.SectionStyle); err != nil {
			return err
		}
		row++

		for _, subject := range pairing.ValidSubjects(def) {
			for _, entry := range pairing.ValidTargets(def, subject) {
				ops := make([]string, len(entry.Operators))
				for j, op := range entry.Operators {
					ops[j] = string(op)
				}
				values := []interface{}{
					def.ID,
					pairing.SubjectLabel(subject),
					pairing.TargetLabel(entry.Target),
					strings.Join(ops, " "),
				}
				if err := writeRow(fx, sheet, row, values, styles.BaseStyle); err != nil {
					return err
				}
				row++
			}
		}
	}

	fx.SetColWidth(sheet, "A", "A", 12)
	fx.SetColWidth(sheet, "B", "C", 22)
	fx.SetColWidth(sheet, "D", "D", 48)
	if row > 2 {
		fx.AutoFilter(sheet, fmt.Sprintf("A1:D%d", row-1), []excelize.AutoFilterOptions{})
	}
	return nil
}

func (r *DefaultExcelReporter) writeIssuesSheet(fx *excelize.File, issues []string, styles ExcelStyles) error {
	sheet := IssuesSheet
	if err := writeHeader(fx, sheet, []string{"#", "Issue"}, styles.HeaderStyle); err != nil {
		return err
	}
	for i, issue := range issues {
		if err := writeRow(fx, sheet, i+2, []interface{}{i + 1, issue}, styles.IssueStyle); err != nil {
			return err
		}
	}
	fx.SetColWidth(sheet, "A", "A", 6)
	fx.SetColWidth(sheet, "B", "B", 90)
	return nil
}
