// Package export renders tabular audit reports from completed controls.
// The row contract is fixed: one summary row per control, one detail row
// per reviewed document, and one anomaly row nested beneath each
// non-conform document.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"optia/internal/model"
)

// Exporter builds audit report workbooks.
type Exporter struct{}

// NewExporter creates an exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

var reportHeaders = []string{
	"Dossier", "Client", "Conseiller", "Domaine", "Montant",
	"Date du contrôle", "Anomalies", "Conformité",
}

// ControlReport builds the per-control report for one control type.
func (e *Exporter) ControlReport(def *model.ControlDefinition, history []model.CompletedControl) (*excelize.File, error) {
	entries := make([]model.CompletedControl, 0, len(history))
	for _, entry := range history {
		if entry.ControlType == def.Code {
			entries = append(entries, entry)
		}
	}
	return e.buildSheet(def.Name, entries)
}

// HistoryReport builds the full-history report across all control types.
func (e *Exporter) HistoryReport(history []model.CompletedControl) (*excelize.File, error) {
	return e.buildSheet("Historique", history)
}

func (e *Exporter) buildSheet(sheetName string, entries []model.CompletedControl) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetName)

	for i, h := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	f.SetRowStyle(sheetName, 1, 1, headerStyle)

	row := 2
	for _, entry := range entries {
		verdict := "Conforme"
		if !entry.Conform {
			verdict = "Non conforme"
		}

		// Summary row for the control.
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), entry.DossierKey)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), entry.Client)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), entry.Advisor)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), entry.Domain)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), entry.Amount)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), entry.CompletedAt.Format("02/01/2006"))
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), entry.AnomalyCount)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), verdict)
		row++

		// One detail row per reviewed document, anomaly row beneath when
		// the document is not conform.
		for _, doc := range entry.Documents {
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), doc.Name)
			f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), documentLabel(doc.Status))
			row++

			if doc.Status != model.DocConform {
				f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), "Anomalie")
				f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), doc.Comment)
				row++
			}
		}
	}

	return f, nil
}

func documentLabel(status string) string {
	switch status {
	case model.DocConform:
		return "Conforme"
	case model.DocNonConform:
		return "Non conforme"
	case model.DocMissing:
		return "Absent"
	default:
		return status
	}
}
