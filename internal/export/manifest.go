// Package export renders saved calculations as XLSX load manifests.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/eugenenazirov/load-planner/internal/calculation"
)

// Sheet names of a manifest workbook.
const (
	SummarySheet         = "Summary"
	ContainersSheet      = "Containers"
	LoadPlanSheet        = "Load plan"
	RecommendationsSheet = "Recommendations"
)

// ContentType is the MIME type of a manifest.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrNoResult is returned for records that carry no computed result.
var ErrNoResult = errors.New("calculation has no result to export")

// Filename returns the suggested download name for rec's manifest.
func Filename(rec calculation.Record) string {
	return fmt.Sprintf("calculation-%s.xlsx", rec.ID)
}

// WriteManifest writes an XLSX workbook describing rec to w.
func WriteManifest(w io.Writer, rec calculation.Record) error {
	if rec.Result == nil {
		return ErrNoResult
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return err
	}
	for _, name := range []string{ContainersSheet, LoadPlanSheet, RecommendationsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SummarySheet, summaryRows(rec)},
		{ContainersSheet, containerRows(rec.Result)},
		{LoadPlanSheet, loadPlanRows(rec.Result)},
		{RecommendationsSheet, recommendationRows(rec.Result)},
	}
	for _, sheet := range sheets {
		if err := writeRows(f, sheet.name, sheet.rows); err != nil {
			return fmt.Errorf("write sheet %s: %w", sheet.name, err)
		}
		if err := f.SetRowStyle(sheet.name, 1, 1, header); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func summaryRows(rec calculation.Record) [][]any {
	r := rec.Result
	return [][]any{
		{"Field", "Value"},
		{"Calculation", rec.ID},
		{"Label", rec.Label},
		{"Status", string(rec.Status)},
		{"Container type", r.ContainerType.Name},
		{"Container dimensions (m)", fmt.Sprintf("%g x %g x %g", r.ContainerType.Length, r.ContainerType.Width, r.ContainerType.Height)},
		{"Container weight capacity (kg)", r.ContainerWeightCapacity},
		{"Containers", r.ContainerCount},
		{"Total volume (m3)", r.TotalVolume},
		{"Total weight (kg)", r.TotalWeight},
		{"Average utilization (%)", r.AverageUtilization},
	}
}

func containerRows(r *calculation.Result) [][]any {
	rows := [][]any{{
		"Container", "Units", "Utilization (%)", "Volume (%)", "Weight (%)",
		"Used volume (m3)", "Used weight (kg)", "Remaining volume (m3)", "Remaining weight (kg)",
	}}
	for _, c := range r.Containers {
		rows = append(rows, []any{
			c.Index, c.Units, c.Utilization, c.VolumeUtilization, c.WeightUtilization,
			c.UsedVolume, c.UsedWeight, c.RemainingVolume, c.RemainingWeight,
		})
	}
	return rows
}

func loadPlanRows(r *calculation.Result) [][]any {
	rows := [][]any{{
		"Container", "Item ID", "Item", "Count", "Length", "Width", "Height", "Unit weight",
		"Start X", "Start Y", "Start Z", "End X", "End Y", "End Z",
	}}
	for _, c := range r.Containers {
		for _, g := range c.Groups {
			start, end := g.Pattern.Start, g.Pattern.End
			rows = append(rows, []any{
				c.Index, g.Item.ID, g.Item.Name, g.Count,
				g.Item.Length, g.Item.Width, g.Item.Height, g.Weight,
				start.X, start.Y, start.Z, end.X, end.Y, end.Z,
			})
		}
	}
	return rows
}

func recommendationRows(r *calculation.Result) [][]any {
	rows := [][]any{{"Item ID", "Item", "Max quantity"}}
	for _, rec := range r.Recommendations {
		rows = append(rows, []any{rec.Item.ID, rec.Item.Name, rec.MaxQuantity})
	}
	return rows
}
