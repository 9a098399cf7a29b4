// Package export writes ranked results as spreadsheets for offline review.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/onnwee/collegefit/internal/ranking"
)

// XLSXContentType is the media type of the workbook written by WriteXLSX.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the worksheet holding the ranking.
const SheetName = "Rankings"

// bucketColumns returns the categories present in any result, in canonical
// order, so the sheet has one column per populated bucket.
func bucketColumns(results []ranking.Result) []ranking.Category {
	var out []ranking.Category
	for _, c := range ranking.Categories() {
		for _, r := range results {
			if _, ok := r.Buckets[c]; ok {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// WriteXLSX writes results to w as a single-sheet workbook: one row per
// college in rank order, followed by the combined score and one column per
// bucket. Buckets a college has no score for are left blank.
func WriteXLSX(w io.Writer, results []ranking.Result) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	cats := bucketColumns(results)
	header := []any{"Rank", "ID", "Name", "City", "State", "Score"}
	for _, c := range cats {
		header = append(header, c.String())
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range results {
		row := []any{r.Rank, r.College.ID, r.College.Name, r.College.City, r.College.State, r.Score}
		for _, c := range cats {
			if v, ok := r.Buckets[c]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
