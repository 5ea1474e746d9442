// Package report renders debt views as downloadable spreadsheets.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"shopadmin/internal/ledger"
	"shopadmin/internal/shopapi"
)

const debtSheet = "Debts"

var debtHeader = []string{"ID", "User", "Amount", "Reason", "Status", "Given", "Paid"}

// WriteDebtsXLSX writes the given debt records as a single-sheet workbook.
// The last row carries the summed amount.
func WriteDebtsXLSX(w io.Writer, userName string, debts []shopapi.Debt) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(debtSheet)
	if err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	for col, title := range debtHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(debtSheet, cell, title); err != nil {
			return err
		}
	}

	for i, d := range debts {
		row := i + 2
		values := []interface{}{
			d.ID,
			userName,
			d.Amount,
			d.Reason,
			d.Status,
			d.GivenTime.Format(time.RFC3339),
			formatTakenTime(d.TakenTime),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(debtSheet, cell, v); err != nil {
				return err
			}
		}
	}

	totalRow := len(debts) + 2
	labelCell, err := excelize.CoordinatesToCellName(2, totalRow)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(debtSheet, labelCell, "Total"); err != nil {
		return err
	}
	totalCell, err := excelize.CoordinatesToCellName(3, totalRow)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(debtSheet, totalCell, ledger.Total(debts)); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func formatTakenTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
