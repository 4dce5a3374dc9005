// Package export writes the directory listing to a spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"empdir/internal/directory"
)

// SheetName is the worksheet holding the employees.
const SheetName = "Employees"

var header = []any{
	"ID", "Name", "Mother's Name", "Father's Name", "Gender", "Date of Birth",
	"Country", "State", "Email", "Contact Number",
}

// WriteXLSX writes rows as a single-sheet workbook. Country and state are the
// resolved display names.
func WriteXLSX(w io.Writer, rows []directory.Row) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		e := r.Employee
		values := []any{
			e.ID, e.Name, e.MotherName, e.FatherName, string(e.Gender), e.DOB,
			r.CountryName, r.StateName, e.Email, e.Contact,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
