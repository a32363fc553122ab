package helpers

import (
	"fmt"
	"io"
	"strconv"

	"github.com/360EntSecGroup-Skylar/excelize"

	"github.com/spektr-org/fieldreport/engine"
)

// SheetName is the worksheet report tables are written to.
const SheetName = "Sheet1"

// WriteXLSX writes a report table as a single-sheet workbook with the same
// layout as WriteCSV.
func WriteXLSX(w io.Writer, table *engine.TableData) error {
	book := excelize.NewFile()
	for r, record := range tableRecords(table) {
		record := record
		book.SetSheetRow(SheetName, "A"+strconv.Itoa(r+1), &record)
	}
	if err := book.Write(w); err != nil {
		return fmt.Errorf("write XLSX: %w", err)
	}
	return nil
}
