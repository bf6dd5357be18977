package importer

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ReadXLSX reads a worksheet whose first row is the page.field header. An
// empty sheetName selects the first sheet.
func ReadXLSX(path, sheetName string) ([]Row, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open xlsx")
	}

	sheet, err := getSheet(f, sheetName)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	cols, err := parseHeader(rowToStrings(sheet.Rows[0]))
	if err != nil {
		return nil, err
	}

	var rows []Row
	for i, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if isBlankRow(cells) {
			continue
		}
		rows = append(rows, Row{Line: i + 2, Record: recordFromCells(cols, cells)})
	}
	return rows, nil
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("importer: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("importer: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
