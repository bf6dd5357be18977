package importer

import (
	"encoding/csv"
	"errors"
	"io"

	"github.com/rotisserie/eris"
)

// ReadCSV reads a CSV file whose first row is the page.field header.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "importer: read csv header")
	}
	cols, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []Row
	line := 1
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, eris.Wrapf(err, "importer: read csv line %d", line)
		}
		if isBlankRow(cells) {
			continue
		}
		rows = append(rows, Row{Line: line, Record: recordFromCells(cols, cells)})
	}
	return rows, nil
}
