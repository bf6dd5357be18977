// Package importer reads assessment records from CSV, XLSX, JSON and JSON
// Lines files for batch scoring.
package importer

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/flash-cli/internal/assessment"
	"github.com/sells-group/flash-cli/internal/model"
)

// Row is one imported assessment. Line is the 1-based source row or element
// number, used in logs and summaries.
type Row struct {
	Line   int
	Record model.AssessmentRecord
}

// Label returns the company name, or "row N" when the row has none.
func (r Row) Label() string {
	if name := r.Record.CompanyName(); name != "" {
		return name
	}
	return "row " + strconv.Itoa(r.Line)
}

// Options configures Read.
type Options struct {
	SheetName string // xlsx only; default is the first sheet
}

// Supported reports whether Read can load the file at path.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx", ".json", ".jsonl", ".ndjson":
		return true
	}
	return false
}

// Read loads every row of the file at path, choosing the format by
// extension.
func Read(path string, opts Options) ([]Row, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xlsx" {
		return ReadXLSX(path, opts.SheetName)
	}

	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	switch ext {
	case ".csv":
		return ReadCSV(f)
	case ".json":
		return ReadJSON(f)
	case ".jsonl", ".ndjson":
		return ReadJSONL(f)
	default:
		return nil, eris.Errorf("importer: unsupported file type %q", ext)
	}
}

// column is a parsed "page.field" header.
type column struct {
	page  model.Page
	field string
}

func parseHeader(header []string) ([]column, error) {
	cols := make([]column, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		page, field, ok := strings.Cut(h, ".")
		if !ok || field == "" {
			return nil, eris.Errorf("importer: column %q must be page.field", h)
		}
		p, ok := model.ParsePage(page)
		if !ok {
			return nil, eris.Errorf("importer: unknown page %q in column %q", page, h)
		}
		cols[i] = column{page: p, field: field}
	}
	return cols, nil
}

// recordFromCells builds a record from one flat row. Blank cells are left
// unanswered.
func recordFromCells(cols []column, cells []string) model.AssessmentRecord {
	var rec model.AssessmentRecord
	for i, c := range cols {
		if c.field == "" || i >= len(cells) {
			continue
		}
		v, ok := parseCell(c.page, c.field, cells[i])
		if !ok {
			continue
		}
		setAnswer(&rec, c.page, c.field, v)
	}
	return rec
}

// recordFromFlat builds a record from a JSON object keyed by "page.field".
func recordFromFlat(obj map[string]any) (model.AssessmentRecord, error) {
	var rec model.AssessmentRecord
	for k, v := range obj {
		cols, err := parseHeader([]string{k})
		if err != nil {
			return rec, err
		}
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			if v, ok = parseCell(cols[0].page, cols[0].field, s); !ok {
				continue
			}
		}
		setAnswer(&rec, cols[0].page, cols[0].field, v)
	}
	return rec, nil
}

func setAnswer(rec *model.AssessmentRecord, p model.Page, field string, v any) {
	g := rec.Group(p)
	if g == nil {
		g = make(model.Group)
		rec.SetGroup(p, g)
	}
	g[field] = v
}

// parseCell converts spreadsheet text to the type the field expects. Text
// that does not read as that type stays a string so validation can report
// it. Blank cells are unanswered.
func parseCell(page model.Page, field, s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	switch assessment.AnswerTypeOf(page, field) {
	case assessment.AnswerNumber:
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
	case assessment.AnswerFlag:
		switch strings.ToLower(s) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
	}
	return s, true
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
