package importer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/flash-cli/internal/model"
)

// ReadJSON reads a JSON array. Elements are either nested records
// ({"capital": {...}}) or flat objects keyed by page.field.
func ReadJSON(r io.Reader) ([]Row, error) {
	var elems []json.RawMessage
	if err := json.NewDecoder(r).Decode(&elems); err != nil {
		return nil, eris.Wrap(err, "importer: decode json array")
	}

	rows := make([]Row, 0, len(elems))
	for i, raw := range elems {
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "importer: element %d", i+1)
		}
		rows = append(rows, Row{Line: i + 1, Record: rec})
	}
	return rows, nil
}

// ReadJSONL reads one record per line. Blank lines are skipped.
func ReadJSONL(r io.Reader) ([]Row, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var rows []Row
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		rec, err := decodeRecord(b)
		if err != nil {
			return nil, eris.Wrapf(err, "importer: line %d", line)
		}
		rows = append(rows, Row{Line: line, Record: rec})
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "importer: scan jsonl")
	}
	return rows, nil
}

func decodeRecord(raw []byte) (model.AssessmentRecord, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return model.AssessmentRecord{}, eris.Wrap(err, "decode object")
	}
	for k := range obj {
		if strings.Contains(k, ".") {
			return recordFromFlat(obj)
		}
	}

	var rec model.AssessmentRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, eris.Wrap(err, "decode record")
	}
	return rec, nil
}
