package assessment

import (
	"math"
	"strings"

	"github.com/sells-group/flash-cli/internal/model"
)

// PageProgress counts the answered rule fields of one page.
type PageProgress struct {
	Page     model.Page `json:"page"`
	Answered int        `json:"answered"`
	Total    int        `json:"total"`
	Valid    bool       `json:"valid"`
}

// Progress summarizes how far a record is from submission.
type Progress struct {
	Pages    []PageProgress `json:"pages"`
	Answered int            `json:"answered"`
	Total    int            `json:"total"`
	Percent  float64        `json:"percent"`
}

// ComputeProgress reports per-page and overall completion of rec. A field
// counts as answered when it holds any non-empty value, including false.
func ComputeProgress(rec model.AssessmentRecord) Progress {
	var p Progress
	for _, page := range model.Pages {
		g := rec.Group(page)
		pp := PageProgress{Page: page, Total: len(rules[page])}
		for _, r := range rules[page] {
			if answered(g[r.Field]) {
				pp.Answered++
			}
		}
		pp.Valid = ValidatePage(page, g).Valid()
		p.Pages = append(p.Pages, pp)
		p.Answered += pp.Answered
		p.Total += pp.Total
	}
	if p.Total > 0 {
		p.Percent = math.Round(float64(p.Answered)/float64(p.Total)*1000) / 10
	}
	return p
}

func answered(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	default:
		return true
	}
}
