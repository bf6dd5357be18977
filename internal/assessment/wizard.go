package assessment

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/flash-cli/internal/model"
)

// ReviewStep is the step reached once every page has validated.
var ReviewStep = len(model.Pages)

// NewDraft returns an empty draft positioned on the first page.
func NewDraft(id string, now time.Time) model.Draft {
	return model.Draft{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplyPage merges values into a copy of the draft's page group and
// validates the page. A nil value removes the answer and derived fields are
// ignored. When the page validates it is marked completed; otherwise it is
// marked incomplete. The step only moves forward, and never past a page that
// has not validated. The input draft is not modified.
func ApplyPage(d model.Draft, page model.Page, values map[string]any, now time.Time) (model.Draft, model.ValidationErrors) {
	idx := page.Index()
	if idx < 0 {
		return d, model.ValidationErrors{{
			Page:    page,
			Code:    model.CodeInvalidValue,
			Message: "unknown page " + string(page),
		}}
	}

	out := d
	out.Record = d.Record.Clone()
	out.CompletedPages = slices.Clone(d.CompletedPages)

	g := out.Record.Group(page)
	if g == nil {
		g = make(model.Group, len(values))
	}
	for k, v := range values {
		if IsDerivedSource(page, k) {
			continue
		}
		if v == nil {
			delete(g, k)
			continue
		}
		g[k] = v
	}
	out.Record.SetGroup(page, g)
	out.UpdatedAt = now

	errs := ValidatePage(page, g)
	if errs.Valid() {
		if !out.Completed(page) {
			out.CompletedPages = append(out.CompletedPages, page)
		}
		out.CurrentStep = max(out.CurrentStep, completedPrefix(out))
	} else {
		out.CompletedPages = slices.DeleteFunc(out.CompletedPages, func(p model.Page) bool { return p == page })
	}
	return out, errs
}

// completedPrefix returns the index of the first page not yet completed, or
// ReviewStep when all are.
func completedPrefix(d model.Draft) int {
	for i, p := range model.Pages {
		if !d.Completed(p) {
			return i
		}
	}
	return ReviewStep
}

// ResetDraft clears every answer and returns the draft to the first page.
// The ID and creation time are kept.
func ResetDraft(d model.Draft, now time.Time) model.Draft {
	return model.Draft{
		ID:        d.ID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: now,
	}
}

// ReadyToSubmit reports whether the whole record validates.
func ReadyToSubmit(d model.Draft) bool {
	return Validate(d.Record).Valid()
}

// MarshalDraft encodes a draft for persistence.
func MarshalDraft(d model.Draft) ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, eris.Wrap(err, "draft: marshal")
	}
	return data, nil
}

// UnmarshalDraft decodes a persisted draft, rejecting unknown pages and
// out-of-range steps.
func UnmarshalDraft(data []byte) (model.Draft, error) {
	var d model.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return model.Draft{}, eris.Wrap(err, "draft: unmarshal")
	}
	if d.CurrentStep < 0 || d.CurrentStep > ReviewStep {
		return model.Draft{}, eris.Errorf("draft: step %d out of range", d.CurrentStep)
	}
	for _, p := range d.CompletedPages {
		if p.Index() < 0 {
			return model.Draft{}, eris.Errorf("draft: unknown completed page %q", p)
		}
	}
	return d, nil
}
