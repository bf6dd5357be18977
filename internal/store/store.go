// Package store persists wizard drafts and prediction submissions.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/flash-cli/internal/model"
)

// ErrNotFound is wrapped by operations that target a missing row.
var ErrNotFound = eris.New("store: not found")

// DraftFilter pages through drafts, most recently updated first.
type DraftFilter struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// SubmissionFilter narrows a submission listing, newest first with ties
// broken by ID. A zero CreatedAfter means no lower bound. Before resumes a
// listing strictly after the given row, which stays stable while new
// submissions arrive.
type SubmissionFilter struct {
	DraftID      string            `json:"draft_id,omitempty"`
	Degraded     *bool             `json:"degraded,omitempty"`
	CreatedAfter time.Time         `json:"created_after,omitempty"`
	Before       *SubmissionCursor `json:"before,omitempty"`
	Limit        int               `json:"limit,omitempty"`
	Offset       int               `json:"offset,omitempty"`
}

// SubmissionCursor identifies a row in the submission ordering.
type SubmissionCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// CursorOf returns the cursor positioned at sub.
func CursorOf(sub model.Submission) *SubmissionCursor {
	return &SubmissionCursor{CreatedAt: sub.CreatedAt, ID: sub.ID}
}

const defaultListLimit = 100

func limitOrDefault(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}

// Store defines the persistence interface for drafts and submissions.
type Store interface {
	// Drafts
	SaveDraft(ctx context.Context, d *model.Draft) error
	GetDraft(ctx context.Context, id string) (*model.Draft, error)
	DeleteDraft(ctx context.Context, id string) error
	ListDrafts(ctx context.Context, filter DraftFilter) ([]model.Draft, error)

	// Submissions
	SaveSubmission(ctx context.Context, sub *model.Submission) error
	SaveSubmissions(ctx context.Context, subs []model.Submission) (int64, error)
	GetSubmission(ctx context.Context, id string) (*model.Submission, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]model.Submission, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
