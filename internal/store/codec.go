package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/flash-cli/internal/assessment"
	"github.com/sells-group/flash-cli/internal/model"
)

// prepareDraft fills the ID and timestamps of a draft about to be saved and
// returns its encoded form.
func prepareDraft(d *model.Draft) ([]byte, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = now
	}
	return assessment.MarshalDraft(*d)
}

// prepareSubmission fills the ID and creation time of a submission and
// returns its encoded features and prediction. prediction is nil when the
// submission has none.
func prepareSubmission(sub *model.Submission) (features, prediction []byte, err error) {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	features, err = json.Marshal(sub.Features)
	if err != nil {
		return nil, nil, eris.Wrap(err, "store: marshal features")
	}
	if sub.Prediction != nil {
		prediction, err = json.Marshal(sub.Prediction)
		if err != nil {
			return nil, nil, eris.Wrap(err, "store: marshal prediction")
		}
	}
	return features, prediction, nil
}

func decodeSubmission(sub *model.Submission, features, prediction []byte) error {
	if err := json.Unmarshal(features, &sub.Features); err != nil {
		return eris.Wrap(err, "store: unmarshal features")
	}
	if len(prediction) > 0 {
		sub.Prediction = &model.Prediction{}
		if err := json.Unmarshal(prediction, sub.Prediction); err != nil {
			return eris.Wrap(err, "store: unmarshal prediction")
		}
	}
	return nil
}

func nullable(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}
