package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/flash-cli/internal/model"
	"github.com/sells-group/flash-cli/internal/predict"
	"github.com/sells-group/flash-cli/internal/store"
)

// readRecord loads an assessment record from a JSON file, or from stdin
// when path is "-".
func readRecord(stdin io.Reader, path string) (model.AssessmentRecord, error) {
	var rec model.AssessmentRecord

	r := stdin
	if path != "-" {
		f, err := os.Open(path) //nolint:gosec
		if err != nil {
			return rec, eris.Wrapf(err, "open %s", path)
		}
		defer f.Close() //nolint:errcheck
		r = f
	}

	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return rec, eris.Wrapf(err, "decode %s", path)
	}
	return rec, nil
}

// initStore validates the config for mode and opens the configured store.
func initStore(ctx context.Context, mode string) (store.Store, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}

// initService opens the store and wires the submission service to it. The
// caller closes the returned store.
func initService(ctx context.Context, mode string) (*predict.Service, store.Store, error) {
	st, err := initStore(ctx, mode)
	if err != nil {
		return nil, nil, err
	}
	svc, err := predict.FromConfig(cfg, st)
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, nil, err
	}
	return svc, st, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}
