package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/flash-cli/internal/config"
)

// Open connects to the store named by cfg and applies migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "postgres":
		st, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	case "sqlite", "":
		st, err = NewSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}
