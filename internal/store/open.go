package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/iwvelando/franchise-forecast/internal/config"
	"github.com/iwvelando/franchise-forecast/pkg/constants"
)

// Open creates the store selected by cfg.Driver and runs its migration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		st  Store
		err error
	)

	switch cfg.Driver {
	case constants.StoreDriverSQLite, "":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = constants.DefaultSQLitePath
		}
		st, err = NewSQLite(dsn)
	case constants.StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: postgres requires store.databaseUrl")
		}
		st, err = NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{
			MaxConns: cfg.MaxConns,
			MinConns: cfg.MinConns,
		})
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
