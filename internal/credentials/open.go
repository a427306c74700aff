package credentials

import (
	"context"
	"fmt"

	"github.com/tOgg1/thinkchat/internal/config"
	"github.com/tOgg1/thinkchat/internal/db"
)

// Open returns the Store selected by cfg.Storage.Backend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	path := cfg.StoragePath()
	switch cfg.Storage.Backend {
	case config.StorageSQLite, "":
		return OpenSQLite(ctx, path, db.Options{BusyTimeoutMs: cfg.Storage.BusyTimeoutMs})
	case config.StorageBolt:
		return OpenBolt(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
