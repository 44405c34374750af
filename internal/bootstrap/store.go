package bootstrap

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/corewave/jobengine/internal/config"
	"github.com/corewave/jobengine/internal/store/sqlstore"
)

// OpenStore opens the Job Store named by storeURL, dispatching on scheme:
// "sqlite://" for a local file, "postgres://"/"postgresql://" for Postgres.
func OpenStore(ctx context.Context, storeURL string, pool config.StoragePoolConfig) (*sqlstore.Store, error) {
	u, err := url.Parse(storeURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: parse store url: %w", err)
	}

	cfg := sqlstore.Config{
		MaxOpenConns:    pool.DBMaxOpenConns,
		MaxIdleConns:    pool.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(pool.DBConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(pool.DBConnMaxIdleTime) * time.Second,
	}

	switch u.Scheme {
	case "sqlite":
		path := u.Opaque
		if path == "" {
			path = u.Path
		}
		return sqlstore.OpenSQLite(ctx, path, cfg)
	case "postgres", "postgresql":
		return sqlstore.OpenPostgres(ctx, storeURL, cfg)
	default:
		return nil, fmt.Errorf("bootstrap: unsupported store url scheme %q", u.Scheme)
	}
}

// MaskPassword redacts the password component of a connection string for
// safe logging, grounded on the teacher's main.go helper of the same name.
func MaskPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil {
		return "[REDACTED]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxxx")
		}
	}
	return u.String()
}
