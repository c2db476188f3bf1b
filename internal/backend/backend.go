// Package backend opens the service.Backend selected in the settings.
package backend

import (
	"context"
	"fmt"
	"net/http"

	"tasksync/internal/backend/googletasks"
	"tasksync/internal/backend/postgrest"
	"tasksync/internal/backend/redisstore"
	"tasksync/internal/backend/sqlstore"
	"tasksync/internal/config"
	"tasksync/internal/service"
)

// Open connects to the configured backend.
// Backends holding connections also implement io.Closer.
func Open(ctx context.Context, cfg *config.Config) (service.Backend, error) {
	s := cfg.Settings
	switch s.Backend {
	case config.BackendGoogleTasks, "":
		c, err := googletasks.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.BackendPostgREST:
		return postgrest.New(s.PostgREST.URL, s.PostgREST.Key, s.PostgREST.Table,
			&http.Client{Timeout: postgrest.APITimeout}), nil
	case config.BackendPostgres, config.BackendMySQL:
		d := sqlstore.Postgres
		if s.Backend == config.BackendMySQL {
			d = sqlstore.MySQL
		}
		st, err := sqlstore.Open(ctx, d, s.SQL.DSN)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.BackendRedis:
		st, err := redisstore.Open(ctx, s.Redis.Addr, s.Redis.Password, s.Redis.DB)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", s.Backend)
	}
}
