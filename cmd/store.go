package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/lodestar-research/satwatch/internal/store"
	"github.com/lodestar-research/satwatch/pkg/datastore"
)

// initStore opens the configured store backend, validating its credentials
// up front so a misconfigured run fails before any detector work.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "rest":
		if cfg.Store.URL == "" {
			return nil, eris.New("store URL is required (SATWATCH_STORE_URL)")
		}
		if cfg.Store.ServiceKey == "" {
			return nil, eris.New("store service key is required (SATWATCH_STORE_SERVICE_KEY)")
		}
		return store.NewREST(datastore.NewClient(cfg.Store.URL, cfg.Store.ServiceKey)), nil
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("database URL is required (SATWATCH_STORE_DATABASE_URL)")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
