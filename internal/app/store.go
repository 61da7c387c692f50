// Package app wires configuration to the concrete store backend.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"socialmedia/internal/auth"
	"socialmedia/internal/config"
	"socialmedia/internal/db"
	"socialmedia/internal/dbinit"
	"socialmedia/internal/store"
	"socialmedia/internal/store/postgres"
	"socialmedia/internal/store/sqlite"
)

// OpenStore opens the backend selected by cfg.Database.Driver. A non-empty
// override replaces the sqlite file path or the postgres connection URL.
// For postgres, migrate also creates the database and applies migrations first.
func OpenStore(ctx context.Context, cfg *config.Config, override string, migrate bool) (store.Store, error) {
	override = strings.TrimSpace(override)
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		path := cfg.Database.Path
		if override != "" {
			path = override
		}
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		slog.Info("store.open", "driver", "sqlite", "path", path)
		return s, nil

	case config.DriverPostgres:
		appURL, err := cfg.Database.AppURL()
		if err != nil {
			return nil, err
		}
		if override != "" {
			appURL = override
		}
		if migrate {
			adminURL, err := cfg.Database.MaintenanceURL()
			if err != nil {
				return nil, err
			}
			if err := dbinit.EnsureDatabaseAndMigrate(ctx, adminURL, cfg.Database.Name, cfg.Database.User); err != nil {
				return nil, fmt.Errorf("db init: %w", err)
			}
			slog.Info("store.migrated", "driver", "postgres", "database", cfg.Database.Name)
		}
		pool, err := db.NewPool(ctx, appURL)
		if err != nil {
			return nil, err
		}
		slog.Info("store.open", "driver", "postgres")
		return postgres.New(pool), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

// Bootstrap creates the configured superuser when the store has no accounts.
func Bootstrap(ctx context.Context, s store.Store, b config.BootstrapConfig) error {
	hash, err := auth.HashPassword(b.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}
	created, err := store.EnsureSuperuser(ctx, s, b.AdminUsername, b.AdminEmail, hash)
	if err != nil {
		return err
	}
	if created {
		slog.Warn("bootstrap.admin_created", "username", b.AdminUsername,
			"hint", "change the bootstrap password after first login")
	}
	return nil
}
