// Package backends turns config sections into the stores and identity
// providers the binaries run with.
package backends

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/datastore"
	"gorm.io/gorm"

	ap "github.com/panyam/authpage"
	"github.com/panyam/authpage/config"
	"github.com/panyam/authpage/providers/httpidp"
	"github.com/panyam/authpage/providers/local"
	"github.com/panyam/authpage/stores"
	fsstore "github.com/panyam/authpage/stores/fs"
	"github.com/panyam/authpage/stores/gae"
	gormstore "github.com/panyam/authpage/stores/gorm"
	"github.com/panyam/authpage/stores/s3store"
)

// CloseFunc releases whatever a backend opened
type CloseFunc func() error

func nopClose() error { return nil }

// OpenProfileStore opens the profile store described by cfg
func OpenProfileStore(ctx context.Context, cfg config.StoreConfig) (ap.ProfileStore, CloseFunc, error) {
	switch cfg.Kind {
	case config.StoreMemory:
		return stores.NewMemoryProfileStore(), nopClose, nil
	case config.StoreFS:
		return fsstore.NewProfileStore(cfg.Path), nopClose, nil
	case config.StoreDatastore:
		client, err := datastore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create datastore client: %w", err)
		}
		return gae.NewProfileStore(client, cfg.Namespace), client.Close, nil
	case config.StorePostgres, config.StoreSQLite:
		db, closeDB, err := openGorm(cfg)
		if err != nil {
			return nil, nil, err
		}
		return gormstore.NewProfileStore(db), closeDB, nil
	case config.StoreS3:
		client, err := s3store.NewClient(ctx, s3store.ClientOptions{
			Region:       cfg.Region,
			BaseEndpoint: cfg.Endpoint,
			AccessKey:    cfg.AccessKey,
			SecretKey:    cfg.SecretKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return s3store.NewProfileStore(client, cfg.Bucket), nopClose, nil
	}
	return nil, nil, fmt.Errorf("unsupported profile store %q", cfg.Kind)
}

// OpenAccountStore opens the account store described by cfg
func OpenAccountStore(ctx context.Context, cfg config.StoreConfig) (ap.AccountStore, CloseFunc, error) {
	switch cfg.Kind {
	case config.StoreMemory:
		return stores.NewMemoryAccountStore(), nopClose, nil
	case config.StoreFS:
		return fsstore.NewAccountStore(cfg.Path), nopClose, nil
	case config.StoreDatastore:
		client, err := datastore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create datastore client: %w", err)
		}
		return gae.NewAccountStore(client, cfg.Namespace), client.Close, nil
	case config.StorePostgres, config.StoreSQLite:
		db, closeDB, err := openGorm(cfg)
		if err != nil {
			return nil, nil, err
		}
		return gormstore.NewAccountStore(db), closeDB, nil
	}
	return nil, nil, fmt.Errorf("unsupported account store %q", cfg.Kind)
}

func openGorm(cfg config.StoreConfig) (*gorm.DB, CloseFunc, error) {
	dialect, dsn := gormstore.DialectPostgres, cfg.DSN
	if cfg.Kind == config.StoreSQLite {
		dialect, dsn = gormstore.DialectSQLite, cfg.Path
	}
	db, err := gormstore.Open(dialect, dsn)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	return db, sqlDB.Close, nil
}

// NewDirectory builds a local directory over the configured account store
func NewDirectory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*local.Directory, CloseFunc, error) {
	accounts, closeAccounts, err := OpenAccountStore(ctx, cfg.Accounts)
	if err != nil {
		return nil, nil, err
	}
	opts := []local.DirectoryOption{local.WithLogger(logger)}
	if cfg.Provider != nil && cfg.Provider.Secret != "" {
		opts = append(opts, local.WithSecret([]byte(cfg.Provider.Secret)))
	}
	return local.NewDirectory(accounts, opts...), closeAccounts, nil
}

// NewProvider builds the configured identity provider. It returns a nil
// provider, and no error, when the provider section is missing.
func NewProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ap.IdentityProvider, CloseFunc, error) {
	if cfg.Provider == nil {
		return nil, nopClose, nil
	}
	switch cfg.Provider.Kind {
	case config.ProviderLocal:
		dir, closeDir, err := NewDirectory(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return local.NewProvider(dir), closeDir, nil
	case config.ProviderHTTP:
		var opts []httpidp.ClientOption
		if t := cfg.Provider.Timeout(); t > 0 {
			opts = append(opts, httpidp.WithTimeout(t))
		}
		return httpidp.NewClient(cfg.Provider.Endpoint, opts...), nopClose, nil
	}
	return nil, nil, fmt.Errorf("unsupported provider %q", cfg.Provider.Kind)
}
