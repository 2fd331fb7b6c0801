package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aretw0/loam"
	"github.com/aretw0/sitescript"
	"github.com/aretw0/sitescript/internal/config"
	"github.com/aretw0/sitescript/pkg/adapters/file"
	loamstore "github.com/aretw0/sitescript/pkg/adapters/loam"
	"github.com/aretw0/sitescript/pkg/adapters/memory"
	"github.com/aretw0/sitescript/pkg/adapters/redis"
	"github.com/aretw0/sitescript/pkg/persistence/middleware"
	"github.com/aretw0/sitescript/pkg/ports"
	"github.com/aretw0/sitescript/pkg/schema"
)

// newEditor builds an Editor from the loaded configuration.
func newEditor(opts ...sitescript.Option) (*sitescript.Editor, error) {
	catalog, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	store, locker, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	gate, err := schema.NewGate(catalog)
	if err != nil {
		return nil, err
	}
	mws := []middleware.Middleware{middleware.NewValidationMiddleware(gate)}
	key, err := cfg.Store.Key()
	if err != nil {
		return nil, err
	}
	if key != nil {
		encrypt, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, encrypt)
	}
	store = middleware.Chain(store, mws...)

	base := []sitescript.Option{
		sitescript.WithLogger(logger),
		sitescript.WithCatalog(catalog),
		sitescript.WithStore(store),
		sitescript.WithQuiescence(cfg.Quiescence),
	}
	if locker != nil {
		base = append(base, sitescript.WithLocker(locker))
	}
	return sitescript.New(append(base, opts...)...)
}

func loadCatalog(path string) (*schema.Catalog, error) {
	if path == "" {
		return schema.DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return schema.LoadCatalog(f)
}

// openStore returns the configured script store and, for shared backends, a distributed
// locker.
func openStore(c config.StoreConfig) (ports.ScriptStore, ports.DistributedLocker, error) {
	switch c.Backend {
	case config.BackendFile:
		return file.NewStore(c.Path), nil, nil
	case config.BackendLoam:
		store, err := loamstore.Open(c.Path, loam.WithVersioning(false))
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case config.BackendRedis:
		store := redis.New(c.Redis.Addr, c.Redis.Password, c.Redis.DB,
			redis.WithPrefix(c.Redis.Prefix),
			redis.WithTTL(c.Redis.TTL),
		)
		return store, redis.NewLocker(store.Client(), c.Redis.Prefix), nil
	default:
		return memory.NewStore(), nil, nil
	}
}

// openDesigns returns the site design store. The file backend keeps designs next to the
// scripts; the other backends hold them in memory.
func openDesigns(c config.StoreConfig) ports.DesignStore {
	if c.Backend == config.BackendFile {
		return file.NewDesignStore(filepath.Join(c.Path, file.DesignsDir))
	}
	return memory.NewDesignStore()
}

// readInput reads a file argument; "-" reads stdin.
func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}
