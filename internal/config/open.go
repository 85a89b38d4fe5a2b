package config

import (
	"context"

	"github.com/matzehuels/dungeonforge/pkg/cache"
	"github.com/matzehuels/dungeonforge/pkg/store"
)

// OpenCache returns the configured generation result cache.
func (c Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheRedis:
		rc, err := cache.NewRedisCache(ctx, c.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	dir := c.Cache.Dir
	if dir == "" {
		d, err := cache.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// Keyer returns the cache keyer, scoped by KeyPrefix when set.
func (c Config) Keyer() cache.Keyer {
	if c.Cache.KeyPrefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.Cache.KeyPrefix)
}

// OpenStore returns the configured simulation job store.
func (c Config) OpenStore(ctx context.Context) (store.Store, error) {
	switch c.Store.Backend {
	case StoreFile:
		fs, err := store.NewFileStore(c.Store.Dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case StoreMongo:
		ms, err := store.NewMongoStore(ctx, store.MongoConfig{
			URI:      c.Store.MongoURI,
			Database: c.Store.Database,
		})
		if err != nil {
			return nil, err
		}
		return ms, nil
	}
	return store.NewMemoryStore(), nil
}
