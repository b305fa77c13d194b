package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teegee567/nsw-test-stats/pkg/geocode"
)

// newCache builds the configured cache backend. The returned func releases
// any underlying handle.
func newCache() (geocode.Cache, func(), error) {
	switch cfg.Geocode.CacheDriver {
	case "", "file":
		return geocode.NewFileCache(cfg.Geocode.CachePath), func() {}, nil
	case "sqlite":
		c, err := geocode.NewSQLiteCache(cfg.Geocode.CachePath)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { _ = c.Close() }, nil
	default:
		return nil, nil, eris.Errorf("unknown cache driver %q", cfg.Geocode.CacheDriver)
	}
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and migrate the geocoding cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache entry count",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, closeCache, err := newCache()
		if err != nil {
			return err
		}
		defer closeCache()

		n, err := cache.Load()
		if err != nil {
			return eris.Wrap(err, "cache status")
		}
		zap.L().Info("geocode cache",
			zap.String("driver", cfg.Geocode.CacheDriver),
			zap.String("path", cfg.Geocode.CachePath),
			zap.Int("entries", n),
		)
		return nil
	},
}

var cacheMigrateTo string

var cacheMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy the cache into another backend",
	Long:  "Copies every entry of the configured cache into the target backend so the cache driver can be switched without re-querying Nominatim.",
	RunE: func(cmd *cobra.Command, args []string) error {
		src, closeSrc, err := newCache()
		if err != nil {
			return err
		}
		defer closeSrc()
		if _, err := src.Load(); err != nil {
			return eris.Wrap(err, "cache migrate: load source")
		}

		var dst geocode.Cache
		var closeDst func()
		switch cacheMigrateTo {
		case "sqlite":
			c, err := geocode.NewSQLiteCache(cfg.Geocode.CachePath + ".db")
			if err != nil {
				return err
			}
			dst, closeDst = c, func() { _ = c.Close() }
		case "file":
			dst, closeDst = geocode.NewFileCache(cfg.Geocode.CachePath+".json"), func() {}
		default:
			return eris.Errorf("unknown migration target %q", cacheMigrateTo)
		}
		defer closeDst()

		copied := geocode.CopyCache(src, dst)
		n, err := dst.Persist()
		if err != nil {
			return eris.Wrap(err, "cache migrate: persist target")
		}

		zap.L().Info("cache migrated",
			zap.String("to", cacheMigrateTo),
			zap.Int("copied", copied),
			zap.Int("persisted", n),
		)
		return nil
	},
}

func init() {
	cacheMigrateCmd.Flags().StringVar(&cacheMigrateTo, "to", "sqlite", "target backend (file or sqlite)")
	cacheCmd.AddCommand(cacheStatusCmd, cacheMigrateCmd)
	rootCmd.AddCommand(cacheCmd)
}
