package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dungeonforge/internal/config"
	"github.com/matzehuels/dungeonforge/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the generation result cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached generation results",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Config.Cache.Backend == config.CacheNone {
				printInfo("Cache is disabled")
				return nil
			}
			ch, err := c.Config.OpenCache(cmd.Context())
			if err != nil {
				return err
			}
			defer ch.Close()

			n, err := clearCache(cmd.Context(), ch)
			if err != nil {
				return err
			}
			printSuccess("Cleared %d cached entries", n)
			if fc, ok := ch.(*cache.FileCache); ok {
				printDetail("Directory: %s", fc.Dir())
			}
			return nil
		},
	}
}

func clearCache(ctx context.Context, ch cache.Cache) (int, error) {
	switch ch := ch.(type) {
	case *cache.FileCache:
		return ch.Clear()
	case *cache.RedisCache:
		return ch.Clear(ctx)
	}
	return 0, nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch c.Config.Cache.Backend {
			case config.CacheRedis:
				fmt.Println(c.Config.Cache.RedisURL)
				return nil
			case config.CacheNone:
				printInfo("Cache is disabled")
				return nil
			}
			dir := c.Config.Cache.Dir
			if dir == "" {
				d, err := cache.DefaultDir()
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				dir = d
			}
			fmt.Println(dir)
			return nil
		},
	}
}
