package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gradlayer/pkg/cache"
	"github.com/matzehuels/gradlayer/pkg/config"
	"github.com/matzehuels/gradlayer/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local layout cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached layout and artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Config.Cache.Backend != config.CacheFile {
				printWarning("Cache backend is %s; only the file cache can be cleared here", c.Config.Cache.Backend)
				return nil
			}
			dir, err := c.fileCacheDir()
			if err != nil {
				return err
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			count, err := fc.(*cache.FileCache).Clear()
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}

			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.fileCacheDir()
			if err != nil {
				return err
			}
			fmt.Println(dir)
			return nil
		},
	}
}

// fileCacheDir returns the configured cache directory or the XDG default.
func (c *CLI) fileCacheDir() (string, error) {
	if dir := c.Config.Cache.Dir; dir != "" {
		return dir, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "get cache dir")
	}
	return dir, nil
}
