// Package cli implements the gradlayer command-line interface.
//
// # Commands
//
//   - layout: lay out a tree document or an exported acyclic graph
//   - rank: print the rank rows of an acyclic graph
//   - reverse: convert a backward tree into its forward graph
//   - dot: print or render a node-link preview
//   - inspect: browse a layout interactively
//   - serve: run the HTTP API
//   - cache: manage the local result cache
//
// # Configuration
//
// Every command reads the config file named by --config, or
// $XDG_CONFIG_HOME/gradlayer/config.toml when the flag is absent. Flags that
// are set explicitly override file values.
//
// # Logging
//
// Logs go to stderr through charmbracelet/log. --verbose (-v) switches to
// debug level, which includes per-stage timings from the pipeline.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gradlayer/pkg/buildinfo"
	"github.com/matzehuels/gradlayer/pkg/cache"
	"github.com/matzehuels/gradlayer/pkg/config"
	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "gradlayer"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.File

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	setLevel(c.Logger, level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "gradlayer lays out autograd graphs as layered diagrams",
		Long: `gradlayer turns a recorded autograd backward graph into a layered diagram.

Tree documents are drawn as alternating tensor and operation layers, flat
acyclic graphs as rank groups. Layouts are JSON documents that can be
previewed as DOT, SVG or PNG and served over HTTP.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.loadConfig,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: "+config.DefaultPath()+")")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.rankCommand())
	root.AddCommand(c.reverseCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	for _, cmd := range root.Commands() {
		registerFlagCompletions(cmd)
	}

	return root
}

// loadConfig reads the config file and applies its log level. --verbose
// wins over the file.
func (c *CLI) loadConfig(cmd *cobra.Command, args []string) error {
	var (
		f   config.File
		err error
	)
	if c.configPath != "" {
		f, err = config.Load(c.configPath)
	} else {
		f, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}
	c.Config = f

	switch {
	case c.verbose:
		c.SetLogLevel(LogDebug)
	case f.Log.Level != "":
		level, err := log.ParseLevel(f.Log.Level)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "log level")
		}
		c.SetLogLevel(level)
	}
	c.Logger.Debug("loaded config", "path", c.configPath, "cache", f.Cache.Backend)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, keyer, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

// newCache opens the configured cache backend. The file backend falls back
// to no caching when no cache directory can be determined.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, cache.Keyer, error) {
	cfg := c.Config.Cache
	keyer := cache.NewDefaultKeyer()
	if noCache || cfg.Backend == config.CacheNone {
		return cache.NewNullCache(), keyer, nil
	}

	if cfg.Backend == config.CacheRedis {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{URL: cfg.RedisURL, Prefix: cfg.Prefix})
		if err != nil {
			return nil, nil, err
		}
		return rc, keyer, nil
	}

	if cfg.Prefix != "" {
		keyer = cache.NewScopedKeyer(keyer, cfg.Prefix)
	}
	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "error", err)
			return cache.NewNullCache(), keyer, nil
		}
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, nil, err
	}
	return fc, keyer, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/gradlayer/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatJSON}
	}
	return strings.Split(s, ",")
}

// outputBase strips the extension and a trailing ".layout" from an input
// path, so a.json becomes a and a.layout.json becomes a too.
func outputBase(input string) string {
	input = filepath.Clean(input)
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return strings.TrimSuffix(base, ".layout")
}
