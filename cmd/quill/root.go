package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quill/internal/di"
	"quill/internal/shared/config"
)

var (
	version = "dev"
	commit  = "none"
)

// cli carries the state shared by every subcommand.
type cli struct {
	configPath string
	// buildContainer is swapped in tests.
	buildContainer func(config.Config) (*di.Container, error)
}

func newRootCommand() *cobra.Command {
	return (&cli{buildContainer: di.BuildContainer}).rootCommand()
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "quill",
		Short:         "Synchronize blog post resources with a remote asset store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default: $QUILL_CONFIG_PATH, ./quill.yaml, ~/.quill/config.yaml)")
	flags.String("store.backend", config.StoreBackendHTTP, "asset store backend: http or memory")
	flags.String("store.base_url", "", "asset store API base URL")
	flags.String("store.delivery_url", "", "asset store public delivery URL")
	flags.String("cache.backend", config.CacheBackendMemory, "published content cache: memory, bigcache or redis")
	flags.String("log.level", "info", "log level: debug, info, warn or error")

	root.AddCommand(
		c.newServeCommand(),
		c.newSyncCommand(),
		c.newFetchCommand(),
		c.newPurgeCommand(),
		newVersionCommand(),
	)
	return root
}

// container loads configuration for cmd and builds the dependency graph.
func (c *cli) container(cmd *cobra.Command) (*di.Container, func(), error) {
	cfg, meta, err := config.Load(config.Options{
		Path:  c.configPath,
		Flags: cmd.Flags(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	container, err := c.buildContainer(cfg)
	if err != nil {
		return nil, nil, err
	}
	if meta.Loaded {
		printInfo(cmd.ErrOrStderr(), "using config %s", meta.Path)
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Cleanup(ctx); err != nil {
			printWarning(cmd.ErrOrStderr(), "cleanup: %v", err)
		}
	}
	return container, cleanup, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the quill version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "quill %s (%s)\n", version, commit)
		},
	}
}
