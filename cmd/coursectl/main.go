package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"course-marketplace/internal/application"
	"course-marketplace/internal/config"
	pg "course-marketplace/internal/infra/db/postgres"
	"course-marketplace/internal/infra/logging"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	cfgPath string
	devMode bool
)

var rootCmd = &cobra.Command{
	Use:           "coursectl",
	Short:         "Course marketplace admin tool",
	Long:          `coursectl manages the course marketplace database: schema, demo catalog, payment request review and API tokens.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "console logging")

	rootCmd.AddCommand(versionCmd, migrateCmd, seedCmd, requestsCmd, tokenCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "coursectl %s (%s)\n", Version, GitCommit)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := load()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		pool, err := pg.NewPgxPool(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := pg.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
		return nil
	},
}

var seedCount int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert the demo course catalog (course-1..N, every 10th free)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedCount <= 0 {
			return fmt.Errorf("--count must be positive")
		}
		return withApp(cmd, func(ctx context.Context, app *application.Container) error {
			start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
			n, err := application.SeedCatalog(ctx, app.Catalog, seedCount, start)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d courses\n", n)
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedCount, "count", 50, "number of courses to generate")
}

func load() (*config.Config, *zerolog.Logger, error) {
	cfg, err := config.LoadConfig(cfgPath, devMode)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(cfg.Log, devMode), nil
}

// withApp builds the full container for commands that go through the use cases.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *application.Container) error) error {
	cfg, logger, err := load()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	app, err := application.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
