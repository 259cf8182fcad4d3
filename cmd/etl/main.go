package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/widya-lms/widya-core/internal/config"
	"github.com/widya-lms/widya-core/internal/database"
	"github.com/widya-lms/widya-core/internal/observability"
	"github.com/widya-lms/widya-core/internal/sites"
	"github.com/widya-lms/widya-core/internal/transfer"
	"github.com/widya-lms/widya-core/internal/vfs"
)

func main() {
	root := &cobra.Command{
		Use:   "etl",
		Short: "Export and import whole courses as archive bundles",
		Long: "etl moves a course's full content and metadata between deployments. " +
			"download writes a zip bundle with a manifest; upload restores a bundle " +
			"into an empty course.",
		SilenceUsage: true,
	}

	root.AddCommand(newDownloadCmd(), newUploadCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <course_url_prefix> <archive_path>",
		Short: "Export a course into a zip bundle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], func(ctx context.Context, t *transfer.Transfer, appContext *sites.Context) error {
				return t.Download(ctx, appContext, args[1])
			})
		},
	}
}

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <course_url_prefix> <archive_path>",
		Short: "Restore a zip bundle into an empty course",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], func(ctx context.Context, t *transfer.Transfer, appContext *sites.Context) error {
				return t.Upload(ctx, appContext, args[1])
			})
		},
	}
}

func run(ctx context.Context, coursePrefix string, op func(context.Context, *transfer.Transfer, *sites.Context) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	registry, err := sites.NewRegistry(cfg.Courses, sites.Dependencies{
		DB:       db,
		Redis:    redisClient,
		DataRoot: cfg.DataRoot,
		Cache: vfs.CacheConfig{
			Enabled: cfg.CanUseCache,
			TTL:     cfg.CacheTTL,
		},
		CacheObserverFor: func(namespace string) vfs.Observer {
			return observability.NewCacheMetrics(namespace)
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to build course registry: %w", err)
	}

	appContext := registry.GetCourseForPrefix(coursePrefix)
	if appContext == nil {
		return fmt.Errorf("%w: %s", transfer.ErrDestinationMissing, coursePrefix)
	}

	return op(ctx, transfer.New(logger), appContext)
}
