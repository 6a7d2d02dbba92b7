package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/gradeboard/internal/api"
	"github.com/jon4hz/gradeboard/internal/cache"
	"github.com/jon4hz/gradeboard/internal/database"
	"github.com/jon4hz/gradeboard/internal/scheduler"
	"github.com/jon4hz/gradeboard/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gradeboard server",
	Long:  `Start the gradeboard server to serve dashboard sessions, accept imports and run the history retention job.`,
	Example: `gradeboard serve --config config.yml
gradeboard serve -c /path/to/config.yml --log-level debug
`,
	RunE: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close() //nolint: errcheck

	sessionCache, err := cache.NewSessionCache(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to create session cache: %w", err)
	}
	registry := session.NewRegistry(sessionCache.StateCache, time.Duration(cfg.SessionMaxAge)*time.Second)

	sched, err := scheduler.New()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	retention := time.Duration(cfg.GetRetentionDays()) * 24 * time.Hour
	if err := sched.AddCronJob(
		scheduler.PruneImportHistoryJobID,
		"Prune import history",
		fmt.Sprintf("Delete import runs older than %d days", cfg.GetRetentionDays()),
		cfg.GetPruneSchedule(),
		scheduler.PruneImportHistory(db, retention),
	); err != nil {
		return fmt.Errorf("failed to schedule history pruning: %w", err)
	}

	server, err := api.New(cfg, registry, db, sessionCache, sched)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx)
	})
	g.Go(func() error {
		sched.Start()
		<-ctx.Done()
		return sched.Stop()
	})

	log.Info("gradeboard started successfully", "listen", cfg.Listen, "cache", cfg.Cache.Type)
	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	log.Info("gradeboard stopped")
	return nil
}
