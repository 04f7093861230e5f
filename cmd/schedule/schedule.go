// Package schedule implements the recurring-ingestion daemon command.
package schedule

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	cmdcommon "github.com/citypulse/cityingest/cmd/common"
	"github.com/citypulse/cityingest/internal/metrics"
)

// Command returns the schedule command.
func Command(deps func() (*cmdcommon.Deps, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run ingestion on a cron schedule",
		Long: `Run the ingestion pipeline on the configured cron schedule until
interrupted. One pass runs immediately on startup.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := deps()
			if err != nil {
				return err
			}
			return runDaemon(cmd.Context(), d)
		},
	}
}

func runDaemon(ctx context.Context, d *cmdcommon.Deps) error {
	app, err := cmdcommon.BuildApp(d)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := d.Logger.WithComponent("schedule")
	collector := metrics.NewCollector()

	if d.Config.Metrics.Enabled {
		go func() {
			if serveErr := collector.Serve(ctx, d.Config.Metrics.Addr); serveErr != nil {
				log.Error("metrics endpoint stopped", "error", serveErr)
			}
		}()
		log.Info("metrics endpoint listening", "addr", d.Config.Metrics.Addr)
	}

	// One pipeline pass at a time; a slow pass makes the next tick a
	// no-op instead of stacking browser sessions.
	var running sync.Mutex
	pass := func() {
		if !running.TryLock() {
			log.Warn("previous pass still running, skipping tick")
			return
		}
		defer running.Unlock()

		summary := app.Pipeline.Run(ctx)
		collector.Observe(summary)
		fmt.Println(summary.String())
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(d.Config.Schedule.Cron, pass); err != nil {
		return fmt.Errorf("parse cron expression %q: %w", d.Config.Schedule.Cron, err)
	}

	log.Info("scheduler starting", "cron", d.Config.Schedule.Cron)
	pass()
	scheduler.Start()

	<-ctx.Done()
	log.Info("shutting down")

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	running.Lock() // wait out an in-flight pass
	running.Unlock()

	return nil
}
