// Package scheduler запускает ежедневный проход по расписанию cron.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/subscription-billing/internal/app/core"
	"github.com/magabrotheeeer/subscription-billing/internal/config"
	"github.com/magabrotheeeer/subscription-billing/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-billing/internal/models"
)

// Runner выполняет ежедневный проход.
type Runner interface {
	RunDailyPass(ctx context.Context, trigger models.Actor) (models.RunSummary, error)
}

// App представляет приложение планировщика.
type App struct {
	cron    *cron.Cron
	runner  Runner
	metrics *http.Server
	core    *core.Core
	logger  *slog.Logger
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	c, err := core.New(ctx, cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}
	app, err := newApp(ctx, c.Scheduler, c.Calendar.Location(), cfg.Scheduler.CronSpec, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	app.core = c
	if cfg.Scheduler.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		app.metrics = &http.Server{
			Addr:              cfg.Scheduler.MetricsAddress,
			Handler:           mux,
			ReadHeaderTimeout: cfg.TimeoutHTTP,
		}
	}
	return app, nil
}

func newApp(ctx context.Context, runner Runner, loc *time.Location, spec string, logger *slog.Logger) (*App, error) {
	const op = "app.scheduler.New"

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	a := &App{cron: c, runner: runner, logger: logger}

	if _, err := c.AddFunc(spec, func() { a.runOnce(ctx) }); err != nil {
		return nil, fmt.Errorf("%s: invalid cron spec %q: %w", op, spec, err)
	}
	return a, nil
}

func (a *App) runOnce(ctx context.Context) {
	summary, err := a.runner.RunDailyPass(ctx, models.SystemActor)
	switch {
	case errors.Is(err, models.ErrRunInProgress):
		a.logger.Info("daily pass skipped, another instance holds the lock")
	case err != nil:
		a.logger.Error("daily pass failed", sl.Err(err))
	default:
		a.logger.Info("daily pass finished",
			slog.Int("reminders_sent", summary.RemindersSent),
			slog.Int("deactivated", summary.DeactivatedCount),
			slog.Int("errors", len(summary.Errors)),
		)
	}
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.cron.Start()
	a.logger.Info("scheduler started", slog.Int("entries", len(a.cron.Entries())))

	if a.metrics != nil {
		go func() {
			a.logger.Info("metrics server starting on", slog.String("address", a.metrics.Addr))
			if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server stopped", sl.Err(err))
			}
		}()
	}

	<-ctx.Done()

	a.logger.Info("shutting down scheduler service")

	// Ждём завершения текущего прохода.
	<-a.cron.Stop().Done()

	if a.metrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metrics.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to stop metrics server", sl.Err(err))
		}
	}
	if a.core != nil {
		a.core.Close()
	}
	return nil
}
