package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/framegraph/config"
	"github.com/kbukum/framegraph/logger"
)

// App holds what every framegraph command shares: the validated config,
// the logger, lifecycle hooks and background services.
type App struct {
	Name    string
	Version string
	Cfg     *config.AppConfig
	Logger  *logger.Logger
	Summary *Summary

	gracefulTimeout time.Duration
	summaryOut      io.Writer
	signals         []os.Signal

	onStart  []Hook
	onStop   []Hook
	services []service
}

type service struct {
	name string
	run  func(ctx context.Context) error
}

// NewApp applies defaults, validates the config and initializes the logger.
func NewApp(cfg *config.AppConfig, opts ...Option) (*App, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	app := &App{
		Name:            cfg.Name,
		Version:         cfg.Version,
		Cfg:             cfg,
		gracefulTimeout: 10 * time.Second,
		summaryOut:      os.Stdout,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.Logger == nil {
		logger.Init(&cfg.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	app.Summary = NewSummary(cfg.Name, cfg.Version)
	return app, nil
}

// Go registers a service that runs for the lifetime of the task. A service
// must return when its context is cancelled; returning context.Canceled is
// not an error. Any other error cancels the task.
func (a *App) Go(name string, run func(ctx context.Context) error) {
	a.services = append(a.services, service{name: name, run: run})
	a.Summary.Track(SectionServices, name, "running")
}

// RunTask runs start hooks, then the registered services and task under one
// errgroup, then stop hooks. SIGINT and SIGTERM cancel the task; a task
// ended by a signal is a clean shutdown.
func (a *App) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	start := time.Now()
	a.Logger.Info("Starting application", map[string]interface{}{
		"name":    a.Name,
		"version": a.Version,
	})

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	sigCtx, stopSignals := ctx, context.CancelFunc(func() {})
	if len(a.signals) > 0 {
		sigCtx, stopSignals = signal.NotifyContext(ctx, a.signals...)
	}
	defer stopSignals()

	g, gctx := errgroup.WithContext(sigCtx)
	svcCtx, stopServices := context.WithCancel(gctx)
	defer stopServices()

	for _, s := range a.services {
		g.Go(func() error {
			err := s.run(svcCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				a.Logger.Error("Service failed", map[string]interface{}{
					"service": s.name,
					"error":   err.Error(),
				})
				return fmt.Errorf("service %s: %w", s.name, err)
			}
			return nil
		})
	}

	a.Summary.SetStartupDuration(time.Since(start))
	a.displaySummary()

	g.Go(func() error {
		defer stopServices()
		return task(gctx)
	})

	taskErr := g.Wait()
	if errors.Is(taskErr, context.Canceled) && sigCtx.Err() != nil {
		a.Logger.Info("Task interrupted, shutting down")
		taskErr = nil
	}

	if stopErr := a.stop(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

func (a *App) displaySummary() {
	if a.summaryOut != nil {
		a.Summary.Write(a.summaryOut)
	}
}

// stop runs every OnStop hook within the graceful timeout.
func (a *App) stop() error {
	a.Logger.Info("Shutting down application", map[string]interface{}{
		"timeout": a.gracefulTimeout.String(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	err := runAllHooks(ctx, a.onStop)
	if err != nil {
		a.Logger.Error("OnStop hook error", map[string]interface{}{
			"error": err.Error(),
		})
	}
	a.Logger.Info("Application shutdown complete")
	return err
}
