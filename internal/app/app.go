// Package app wires configuration, logging, the Chzzk client, the webhook
// sender and the run orchestrator together, for both one-shot and daemon
// mode.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"chzzkwatch/internal/chzzk"
	"chzzkwatch/internal/config"
	"chzzkwatch/internal/history"
	"chzzkwatch/internal/monitor"
	"chzzkwatch/internal/notify"
	"chzzkwatch/internal/web"
	logx "chzzkwatch/pkg/logx"
)

type Options struct {
	ConfigPath string
	// StateFile overrides the configured state file path when non-empty.
	StateFile string
}

type App struct {
	opts   Options
	cfgMgr *config.Manager

	logSvc *logx.Service
	log    logx.Logger

	hist history.Store // may be nil

	mu     sync.Mutex
	runner *monitor.Runner

	runMu sync.Mutex // serializes poll runs in daemon mode
}

// New loads and validates the configuration and builds the pipeline.
// A missing, empty or invalid config is the only fatal condition.
func New(opts Options) (*App, error) {
	cfgMgr := config.NewManager(opts.ConfigPath)
	cfg, err := cfgMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", opts.ConfigPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", opts.ConfigPath, err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.ConsoleLogging(),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	cfgMgr.SetLogger(log.With(logx.String("comp", "config")))

	hist, err := history.Open(history.Config{Driver: cfg.History.Driver, Path: cfg.History.Path}, log.With(logx.String("comp", "history")))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("open history store: %w", err)
	}

	a := &App{
		opts:   opts,
		cfgMgr: cfgMgr,
		logSvc: logSvc,
		log:    log,
		hist:   hist,
	}
	a.rebuild(cfg)
	return a, nil
}

// rebuild swaps in a runner matching the given config (the send spacing is
// baked into the webhook sender at construction).
func (a *App) rebuild(cfg *config.Config) {
	client := chzzk.NewClient(a.log.With(logx.String("comp", "chzzk")))
	sender := notify.NewWebhook(cfg.Spacing(), a.log.With(logx.String("comp", "notify")))
	r := monitor.New(client, sender, a.hist, a.log.With(logx.String("comp", "monitor")))

	a.mu.Lock()
	a.runner = r
	a.mu.Unlock()
}

// currentConfig returns the latest committed config with CLI overrides applied.
func (a *App) currentConfig() *config.Config {
	cfg := a.cfgMgr.Get()
	if a.opts.StateFile != "" {
		cp := *cfg
		cp.StateFile = a.opts.StateFile
		cfg = &cp
	}
	return cfg
}

// RunOnce executes a single poll and returns. Fetch and send failures are
// absorbed inside the runner; only a state persistence failure is reported.
func (a *App) RunOnce(ctx context.Context) error {
	a.mu.Lock()
	r := a.runner
	a.mu.Unlock()

	_, err := r.RunOnce(ctx, a.currentConfig())
	return err
}

// RunLoop polls on the configured cron schedule until ctx is done,
// hot-reloading the config file and serving status endpoints when enabled.
func (a *App) RunLoop(ctx context.Context) error {
	cfg := a.currentConfig()

	a.cfgMgr.SetValidator(func(_ context.Context, c *config.Config) error {
		return c.Validate()
	})
	go func() { _ = a.cfgMgr.Watch(ctx) }()

	updates := a.cfgMgr.Subscribe(1)
	defer a.cfgMgr.Unsubscribe(updates)
	go func() {
		for next := range updates {
			a.log.Info("config reloaded", logx.Int("streamers", len(next.Streamers)))
			a.logSvc.Apply(logx.Config{
				Level:   next.Logging.Level,
				Console: next.ConsoleLogging(),
				File:    logx.FileConfig{Enabled: next.Logging.File.Enabled, Path: next.Logging.File.Path},
			})
			a.rebuild(next)
		}
	}()

	if cfg.Server.Enabled {
		srv := web.NewServer(cfg.Server.Addr, a.cfgMgr, a.hist, a.log.With(logx.String("comp", "web")))
		go srv.Start(ctx)
	}

	poll := func() {
		// Skip instead of piling up when a run outlasts the schedule.
		if !a.runMu.TryLock() {
			a.log.Warn("previous run still in progress; skipping poll")
			return
		}
		defer a.runMu.Unlock()
		if err := a.RunOnce(ctx); err != nil {
			a.log.Error("run failed", logx.Err(err))
		}
	}

	c := cron.New()
	spec := cfg.CronSpec()
	if _, err := c.AddFunc(spec, poll); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	a.log.Info("daemon started", logx.String("schedule", spec), logx.Int("streamers", len(cfg.Streamers)))

	poll() // immediate first run, then on schedule
	c.Start()

	<-ctx.Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	stop := c.Stop()
	<-stop.Done()
	a.runMu.Lock() // wait for an in-flight poll
	a.runMu.Unlock()
	return nil
}

func (a *App) Close() error {
	var err error
	if a.hist != nil {
		err = a.hist.Close()
	}
	_ = a.logSvc.Close()
	return err
}
