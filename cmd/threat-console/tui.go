package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/threat-console/internal/api"
	"github.com/nhle/threat-console/internal/app"
	"github.com/nhle/threat-console/internal/bookmarks"
	"github.com/nhle/threat-console/internal/credential"
	"github.com/nhle/threat-console/internal/logging"
	"github.com/nhle/threat-console/internal/metrics"
	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/notify"
	"github.com/nhle/threat-console/internal/session"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive console (default).",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Path)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runConsole(ctx, cfg, logger)
}

func runConsole(ctx context.Context, cfg *model.AppConfig, logger *zap.Logger) error {
	prefs, bus, err := openPrefs(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := prefs.Close(); err != nil {
			logger.Warn("closing preference storage", zap.Error(err))
		}
	}()

	client := api.New(api.Options{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout(),
		RetryCount: 2,
		Logger:     logger.Named("api"),
	})

	var creds credential.Store
	if ring, err := credential.Open(model.ConfigDir()); err != nil {
		logger.Warn("keyring unavailable, passwords will not be remembered", zap.Error(err))
	} else {
		creds = ring
	}

	sessions := session.NewManager(client, prefs, bus, creds, logger.Named("session"))
	defer sessions.Close()
	if s := sessions.Init(ctx); s != nil {
		logger.Info("restored session", zap.String("user", s.User.Username))
	}

	m := metrics.New()
	queue := notify.NewQueue(prefs, bus, logger.Named("toasts"),
		notify.WithMaxToasts(cfg.Notifications.MaxToasts),
		notify.WithToastTTL(cfg.Notifications.ToastTTL()),
		notify.WithQueueObserver(m),
	)
	defer queue.Close()

	poller := notify.NewPoller(client, prefs, queue, bus, logger.Named("poller"),
		notify.WithPollInterval(cfg.Notifications.PollInterval()),
		notify.WithFetchTimeout(cfg.API.Timeout()),
		notify.WithPollerObserver(m),
	)
	defer poller.Close()

	g, gctx := errgroup.WithContext(ctx)
	gctx, cancel := context.WithCancel(gctx)
	defer cancel()

	term := app.NewTerminal(os.Stdout)
	root := app.New(app.Deps{
		Backend:   client,
		Prefs:     prefs,
		Bus:       bus,
		Poller:    poller,
		Queue:     queue,
		Bookmarks: bookmarks.New(prefs),
		Session:   sessions,
		Logger:    logger.Named("ui"),
		Context:   gctx,
		Bell:      term,
	})
	defer root.Close()

	g.Go(func() error {
		defer cancel()
		p := tea.NewProgram(root, tea.WithAltScreen(), tea.WithContext(gctx), tea.WithOutput(term))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("running console: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return metrics.Serve(gctx, cfg.Metrics.ListenAddr, m, logger.Named("metrics"))
	})
	g.Go(func() error {
		return prefs.Watch(gctx)
	})

	return g.Wait()
}
