package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/codelaunch/codelaunch/internal/api"
	"github.com/codelaunch/codelaunch/internal/config"
	"github.com/codelaunch/codelaunch/internal/instance"
	"github.com/codelaunch/codelaunch/internal/launcher"
	"github.com/codelaunch/codelaunch/internal/logger"
	"github.com/codelaunch/codelaunch/internal/platform"
	"github.com/codelaunch/codelaunch/internal/projects"
	"github.com/codelaunch/codelaunch/internal/scheduler"
	"github.com/codelaunch/codelaunch/internal/watcher"
	"github.com/codelaunch/codelaunch/internal/websocket"
)

func main() {
	// Local .env overrides are handy during development, absence is fine.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
		BufferSize: cfg.Logging.BufferSize,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting CodeLaunch")

	// Only one resident instance may run. When another one already holds the
	// socket, ask it to show its window and exit cleanly.
	coordinator := instance.NewCoordinator(cfg.Instance, log.Logger)
	if err := coordinator.Acquire(); err != nil {
		if errors.Is(err, instance.ErrAlreadyRunning) {
			log.Info().Msg("another instance is running, requesting show")
			if err := instance.NotifyShow(cfg.Instance.Socket); err != nil {
				log.Warn().Err(err).Msg("failed to signal running instance")
			}
			return
		}
		log.Fatal().Err(err).Msg("failed to acquire instance lock")
	}
	defer coordinator.Release()

	configuredPort := cfg.Server.Port
	actualPort, err := config.FindAvailablePort(cfg.Server.Port, 10)
	if err != nil {
		log.Fatal().Err(err).Int("configuredPort", configuredPort).Msg("failed to find available port")
	}
	if actualPort != configuredPort {
		log.Warn().
			Int("configuredPort", configuredPort).
			Int("actualPort", actualPort).
			Msg("configured port in use, using alternative port")
		cfg.Server.Port = actualPort
	}

	hub := websocket.NewHub()
	go hub.Run()
	log.SetBroadcastHub(hub)

	historyPaths := cfg.History.HistoryPaths()
	reader := projects.NewHistoryReader(historyPaths, log.Logger)
	cache := projects.NewCacheStore(cfg.Cache.Path, log.Logger)
	ignores := projects.NewIgnoreList(cfg.Ignore.Path, log.Logger)
	editor := launcher.New(cfg.Launcher, log.Logger)

	svc := projects.NewService(reader, cache, ignores, editor, hub, log.Logger)
	svc.Start()
	defer svc.Stop()

	hub.SetRefreshHandler(svc.Refresh)

	// Rescan when the editor rewrites its history store.
	fileWatcher, err := watcher.New(watcher.Config{
		DebounceDelay: time.Duration(cfg.Scan.DebounceMS) * time.Millisecond,
	}, log.Logger)
	if err != nil {
		log.Warn().Err(err).Msg("file watching unavailable, relying on scheduled rescans")
	} else {
		fileWatcher.SetHandler(func([]string) { svc.Refresh() })
		for _, path := range historyPaths {
			if !watcher.Exists(path) {
				continue
			}
			if err := fileWatcher.AddFile(path); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("failed to watch history file")
			}
		}
		fileWatcher.Start()
		defer fileWatcher.Stop()
	}

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	err = sched.RegisterTask(scheduler.TaskConfig{
		ID:   "projects-rescan",
		Name: "Project rescan",
		Cron: cfg.Scan.Cron,
		Func: func(context.Context) error {
			svc.Refresh()
			return nil
		},
	})
	if err != nil {
		log.Fatal().Err(err).Str("cron", cfg.Scan.Cron).Msg("failed to register rescan task")
	}
	sched.Start()
	defer sched.Stop()

	server := api.NewServer(svc, sched, hub, log)
	go func() {
		addr := cfg.Server.Address()
		log.Info().Str("address", addr).Msg("HTTP server listening")
		if err := server.Start(addr); err != nil {
			log.Info().Msg("server stopped")
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	quitChan := make(chan struct{}, 1)

	app := platform.NewApp(platform.AppConfig{
		ServerURL: serverURL,
		OnQuit: func() {
			close(quitChan)
		},
	})

	// A secondary instance asked us to come forward. With a window connected
	// a broadcast is enough, otherwise open the launcher URL.
	coordinator.SetShowHandler(func() {
		if hub.ClientCount() > 0 {
			_ = hub.Broadcast("window:show", nil)
			return
		}
		if err := app.OpenBrowser(serverURL); err != nil {
			log.Warn().Err(err).Msg("failed to open launcher window")
		}
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-sigChan:
			log.Info().Msg("received shutdown signal")
			app.Stop()
		case <-quitChan:
		}
	}()

	if err := app.Run(); err != nil {
		log.Error().Err(err).Msg("platform app error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("stopped")
}
