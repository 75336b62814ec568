package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ravioldev/fitgirl-downloader/config"
	"github.com/ravioldev/fitgirl-downloader/handlers"
	"github.com/ravioldev/fitgirl-downloader/services/backup"
	"github.com/ravioldev/fitgirl-downloader/services/events"
	"github.com/ravioldev/fitgirl-downloader/services/scheduler"
	"github.com/ravioldev/fitgirl-downloader/services/scraper"
	"github.com/ravioldev/fitgirl-downloader/services/store"
	syncsvc "github.com/ravioldev/fitgirl-downloader/services/sync"
	"github.com/ravioldev/fitgirl-downloader/utils"
)

func main() {
	// .env is optional; environment overrides apply either way.
	_ = godotenv.Load()

	configPath := os.Getenv("FITGIRL_CONFIG")
	if configPath == "" {
		configPath = "settings.yaml"
	}
	cfgManager, err := config.NewManager(configPath)
	if err != nil {
		log.Fatalf("[main] Config manager init failed: %v", err)
	}
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("[main] Config load failed: %v", err)
	}

	setupLogging(settings.Logging)

	st, err := store.NewService(settings.Database.Path)
	if err != nil {
		log.Fatalf("[main] Store init failed: %v", err)
	}

	var renderer scraper.Renderer
	if os.Getenv("FITGIRL_DISABLE_BROWSER") == "" {
		chrome := scraper.NewChromeRenderer()
		defer chrome.Close()
		renderer = chrome
	}

	sc := scraper.New(settings.Scraping, nil, renderer)
	hub := events.NewHub()
	syncService := syncsvc.NewService(st, sc, cfgManager, hub)

	backupService, err := backup.NewService(settings.Backup.Dir, map[string]string{
		"releases.json": settings.Database.Path,
		"settings.yaml": configPath,
	}, settings.Backup.Keep)
	if err != nil {
		log.Fatalf("[main] Backup service init failed: %v", err)
	}

	sched := scheduler.NewService(cfgManager, syncService, backupService)
	if err := sched.Start(context.Background()); err != nil {
		log.Fatalf("[main] Scheduler start failed: %v", err)
	}

	router := utils.NewRouter()
	handlers.RegisterRoutes(router,
		handlers.NewReleasesHandler(st),
		handlers.NewSyncHandler(syncService),
		handlers.NewSettingsHandler(cfgManager),
		handlers.NewBackupHandler(backupService),
		hub,
	)

	addr := fmt.Sprintf("%s:%d", settings.Web.Host, settings.Web.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("[main] Listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[main] Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("[main] Shutting down")
	syncService.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Printf("[main] Scheduler stop error: %v", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] Shutdown error: %v", err)
	}
}

// setupLogging tees the standard logger to a size-rotated file when enabled.
func setupLogging(cfg config.LoggingSettings) {
	log.SetFlags(log.LstdFlags)
	if !cfg.LogToFile || cfg.File == "" {
		return
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
}
