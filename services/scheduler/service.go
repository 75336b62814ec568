// Package scheduler runs the recurring background tasks: automatic catalog
// syncs and scheduled backups.
package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ravioldev/fitgirl-downloader/config"
	"github.com/ravioldev/fitgirl-downloader/services/backup"
	syncsvc "github.com/ravioldev/fitgirl-downloader/services/sync"
)

const (
	taskAutoSync   = "auto_sync"
	taskAutoBackup = "auto_backup"
)

// Service manages scheduled task execution
type Service struct {
	configManager *config.Manager
	syncService   *syncsvc.Service
	backupService *backup.Service

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// Task state tracking (in-memory, not persisted)
	taskMu      sync.Mutex
	taskRunning map[string]bool
}

func NewService(configManager *config.Manager, sync *syncsvc.Service, backupSvc *backup.Service) *Service {
	return &Service{
		configManager: configManager,
		syncService:   sync,
		backupService: backupSvc,
		taskRunning:   make(map[string]bool),
	}
}

// Start begins the scheduler background loop
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go s.schedulerLoop()

	log.Println("[scheduler] Scheduler service started")
	return nil
}

// Stop gracefully stops the scheduler
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[scheduler] Scheduler service stopped gracefully")
	case <-ctx.Done():
		log.Println("[scheduler] Scheduler service stopped (timeout)")
	}

	s.running = false
	return nil
}

// schedulerLoop is the main background loop that checks for tasks to run
func (s *Service) schedulerLoop() {
	defer s.wg.Done()

	settings, err := s.configManager.Load()
	if err != nil {
		log.Printf("[scheduler] Failed to load settings: %v", err)
		return
	}

	checkInterval := time.Duration(settings.Scheduler.CheckIntervalSeconds) * time.Second
	if checkInterval < time.Second {
		checkInterval = 60 * time.Second
	}

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	// Run check immediately on start
	s.checkAndRunTasks()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.checkAndRunTasks()
		}
	}
}

// checkAndRunTasks runs every enabled task that is due
func (s *Service) checkAndRunTasks() {
	settings, err := s.configManager.Load()
	if err != nil {
		log.Printf("[scheduler] Failed to load settings: %v", err)
		return
	}

	tasks := []struct {
		name string
		cfg  config.TaskSettings
		run  func(context.Context) error
	}{
		{taskAutoSync, settings.Scheduler.AutoSync, s.runAutoSync},
		{taskAutoBackup, settings.Scheduler.AutoBackup, s.runAutoBackup},
	}

	for _, task := range tasks {
		if !task.cfg.Enabled || !s.shouldRun(task.name, task.cfg) {
			continue
		}
		s.wg.Add(1)
		go func(name string, run func(context.Context) error) {
			defer s.wg.Done()
			s.executeTask(name, run)
		}(task.name, task.run)
	}
}

// shouldRun checks if a task is due
func (s *Service) shouldRun(name string, cfg config.TaskSettings) bool {
	s.taskMu.Lock()
	active := s.taskRunning[name]
	s.taskMu.Unlock()
	if active {
		return false
	}

	if cfg.LastRunAt == nil {
		return true
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return time.Since(*cfg.LastRunAt) >= interval
}

// executeTask runs a task and records its completion time
func (s *Service) executeTask(name string, run func(context.Context) error) {
	s.taskMu.Lock()
	s.taskRunning[name] = true
	s.taskMu.Unlock()
	defer func() {
		s.taskMu.Lock()
		delete(s.taskRunning, name)
		s.taskMu.Unlock()
	}()

	log.Printf("[scheduler] Running task %s", name)
	start := time.Now()

	if err := run(s.ctx); err != nil {
		log.Printf("[scheduler] Task %s failed: %v", name, err)
		return
	}

	if err := s.configManager.UpdateTaskLastRun(name, time.Now()); err != nil {
		log.Printf("[scheduler] Could not record run time for %s: %v", name, err)
	}
	log.Printf("[scheduler] Task %s finished in %s", name, time.Since(start).Round(time.Millisecond))
}

func (s *Service) runAutoSync(ctx context.Context) error {
	err := s.syncService.Start(0)
	if errors.Is(err, syncsvc.ErrSyncInProgress) {
		// A manual run is active; count this cycle as done.
		return nil
	}
	return err
}

func (s *Service) runAutoBackup(ctx context.Context) error {
	_, err := s.backupService.Create(backup.TypeScheduled)
	return err
}
