package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestLoadWritesDefaultsForMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	m, err := NewManager(path)
	if err != nil {
		t.Fatal(err)
	}

	settings, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.Scraping.MaxPages != 100 {
		t.Errorf("maxPages = %d", settings.Scraping.MaxPages)
	}
	if settings.Web.Port != 2121 {
		t.Errorf("port = %d", settings.Web.Port)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("defaults not written to disk: %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	settings := DefaultSettings()
	settings.Scraping.MaxPages = 7
	settings.Web.Port = 9000
	if err := m.Save(settings); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := m.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Scraping.MaxPages != 7 || loaded.Web.Port != 9000 {
		t.Errorf("round trip lost changes: %+v", loaded)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FITGIRL_MAX_PAGES", "3")
	t.Setenv("FITGIRL_LISTEN_PORT", "8080")
	t.Setenv("FITGIRL_DB_PATH", "/data/releases.json")

	m, err := NewManager(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	settings, err := m.Load()
	if err != nil {
		t.Fatal(err)
	}
	if settings.Scraping.MaxPages != 3 {
		t.Errorf("maxPages = %d, want env override 3", settings.Scraping.MaxPages)
	}
	if settings.Web.Port != 8080 {
		t.Errorf("port = %d, want 8080", settings.Web.Port)
	}
	if settings.Database.Path != "/data/releases.json" {
		t.Errorf("db path = %s", settings.Database.Path)
	}
}

func TestSetLastSyncCheck(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	when := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := m.SetLastSyncCheck(when); err != nil {
		t.Fatalf("SetLastSyncCheck: %v", err)
	}

	loaded, err := m.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.LastSyncCheck == nil || !loaded.LastSyncCheck.Equal(when) {
		t.Errorf("lastSyncCheck = %v, want %v", loaded.LastSyncCheck, when)
	}
}

func TestConcurrentWritesKeepEveryField(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Load(); err != nil {
		t.Fatal(err)
	}

	when := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := m.SetLastSyncCheck(when); err != nil {
				t.Errorf("SetLastSyncCheck: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := m.UpdateTaskLastRun("auto_backup", when); err != nil {
				t.Errorf("UpdateTaskLastRun: %v", err)
			}
		}()
	}
	wg.Wait()

	loaded, err := m.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.LastSyncCheck == nil || !loaded.LastSyncCheck.Equal(when) {
		t.Errorf("lastSyncCheck dropped by interleaved write: %v", loaded.LastSyncCheck)
	}
	if loaded.Scheduler.AutoBackup.LastRunAt == nil || !loaded.Scheduler.AutoBackup.LastRunAt.Equal(when) {
		t.Errorf("autoBackup.lastRunAt dropped by interleaved write: %v", loaded.Scheduler.AutoBackup.LastRunAt)
	}
}

func TestUpdateTaskLastRun(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	when := time.Now().UTC().Truncate(time.Second)
	if err := m.UpdateTaskLastRun("auto_sync", when); err != nil {
		t.Fatalf("UpdateTaskLastRun: %v", err)
	}
	if err := m.UpdateTaskLastRun("bogus", when); err == nil {
		t.Error("unknown task accepted")
	}

	loaded, err := m.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Scheduler.AutoSync.LastRunAt == nil || !loaded.Scheduler.AutoSync.LastRunAt.Equal(when) {
		t.Errorf("autoSync.lastRunAt = %v", loaded.Scheduler.AutoSync.LastRunAt)
	}
	if loaded.Scheduler.AutoBackup.LastRunAt != nil {
		t.Errorf("autoBackup.lastRunAt = %v, want nil", loaded.Scheduler.AutoBackup.LastRunAt)
	}
}
