package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the on-disk application configuration.
type Settings struct {
	Scraping  ScrapingSettings  `yaml:"scraping" json:"scraping"`
	Database  DatabaseSettings  `yaml:"database" json:"database"`
	Web       WebSettings       `yaml:"web" json:"web"`
	Logging   LoggingSettings   `yaml:"logging" json:"logging"`
	Backup    BackupSettings    `yaml:"backup" json:"backup"`
	Scheduler SchedulerSettings `yaml:"scheduler" json:"scheduler"`

	// LastSyncCheck records when the last successful sync run finished.
	// Nil means the store has never been synced.
	LastSyncCheck   *time.Time `yaml:"lastSyncCheck" json:"lastSyncCheck"`
	LastUpdateCheck *time.Time `yaml:"lastUpdateCheck" json:"lastUpdateCheck"`

	Version string `yaml:"version" json:"version"`
}

type ScrapingSettings struct {
	// MaxPages caps how many listing pages a single run may crawl.
	MaxPages       int           `yaml:"maxPages" json:"maxPages"`
	RequestTimeout time.Duration `yaml:"requestTimeout" json:"requestTimeout"`
	// PageDelay and DetailDelay pace requests to stay under the remote
	// site's anti-scraping radar.
	PageDelay   time.Duration `yaml:"pageDelay" json:"pageDelay"`
	DetailDelay time.Duration `yaml:"detailDelay" json:"detailDelay"`
	UserAgent   string        `yaml:"userAgent" json:"userAgent"`
	BaseURL     string        `yaml:"baseUrl" json:"baseUrl"`
	ListingURL  string        `yaml:"listingUrl" json:"listingUrl"`
	// ProfileURL is a second link source: the uploader's profile page,
	// tried when a listing page comes back without torrents.
	ProfileURL string `yaml:"profileUrl" json:"profileUrl"`
}

type DatabaseSettings struct {
	Path string `yaml:"path" json:"path"`
}

type WebSettings struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

type LoggingSettings struct {
	Level       string `yaml:"level" json:"level"`
	File        string `yaml:"file" json:"file"`
	MaxSizeMB   int    `yaml:"maxSizeMb" json:"maxSizeMb"`
	MaxBackups  int    `yaml:"maxBackups" json:"maxBackups"`
	LogToFile   bool   `yaml:"logToFile" json:"logToFile"`
	MaxLogFiles int    `yaml:"maxLogFiles" json:"maxLogFiles"`
}

// BackupSettings controls archive backups of the catalog and settings.
// Keep bounds scheduled backups only; manual backups are never pruned.
type BackupSettings struct {
	Dir  string `yaml:"dir" json:"dir"`
	Keep int    `yaml:"keep" json:"keep"`
}

// SchedulerSettings controls the background task loop.
type SchedulerSettings struct {
	CheckIntervalSeconds int          `yaml:"checkIntervalSeconds" json:"checkIntervalSeconds"`
	AutoSync             TaskSettings `yaml:"autoSync" json:"autoSync"`
	AutoBackup           TaskSettings `yaml:"autoBackup" json:"autoBackup"`
}

// TaskSettings configures one recurring task.
type TaskSettings struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Interval  time.Duration `yaml:"interval" json:"interval"`
	LastRunAt *time.Time    `yaml:"lastRunAt" json:"lastRunAt"`
}

// DefaultSettings returns the configuration used when no file exists yet.
func DefaultSettings() Settings {
	return Settings{
		Scraping: ScrapingSettings{
			MaxPages:       100,
			RequestTimeout: 30 * time.Second,
			PageDelay:      2 * time.Second,
			DetailDelay:    1 * time.Second,
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			BaseURL:        "https://1337x.to",
			ListingURL:     "https://1337x.to/FitGirl-torrents/",
			ProfileURL:     "https://1337x.to/user/FitGirl/",
		},
		Database: DatabaseSettings{
			Path: "fitgirl_releases.json",
		},
		Web: WebSettings{
			Host: "0.0.0.0",
			Port: 2121,
		},
		Logging: LoggingSettings{
			Level:       "INFO",
			File:        "fitgirl.log",
			MaxSizeMB:   10,
			MaxBackups:  30,
			LogToFile:   true,
			MaxLogFiles: 30,
		},
		Backup: BackupSettings{
			Dir:  "backups",
			Keep: 5,
		},
		Scheduler: SchedulerSettings{
			CheckIntervalSeconds: 60,
			AutoSync:             TaskSettings{Enabled: false, Interval: 6 * time.Hour},
			AutoBackup:           TaskSettings{Enabled: true, Interval: 24 * time.Hour},
		},
		Version: "0.1.0",
	}
}

// Manager loads and persists Settings to a YAML file. It is safe for
// concurrent use; Save rewrites the whole file.
type Manager struct {
	mu   sync.Mutex
	path string
}

// NewManager creates a settings manager backed by the given file path,
// creating the parent directory if needed.
func NewManager(path string) (*Manager, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create config dir: %w", err)
		}
	}
	return &Manager{path: path}, nil
}

// Load reads the settings file. A missing file is not an error: defaults are
// written and returned.
func (m *Manager) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked()
}

func (m *Manager) loadLocked() (Settings, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		settings := settingsFromEnv(DefaultSettings())
		if err := m.saveLocked(settings); err != nil {
			return settings, err
		}
		return settings, nil
	}
	if err != nil {
		return DefaultSettings(), fmt.Errorf("read config: %w", err)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("parse config: %w", err)
	}
	return settingsFromEnv(settings), nil
}

// Save persists the settings, replacing the file contents.
func (m *Manager) Save(settings Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(settings)
}

func (m *Manager) saveLocked(settings Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Rename(tmp, m.path)
}

// SetLastSyncCheck records the completion time of a sync run and persists it.
// The whole read-modify-write runs under the lock so a concurrent Save cannot
// drop the timestamp.
func (m *Manager) SetLastSyncCheck(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	settings, err := m.loadLocked()
	if err != nil {
		return err
	}
	settings.LastSyncCheck = &t
	return m.saveLocked(settings)
}

// UpdateTaskLastRun persists the completion time of a scheduler task.
func (m *Manager) UpdateTaskLastRun(name string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	settings, err := m.loadLocked()
	if err != nil {
		return err
	}
	switch name {
	case "auto_sync":
		settings.Scheduler.AutoSync.LastRunAt = &t
	case "auto_backup":
		settings.Scheduler.AutoBackup.LastRunAt = &t
	default:
		return fmt.Errorf("unknown task %q", name)
	}
	return m.saveLocked(settings)
}

// settingsFromEnv applies environment overrides on top of loaded settings.
// Only the knobs that make sense to flip per-deployment are exposed.
func settingsFromEnv(s Settings) Settings {
	if v := os.Getenv("FITGIRL_DB_PATH"); v != "" {
		s.Database.Path = v
	}
	if v := os.Getenv("FITGIRL_LISTEN_HOST"); v != "" {
		s.Web.Host = v
	}
	if v := os.Getenv("FITGIRL_LISTEN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			s.Web.Port = port
		}
	}
	if v := os.Getenv("FITGIRL_MAX_PAGES"); v != "" {
		if pages, err := strconv.Atoi(v); err == nil && pages > 0 {
			s.Scraping.MaxPages = pages
		}
	}
	if v := os.Getenv("FITGIRL_BASE_URL"); v != "" {
		s.Scraping.BaseURL = v
	}
	if v := os.Getenv("FITGIRL_LISTING_URL"); v != "" {
		s.Scraping.ListingURL = v
	}
	if v := os.Getenv("FITGIRL_LOG_FILE"); v != "" {
		s.Logging.File = v
	}
	return s
}
