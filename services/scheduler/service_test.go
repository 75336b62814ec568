package scheduler

import (
	"testing"
	"time"

	"github.com/ravioldev/fitgirl-downloader/config"
)

func TestShouldRun(t *testing.T) {
	s := NewService(nil, nil, nil)
	recent := time.Now().Add(-time.Minute)
	stale := time.Now().Add(-2 * time.Hour)

	tests := []struct {
		name string
		cfg  config.TaskSettings
		want bool
	}{
		{"never run before", config.TaskSettings{Interval: time.Hour}, true},
		{"recently run", config.TaskSettings{Interval: time.Hour, LastRunAt: &recent}, false},
		{"overdue", config.TaskSettings{Interval: time.Hour, LastRunAt: &stale}, true},
		{"zero interval defaults to daily", config.TaskSettings{LastRunAt: &stale}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.shouldRun("task", tt.cfg); got != tt.want {
				t.Errorf("shouldRun = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldRunSkipsActiveTask(t *testing.T) {
	s := NewService(nil, nil, nil)
	s.taskRunning["busy"] = true

	if s.shouldRun("busy", config.TaskSettings{Interval: time.Hour}) {
		t.Error("active task should not run again")
	}
	if !s.shouldRun("other", config.TaskSettings{Interval: time.Hour}) {
		t.Error("unrelated task blocked")
	}
}
