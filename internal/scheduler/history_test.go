package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoadHistory(t *testing.T) {
	historyPath := filepath.Join(t.TempDir(), "nested", "rotation_history.json")

	history := map[string]*ScreenHistory{
		"welcome": {
			Screen:       "welcome",
			LastShown:    time.Now(),
			LastStatus:   "success",
			LastDuration: 12,
			ShowCount:    5,
			SuccessCount: 5,
		},
		"uptime": {
			Screen:       "uptime",
			LastShown:    time.Now().Add(-1 * time.Hour),
			LastStatus:   "timeout",
			LastDuration: 5000,
			ShowCount:    10,
			SuccessCount: 8,
			FailureCount: 2,
		},
	}

	if err := SaveHistory(historyPath, history); err != nil {
		t.Fatalf("Failed to save history: %v", err)
	}
	if _, err := os.Stat(historyPath); os.IsNotExist(err) {
		t.Fatal("History file was not created")
	}

	loadedHistory, err := LoadHistory(historyPath)
	if err != nil {
		t.Fatalf("Failed to load history: %v", err)
	}
	if len(loadedHistory) != len(history) {
		t.Errorf("Expected %d history entries, got %d", len(history), len(loadedHistory))
	}
	for name, expected := range history {
		loaded, exists := loadedHistory[name]
		if !exists {
			t.Errorf("Screen %s not found in loaded history", name)
			continue
		}
		if loaded.LastStatus != expected.LastStatus || loaded.ShowCount != expected.ShowCount {
			t.Errorf("%s: got status %s shows %d, want %s %d",
				name, loaded.LastStatus, loaded.ShowCount, expected.LastStatus, expected.ShowCount)
		}
	}
}

func TestLoadHistory_FileNotExists(t *testing.T) {
	history, err := LoadHistory(filepath.Join(t.TempDir(), "nonexistent.json"))
	if err != nil {
		t.Fatalf("Expected no error for missing file, got: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("Expected empty history, got %d entries", len(history))
	}
}

func TestLoadHistory_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	os.WriteFile(path, []byte("[{"), 0644)
	if _, err := LoadHistory(path); err == nil {
		t.Error("expected error for corrupt history")
	}
}

func TestHistoryDisabledWithEmptyPath(t *testing.T) {
	if err := SaveHistory("", map[string]*ScreenHistory{"a": {Screen: "a"}}); err != nil {
		t.Errorf("SaveHistory with empty path: %v", err)
	}
	h, err := LoadHistory("")
	if err != nil || len(h) != 0 {
		t.Errorf("LoadHistory with empty path = %v, %v", h, err)
	}
}

func TestUpdateHistory(t *testing.T) {
	s := &Scheduler{
		history: make(map[string]*ScreenHistory),
	}

	s.updateHistory(RotationResult{
		Screen:    "welcome",
		StartTime: time.Now(),
		EndTime:   time.Now().Add(1 * time.Second),
		Success:   true,
	})

	h, exists := s.history["welcome"]
	if !exists {
		t.Fatal("History entry was not created")
	}
	if h.LastStatus != "success" || h.ShowCount != 1 || h.SuccessCount != 1 || h.FailureCount != 0 {
		t.Errorf("after success: %+v", *h)
	}

	s.updateHistory(RotationResult{
		Screen:    "welcome",
		StartTime: time.Now(),
		EndTime:   time.Now(),
		Error:     fmt.Errorf("refresh: %w", context.DeadlineExceeded),
	})
	if h.LastStatus != "timeout" || h.ShowCount != 2 || h.FailureCount != 1 {
		t.Errorf("after timeout: %+v", *h)
	}

	s.updateHistory(RotationResult{Screen: "welcome", Error: fmt.Errorf("boom")})
	if h.LastStatus != "failure" || h.FailureCount != 2 {
		t.Errorf("after failure: %+v", *h)
	}
	if s.lastScreen != "welcome" {
		t.Errorf("lastScreen = %q", s.lastScreen)
	}
}
