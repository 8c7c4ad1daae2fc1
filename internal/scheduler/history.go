package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sort"
)

// LoadHistory loads rotation history from a JSON file
func LoadHistory(path string) (map[string]*ScreenHistory, error) {
	history := make(map[string]*ScreenHistory)
	if path == "" {
		return history, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("INFO: Rotation history file not found at %s, starting with empty history", path)
			return history, nil
		}
		return nil, err
	}

	var historyList []ScreenHistory
	if err := json.Unmarshal(data, &historyList); err != nil {
		return nil, err
	}
	for i := range historyList {
		history[historyList[i].Screen] = &historyList[i]
	}

	log.Printf("INFO: Loaded rotation history for %d screens from %s", len(history), path)
	return history, nil
}

// SaveHistory saves rotation history to a JSON file, sorted by screen name
func SaveHistory(path string, history map[string]*ScreenHistory) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	historyList := make([]ScreenHistory, 0, len(history))
	for _, h := range history {
		historyList = append(historyList, *h)
	}
	sort.Slice(historyList, func(i, j int) bool { return historyList[i].Screen < historyList[j].Screen })

	data, err := json.MarshalIndent(historyList, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	log.Printf("DEBUG: Saved rotation history for %d screens to %s", len(history), path)
	return nil
}

// updateHistory records a finished rotation step
func (s *Scheduler) updateHistory(result RotationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, exists := s.history[result.Screen]
	if !exists {
		h = &ScreenHistory{Screen: result.Screen}
		s.history[result.Screen] = h
	}

	h.LastShown = result.EndTime
	h.LastDuration = result.EndTime.Sub(result.StartTime).Milliseconds()
	h.ShowCount++

	switch {
	case result.Success:
		h.LastStatus = "success"
		h.SuccessCount++
	case errors.Is(result.Error, context.DeadlineExceeded):
		h.LastStatus = "timeout"
		h.FailureCount++
	default:
		h.LastStatus = "failure"
		h.FailureCount++
	}
	s.lastScreen = result.Screen

	log.Printf("DEBUG: Updated rotation history for '%s': status=%s, duration=%dms, shows=%d, success=%d, failures=%d",
		result.Screen, h.LastStatus, h.LastDuration, h.ShowCount, h.SuccessCount, h.FailureCount)
}
