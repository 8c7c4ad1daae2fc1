package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/stlalpha/petscii/internal/config"
)

// ErrRotationInProgress is reported for a tick that fired while the previous
// rotation was still running.
var ErrRotationInProgress = errors.New("rotation already in progress")

// Scheduler rotates the station through its screens on a cron schedule
type Scheduler struct {
	schedule    string
	rotator     Rotator
	refresh     RefreshFunc
	cron        *cron.Cron
	history     map[string]*ScreenHistory
	historyPath string
	running     bool
	lastScreen  string
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewScheduler creates a rotation scheduler. refresh may be nil.
func NewScheduler(schedule string, rotator Rotator, refresh RefreshFunc, historyPath string) *Scheduler {
	history, err := LoadHistory(historyPath)
	if err != nil {
		log.Printf("WARN: Failed to load rotation history from %s: %v", historyPath, err)
		history = make(map[string]*ScreenHistory)
	}

	return &Scheduler{
		schedule:    schedule,
		rotator:     rotator,
		refresh:     refresh,
		history:     history,
		historyPath: historyPath,
	}
}

// Start runs the schedule until ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) {
	if s.schedule == "" {
		log.Printf("INFO: No rotation schedule configured, screen rotation disabled")
		return
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	defer s.cancel()

	s.cron = cron.New(cron.WithParser(cron.NewParser(config.CronFields)))
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(s.ctx) }); err != nil {
		log.Printf("ERROR: Failed to schedule screen rotation '%s': %v", s.schedule, err)
		return
	}

	s.cron.Start()
	log.Printf("INFO: Screen rotation running on schedule '%s'", s.schedule)

	<-s.ctx.Done()

	log.Printf("INFO: Screen rotation stopping...")
	s.Stop()
}

// Stop waits for a running rotation and saves the history
func (s *Scheduler) Stop() {
	if s.cron != nil {
		cronCtx := s.cron.Stop()
		<-cronCtx.Done()
	}

	s.mu.RLock()
	err := SaveHistory(s.historyPath, s.history)
	s.mu.RUnlock()
	if err != nil {
		log.Printf("ERROR: Failed to save rotation history: %v", err)
	} else if s.historyPath != "" {
		log.Printf("INFO: Rotation history saved to %s", s.historyPath)
	}
}

// RunOnce performs one rotation step now. A step that starts while another
// is running is skipped and reported with ErrRotationInProgress.
func (s *Scheduler) RunOnce(ctx context.Context) RotationResult {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Printf("WARN: Screen rotation skipped: previous rotation still running")
		return RotationResult{Error: ErrRotationInProgress}
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	result := s.executeRotation(ctx)
	if result.Screen != "" {
		s.updateHistory(result)
	}
	return result
}

// GetHistory returns a copy of the rotation history
func (s *Scheduler) GetHistory() map[string]*ScreenHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	historyCopy := make(map[string]*ScreenHistory, len(s.history))
	for k, v := range s.history {
		hCopy := *v
		historyCopy[k] = &hCopy
	}
	return historyCopy
}

// LastScreen is the screen the most recent rotation moved to
func (s *Scheduler) LastScreen() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastScreen
}
