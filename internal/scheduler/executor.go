package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/stlalpha/petscii/internal/source"
)

// ErrNothingToRotate is reported when the catalog is empty.
var ErrNothingToRotate = errors.New("no screens to rotate")

// Rotator is the part of the station the scheduler drives.
type Rotator interface {
	Names() []string
	Current() string
	Show(name string) error
	Update(sc source.Screen)
}

// RefreshFunc reloads a screen's source before it is shown. ok is false when
// the screen has nothing to reload.
type RefreshFunc func(ctx context.Context, name string) (sc source.Screen, ok bool, err error)

// nextName returns the entry after current in names, wrapping around. An
// unknown current starts from the beginning.
func nextName(names []string, current string) string {
	for i, n := range names {
		if n == current {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

// executeRotation refreshes and shows the next screen
func (s *Scheduler) executeRotation(ctx context.Context) RotationResult {
	result := RotationResult{StartTime: time.Now()}

	names := s.rotator.Names()
	if len(names) == 0 {
		result.EndTime = time.Now()
		result.Error = ErrNothingToRotate
		return result
	}
	result.Screen = nextName(names, s.rotator.Current())

	var refreshErr error
	if s.refresh != nil {
		sc, ok, err := s.refresh(ctx, result.Screen)
		switch {
		case err != nil:
			// The previous text stays in the catalog and is shown as-is.
			refreshErr = err
			log.Printf("ERROR: Rotation: failed to refresh screen '%s': %v", result.Screen, err)
		case ok:
			s.rotator.Update(sc)
			result.Refreshed = true
		}
	}

	showErr := s.rotator.Show(result.Screen)
	if showErr != nil {
		log.Printf("ERROR: Rotation: failed to show screen '%s': %v", result.Screen, showErr)
	}

	result.EndTime = time.Now()
	result.Error = errors.Join(showErr, refreshErr)
	result.Success = result.Error == nil
	if result.Success {
		log.Printf("INFO: Rotation: showing screen '%s' (%.3fs)", result.Screen, result.EndTime.Sub(result.StartTime).Seconds())
	}
	return result
}
