// Package health runs preflight checks before a comparison starts.
package health

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/zsiec/frameforge/internal/errors"
)

// Status represents the health status of a component.
type Status string

const (
	StatusOK   Status = "ok"
	StatusDown Status = "down"
)

// DefaultTimeout bounds each individual check.
const DefaultTimeout = 5 * time.Second

// Check represents a health check result.
type Check struct {
	Name        string        `json:"name"`
	Status      Status        `json:"status"`
	Message     string        `json:"message,omitempty"`
	LastChecked time.Time     `json:"last_checked"`
	Duration    time.Duration `json:"-"`
	DurationMS  float64       `json:"duration_ms"`
}

// Checker is the interface that health checkers must implement.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Manager runs a set of checkers.
type Manager struct {
	checkers []Checker
	timeout  time.Duration
	mu       sync.Mutex
	logger   *logrus.Logger
}

// NewManager creates a new health check manager.
func NewManager(logger *logrus.Logger) *Manager {
	return &Manager{
		timeout: DefaultTimeout,
		logger:  logger,
	}
}

// SetTimeout changes the per-check timeout. Non-positive values are ignored.
func (m *Manager) SetTimeout(d time.Duration) {
	if d > 0 {
		m.timeout = d
	}
}

// Register adds a new health checker.
func (m *Manager) Register(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, checker)
	m.logger.WithField("checker", checker.Name()).Debug("Registered preflight check")
}

// RunChecks executes all registered checks concurrently.
func (m *Manager) RunChecks(ctx context.Context) map[string]*Check {
	m.mu.Lock()
	checkers := append([]Checker(nil), m.checkers...)
	m.mu.Unlock()

	var wg sync.WaitGroup
	resultsChan := make(chan *Check, len(checkers))

	for _, checker := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()

			start := time.Now()
			err := c.Check(checkCtx)
			duration := time.Since(start)

			check := &Check{
				Name:        c.Name(),
				Status:      StatusOK,
				LastChecked: time.Now(),
				Duration:    duration,
				DurationMS:  float64(duration.Milliseconds()),
			}

			if err != nil {
				check.Status = StatusDown
				check.Message = err.Error()
				if errors.Is(err, context.DeadlineExceeded) {
					check.Message = "check timed out"
				}
				m.logger.WithFields(logrus.Fields{
					"checker":  c.Name(),
					"duration": duration,
					"error":    err,
				}).Debug("Preflight check failed")
			} else {
				m.logger.WithFields(logrus.Fields{
					"checker":  c.Name(),
					"duration": duration,
				}).Debug("Preflight check passed")
			}

			resultsChan <- check
		}(checker)
	}

	wg.Wait()
	close(resultsChan)

	results := make(map[string]*Check, len(checkers))
	for check := range resultsChan {
		results[check.Name] = check
	}
	return results
}

// OverallStatus returns StatusDown if any result is down.
func OverallStatus(results map[string]*Check) Status {
	for _, check := range results {
		if check.Status == StatusDown {
			return StatusDown
		}
	}
	return StatusOK
}

// Preflight runs every check and returns a VALIDATION_ERROR naming each
// failed one.
func (m *Manager) Preflight(ctx context.Context) error {
	results := m.RunChecks(ctx)
	if OverallStatus(results) == StatusOK {
		return nil
	}

	names := make([]string, 0, len(results))
	for name, check := range results {
		if check.Status == StatusDown {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	failures := make([]string, len(names))
	details := make(map[string]interface{}, len(names))
	for i, name := range names {
		failures[i] = fmt.Sprintf("%s: %s", name, results[name].Message)
		details[name] = results[name].Message
	}

	return apperrors.NewValidationError("preflight failed: " + strings.Join(failures, "; ")).
		WithDetails(details)
}
