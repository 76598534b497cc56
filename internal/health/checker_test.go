package health

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/zsiec/frameforge/internal/errors"
)

// mockChecker is a mock implementation of Checker for testing
type mockChecker struct {
	name  string
	err   error
	delay time.Duration
}

func (m *mockChecker) Name() string {
	return m.name
}

func (m *mockChecker) Check(ctx context.Context) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.DebugLevel)
	return logger
}

func TestManager_RunChecks(t *testing.T) {
	manager := NewManager(quietLogger())
	manager.Register(&mockChecker{name: "checker1"})
	manager.Register(&mockChecker{name: "checker2", err: errors.New("checker2 failed")})
	manager.Register(&mockChecker{name: "checker3"})

	results := manager.RunChecks(context.Background())
	require.Len(t, results, 3)

	assert.Equal(t, StatusOK, results["checker1"].Status)
	assert.Empty(t, results["checker1"].Message)
	assert.Equal(t, StatusDown, results["checker2"].Status)
	assert.Contains(t, results["checker2"].Message, "checker2 failed")
	assert.Equal(t, StatusOK, results["checker3"].Status)
	assert.False(t, results["checker3"].LastChecked.IsZero())

	assert.Equal(t, StatusDown, OverallStatus(results))
}

func TestManager_Timeout(t *testing.T) {
	manager := NewManager(quietLogger())
	manager.SetTimeout(20 * time.Millisecond)
	manager.Register(&mockChecker{name: "slow", delay: time.Second})

	results := manager.RunChecks(context.Background())
	assert.Equal(t, StatusDown, results["slow"].Status)
	assert.Equal(t, "check timed out", results["slow"].Message)
}

func TestManager_SetTimeoutIgnoresZero(t *testing.T) {
	manager := NewManager(quietLogger())
	manager.SetTimeout(0)
	assert.Equal(t, DefaultTimeout, manager.timeout)
}

func TestOverallStatus(t *testing.T) {
	assert.Equal(t, StatusOK, OverallStatus(nil))
	assert.Equal(t, StatusOK, OverallStatus(map[string]*Check{"a": {Status: StatusOK}}))
	assert.Equal(t, StatusDown, OverallStatus(map[string]*Check{
		"a": {Status: StatusOK},
		"b": {Status: StatusDown},
	}))
}

func TestManager_Preflight(t *testing.T) {
	t.Run("all pass", func(t *testing.T) {
		manager := NewManager(quietLogger())
		manager.Register(&mockChecker{name: "ffprobe"})
		manager.Register(&mockChecker{name: "source"})

		assert.NoError(t, manager.Preflight(context.Background()))
	})

	t.Run("failures are listed in name order", func(t *testing.T) {
		manager := NewManager(quietLogger())
		manager.Register(&mockChecker{name: "source", err: errors.New("missing")})
		manager.Register(&mockChecker{name: "ffprobe"})
		manager.Register(&mockChecker{name: "encode", err: errors.New("empty")})

		err := manager.Preflight(context.Background())
		require.Error(t, err)

		appErr, ok := apperrors.GetAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
		assert.Equal(t, "preflight failed: encode: empty; source: missing", appErr.Message)
		assert.Equal(t, "missing", appErr.Details["source"])
		assert.NotContains(t, appErr.Details, "ffprobe")
	})
}
