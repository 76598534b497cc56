package errors

import (
	"github.com/sirupsen/logrus"
)

// Handler reports fatal pipeline errors and maps them to exit codes.
type Handler struct {
	logger *logrus.Logger
}

// NewHandler creates a new error handler.
func NewHandler(logger *logrus.Logger) *Handler {
	return &Handler{
		logger: logger,
	}
}

// Handle logs err and returns the process exit code for it.
func (h *Handler) Handle(err error) int {
	if err == nil {
		return ExitOK
	}

	appErr, ok := GetAppError(err)
	if !ok {
		appErr = WrapInternalError(err, "An unexpected error occurred")
	}

	fields := logrus.Fields{
		"error_type": appErr.Type,
	}
	if appErr.Code != "" {
		fields["error_code"] = appErr.Code
	}
	for k, v := range appErr.Details {
		fields[k] = v
	}
	entry := h.logger.WithFields(fields)

	switch appErr.Type {
	case ErrorTypeValidation:
		entry.Warn(appErr.Error())
	default:
		entry.Error(appErr.Error())
	}

	return appErr.ExitCode
}

// HandlePanic converts a recovered panic into an internal error exit code.
func (h *Handler) HandlePanic(recovered interface{}) int {
	h.logger.WithField("panic", recovered).Error("Panic recovered")
	return h.Handle(NewInternalError("An unexpected error occurred"))
}
