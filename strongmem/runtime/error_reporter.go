package runtime

import (
	"context"
	"sync"
)

// ErrorReporter defines an interface for external error reporting services.
// This abstraction lets leak and trap reports reach an error tracking service
// (e.g. logging to Grafana Loki, sending to an alerting system) without a
// hard dependency on any specific SDK.
//
// Implementations should:
//   - Handle nil contexts gracefully
//   - Be safe for concurrent use
//   - Not panic themselves
type ErrorReporter interface {
	// CaptureException reports a leak or ownership trap to the error
	// tracking service. The tags map carries metadata such as "object_type"
	// and "origin".
	CaptureException(ctx context.Context, err error, tags map[string]string)
}

// errorReporterInstance is the singleton error reporter.
// It remains nil unless explicitly configured.
var (
	errorReporterInstance ErrorReporter
	errorReporterMu       sync.RWMutex
)

// SetErrorReporter configures the global error reporter for leak reporting.
// Pass nil to disable error reporting.
//
// This should be called once during application startup if an external
// error tracking service is desired.
//
// Example with structured logging:
//
//	type logReporter struct {
//	    logger *slog.Logger
//	}
//
//	func (r *logReporter) CaptureException(ctx context.Context, err error, tags map[string]string) {
//	    attrs := make([]any, 0, len(tags)*2)
//	    for k, v := range tags {
//	        attrs = append(attrs, k, v)
//	    }
//	    r.logger.ErrorContext(ctx, "object leaked", append(attrs, "error", err)...)
//	}
//
//	runtime.SetErrorReporter(&logReporter{logger: slog.Default()})
func SetErrorReporter(reporter ErrorReporter) {
	errorReporterMu.Lock()
	defer errorReporterMu.Unlock()

	errorReporterInstance = reporter
}

// GetErrorReporter returns the currently configured error reporter.
// Returns nil if no reporter has been configured.
func GetErrorReporter() ErrorReporter {
	errorReporterMu.RLock()
	defer errorReporterMu.RUnlock()

	return errorReporterInstance
}

var (
	// productionMode controls whether allocation origins are redacted in
	// leak reports. Origins are file:line paths and can expose source layout.
	productionMode   bool
	productionModeMu sync.RWMutex
)

const redactedOrigin = "(origin redacted)"

// SetProductionMode enables or disables production mode for leak reporting.
// In production mode, allocation origins are redacted from reports.
func SetProductionMode(enabled bool) {
	productionModeMu.Lock()
	defer productionModeMu.Unlock()

	productionMode = enabled
}

// IsProductionMode returns whether production mode is enabled.
func IsProductionMode() bool {
	productionModeMu.RLock()
	defer productionModeMu.RUnlock()

	return productionMode
}

// reportLeakToErrorService reports a leaked object to the configured error
// reporter if one exists. Called by Tracker when a finalizer fires on an
// object that was never destroyed.
func reportLeakToErrorService(ctx context.Context, err error, entry Entry) {
	reporter := GetErrorReporter()
	if reporter == nil {
		return
	}

	origin := entry.Origin
	if IsProductionMode() {
		origin = redactedOrigin
	}

	reporter.CaptureException(ctx, err, map[string]string{
		"object_id":   entry.ID.String(),
		"object_type": entry.Type,
		"origin":      origin,
	})
}
