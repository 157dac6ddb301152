package assert

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/memcore-io/lib-strongmem/strongmem/internal/nilcheck"
	"github.com/memcore-io/lib-strongmem/strongmem/log"
)

// Logger defines the minimal logging interface required by assertions.
// This interface is satisfied by strongmem/log.Logger.
type Logger interface {
	Log(ctx context.Context, level log.Level, msg string, fields ...log.Field)
}

// Asserter evaluates invariants and logs failures before returning them.
//
// Use an Asserter for recoverable validation (allocator configuration, resource
// contracts). Ownership invariants that must never be violated at runtime
// (use-after-move, double-destroy) go through Trap instead.
type Asserter struct {
	ctx       context.Context
	logger    Logger
	component string
	operation string
}

// ErrAssertionFailed is the sentinel error for failed assertions.
var ErrAssertionFailed = errors.New("assertion failed")

// AssertionError represents a failed assertion with rich context.
type AssertionError struct {
	Assertion string
	Message   string
	Component string
	Operation string
	Details   string
}

// Error returns the formatted assertion failure message.
func (entry *AssertionError) Error() string {
	if entry == nil {
		return ErrAssertionFailed.Error()
	}

	if entry.Details == "" {
		return "assertion failed: " + entry.Message
	}

	return "assertion failed: " + entry.Message + "\n" + entry.Details
}

// Unwrap returns the sentinel assertion error for errors.Is.
func (entry *AssertionError) Unwrap() error {
	return ErrAssertionFailed
}

// New creates an Asserter with context, logging, and labels.
// component and operation are used for failure labeling.
//
//nolint:contextcheck // Intentionally creates a fallback context when nil is passed
func New(ctx context.Context, logger Logger, component, operation string) *Asserter {
	if ctx == nil {
		ctx = context.Background()
	}

	return &Asserter{
		ctx:       ctx,
		logger:    logger,
		component: component,
		operation: operation,
	}
}

// That returns an error if ok is false. Use for general-purpose assertions.
//
// Example:
//
//	if err := asserter.That(ctx, capacity > 0, "capacity must be positive", "capacity", capacity); err != nil {
//		return err
//	}
func (asserter *Asserter) That(ctx context.Context, ok bool, msg string, kv ...any) error {
	if ok {
		return nil
	}

	return asserter.fail(ctx, "That", msg, kv...)
}

// NotNil returns an error if v is nil. This function correctly handles both untyped nil
// and typed nil (nil interface values with concrete types).
func (asserter *Asserter) NotNil(ctx context.Context, v any, msg string, kv ...any) error {
	if !nilcheck.Interface(v) {
		return nil
	}

	return asserter.fail(ctx, "NotNil", msg, kv...)
}

// NoError returns an error if err is not nil. The error message and type are
// automatically included in the assertion context for debugging.
func (asserter *Asserter) NoError(ctx context.Context, err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}

	// errorKVPairs: 2 pairs added (error + error_type), each pair = 2 elements
	const errorKVPairs = 4

	kvWithError := make([]any, 0, len(kv)+errorKVPairs)
	kvWithError = append(kvWithError, "error", err.Error())
	kvWithError = append(kvWithError, "error_type", fmt.Sprintf("%T", err))
	kvWithError = append(kvWithError, kv...)

	return asserter.fail(ctx, "NoError", msg, kvWithError...)
}

// Never always returns an error. Use for code paths that should be unreachable.
func (asserter *Asserter) Never(ctx context.Context, msg string, kv ...any) error {
	return asserter.fail(ctx, "Never", msg, kv...)
}

// Trap panics with an *AssertionError. It is the deterministic trap for
// ownership violations: dereferencing a moved-from or destroyed handle,
// destroying a handle twice, or releasing an allocator with live allocations.
//
// These states are programming errors, not runtime conditions; a program that
// reaches one has already lost track of ownership and must not continue.
func Trap(component, operation, msg string, kv ...any) {
	panic(&AssertionError{
		Assertion: "Trap",
		Message:   msg,
		Component: component,
		Operation: operation,
		Details:   formatKeyValueLines(withContextPairs("Trap", component, operation, kv)),
	})
}

const maxValueLength = 200 // Truncate values longer than this

// truncateValue truncates long values for logging safety.
func truncateValue(v any) string {
	s := fmt.Sprintf("%v", v)
	if len(s) <= maxValueLength {
		return s
	}

	return s[:maxValueLength] + "... (truncated " + strconv.Itoa(len(s)-maxValueLength) + " chars)"
}

func (asserter *Asserter) fail(ctx context.Context, assertion, msg string, kv ...any) error {
	ctx, logger, component, operation := asserter.values(ctx)
	contextPairs := withContextPairs(assertion, component, operation, kv)
	details := formatKeyValueLines(contextPairs)

	if logger != nil {
		logger.Log(ctx, log.LevelError, "assertion failed: "+msg,
			log.String("assertion", assertion),
			log.String("component", component),
			log.String("operation", operation),
		)
	}

	return &AssertionError{
		Assertion: assertion,
		Message:   msg,
		Component: component,
		Operation: operation,
		Details:   details,
	}
}

func (asserter *Asserter) values(ctx context.Context) (context.Context, Logger, string, string) {
	if asserter == nil {
		if ctx == nil {
			ctx = context.Background()
		}

		return ctx, nil, "", ""
	}

	if ctx == nil {
		ctx = asserter.ctx
	}

	return ctx, asserter.logger, asserter.component, asserter.operation
}

// withContextPairs prepends assertion metadata to the caller-supplied pairs.
func withContextPairs(assertion, component, operation string, kv []any) []any {
	const metaPairs = 6

	pairs := make([]any, 0, len(kv)+metaPairs)
	pairs = append(pairs, "assertion", assertion)

	if component != "" {
		pairs = append(pairs, "component", component)
	}

	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}

	return append(pairs, kv...)
}

// formatKeyValueLines renders key-value pairs one per line for readability.
// A trailing unpaired key is rendered with the value "(missing)".
func formatKeyValueLines(kv []any) string {
	if len(kv) == 0 {
		return ""
	}

	var b strings.Builder

	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprintf("%v", kv[i])

		value := "(missing)"
		if i+1 < len(kv) {
			value = truncateValue(kv[i+1])
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}

		b.WriteString("  " + key + "=" + value)
	}

	return b.String()
}
