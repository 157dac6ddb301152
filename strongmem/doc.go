// Package strongmem provides non-null, exclusive-ownership object handles
// over pluggable memory resources.
//
// The core lives in subpackages: ptr holds the Strong handle and its
// factories, memory the Resource boundary and its implementations (Heap,
// Monotonic, Pool, Locked, Instrumented). Cross-cutting facilities follow the
// same split: log and zap for structured logging, assert for invariant traps,
// opentelemetry/metrics for allocation metrics, runtime for leak tracking and
// error reporting.
//
// This root package carries the context plumbing shared by all of them:
// attaching a logger and a metrics factory to a context so library callers
// can thread observability through without global state.
package strongmem
