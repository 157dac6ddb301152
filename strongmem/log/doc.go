// Package log defines the minimal structured logging contract used across
// lib-strongmem.
//
// The library never logs on hot paths. Logging is limited to diagnostics:
// leak reports, allocator release warnings, and metric registration failures.
// Callers plug in any backend by implementing Logger; the zap subpackage
// provides the production implementation and NewNop a silent one.
package log
