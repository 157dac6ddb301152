// Package runtime provides process-wide observability hooks for owned
// objects: a leak tracker that detects handles dropped without a destroy, and
// an error reporter boundary for forwarding leaks and ownership traps to an
// external tracking service.
package runtime
