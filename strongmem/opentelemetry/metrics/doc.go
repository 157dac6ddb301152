// Package metrics provides a thread-safe OpenTelemetry metrics factory for
// allocator and ownership instrumentation.
//
// Instruments are created lazily and cached, so resources can record on every
// allocation without re-registering. All recording paths degrade to no-ops
// when built from NewNopFactory.
package metrics
