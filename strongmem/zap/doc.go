// Package zap provides the production log.Logger implementation backed by
// go.uber.org/zap, with automatic OpenTelemetry trace correlation.
package zap
