// Package service runs long-lived subsystems (audio, telemetry, status) through one lifecycle
package service

import "context"

// Service is an infrastructure subsystem with an explicit lifecycle
//
// Lifecycle:
//  1. Construction
//  2. Init(ctx) - acquire resources that may fail (devices, connections)
//  3. Start() - launch background goroutines
//  4. [runtime operation]
//  5. Stop() - halt goroutines, release resources
type Service interface {
	// Name returns the unique identifier for this service
	Name() string

	// Dependencies returns names of services that must Init before this one
	Dependencies() []string

	Init(ctx context.Context) error

	Start() error

	// Stop must be idempotent
	Stop() error
}
