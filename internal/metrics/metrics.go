// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncUserRegistered()
	IncLogin(status string) // status: "success" or "failure"
	IncEmailConfirmed()
	IncAvatarUploaded()

	// Contact metrics
	IncContactCreated()
	IncContactUpdated()
	IncContactDeleted()
	IncRateLimited()

	// Confirmation mail pipeline metrics
	IncMailQueued(status string) // status: "success" or "dropped"
	IncMailSent(status string)   // status: "success", "failed" or "dead_lettered"
	ObserveMailSendDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
