package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncUserRegistered()                             {}
func (n *NoopRecorder) IncLogin(status string)                         {}
func (n *NoopRecorder) IncEmailConfirmed()                             {}
func (n *NoopRecorder) IncAvatarUploaded()                             {}
func (n *NoopRecorder) IncContactCreated()                             {}
func (n *NoopRecorder) IncContactUpdated()                             {}
func (n *NoopRecorder) IncContactDeleted()                             {}
func (n *NoopRecorder) IncRateLimited()                                {}
func (n *NoopRecorder) IncMailQueued(status string)                    {}
func (n *NoopRecorder) IncMailSent(status string)                      {}
func (n *NoopRecorder) ObserveMailSendDuration(duration time.Duration) {}
