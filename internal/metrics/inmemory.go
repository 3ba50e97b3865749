package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersRegistered       uint64
	LoginsSucceeded       uint64
	LoginsFailed          uint64
	EmailsConfirmed       uint64
	AvatarsUploaded       uint64
	ContactsCreated       uint64
	ContactsUpdated       uint64
	ContactsDeleted       uint64
	RateLimited           uint64
	MailQueued            uint64
	MailDropped           uint64
	MailSent              uint64
	MailFailed            uint64
	MailDeadLettered      uint64
	MailSendDurationCount uint64
	MailSendDurationNs    int64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	usersRegistered       atomic.Uint64
	loginsSucceeded       atomic.Uint64
	loginsFailed          atomic.Uint64
	emailsConfirmed       atomic.Uint64
	avatarsUploaded       atomic.Uint64
	contactsCreated       atomic.Uint64
	contactsUpdated       atomic.Uint64
	contactsDeleted       atomic.Uint64
	rateLimited           atomic.Uint64
	mailQueued            atomic.Uint64
	mailDropped           atomic.Uint64
	mailSent              atomic.Uint64
	mailFailed            atomic.Uint64
	mailDeadLettered      atomic.Uint64
	mailSendDurationCount atomic.Uint64
	mailSendDurationNs    atomic.Int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersRegistered:       m.usersRegistered.Load(),
		LoginsSucceeded:       m.loginsSucceeded.Load(),
		LoginsFailed:          m.loginsFailed.Load(),
		EmailsConfirmed:       m.emailsConfirmed.Load(),
		AvatarsUploaded:       m.avatarsUploaded.Load(),
		ContactsCreated:       m.contactsCreated.Load(),
		ContactsUpdated:       m.contactsUpdated.Load(),
		ContactsDeleted:       m.contactsDeleted.Load(),
		RateLimited:           m.rateLimited.Load(),
		MailQueued:            m.mailQueued.Load(),
		MailDropped:           m.mailDropped.Load(),
		MailSent:              m.mailSent.Load(),
		MailFailed:            m.mailFailed.Load(),
		MailDeadLettered:      m.mailDeadLettered.Load(),
		MailSendDurationCount: m.mailSendDurationCount.Load(),
		MailSendDurationNs:    m.mailSendDurationNs.Load(),
	}
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() { m.usersRegistered.Add(1) }

// IncLogin increments the login counter for status.
func (m *InMemoryRecorder) IncLogin(status string) {
	if status == "success" {
		m.loginsSucceeded.Add(1)
		return
	}
	m.loginsFailed.Add(1)
}

// IncEmailConfirmed increments the confirmation counter.
func (m *InMemoryRecorder) IncEmailConfirmed() { m.emailsConfirmed.Add(1) }

// IncAvatarUploaded increments the avatar upload counter.
func (m *InMemoryRecorder) IncAvatarUploaded() { m.avatarsUploaded.Add(1) }

// IncContactCreated increments contact created counter.
func (m *InMemoryRecorder) IncContactCreated() { m.contactsCreated.Add(1) }

// IncContactUpdated increments contact updated counter.
func (m *InMemoryRecorder) IncContactUpdated() { m.contactsUpdated.Add(1) }

// IncContactDeleted increments contact deleted counter.
func (m *InMemoryRecorder) IncContactDeleted() { m.contactsDeleted.Add(1) }

// IncRateLimited increments the rejected-by-limiter counter.
func (m *InMemoryRecorder) IncRateLimited() { m.rateLimited.Add(1) }

// IncMailQueued increments the mail enqueue counter for status.
func (m *InMemoryRecorder) IncMailQueued(status string) {
	if status == "success" {
		m.mailQueued.Add(1)
		return
	}
	m.mailDropped.Add(1)
}

// IncMailSent increments the mail delivery counter for status.
func (m *InMemoryRecorder) IncMailSent(status string) {
	switch status {
	case "success":
		m.mailSent.Add(1)
	case "dead_lettered":
		m.mailDeadLettered.Add(1)
	default:
		m.mailFailed.Add(1)
	}
}

// ObserveMailSendDuration records one delivery attempt duration.
func (m *InMemoryRecorder) ObserveMailSendDuration(duration time.Duration) {
	m.mailSendDurationCount.Add(1)
	m.mailSendDurationNs.Add(duration.Nanoseconds())
}
