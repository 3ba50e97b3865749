package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestInMemoryRecorder_Snapshot(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncUserRegistered()
	m.IncLogin("success")
	m.IncLogin("failure")
	m.IncLogin("failure")
	m.IncEmailConfirmed()
	m.IncAvatarUploaded()
	m.IncContactCreated()
	m.IncContactUpdated()
	m.IncContactDeleted()
	m.IncRateLimited()
	m.IncMailQueued("success")
	m.IncMailQueued("dropped")
	m.IncMailSent("success")
	m.IncMailSent("failed")
	m.IncMailSent("dead_lettered")
	m.ObserveMailSendDuration(1500 * time.Millisecond)

	want := Snapshot{
		UsersRegistered:       1,
		LoginsSucceeded:       1,
		LoginsFailed:          2,
		EmailsConfirmed:       1,
		AvatarsUploaded:       1,
		ContactsCreated:       1,
		ContactsUpdated:       1,
		ContactsDeleted:       1,
		RateLimited:           1,
		MailQueued:            1,
		MailDropped:           1,
		MailSent:              1,
		MailFailed:            1,
		MailDeadLettered:      1,
		MailSendDurationCount: 1,
		MailSendDurationNs:    int64(1500 * time.Millisecond),
	}
	if diff := cmp.Diff(want, m.Snapshot()); diff != "" {
		t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
	}
}

func TestInMemoryRecorder_Concurrent(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncContactCreated()
		}()
	}
	wg.Wait()

	if got := m.Snapshot().ContactsCreated; got != 100 {
		t.Errorf("ContactsCreated = %d, want 100", got)
	}
}

func TestNoopRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder = NewNoop()
	r.IncContactCreated()
	r.IncMailSent("success")
	r.ObserveMailSendDuration(time.Second)
}
