package handler

import (
	"fmt"
	"net/http"

	"github.com/contactsapi/contactsapi/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "contactsapi_users_registered_total %d\n", snap.UsersRegistered)
	writeMetric(w, "contactsapi_logins_total{status=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "contactsapi_logins_total{status=\"failure\"} %d\n", snap.LoginsFailed)
	writeMetric(w, "contactsapi_emails_confirmed_total %d\n", snap.EmailsConfirmed)
	writeMetric(w, "contactsapi_avatars_uploaded_total %d\n", snap.AvatarsUploaded)

	writeMetric(w, "contactsapi_contacts_created_total %d\n", snap.ContactsCreated)
	writeMetric(w, "contactsapi_contacts_updated_total %d\n", snap.ContactsUpdated)
	writeMetric(w, "contactsapi_contacts_deleted_total %d\n", snap.ContactsDeleted)
	writeMetric(w, "contactsapi_rate_limited_total %d\n", snap.RateLimited)

	writeMetric(w, "contactsapi_mail_queued_total{status=\"success\"} %d\n", snap.MailQueued)
	writeMetric(w, "contactsapi_mail_queued_total{status=\"dropped\"} %d\n", snap.MailDropped)
	writeMetric(w, "contactsapi_mail_sent_total{status=\"success\"} %d\n", snap.MailSent)
	writeMetric(w, "contactsapi_mail_sent_total{status=\"failed\"} %d\n", snap.MailFailed)
	writeMetric(w, "contactsapi_mail_sent_total{status=\"dead_lettered\"} %d\n", snap.MailDeadLettered)
	writeMetric(w, "contactsapi_mail_send_duration_seconds_count %d\n", snap.MailSendDurationCount)
	writeMetric(w, "contactsapi_mail_send_duration_seconds_sum %.6f\n", float64(snap.MailSendDurationNs)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
