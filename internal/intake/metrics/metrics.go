// Package metrics provides observability for the intake gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	NotificationsReceived prometheus.Counter
	NotificationsRejected prometheus.Counter
	MessagesPublished     prometheus.Counter
	FetchFailures         prometheus.Counter
	SubscriptionRenewals  prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		NotificationsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docuflow_notifications_received_total",
			Help: "Total number of mail-source push notifications received",
		}),
		NotificationsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docuflow_notifications_rejected_total",
			Help: "Total number of notifications rejected as malformed or forged",
		}),
		MessagesPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docuflow_messages_published_total",
			Help: "Total number of canonical messages published to the queue",
		}),
		FetchFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docuflow_mail_fetch_failures_total",
			Help: "Total number of mail-source fetch or publish failures",
		}),
		SubscriptionRenewals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docuflow_subscription_renewals_total",
			Help: "Total number of mail-source subscription renewals",
		}),
	}
}
