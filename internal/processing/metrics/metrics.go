// Package metrics provides observability for the processing worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	MessagesProcessed prometheus.Counter
	MessagesRetried   prometheus.Counter
	UnknownSenders    prometheus.Counter
	NoMatch           prometheus.Counter
	Uploads           prometheus.Counter
	UploadFailures    prometheus.Counter
	Forwards          prometheus.Counter
	ForwardFailures   prometheus.Counter
	DedupHits         prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		MessagesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docuflow_messages_processed_total",
			Help: "Total number of intake messages acknowledged",
		}),
		MessagesRetried: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docuflow_messages_retried_total",
			Help: "Total number of intake messages returned for redelivery",
		}),
		UnknownSenders: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docuflow_unknown_senders_total",
			Help: "Total number of messages skipped because no client lists the sender",
		}),
		NoMatch: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docuflow_attachments_unmatched_total",
			Help: "Total number of attachments with no open requirement to attach to",
		}),
		Uploads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docuflow_uploads_total",
			Help: "Total number of attachments stored",
		}),
		UploadFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docuflow_upload_failures_total",
			Help: "Total number of attachment uploads that failed",
		}),
		Forwards: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docuflow_forwards_total",
			Help: "Total number of attachments forwarded downstream",
		}),
		ForwardFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docuflow_forward_failures_total",
			Help: "Total number of forward attempts that failed",
		}),
		DedupHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docuflow_forward_dedup_hits_total",
			Help: "Total number of forwards skipped because the attachment was already sent",
		}),
	}
}
