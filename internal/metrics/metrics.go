// Package metrics registers the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PollCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studybot_poll_cycles_total",
		Help: "Poll cycles run, by outcome (ok, error).",
	}, []string{"outcome"})

	PollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "studybot_poll_duration_seconds",
		Help:    "Wall time of a poll cycle.",
		Buckets: prometheus.DefBuckets,
	})

	ResponsesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studybot_survey_responses_fetched_total",
		Help: "Survey responses returned by the survey source.",
	})

	SeenSetSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "studybot_seen_set_size",
		Help: "Number of response IDs in the seen set after the last cycle.",
	})

	RelayEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studybot_relay_events_total",
		Help: "Events sent over the relay hop, by type and result.",
	}, []string{"type", "result"})

	EmailsClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studybot_emails_classified_total",
		Help: "Inbound emails by classifier decision (YES, NO, UNSURE, error).",
	}, []string{"decision"})

	HumanDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studybot_human_decisions_total",
		Help: "Approve/reject decisions by channel (button, sms, mcp) and decision.",
	}, []string{"channel", "decision"})

	Enrollments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studybot_enrollments_total",
		Help: "Enrollment webhook calls by result (ok, error).",
	}, []string{"result"})
)
