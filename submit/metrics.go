// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package submit

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes, used as the metric label.
const (
	outcomeSubmitted = "submitted"
	outcomeDuplicate = "duplicate"
	outcomeInvalid   = "invalid"
	outcomeReverted  = "reverted"
	outcomeFailed    = "failed"
)

type metrics struct {
	submissions *prometheus.CounterVec
	duration    prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "burnbid",
			Name:      "submissions_total",
			Help:      "Proof submissions by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "burnbid",
			Name:      "submission_duration_seconds",
			Help:      "Time from request to confirmed submission.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.submissions, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
