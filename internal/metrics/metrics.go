// Copyright 2025 Aqua Protocol Contributors
//
// Package metrics exposes prometheus counters/histograms for append,
// verify, and witness operations. They are incremented by the chain
// store (aqua.Object.Append), the revision builder, the verifier and the
// witness coordinator; the /metrics endpoint that exposes them is wired
// in cmd/aquacore, the way the teacher exposes MetricsAddr in main.go.
// Updating a counter performs no I/O.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RevisionsAppended counts successful Revision Builder + Chain Store
	// appends, by revision kind.
	RevisionsAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aquacore",
		Name:      "revisions_appended_total",
		Help:      "Number of revisions appended to an aqua chain, by kind.",
	}, []string{"kind"})

	// AppendErrors counts builder-side failures, by error kind
	// (DUPLICATE_CONTENT, INVALID_LINK — spec.md §7).
	AppendErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aquacore",
		Name:      "append_errors_total",
		Help:      "Number of failed append attempts, by error kind.",
	}, []string{"kind"})

	// ChainVerifications counts Chain Verifier runs and their aggregate
	// outcome.
	ChainVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aquacore",
		Name:      "chain_verifications_total",
		Help:      "Number of chain verifications, by aggregate outcome (pass/fail).",
	}, []string{"outcome"})

	// RevisionVerifyDuration times one Revision Verifier run, including
	// any witness backend round-trip it performs.
	RevisionVerifyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aquacore",
		Name:      "revision_verify_duration_seconds",
		Help:      "Time to verify a single revision's five sub-results.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	// WitnessPublishDuration times one Witness Coordinator backend call.
	WitnessPublishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aquacore",
		Name:      "witness_publish_duration_seconds",
		Help:      "Time spent publishing a Merkle root through a witness backend.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"network"})

	// WitnessPublishErrors counts failed witness backend publishes, by
	// network.
	WitnessPublishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aquacore",
		Name:      "witness_publish_errors_total",
		Help:      "Number of failed witness backend publish calls, by network.",
	}, []string{"network"})
)
