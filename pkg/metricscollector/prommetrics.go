/*
Copyright 2024 The Chronos Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metricscollector

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Oabraham1/chronos/pkg/version"
)

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: DefaultPromMetricsNamespace,
			Name:      "build_info",
			Help:      "Info metric, with static information about the chronos build like: version, git commit and Golang runtime info.",
		},
		[]string{"version", "git_commit", "goversion", "goos", "goarch"},
	)
	admissionsGranted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: DefaultPromMetricsNamespace,
			Subsystem: "partition",
			Name:      "admissions_granted_total",
			Help:      "Total number of partition requests admitted, per device.",
		},
		[]string{"device"},
	)
	admissionsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: DefaultPromMetricsNamespace,
			Subsystem: "partition",
			Name:      "admissions_rejected_total",
			Help:      "Total number of partition requests rejected, per device and rejection reason.",
		},
		[]string{"device", "reason"},
	)
	partitionsReleased = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: DefaultPromMetricsNamespace,
			Subsystem: "partition",
			Name:      "released_total",
			Help:      "Total number of partitions released, per device and cause (released, expired, shutdown).",
		},
		[]string{"device", "cause"},
	)
	activePartitions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: DefaultPromMetricsNamespace,
			Subsystem: "partition",
			Name:      "active",
			Help:      "The current number of active partitions, per device.",
		},
		[]string{"device"},
	)
	availableMemory = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: DefaultPromMetricsNamespace,
			Subsystem: "device",
			Name:      "available_memory_bytes",
			Help:      "The device memory not reserved by any active partition, in bytes.",
		},
		[]string{"device"},
	)
	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: DefaultPromMetricsNamespace,
			Subsystem: "monitor",
			Name:      "sweep_duration_seconds",
			Help:      "The duration of one expiration-monitor sweep, in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)
	lockFiles = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: DefaultPromMetricsNamespace,
			Subsystem: "lockstore",
			Name:      "lock_files",
			Help:      "The number of lock files present in the lock directory, foreign processes included.",
		},
	)
)

// PromMetrics is the Prometheus implementation of MetricsCollector.
type PromMetrics struct {
}

func NewPromMetrics() *PromMetrics {
	prometheus.MustRegister(
		buildInfo,
		admissionsGranted,
		admissionsRejected,
		partitionsReleased,
		activePartitions,
		availableMemory,
		sweepDuration,
		lockFiles,
	)

	recordBuildInfo()
	return &PromMetrics{}
}

// recordBuildInfo publishes information about chronos version and runtime into the build_info metric.
func recordBuildInfo() {
	buildInfo.WithLabelValues(version.Version, version.GitCommit, runtime.Version(), runtime.GOOS, runtime.GOARCH).Set(1)
}

func (p *PromMetrics) RecordAdmissionGranted(device string) {
	admissionsGranted.WithLabelValues(device).Inc()
}

func (p *PromMetrics) RecordAdmissionRejected(device string, reason string) {
	admissionsRejected.WithLabelValues(device, reason).Inc()
}

func (p *PromMetrics) RecordPartitionReleased(device string, cause string) {
	partitionsReleased.WithLabelValues(device, cause).Inc()
}

func (p *PromMetrics) RecordActivePartitions(device string, count int) {
	activePartitions.WithLabelValues(device).Set(float64(count))
}

func (p *PromMetrics) RecordAvailableMemory(device string, bytes uint64) {
	availableMemory.WithLabelValues(device).Set(float64(bytes))
}

func (p *PromMetrics) RecordSweepDuration(seconds float64) {
	sweepDuration.Observe(seconds)
}

func (p *PromMetrics) RecordLockFiles(count int) {
	lockFiles.Set(float64(count))
}
