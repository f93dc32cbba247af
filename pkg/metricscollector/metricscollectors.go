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

const (
	DefaultPromMetricsNamespace = "chronos"

	// Release causes recorded on the partition release counter.
	CauseReleased = "released"
	CauseExpired  = "expired"
	CauseShutdown = "shutdown"

	// Rejection reasons recorded on the admission counter.
	ReasonInvalidArgument    = "invalid_argument"
	ReasonInsufficientMemory = "insufficient_memory"
	ReasonContended          = "contended"
)

var (
	collectors []MetricsCollector
)

type MetricsCollector interface {
	// RecordAdmissionGranted counts a successful create on a device
	RecordAdmissionGranted(device string)

	// RecordAdmissionRejected counts a rejected create with the rejection reason
	RecordAdmissionRejected(device string, reason string)

	// RecordPartitionReleased counts a partition leaving the table with the cause of the release
	RecordPartitionReleased(device string, cause string)

	// RecordActivePartitions sets the current number of active partitions on a device
	RecordActivePartitions(device string, count int)

	// RecordAvailableMemory sets the device's available memory in bytes
	RecordAvailableMemory(device string, bytes uint64)

	// RecordSweepDuration measures one expiration-monitor sweep, in seconds
	RecordSweepDuration(seconds float64)

	// RecordLockFiles sets the number of lock files observed in the lock directory
	RecordLockFiles(count int)
}

func NewMetricsCollectors(enablePrometheusMetrics bool) {
	if enablePrometheusMetrics {
		promometrics := NewPromMetrics()
		collectors = append(collectors, promometrics)
	}
}

// RecordAdmissionGranted counts a successful create on a device
func RecordAdmissionGranted(device string) {
	for _, element := range collectors {
		element.RecordAdmissionGranted(device)
	}
}

// RecordAdmissionRejected counts a rejected create with the rejection reason
func RecordAdmissionRejected(device string, reason string) {
	for _, element := range collectors {
		element.RecordAdmissionRejected(device, reason)
	}
}

// RecordPartitionReleased counts a partition leaving the table with the cause of the release
func RecordPartitionReleased(device string, cause string) {
	for _, element := range collectors {
		element.RecordPartitionReleased(device, cause)
	}
}

// RecordActivePartitions sets the current number of active partitions on a device
func RecordActivePartitions(device string, count int) {
	for _, element := range collectors {
		element.RecordActivePartitions(device, count)
	}
}

// RecordAvailableMemory sets the device's available memory in bytes
func RecordAvailableMemory(device string, bytes uint64) {
	for _, element := range collectors {
		element.RecordAvailableMemory(device, bytes)
	}
}

// RecordSweepDuration measures one expiration-monitor sweep, in seconds
func RecordSweepDuration(seconds float64) {
	for _, element := range collectors {
		element.RecordSweepDuration(seconds)
	}
}

// RecordLockFiles sets the number of lock files observed in the lock directory
func RecordLockFiles(count int) {
	for _, element := range collectors {
		element.RecordLockFiles(count)
	}
}
