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

package partition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatListingEmpty(t *testing.T) {
	assert.Equal(t, "No active partitions\n", FormatListing(nil))
}

func TestFormatListing(t *testing.T) {
	snapshots := []Snapshot{
		{
			ID:               "partition_0001",
			DeviceIndex:      0,
			DeviceName:       "Test GPU 0",
			MemoryFraction:   0.1,
			StartTime:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
			DurationSeconds:  5,
			RemainingSeconds: 4,
			Owner:            "alice",
			ProcessID:        1234,
		},
	}

	expected := "Active partitions:\n" +
		"--------------------------------------------------\n" +
		"ID: partition_0001\n" +
		"  Device: 0 (Test GPU 0)\n" +
		"  Memory: 10.00%\n" +
		"  Time remaining: 4 seconds\n" +
		"  Owner: alice (pid 1234)\n" +
		"\n"

	assert.Equal(t, expected, FormatListing(snapshots))
}

func TestFormatDeviceStats(t *testing.T) {
	stats := []DeviceStat{
		{
			Index:            0,
			Name:             "Test GPU 0",
			Type:             "GPU DEFAULT",
			Vendor:           "Test Vendor",
			Version:          "1.0",
			TotalMemory:      1 << 30,
			UsedMemory:       1 << 28,
			AvailableMemory:  (1 << 30) - (1 << 28),
			UsagePercent:     25,
			ActivePartitions: 1,
		},
	}

	expected := "Device 0: Test GPU 0\n" +
		"  Type: GPU DEFAULT\n" +
		"  Vendor: Test Vendor\n" +
		"  Version: 1.0\n" +
		"  Memory:\n" +
		"    Total: 1024.00 MB\n" +
		"    Used: 256.00 MB\n" +
		"    Available: 768.00 MB\n" +
		"    Usage: 25.00%\n" +
		"  Management:\n" +
		"    Active partitions: 1\n"

	assert.Equal(t, expected, FormatDeviceStats(stats))
}

func TestFormatDeviceStatsSeparatesDevices(t *testing.T) {
	stats := []DeviceStat{
		{Index: 0, Name: "A", Type: "GPU", Vendor: "V", Version: "1"},
		{Index: 1, Name: "B", Type: "GPU", Vendor: "V", Version: "1"},
	}

	out := FormatDeviceStats(stats)
	assert.Contains(t, out, "    Active partitions: 0\n\nDevice 1: B\n", "blank line between devices")
}

func TestFormatDeviceStatsEmpty(t *testing.T) {
	assert.Equal(t, "No devices available\n", FormatDeviceStats(nil))
}
