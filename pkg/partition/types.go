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
	"time"

	"github.com/Oabraham1/chronos/pkg/gpu"
)

// partition is one lease in the table. Created by admission, mutated only by
// the monitor or a release flipping active to false, removed by the
// monitor's next sweep (eagerly on the release path).
type partition struct {
	id             string
	deviceHandle   gpu.Handle
	deviceIndex    int
	memoryFraction float32
	duration       time.Duration
	startTime      time.Time
	active         bool
	owner          string
	processID      int
}

// Snapshot is the caller-visible view of one active partition.
type Snapshot struct {
	ID               string    `json:"id"`
	DeviceIndex      int       `json:"deviceIndex"`
	DeviceName       string    `json:"deviceName"`
	MemoryFraction   float32   `json:"memoryFraction"`
	StartTime        time.Time `json:"startTime"`
	DurationSeconds  int64     `json:"durationSeconds"`
	RemainingSeconds int64     `json:"remainingSeconds"`
	Owner            string    `json:"owner"`
	ProcessID        int       `json:"processId"`
}

// DeviceStat is the caller-visible view of one device's state.
type DeviceStat struct {
	Index            int     `json:"index"`
	Name             string  `json:"name"`
	Type             string  `json:"type"`
	Vendor           string  `json:"vendor"`
	Version          string  `json:"version"`
	TotalMemory      uint64  `json:"totalMemoryBytes"`
	UsedMemory       uint64  `json:"usedMemoryBytes"`
	AvailableMemory  uint64  `json:"availableMemoryBytes"`
	UsagePercent     float64 `json:"usagePercent"`
	ActivePartitions int     `json:"activePartitions"`
}
