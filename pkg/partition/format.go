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
	"fmt"
	"strings"

	"github.com/Oabraham1/chronos/pkg/util"
)

const listingSeparator = "--------------------------------------------------"

// FormatListing renders the active-partition listing.
func FormatListing(snapshots []Snapshot) string {
	if len(snapshots) == 0 {
		return "No active partitions\n"
	}

	var b strings.Builder
	b.WriteString("Active partitions:\n")
	b.WriteString(listingSeparator + "\n")
	for _, s := range snapshots {
		fmt.Fprintf(&b, "ID: %s\n", s.ID)
		fmt.Fprintf(&b, "  Device: %d (%s)\n", s.DeviceIndex, s.DeviceName)
		fmt.Fprintf(&b, "  Memory: %.2f%%\n", float64(s.MemoryFraction)*100)
		fmt.Fprintf(&b, "  Time remaining: %d seconds\n", s.RemainingSeconds)
		fmt.Fprintf(&b, "  Owner: %s (pid %d)\n", s.Owner, s.ProcessID)
		b.WriteString("\n")
	}
	return b.String()
}

// FormatDeviceStats renders the per-device report.
func FormatDeviceStats(stats []DeviceStat) string {
	if len(stats) == 0 {
		return "No devices available\n"
	}

	var b strings.Builder
	for i, s := range stats {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Device %d: %s\n", s.Index, s.Name)
		fmt.Fprintf(&b, "  Type: %s\n", s.Type)
		fmt.Fprintf(&b, "  Vendor: %s\n", s.Vendor)
		fmt.Fprintf(&b, "  Version: %s\n", s.Version)
		b.WriteString("  Memory:\n")
		fmt.Fprintf(&b, "    Total: %.2f MB\n", util.BytesToMB(s.TotalMemory))
		fmt.Fprintf(&b, "    Used: %.2f MB\n", util.BytesToMB(s.UsedMemory))
		fmt.Fprintf(&b, "    Available: %.2f MB\n", util.BytesToMB(s.AvailableMemory))
		fmt.Fprintf(&b, "    Usage: %.2f%%\n", s.UsagePercent)
		b.WriteString("  Management:\n")
		fmt.Fprintf(&b, "    Active partitions: %d\n", s.ActivePartitions)
	}
	return b.String()
}
