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
	"context"
	"time"

	"github.com/Oabraham1/chronos/pkg/metricscollector"
)

// runMonitor is the expiration monitor loop: one dedicated goroutine that
// wakes every period and reclaims due leases. The sleep is best-effort; a
// sweep may be late but never early, so a lease of duration T is reclaimed
// no later than T plus one period after admission.
func (m *Manager) runMonitor(ctx context.Context) {
	defer m.wg.Done()

	for {
		tmr := time.NewTimer(m.period)
		select {
		case <-tmr.C:
			m.sweep()
		case <-ctx.Done():
			tmr.Stop()
			m.log.V(1).Info("expiration monitor stopped")
			return
		}
	}
}

// sweep expires every due lease and drops inactive records from the table.
func (m *Manager) sweep() {
	started := time.Now()

	m.mu.Lock()
	now := m.plat.Now()
	var expired []releaseResult
	for _, p := range m.partitions {
		if !p.active {
			continue
		}
		if now.Sub(p.startTime) >= p.duration {
			expired = append(expired, m.releaseLocked(p))
		}
	}

	kept := m.partitions[:0]
	for _, p := range m.partitions {
		if p.active {
			kept = append(kept, p)
		}
	}
	m.partitions = kept
	m.mu.Unlock()

	for _, result := range expired {
		if result.lockDeleteErr != nil {
			m.logOrphanedLock(result)
		}
		m.log.Info("partition expired", "partition", result.partitionID, "device", result.deviceIndex)
		metricscollector.RecordPartitionReleased(result.deviceName, metricscollector.CauseExpired)
	}

	metricscollector.RecordSweepDuration(time.Since(started).Seconds())
}
