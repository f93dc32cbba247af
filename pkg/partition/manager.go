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

// Package partition implements the lease lifecycle engine: admission control,
// per-fraction cross-process locking, in-process bookkeeping of active
// leases, and the background expiration loop that reclaims leases whose time
// has elapsed.
package partition

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/Oabraham1/chronos/pkg/lockstore"
	"github.com/Oabraham1/chronos/pkg/metricscollector"
	"github.com/Oabraham1/chronos/pkg/platform"
	"github.com/Oabraham1/chronos/pkg/registry"
)

const (
	// DefaultMonitorPeriod is the nominal gap between expiration sweeps.
	// The one-second granularity trades expiry precision for an idle-CPU
	// floor; expiration is accurate to within one period.
	DefaultMonitorPeriod = time.Second

	// MinMonitorPeriod bounds how tight a configured sweep can run.
	MinMonitorPeriod = 100 * time.Millisecond
)

var partitionIDPattern = regexp.MustCompile(`^partition_[0-9]{4,}$`)

// Manager owns the partition table and coordinates admissions, releases and
// expirations across processes through the lock store.
//
// One mutex guards the table, the id counter and every device's available
// memory. The lock-store file operations run inside the critical section so
// that the check-then-create sequence in admission is indivisible with
// respect to the in-process table; nothing else inside the guard blocks.
type Manager struct {
	log   logr.Logger
	plat  platform.Platform
	reg   *registry.Registry
	locks lockstore.Store

	mu         sync.Mutex
	partitions []*partition
	nextID     int

	period    time.Duration
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// Option configures a Manager.
type Option func(*Manager)

// WithMonitorPeriod overrides the expiration sweep period, clamped to
// MinMonitorPeriod.
func WithMonitorPeriod(period time.Duration) Option {
	return func(m *Manager) {
		if period < MinMonitorPeriod {
			period = MinMonitorPeriod
		}
		m.period = period
	}
}

// NewManager builds a Manager over the given registry and lock store and
// starts the expiration monitor. Close must be called to stop the monitor
// and reclaim outstanding leases.
func NewManager(reg *registry.Registry, locks lockstore.Store, plat platform.Platform, log logr.Logger, opts ...Option) *Manager {
	m := &Manager{
		log:    log,
		plat:   plat,
		reg:    reg,
		locks:  locks,
		nextID: 1,
		period: DefaultMonitorPeriod,
	}
	for _, opt := range opts {
		opt(m)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.wg.Add(1)
	go m.runMonitor(ctx)

	return m
}

/// --------------------------------------------------------------------------- ///
/// ----------                  Public operations                      --------- ///
/// --------------------------------------------------------------------------- ///

// Create admits a lease on deviceIdx for the given memory fraction and
// duration, returning the new partition id.
func (m *Manager) Create(deviceIdx int, memoryFraction float32, durationSeconds int64) (string, error) {
	if memoryFraction <= 0 || memoryFraction > 1 {
		err := errors.Wrapf(ErrInvalidArgument, "memory fraction %v outside (0, 1]", memoryFraction)
		m.rejectCreate(deviceIdx, err)
		return "", err
	}
	if durationSeconds <= 0 {
		err := errors.Wrapf(ErrInvalidArgument, "duration %d is not a positive number of seconds", durationSeconds)
		m.rejectCreate(deviceIdx, err)
		return "", err
	}

	m.mu.Lock()
	id, err := m.admitLocked(deviceIdx, memoryFraction, durationSeconds)
	m.mu.Unlock()

	if err != nil {
		m.rejectCreate(deviceIdx, err)
		return "", err
	}

	m.log.Info("partition created", "partition", id, "device", deviceIdx,
		"fraction", memoryFraction, "durationSeconds", durationSeconds, "owner", m.plat.Username())
	metricscollector.RecordAdmissionGranted(m.deviceName(deviceIdx))
	return id, nil
}

// admitLocked runs the admission sequence. Callers hold m.mu.
func (m *Manager) admitLocked(deviceIdx int, memoryFraction float32, durationSeconds int64) (string, error) {
	device, ok := m.reg.Device(deviceIdx)
	if !ok {
		return "", errors.Wrapf(ErrInvalidArgument, "device index %d out of range [0, %d)", deviceIdx, m.reg.Count())
	}

	requested := reservedBytes(device.TotalMemory, memoryFraction)
	if requested > device.AvailableMemory {
		return "", errors.Wrapf(ErrInsufficientMemory,
			"device %d has %d bytes available, %d requested", deviceIdx, device.AvailableMemory, requested)
	}

	if m.locks.Exists(deviceIdx, memoryFraction) {
		owner := m.locks.Owner(deviceIdx, memoryFraction)
		if owner != m.plat.Username() {
			return "", errors.Wrapf(ErrContended, "slot held by %q", owner)
		}
	}

	id := fmt.Sprintf("partition_%04d", m.nextID)
	m.nextID++

	content := lockstore.Content{
		PID:         m.plat.ProcessID(),
		User:        m.plat.Username(),
		Host:        m.plat.Hostname(),
		Time:        m.plat.CurrentTimeString(),
		DeviceIndex: deviceIdx,
		Fraction:    memoryFraction,
		Partition:   id,
	}
	if err := m.locks.Create(deviceIdx, memoryFraction, content); err != nil {
		// Another process won the slot between the existence check and
		// the exclusive create. Memory has not been touched yet, so
		// there is nothing to roll back.
		return "", errors.Wrap(ErrContended, err.Error())
	}

	device.AvailableMemory -= requested
	m.partitions = append(m.partitions, &partition{
		id:             id,
		deviceHandle:   device.Handle,
		deviceIndex:    deviceIdx,
		memoryFraction: memoryFraction,
		duration:       time.Duration(durationSeconds) * time.Second,
		startTime:      m.plat.Now(),
		active:         true,
		owner:          content.User,
		processID:      content.PID,
	})
	m.recordDeviceGauges(device)

	return id, nil
}

// List returns snapshots of the currently active partitions.
func (m *Manager) List() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.plat.Now()
	var snapshots []Snapshot
	for _, p := range m.partitions {
		if !p.active {
			continue
		}

		remaining := p.duration - now.Sub(p.startTime)
		if remaining < 0 {
			remaining = 0
		}

		name := ""
		if device, ok := m.reg.Device(p.deviceIndex); ok {
			name = device.Name
		}

		snapshots = append(snapshots, Snapshot{
			ID:               p.id,
			DeviceIndex:      p.deviceIndex,
			DeviceName:       name,
			MemoryFraction:   p.memoryFraction,
			StartTime:        p.startTime,
			DurationSeconds:  int64(p.duration / time.Second),
			RemainingSeconds: int64(remaining / time.Second),
			Owner:            p.owner,
			ProcessID:        p.processID,
		})
	}
	return snapshots
}

// Release ends the named lease early. Only the partition's owner may
// release it.
func (m *Manager) Release(partitionID string) error {
	if !partitionIDPattern.MatchString(partitionID) {
		err := errors.Wrapf(ErrInvalidArgument, "malformed partition id %q", partitionID)
		m.log.Info("release rejected", "reason", err.Error())
		return err
	}

	m.mu.Lock()
	released, err := m.releaseByIDLocked(partitionID)
	m.mu.Unlock()

	if err != nil {
		m.log.Info("release rejected", "partition", partitionID, "reason", err.Error())
		return err
	}

	if released.lockDeleteErr != nil {
		m.logOrphanedLock(released)
	}
	m.log.Info("partition released", "partition", partitionID)
	metricscollector.RecordPartitionReleased(released.deviceName, metricscollector.CauseReleased)
	return nil
}

// releaseByIDLocked locates the partition, enforces ownership and runs the
// release procedure, removing the record eagerly. Callers hold m.mu.
func (m *Manager) releaseByIDLocked(partitionID string) (releaseResult, error) {
	for i, p := range m.partitions {
		if p.id != partitionID || !p.active {
			continue
		}

		if p.owner != m.plat.Username() {
			return releaseResult{}, errors.Wrapf(ErrPermissionDenied, "partition %s is owned by %q", partitionID, p.owner)
		}

		result := m.releaseLocked(p)
		m.partitions = append(m.partitions[:i], m.partitions[i+1:]...)
		return result, nil
	}

	return releaseResult{}, errors.Wrapf(ErrNotFound, "partition %s", partitionID)
}

// DeviceStats returns the per-device report.
func (m *Manager) DeviceStats() []DeviceStat {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := make(map[int]int)
	for _, p := range m.partitions {
		if p.active {
			active[p.deviceIndex]++
		}
	}

	var stats []DeviceStat
	for i, device := range m.reg.Devices() {
		used := device.TotalMemory - device.AvailableMemory
		usage := 0.0
		if device.TotalMemory > 0 {
			usage = 100 * float64(used) / float64(device.TotalMemory)
		}
		stats = append(stats, DeviceStat{
			Index:            i,
			Name:             device.Name,
			Type:             device.Type.String(),
			Vendor:           device.Vendor,
			Version:          device.Version,
			TotalMemory:      device.TotalMemory,
			UsedMemory:       used,
			AvailableMemory:  device.AvailableMemory,
			UsagePercent:     usage,
			ActivePartitions: active[i],
		})
	}
	return stats
}

// AvailableFraction returns the percentage of deviceIdx's memory not
// reserved by this process's active partitions, in [0, 100].
func (m *Manager) AvailableFraction(deviceIdx int) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	device, ok := m.reg.Device(deviceIdx)
	if !ok {
		return -1, errors.Wrapf(ErrInvalidArgument, "device index %d out of range [0, %d)", deviceIdx, m.reg.Count())
	}
	if device.TotalMemory == 0 {
		return 0, nil
	}
	return 100 * float64(device.AvailableMemory) / float64(device.TotalMemory), nil
}

// LockDir returns the lock store's base directory.
func (m *Manager) LockDir() string {
	return m.locks.BaseDir()
}

// Locks enumerates the lock files currently present in the store, foreign
// processes' locks included.
func (m *Manager) Locks() ([]lockstore.Info, error) {
	return m.locks.List()
}

// Close stops the expiration monitor, reclaims every still-active lease and
// releases the device enumeration handle. It is idempotent.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.cancel()
		m.wg.Wait()

		m.mu.Lock()
		var reclaimed []releaseResult
		for _, p := range m.partitions {
			if p.active {
				reclaimed = append(reclaimed, m.releaseLocked(p))
			}
		}
		m.partitions = nil
		m.mu.Unlock()

		for _, result := range reclaimed {
			if result.lockDeleteErr != nil {
				m.logOrphanedLock(result)
			}
			m.log.Info("partition reclaimed at shutdown", "partition", result.partitionID)
			metricscollector.RecordPartitionReleased(result.deviceName, metricscollector.CauseShutdown)
		}

		m.closeErr = m.reg.Close()
	})
	return m.closeErr
}

/// --------------------------------------------------------------------------- ///
/// ----------                 Release procedure                       --------- ///
/// --------------------------------------------------------------------------- ///

// releaseResult carries what the caller needs to report a release once the
// guard has been dropped.
type releaseResult struct {
	partitionID   string
	deviceIndex   int
	deviceName    string
	fraction      float32
	lockDeleteErr error
}

// releaseLocked credits the partition's memory back to its device, deletes
// the lock file and marks the record inactive. Shared by Release, expiry and
// shutdown. Callers hold m.mu.
//
// A lock-delete failure never fails the release: in-process accounting always
// proceeds so that memory cannot wedge on a filesystem error. The orphaned
// lock file is reported to the caller and is administrator-serviceable.
func (m *Manager) releaseLocked(p *partition) releaseResult {
	result := releaseResult{
		partitionID: p.id,
		deviceIndex: p.deviceIndex,
		fraction:    p.memoryFraction,
	}

	device, _, ok := m.reg.DeviceByHandle(p.deviceHandle)
	if ok {
		device.AvailableMemory += reservedBytes(device.TotalMemory, p.memoryFraction)
		result.deviceName = device.Name
	}

	result.lockDeleteErr = m.locks.Delete(p.deviceIndex, p.memoryFraction)
	p.active = false

	if ok {
		m.recordDeviceGauges(device)
	}
	return result
}

func (m *Manager) logOrphanedLock(result releaseResult) {
	m.log.Error(result.lockDeleteErr, "failed to delete lock file; lock is orphaned until removed manually",
		"partition", result.partitionID, "device", result.deviceIndex, "fraction", result.fraction)
}

// rejectCreate reports a failed admission.
func (m *Manager) rejectCreate(deviceIdx int, err error) {
	m.log.Info("admission rejected", "device", deviceIdx, "reason", err.Error())
	metricscollector.RecordAdmissionRejected(m.deviceName(deviceIdx), rejectionReason(err))
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientMemory):
		return metricscollector.ReasonInsufficientMemory
	case errors.Is(err, ErrContended):
		return metricscollector.ReasonContended
	default:
		return metricscollector.ReasonInvalidArgument
	}
}

// recordDeviceGauges refreshes the per-device gauges. Callers hold m.mu.
func (m *Manager) recordDeviceGauges(device *registry.Device) {
	count := 0
	for _, p := range m.partitions {
		if p.active && p.deviceHandle == device.Handle {
			count++
		}
	}
	metricscollector.RecordActivePartitions(device.Name, count)
	metricscollector.RecordAvailableMemory(device.Name, device.AvailableMemory)
}

func (m *Manager) deviceName(idx int) string {
	if device, ok := m.reg.Device(idx); ok {
		return device.Name
	}
	return ""
}

// reservedBytes is the memory a fraction claims on a device, truncated to
// whole bytes.
func reservedBytes(totalMemory uint64, fraction float32) uint64 {
	return uint64(float64(totalMemory) * float64(fraction))
}
