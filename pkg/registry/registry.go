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

// Package registry holds the immutable device records enumerated at startup
// plus each device's mutable available-memory counter.
package registry

import (
	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/Oabraham1/chronos/pkg/gpu"
)

// Device is one enumerated device. Every field except AvailableMemory is
// fixed for the registry's lifetime. AvailableMemory is guarded by the
// partition manager's mutex; nothing else may mutate it.
type Device struct {
	Handle      gpu.Handle
	Name        string
	Vendor      string
	Version     string
	Type        gpu.DeviceType
	TotalMemory uint64

	AvailableMemory uint64
}

// Registry owns the device records and the enumeration handle.
type Registry struct {
	devices []*Device
	enum    gpu.Enumerator
	log     logr.Logger
}

// New enumerates devices and builds the registry. Zero enumerated devices is
// not an error: the registry stays permanently empty, a warning is logged,
// and every device-index lookup fails.
func New(enum gpu.Enumerator, log logr.Logger) (*Registry, error) {
	infos, err := enum.Enumerate()
	if err != nil {
		return nil, errors.Wrap(err, "enumerating devices")
	}

	r := &Registry{enum: enum, log: log}
	for _, info := range infos {
		r.devices = append(r.devices, &Device{
			Handle:          info.Handle,
			Name:            info.Name,
			Vendor:          info.Vendor,
			Version:         info.Version,
			Type:            info.Type,
			TotalMemory:     info.TotalMemory,
			AvailableMemory: info.TotalMemory,
		})
	}

	if len(r.devices) == 0 {
		log.Info("no GPU devices enumerated; every device operation will be rejected")
	} else {
		for i, d := range r.devices {
			log.Info("registered device", "index", i, "name", d.Name, "vendor", d.Vendor, "totalMemoryBytes", d.TotalMemory)
		}
	}

	return r, nil
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	return len(r.devices)
}

// Device returns the device at idx.
func (r *Registry) Device(idx int) (*Device, bool) {
	if idx < 0 || idx >= len(r.devices) {
		return nil, false
	}
	return r.devices[idx], true
}

// DeviceByHandle returns the device with the given handle and its index.
func (r *Registry) DeviceByHandle(handle gpu.Handle) (*Device, int, bool) {
	for i, d := range r.devices {
		if d.Handle == handle {
			return d, i, true
		}
	}
	return nil, -1, false
}

// Devices returns the device slice. Callers must treat AvailableMemory as
// guarded by the partition manager's mutex.
func (r *Registry) Devices() []*Device {
	return r.devices
}

// Close releases the enumeration handle. Called after the last device
// operation.
func (r *Registry) Close() error {
	return r.enum.Close()
}
