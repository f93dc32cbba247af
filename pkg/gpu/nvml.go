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

//go:build linux && cgo

package gpu

import (
	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/go-logr/logr"
)

type nvmlEnumerator struct {
	log         logr.Logger
	initialized bool
}

// NewNVMLEnumerator enumerates NVIDIA devices through NVML. A host without
// the NVML library or driver yields an empty device list, not an error.
func NewNVMLEnumerator(log logr.Logger) Enumerator {
	return &nvmlEnumerator{log: log}
}

func (e *nvmlEnumerator) Enumerate() ([]DeviceInfo, error) {
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		e.log.V(1).Info("NVML unavailable", "reason", nvml.ErrorString(ret))
		return nil, nil
	}
	e.initialized = true

	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		e.log.Info("NVML device count failed", "reason", nvml.ErrorString(ret))
		return nil, nil
	}

	driver := "Unknown"
	if version, ret := nvml.SystemGetDriverVersion(); ret == nvml.SUCCESS {
		driver = version
	}

	var devices []DeviceInfo
	for i := 0; i < count; i++ {
		device, ret := nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			e.log.Info("skipping device, handle query failed", "index", i, "reason", nvml.ErrorString(ret))
			continue
		}

		info := DeviceInfo{
			Handle:  Handle(i + 1),
			Name:    "Unknown",
			Vendor:  "NVIDIA Corporation",
			Version: driver,
			Type:    DeviceTypeGPU | DeviceTypeDefault,
		}

		if name, ret := device.GetName(); ret == nvml.SUCCESS {
			info.Name = name
		}

		if memory, ret := device.GetMemoryInfo(); ret == nvml.SUCCESS {
			info.TotalMemory = memory.Total
		}

		devices = append(devices, info)
	}

	return devices, nil
}

func (e *nvmlEnumerator) Close() error {
	if !e.initialized {
		return nil
	}
	e.initialized = false
	if ret := nvml.Shutdown(); ret != nvml.SUCCESS {
		e.log.Info("NVML shutdown failed", "reason", nvml.ErrorString(ret))
	}
	return nil
}
