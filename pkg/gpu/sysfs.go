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

package gpu

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
)

// DefaultSysfsRoot is where the kernel exposes DRM devices.
const DefaultSysfsRoot = "/sys/class/drm"

var cardPattern = regexp.MustCompile(`^card[0-9]+$`)

var pciVendorNames = map[uint64]string{
	0x1002: "Advanced Micro Devices, Inc.",
	0x10de: "NVIDIA Corporation",
	0x8086: "Intel Corporation",
}

type sysfsEnumerator struct {
	root string
	log  logr.Logger
}

// NewSysfsEnumerator enumerates GPUs from the DRM sysfs tree. The root is
// injectable for tests; production callers pass DefaultSysfsRoot.
func NewSysfsEnumerator(root string, log logr.Logger) Enumerator {
	return &sysfsEnumerator{root: root, log: log}
}

func (e *sysfsEnumerator) Enumerate() ([]DeviceInfo, error) {
	entries, err := os.ReadDir(e.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var devices []DeviceInfo
	for _, entry := range entries {
		if !cardPattern.MatchString(entry.Name()) {
			continue
		}

		index, _ := strconv.Atoi(strings.TrimPrefix(entry.Name(), "card"))
		deviceDir := filepath.Join(e.root, entry.Name(), "device")

		info := DeviceInfo{
			Handle:      Handle(index + 1),
			Name:        entry.Name(),
			Vendor:      "Unknown",
			Version:     "Unknown",
			Type:        DeviceTypeGPU | DeviceTypeDefault,
			TotalMemory: 0,
		}

		if vendorID, err := e.readHex(filepath.Join(deviceDir, "vendor")); err == nil {
			if name, known := pciVendorNames[vendorID]; known {
				info.Vendor = name
			} else {
				info.Vendor = fmt.Sprintf("0x%04x", vendorID)
			}
		}

		if deviceID, err := e.readHex(filepath.Join(deviceDir, "device")); err == nil {
			info.Name = fmt.Sprintf("%s [0x%04x]", entry.Name(), deviceID)
		}

		// Exposed by amdgpu; other drivers do not report VRAM here and
		// the device degrades to a zero-byte total.
		if vram, err := e.readUint(filepath.Join(deviceDir, "mem_info_vram_total")); err == nil {
			info.TotalMemory = vram
		} else {
			e.log.V(1).Info("no VRAM size in sysfs", "card", entry.Name())
		}

		if driver, err := os.Readlink(filepath.Join(deviceDir, "driver")); err == nil {
			info.Version = filepath.Base(driver)
		}

		devices = append(devices, info)
	}

	return devices, nil
}

func (e *sysfsEnumerator) Close() error {
	return nil
}

func (e *sysfsEnumerator) readHex(path string) (uint64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	text := strings.TrimSpace(string(raw))
	text = strings.TrimPrefix(text, "0x")
	return strconv.ParseUint(text, 16, 64)
}

func (e *sysfsEnumerator) readUint(path string) (uint64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
}
