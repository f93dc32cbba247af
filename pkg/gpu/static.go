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

type staticEnumerator struct {
	devices []DeviceInfo
}

// NewStaticEnumerator returns an enumerator over a fixed device list, used
// for config-declared devices and in tests.
func NewStaticEnumerator(devices []DeviceInfo) Enumerator {
	out := make([]DeviceInfo, len(devices))
	copy(out, devices)
	for i := range out {
		if out[i].Handle == 0 {
			out[i].Handle = Handle(i + 1)
		}
		if out[i].Type == 0 {
			out[i].Type = DeviceTypeGPU | DeviceTypeDefault
		}
		if out[i].Name == "" {
			out[i].Name = "Unknown"
		}
		if out[i].Vendor == "" {
			out[i].Vendor = "Unknown"
		}
		if out[i].Version == "" {
			out[i].Version = "Unknown"
		}
	}
	return &staticEnumerator{devices: out}
}

func (e *staticEnumerator) Enumerate() ([]DeviceInfo, error) {
	out := make([]DeviceInfo, len(e.devices))
	copy(out, e.devices)
	return out, nil
}

func (e *staticEnumerator) Close() error {
	return nil
}
