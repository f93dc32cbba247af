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

type chainEnumerator struct {
	backends []Enumerator
	active   Enumerator
}

// NewChainEnumerator tries each backend in order and serves devices from the
// first one that enumerates at least one device. Backends that lose the
// selection are closed immediately.
func NewChainEnumerator(backends ...Enumerator) Enumerator {
	return &chainEnumerator{backends: backends}
}

func (e *chainEnumerator) Enumerate() ([]DeviceInfo, error) {
	if e.active != nil {
		return e.active.Enumerate()
	}

	var firstErr error
	for i, backend := range e.backends {
		devices, err := backend.Enumerate()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			backend.Close()
			continue
		}
		if len(devices) > 0 {
			e.active = backend
			for _, loser := range e.backends[i+1:] {
				loser.Close()
			}
			e.backends = nil
			return devices, nil
		}
		backend.Close()
	}

	e.backends = nil
	return nil, firstErr
}

func (e *chainEnumerator) Close() error {
	if e.active == nil {
		return nil
	}
	err := e.active.Close()
	e.active = nil
	return err
}
