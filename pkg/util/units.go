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

package util

const bytesPerMB = 1024 * 1024

// BytesToMB converts a byte count to mebibytes.
func BytesToMB(bytes uint64) float64 {
	return float64(bytes) / bytesPerMB
}

// UsagePercent returns used/total as a percentage. Returns 0 when total is 0.
func UsagePercent(used, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(used) / float64(total)
}
