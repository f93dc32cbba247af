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

import (
	"testing"
)

func TestBytesToMB(t *testing.T) {
	testCases := []struct {
		name     string
		input    uint64
		expected float64
	}{
		{
			name:     "zero",
			input:    0,
			expected: 0,
		},
		{
			name:     "oneMB",
			input:    1024 * 1024,
			expected: 1,
		},
		{
			name:     "eightGB",
			input:    8 * 1024 * 1024 * 1024,
			expected: 8192,
		},
		{
			name:     "halfMB",
			input:    512 * 1024,
			expected: 0.5,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if got := BytesToMB(test.input); got != test.expected {
				t.Errorf("BytesToMB(%d) = %v; want %v", test.input, got, test.expected)
			}
		})
	}
}

func TestUsagePercent(t *testing.T) {
	testCases := []struct {
		name     string
		used     uint64
		total    uint64
		expected float64
	}{
		{
			name:     "zeroTotal",
			used:     10,
			total:    0,
			expected: 0,
		},
		{
			name:     "half",
			used:     50,
			total:    100,
			expected: 50,
		},
		{
			name:     "full",
			used:     100,
			total:    100,
			expected: 100,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if got := UsagePercent(test.used, test.total); got != test.expected {
				t.Errorf("UsagePercent(%d, %d) = %v; want %v", test.used, test.total, got, test.expected)
			}
		})
	}
}
