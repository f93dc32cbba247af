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
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveMissingOsEnvDuration(t *testing.T) {
	actual, err := ResolveOsEnvDuration("missing_duration")
	assert.Nil(t, actual)
	assert.Nil(t, err)

	t.Setenv("empty_duration", "")
	actual, err = ResolveOsEnvDuration("empty_duration")
	assert.Nil(t, actual)
	assert.Nil(t, err)
}

func TestResolveInvalidOsEnvDuration(t *testing.T) {
	t.Setenv("invalid_duration", "deux heures")
	actual, err := ResolveOsEnvDuration("invalid_duration")
	assert.Equal(t, time.Duration(0), *actual)
	assert.NotNil(t, err)
}

func TestResolveValidOsEnvDuration(t *testing.T) {
	t.Setenv("valid_duration_seconds", "8s")
	actual, err := ResolveOsEnvDuration("valid_duration_seconds")
	assert.Equal(t, 8*time.Second, *actual)
	assert.Nil(t, err)
}

func TestResolveOsEnvString(t *testing.T) {
	assert.Equal(t, "fallback", ResolveOsEnvString("missing_string", "fallback"))

	t.Setenv("present_string", "/var/lock/chronos")
	assert.Equal(t, "/var/lock/chronos", ResolveOsEnvString("present_string", "fallback"))
}

func TestResolveOsEnvInt(t *testing.T) {
	actual, err := ResolveOsEnvInt("missing_int", 42)
	assert.Equal(t, 42, actual)
	assert.Nil(t, err)

	t.Setenv("present_int", "7")
	actual, err = ResolveOsEnvInt("present_int", 42)
	assert.Equal(t, 7, actual)
	assert.Nil(t, err)
}
