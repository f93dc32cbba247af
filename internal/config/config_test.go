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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", false)
	require.NoError(t, err)

	assert.Equal(t, "", cfg.LockDir)
	assert.Equal(t, time.Second, cfg.Period())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "auto", cfg.Enumerator)
	assert.Equal(t, "127.0.0.1:9395", cfg.Server.Addr)
}

func TestLoadMissingDefaultPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "chronos.yaml"), false)
	assert.NoError(t, err)
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "chronos.yaml"), true)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronos.yaml")
	content := `
lockDir: /var/lock/chronos
monitorPeriod: 500ms
logLevel: debug
enumerator: static
staticDevices:
  - name: Test GPU
    vendor: Test Vendor
    totalMemory: 1073741824
server:
  addr: 127.0.0.1:9999
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "/var/lock/chronos", cfg.LockDir)
	assert.Equal(t, 500*time.Millisecond, cfg.Period())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "static", cfg.Enumerator)
	require.Len(t, cfg.StaticDevices, 1)
	assert.Equal(t, "Test GPU", cfg.StaticDevices[0].Name)
	assert.Equal(t, uint64(1<<30), cfg.StaticDevices[0].TotalMemory)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CHRONOS_LOCK_DIR", "/run/chronos")
	t.Setenv("CHRONOS_MONITOR_PERIOD", "2s")
	t.Setenv("CHRONOS_LOG_LEVEL", "error")

	cfg, err := Load("", false)
	require.NoError(t, err)

	assert.Equal(t, "/run/chronos", cfg.LockDir)
	assert.Equal(t, 2*time.Second, cfg.Period())
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronos.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logLevel: loud\n"), 0o644))

	_, err := Load(path, true)
	assert.Error(t, err)
}

func TestLoadRejectsTightMonitorPeriod(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronos.yaml")
	require.NoError(t, os.WriteFile(path, []byte("monitorPeriod: 10ms\n"), 0o644))

	_, err := Load(path, true)
	assert.Error(t, err)
}

func TestLoadRejectsStaticDeviceWithoutMemory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronos.yaml")
	content := `
staticDevices:
  - name: Test GPU
    totalMemory: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path, true)
	assert.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronos.yaml")
	require.NoError(t, os.WriteFile(path, []byte("monitorPeriod: soon\n"), 0o644))

	_, err := Load(path, true)
	assert.Error(t, err)
}
