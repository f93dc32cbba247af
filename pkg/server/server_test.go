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

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/phayes/freeport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oabraham1/chronos/pkg/gpu"
	"github.com/Oabraham1/chronos/pkg/lockstore"
	"github.com/Oabraham1/chronos/pkg/partition"
	"github.com/Oabraham1/chronos/pkg/platform"
	"github.com/Oabraham1/chronos/pkg/registry"
)

func startTestServer(t *testing.T) (*partition.Manager, string) {
	t.Helper()

	fake := platform.NewFake()
	reg, err := registry.New(gpu.NewStaticEnumerator([]gpu.DeviceInfo{
		{Name: "Test GPU 0", Vendor: "Test Vendor", Version: "1.0", TotalMemory: 1 << 30},
	}), logr.Discard())
	require.NoError(t, err)

	locks := lockstore.NewFileStore("", fake, logr.Discard())
	manager := partition.NewManager(reg, locks, fake, logr.Discard())
	t.Cleanup(func() { manager.Close() })

	port, err := freeport.GetFreePort()
	require.NoError(t, err)
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := New(manager, addr, logr.Discard())
	go func() { _ = srv.Run(ctx) }()

	base := "http://" + addr
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond, "server did not come up")

	return manager, base
}

func getBody(t *testing.T, url string) []byte {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return body
}

func TestHealthz(t *testing.T) {
	_, base := startTestServer(t)
	assert.Equal(t, "ok", string(getBody(t, base+"/healthz")))
}

func TestPartitionsEndpoint(t *testing.T) {
	manager, base := startTestServer(t)

	var snapshots []partition.Snapshot
	require.NoError(t, json.Unmarshal(getBody(t, base+"/api/v1/partitions"), &snapshots))
	assert.Empty(t, snapshots)

	id, err := manager.Create(0, 0.25, 600)
	require.NoError(t, err)

	require.NoError(t, json.Unmarshal(getBody(t, base+"/api/v1/partitions"), &snapshots))
	require.Len(t, snapshots, 1)
	assert.Equal(t, id, snapshots[0].ID)
	assert.Equal(t, "Test GPU 0", snapshots[0].DeviceName)
}

func TestDevicesEndpoint(t *testing.T) {
	_, base := startTestServer(t)

	var stats []partition.DeviceStat
	require.NoError(t, json.Unmarshal(getBody(t, base+"/api/v1/devices"), &stats))
	require.Len(t, stats, 1)
	assert.Equal(t, "Test GPU 0", stats[0].Name)
	assert.Equal(t, uint64(1<<30), stats[0].AvailableMemory)
}

func TestLocksEndpoint(t *testing.T) {
	manager, base := startTestServer(t)

	_, err := manager.Create(0, 0.5, 600)
	require.NoError(t, err)

	var infos []lockstore.Info
	require.NoError(t, json.Unmarshal(getBody(t, base+"/api/v1/locks"), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, 500, infos[0].PercentMil)
}

func TestMetricsEndpoint(t *testing.T) {
	_, base := startTestServer(t)

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
