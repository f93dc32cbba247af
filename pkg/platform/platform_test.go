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

package platform

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSCreateLockFileAtomic(t *testing.T) {
	p := NewOSPlatform()
	path := filepath.Join(t.TempDir(), "slot.lock")

	require.NoError(t, p.CreateLockFileAtomic(path, []byte("user: alice\n")))
	assert.True(t, p.FileExists(path))

	err := p.CreateLockFileAtomic(path, []byte("user: bob\n"))
	assert.Error(t, err, "second exclusive create on the same path must fail")

	content, readErr := p.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "user: alice\n", string(content), "loser of the race must not clobber the winner")
}

func TestOSDeleteFileAbsent(t *testing.T) {
	p := NewOSPlatform()
	assert.NoError(t, p.DeleteFile(filepath.Join(t.TempDir(), "never-created.lock")))
}

func TestOSListFilesAbsentDir(t *testing.T) {
	p := NewOSPlatform()
	names, err := p.ListFiles(filepath.Join(t.TempDir(), "no-such-dir"))
	assert.NoError(t, err)
	assert.Empty(t, names)
}

func TestOSCreateDirectoryIdempotent(t *testing.T) {
	p := NewOSPlatform()
	dir := filepath.Join(t.TempDir(), "locks")
	require.NoError(t, p.CreateDirectory(dir))
	assert.NoError(t, p.CreateDirectory(dir))
}

func TestFakeSharedFilesystem(t *testing.T) {
	a := NewFake()
	b := a.WithUser("mallory", 9001)

	require.NoError(t, a.CreateLockFileAtomic("/tmp/chronos_locks/gpu_0_0250.lock", []byte("user: tester\n")))

	assert.True(t, b.FileExists("/tmp/chronos_locks/gpu_0_0250.lock"))
	err := b.CreateLockFileAtomic("/tmp/chronos_locks/gpu_0_0250.lock", []byte("user: mallory\n"))
	assert.Error(t, err)

	content, readErr := b.ReadFile("/tmp/chronos_locks/gpu_0_0250.lock")
	require.NoError(t, readErr)
	assert.Equal(t, "user: tester\n", string(content))
}

func TestFakeReadFileAbsent(t *testing.T) {
	f := NewFake()
	_, err := f.ReadFile("/tmp/absent")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFakeClockAdvance(t *testing.T) {
	f := NewFake()
	before := f.Now()
	f.Clock.Advance(90 * time.Second)
	assert.Equal(t, 90*time.Second, f.Now().Sub(before))
}

func TestFakeListFiles(t *testing.T) {
	f := NewFake()
	require.NoError(t, f.CreateLockFileAtomic("/tmp/chronos_locks/gpu_0_0100.lock", nil))
	require.NoError(t, f.CreateLockFileAtomic("/tmp/chronos_locks/gpu_1_0500.lock", nil))
	require.NoError(t, f.CreateLockFileAtomic("/tmp/other/file", nil))

	names, err := f.ListFiles("/tmp/chronos_locks")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"gpu_0_0100.lock", "gpu_1_0500.lock"}, names)
}
