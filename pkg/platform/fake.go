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
	"sync"
	"time"

	"github.com/pkg/errors"
)

// MemFS is an in-memory filesystem shared between Fake instances. Two fakes
// holding the same MemFS model two processes sharing one lock directory.
type MemFS struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool
}

// NewMemFS returns an empty in-memory filesystem.
func NewMemFS() *MemFS {
	return &MemFS{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// FakeClock is a manually advanced clock.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock returns a clock set to start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Fake is a Platform over an in-memory filesystem with a fixed identity and a
// controllable clock.
type Fake struct {
	FS    *MemFS
	Clock *FakeClock
	User  string
	Host  string
	PID   int
	Temp  string

	// DeleteError, when set, is returned by every DeleteFile call. Used to
	// exercise the release path's tolerance of lock-store failures.
	DeleteError error
}

// NewFake returns a Fake with a fresh filesystem and a clock fixed at an
// arbitrary instant.
func NewFake() *Fake {
	return &Fake{
		FS:    NewMemFS(),
		Clock: NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)),
		User:  "tester",
		Host:  "testhost",
		PID:   4242,
		Temp:  "/tmp",
	}
}

// WithUser returns a Fake for a different user and pid that shares this
// fake's filesystem and clock, modelling a second cooperating process.
func (f *Fake) WithUser(name string, pid int) *Fake {
	return &Fake{
		FS:    f.FS,
		Clock: f.Clock,
		User:  name,
		Host:  f.Host,
		PID:   pid,
		Temp:  f.Temp,
	}
}

func (f *Fake) ProcessID() int {
	return f.PID
}

func (f *Fake) Username() string {
	return f.User
}

func (f *Fake) Hostname() string {
	return f.Host
}

func (f *Fake) Now() time.Time {
	return f.Clock.Now()
}

func (f *Fake) CurrentTimeString() string {
	return f.Clock.Now().Format(TimestampLayout)
}

func (f *Fake) TempDir() string {
	return f.Temp
}

func (f *Fake) CreateDirectory(path string) error {
	f.FS.mu.Lock()
	defer f.FS.mu.Unlock()
	f.FS.dirs[filepath.Clean(path)] = true
	return nil
}

func (f *Fake) CreateLockFileAtomic(path string, content []byte) error {
	f.FS.mu.Lock()
	defer f.FS.mu.Unlock()
	path = filepath.Clean(path)
	if _, exists := f.FS.files[path]; exists {
		return errors.Errorf("creating lock file %s: file exists", path)
	}
	f.FS.files[path] = append([]byte(nil), content...)
	return nil
}

func (f *Fake) DeleteFile(path string) error {
	if f.DeleteError != nil {
		return f.DeleteError
	}
	f.FS.mu.Lock()
	defer f.FS.mu.Unlock()
	delete(f.FS.files, filepath.Clean(path))
	return nil
}

func (f *Fake) FileExists(path string) bool {
	f.FS.mu.Lock()
	defer f.FS.mu.Unlock()
	_, exists := f.FS.files[filepath.Clean(path)]
	return exists
}

func (f *Fake) ReadFile(path string) ([]byte, error) {
	f.FS.mu.Lock()
	defer f.FS.mu.Unlock()
	content, exists := f.FS.files[filepath.Clean(path)]
	if !exists {
		return nil, os.ErrNotExist
	}
	return append([]byte(nil), content...), nil
}

func (f *Fake) ListFiles(dir string) ([]string, error) {
	f.FS.mu.Lock()
	defer f.FS.mu.Unlock()
	dir = filepath.Clean(dir)
	var names []string
	for path := range f.FS.files {
		if filepath.Dir(path) == dir {
			names = append(names, filepath.Base(path))
		}
	}
	return names, nil
}
