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

// Package platform abstracts the host facilities the partition manager depends
// on: process identity, wall clock, and the small set of file primitives used
// by the lock store. Production code uses the OS implementation; tests inject
// a fake with an in-memory filesystem and a fixed clock.
package platform

import "time"

// TimestampLayout is the wall-clock format written into lock files.
const TimestampLayout = "2006-01-02 15:04:05"

// Platform is the capability set handed to components that touch the host.
type Platform interface {
	// ProcessID returns the pid of the current process.
	ProcessID() int

	// Username returns the name of the user running the process.
	Username() string

	// Hostname returns the host name.
	Hostname() string

	// Now returns the current time. The returned value carries a monotonic
	// clock reading, so elapsed-time arithmetic is safe against wall-clock
	// jumps.
	Now() time.Time

	// CurrentTimeString returns the local wall-clock time formatted with
	// TimestampLayout.
	CurrentTimeString() string

	// TempDir returns the platform temporary directory.
	TempDir() string

	// CreateDirectory creates dir and any missing parents. Creating an
	// existing directory is not an error.
	CreateDirectory(path string) error

	// CreateLockFileAtomic creates path with the given content, failing if
	// the file already exists. The create-if-absent check and the creation
	// are a single atomic step. If the content cannot be written after the
	// file was created, the partial file is removed and an error returned.
	CreateLockFileAtomic(path string, content []byte) error

	// DeleteFile removes path. Deleting an absent file is not an error.
	DeleteFile(path string) error

	// FileExists reports whether path exists.
	FileExists(path string) bool

	// ReadFile returns the content of path.
	ReadFile(path string) ([]byte, error)

	// ListFiles returns the names of the regular files in dir. An absent
	// directory yields an empty list.
	ListFiles(dir string) ([]string, error)
}
