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

// Package lockstore gives independent processes a shared on-disk rendezvous
// per (device, fraction) slot. The only primitive it relies on is atomic
// exclusive file creation, so any two cooperating processes on the same host
// agree on who holds a slot regardless of user boundaries.
package lockstore

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/Oabraham1/chronos/pkg/platform"
)

// DefaultDirName is the lock directory created under the platform temp
// directory when no explicit base path is configured.
const DefaultDirName = "chronos_locks"

const ownerKeyPrefix = "user: "

var lockNamePattern = regexp.MustCompile(`^gpu_([0-9]+)_([0-9]{4})\.lock$`)

// PercentMil quantizes a memory fraction to tenths of a percent. Two
// fractions that round to the same value collide in the store; 0.1%
// granularity is part of the cross-process contract.
func PercentMil(fraction float32) int {
	return int(math.Round(float64(fraction) * 1000))
}

// Content is the metadata written into a lock file at creation.
type Content struct {
	PID         int
	User        string
	Host        string
	Time        string
	DeviceIndex int
	Fraction    float32
	Partition   string
}

// Render produces the on-disk plaintext block. Exactly these seven keys, in
// this order, one per line, trailing newline.
func (c Content) Render() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "pid: %d\n", c.PID)
	fmt.Fprintf(&b, "user: %s\n", c.User)
	fmt.Fprintf(&b, "host: %s\n", c.Host)
	fmt.Fprintf(&b, "time: %s\n", c.Time)
	fmt.Fprintf(&b, "device: %d\n", c.DeviceIndex)
	fmt.Fprintf(&b, "fraction: %v\n", c.Fraction)
	fmt.Fprintf(&b, "partition: %s\n", c.Partition)
	return []byte(b.String())
}

// Info describes one lock file found in the store, including locks created
// by foreign processes.
type Info struct {
	Path        string
	DeviceIndex int
	PercentMil  int
	PID         string
	User        string
	Host        string
	Time        string
	Partition   string
}

// Store is the lock-file interface used by admission and release.
type Store interface {
	// Create atomically creates the lock for (deviceIdx, fraction) with the
	// given content. It fails if the slot is already held, including by a
	// foreign process racing on the same slot.
	Create(deviceIdx int, fraction float32, content Content) error

	// Delete frees the slot. An absent lock file is not an error.
	Delete(deviceIdx int, fraction float32) error

	// Exists reports whether the slot is held.
	Exists(deviceIdx int, fraction float32) bool

	// Owner returns the user recorded in the slot's lock file, or the
	// empty string when the file or the user line is absent.
	Owner(deviceIdx int, fraction float32) string

	// Path returns the lock file path for the slot.
	Path(deviceIdx int, fraction float32) string

	// List enumerates every lock file in the store with parsed metadata,
	// foreign processes' locks included.
	List() ([]Info, error)

	// BaseDir returns the directory holding the lock files.
	BaseDir() string
}

type fileStore struct {
	base string
	plat platform.Platform
	log  logr.Logger
}

// NewFileStore returns a Store rooted at base. The directory is created
// idempotently; failure to create it is logged but does not prevent the
// store from functioning, since individual operations surface their own
// errors.
func NewFileStore(base string, plat platform.Platform, log logr.Logger) Store {
	if base == "" {
		base = filepath.Join(plat.TempDir(), DefaultDirName)
	}
	if err := plat.CreateDirectory(base); err != nil {
		log.Error(err, "failed to create lock directory", "dir", base)
	}
	return &fileStore{base: base, plat: plat, log: log}
}

func (s *fileStore) Path(deviceIdx int, fraction float32) string {
	return filepath.Join(s.base, fmt.Sprintf("gpu_%d_%04d.lock", deviceIdx, PercentMil(fraction)))
}

func (s *fileStore) Create(deviceIdx int, fraction float32, content Content) error {
	return s.plat.CreateLockFileAtomic(s.Path(deviceIdx, fraction), content.Render())
}

func (s *fileStore) Delete(deviceIdx int, fraction float32) error {
	return s.plat.DeleteFile(s.Path(deviceIdx, fraction))
}

func (s *fileStore) Exists(deviceIdx int, fraction float32) bool {
	return s.plat.FileExists(s.Path(deviceIdx, fraction))
}

func (s *fileStore) Owner(deviceIdx int, fraction float32) string {
	raw, err := s.plat.ReadFile(s.Path(deviceIdx, fraction))
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.HasPrefix(line, ownerKeyPrefix) {
			return line[len(ownerKeyPrefix):]
		}
	}
	return ""
}

func (s *fileStore) List() ([]Info, error) {
	names, err := s.plat.ListFiles(s.base)
	if err != nil {
		return nil, err
	}

	var infos []Info
	for _, name := range names {
		match := lockNamePattern.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		deviceIdx, _ := strconv.Atoi(match[1])
		percentMil, _ := strconv.Atoi(match[2])

		info := Info{
			Path:        filepath.Join(s.base, name),
			DeviceIndex: deviceIdx,
			PercentMil:  percentMil,
		}

		if raw, err := s.plat.ReadFile(info.Path); err == nil {
			for _, line := range strings.Split(string(raw), "\n") {
				switch {
				case strings.HasPrefix(line, "pid: "):
					info.PID = line[len("pid: "):]
				case strings.HasPrefix(line, "user: "):
					info.User = line[len("user: "):]
				case strings.HasPrefix(line, "host: "):
					info.Host = line[len("host: "):]
				case strings.HasPrefix(line, "time: "):
					info.Time = line[len("time: "):]
				case strings.HasPrefix(line, "partition: "):
					info.Partition = line[len("partition: "):]
				}
			}
		}

		infos = append(infos, info)
	}

	return infos, nil
}

func (s *fileStore) BaseDir() string {
	return s.base
}
