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
	"os/user"
	"time"

	"github.com/pkg/errors"
)

type osPlatform struct{}

// NewOSPlatform returns the Platform backed by the real host.
func NewOSPlatform() Platform {
	return osPlatform{}
}

func (osPlatform) ProcessID() int {
	return os.Getpid()
}

func (osPlatform) Username() string {
	u, err := user.Current()
	if err != nil {
		return os.Getenv("USER")
	}
	return u.Username
}

func (osPlatform) Hostname() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

func (osPlatform) Now() time.Time {
	return time.Now()
}

func (osPlatform) CurrentTimeString() string {
	return time.Now().Format(TimestampLayout)
}

func (osPlatform) TempDir() string {
	return os.TempDir()
}

func (osPlatform) CreateDirectory(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (osPlatform) CreateLockFileAtomic(path string, content []byte) error {
	// O_EXCL makes create-if-absent a single atomic step on every
	// mainstream filesystem, which is what the cross-process admission
	// protocol relies on.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrapf(err, "creating lock file %s", path)
	}

	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(path)
		return errors.Wrapf(err, "writing lock file %s", path)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return errors.Wrapf(err, "closing lock file %s", path)
	}

	return nil
}

func (osPlatform) DeleteFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", path)
	}
	return nil
}

func (osPlatform) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (osPlatform) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (osPlatform) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "listing %s", dir)
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
