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

package partition

import "errors"

// The failure kinds every public operation can signal. Callers match with
// errors.Is; the wrapped message names the offending argument or the
// contending owner.
var (
	// ErrInvalidArgument is returned for an out-of-range device index, a
	// memory fraction outside (0,1], or a non-positive duration.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInsufficientMemory is returned when admission would reserve more
	// memory than the device has available.
	ErrInsufficientMemory = errors.New("insufficient memory")

	// ErrContended is returned when the requested fraction slot is locked
	// by a different owner, or the atomic lock create fails because the
	// slot's lock file already exists (a race lost to a foreign process,
	// or a slot the same user already holds).
	ErrContended = errors.New("partition slot contended")

	// ErrPermissionDenied is returned when a release is attempted by a
	// user other than the partition's owner.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a release targets an unknown or
	// already-inactive partition.
	ErrNotFound = errors.New("partition not found")
)
