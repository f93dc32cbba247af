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

package version

var (
	// Version is the chronos version, overridden at build time with
	// -ldflags "-X github.com/Oabraham1/chronos/pkg/version.Version=vX.Y.Z".
	Version = "main"

	// GitCommit is the git commit the binary was built from.
	GitCommit string
)
