/*
Copyright SUSE LLC.

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

package repo

import (
	"runtime"
	"sort"
	"strings"
)

// PlatformRepositoryName names the repository of runtime capabilities.
const PlatformRepositoryName = "platform"

// NewPlatformRepository describes the running platform: the Go runtime as
// `go`, the operating system as `os-<goos>` and the architecture as
// `arch-<goarch>`. Overrides replace the version of a platform package or
// add a new one; an empty override version removes the package.
func NewPlatformRepository(overrides map[string]string) *ArrayRepository {
	detected := map[string]string{
		"os-" + runtime.GOOS:     "1.0.0",
		"arch-" + runtime.GOARCH: "1.0.0",
	}
	if v := goVersion(runtime.Version()); v != "" {
		detected["go"] = v
	}
	for name, v := range overrides {
		detected[strings.ToLower(name)] = v
	}

	names := make([]string, 0, len(detected))
	for n := range detected {
		names = append(names, n)
	}
	sort.Strings(names)

	r := NewArrayRepository(PlatformRepositoryName)
	for _, n := range names {
		if detected[n] == "" {
			continue
		}
		r.Add(&Descriptor{Name: n, Version: detected[n], Description: "platform package"})
	}
	return r
}

// goVersion turns runtime.Version output such as go1.21.3 into 1.21.3.
// Development builds have no usable version.
func goVersion(s string) string {
	if !strings.HasPrefix(s, "go") || strings.ContainsAny(s, " +") {
		return ""
	}
	return strings.TrimPrefix(s, "go")
}

// IsPlatformName reports whether name looks like a platform package.
func IsPlatformName(name string) bool {
	return name == "go" || strings.HasPrefix(name, "os-") || strings.HasPrefix(name, "arch-")
}
