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

// Package hypsolvepath calculates filesystem paths to hypsolve's
// configuration, cache and data.
package hypsolvepath

const lp = lazypath("hypsolve")

// RepositoryFileName is the name of the global repositories file.
const RepositoryFileName = "repositories.yaml"

// ConfigPath returns the path where hypsolve stores configuration.
func ConfigPath(elem ...string) string { return lp.configPath(elem...) }

// CachePath returns the path where hypsolve stores cached objects.
func CachePath(elem ...string) string { return lp.cachePath(elem...) }

// DataPath returns the path where hypsolve stores data.
func DataPath(elem ...string) string { return lp.dataPath(elem...) }

// RepositoryFile returns the default path of the global repositories file.
func RepositoryFile() string { return ConfigPath(RepositoryFileName) }
