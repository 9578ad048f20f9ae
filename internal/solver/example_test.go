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

package solver

import (
	"context"
	"fmt"

	"github.com/rancher-sandbox/hypsolve/internal/pool"
	"github.com/rancher-sandbox/hypsolve/internal/rules"
	"github.com/rancher-sandbox/hypsolve/internal/version"
	"github.com/rancher-sandbox/hypsolve/pkg/repo"
)

func ExampleSolver() {
	// a repository with a few versions of a library and one application
	r := repo.NewArrayRepository("acme",
		&repo.Descriptor{Name: "acme/log", Version: "1.0.0"},
		&repo.Descriptor{Name: "acme/log", Version: "1.1.0"},
		&repo.Descriptor{Name: "acme/log", Version: "2.0.0"},
		&repo.Descriptor{Name: "acme/app", Version: "1.0.0", Requires: map[string]string{"acme/log": "^1.0"}},
	)

	// load everything reachable from the root requirement
	p, err := pool.NewBuilder(quietLogger()).Build(context.Background(), pool.Request{
		Requires:     []pool.Requirement{{Name: "acme/app", Constraint: version.MatchAll{}}},
		Repositories: []repo.Repository{r},
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	s := New(p)
	res := s.Solve(context.Background(), []*rules.Job{
		{Action: rules.ActionInstall, Name: "acme/app", Constraint: version.MatchAll{}, Pretty: "*"},
	})

	fmt.Println(res.Status)
	for _, pk := range res.Packages {
		fmt.Println(pk)
	}

	// Output:
	// solved
	// acme/app 1.0.0
	// acme/log 1.1.0
}

func ExampleReport() {
	r := repo.NewArrayRepository("acme",
		&repo.Descriptor{Name: "acme/log", Version: "1.0.0"},
		&repo.Descriptor{Name: "acme/log", Version: "2.0.0"},
		&repo.Descriptor{Name: "acme/app", Version: "1.0.0", Requires: map[string]string{"acme/log": "^3.0"}},
	)
	p, err := pool.NewBuilder(quietLogger()).Build(context.Background(), pool.Request{
		Requires:     []pool.Requirement{{Name: "acme/app", Constraint: version.MatchAll{}}},
		Repositories: []repo.Repository{r},
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	res := New(p).Solve(context.Background(), []*rules.Job{
		{Action: rules.ActionInstall, Name: "acme/app", Constraint: version.MatchAll{}, Pretty: "*"},
	})
	fmt.Print(Report(res.Problems))

	// Output:
	// Problem 1
	//   - Root requires acme/app * -> satisfiable by acme/app[1.0.0].
	//   - acme/app 1.0.0 requires acme/log ^3.0 -> found acme/log[1.0.0, 2.0.0] but these do not match the constraint.
}
