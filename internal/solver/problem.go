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
	"fmt"
	"sort"
	"strings"

	"github.com/rancher-sandbox/hypsolve/internal/pkg"
	"github.com/rancher-sandbox/hypsolve/internal/pool"
	"github.com/rancher-sandbox/hypsolve/internal/rules"
	"github.com/rancher-sandbox/hypsolve/internal/version"
)

// Problem is a set of rules that cannot be satisfied together.
type Problem struct {
	pool  *pool.Pool
	rules []*rules.Rule
}

// problem walks back from the level 0 conflict through the reasons of every
// assignment involved. Learned rules are replaced by the rules they were
// derived from.
func (sr *search) problem() *Problem {
	pr := &Problem{pool: sr.solver.pool}
	visited := make([]bool, len(sr.values))
	seen := map[*rules.Rule]bool{}

	queue := []*rules.Rule{sr.conflict}
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		if seen[r] {
			continue
		}
		seen[r] = true

		if r.Reason == rules.LearnedClause {
			queue = append(queue, r.Why...)
		} else {
			pr.rules = append(pr.rules, r)
		}
		for _, l := range r.Literals {
			id := l.ID()
			if visited[id] || sr.values[id] == 0 {
				continue
			}
			visited[id] = true
			if reason := sr.reasons[id]; reason != nil {
				queue = append(queue, reason)
			}
		}
	}

	sort.SliceStable(pr.rules, func(i, j int) bool {
		a, b := pr.rules[i], pr.rules[j]
		if ja, jb := a.Job != nil, b.Job != nil; ja != jb {
			return ja
		}
		return a.ID < b.ID
	})
	return pr
}

// Rules returns the rules of the problem, job rules first.
func (p *Problem) Rules() []*rules.Rule {
	return p.rules
}

// JobRules returns the rules of the problem that come from jobs.
func (p *Problem) JobRules() []*rules.Rule {
	var out []*rules.Rule
	for _, r := range p.rules {
		if r.Job != nil {
			out = append(out, r)
		}
	}
	return out
}

// Lines describes each rule of the problem in a sentence, requirements of
// the jobs first.
func (p *Problem) Lines() []string {
	var lines []string
	seen := map[string]bool{}
	for _, r := range p.rules {
		l := p.describe(r)
		if seen[l] {
			continue
		}
		seen[l] = true
		lines = append(lines, l)
	}
	return lines
}

func (p *Problem) String() string {
	var sb strings.Builder
	for _, l := range p.Lines() {
		fmt.Fprintf(&sb, "  - %s\n", l)
	}
	return sb.String()
}

// Report renders problems as numbered blocks.
func Report(problems []*Problem) string {
	var sb strings.Builder
	for i, pr := range problems {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Problem %d\n", i+1)
		sb.WriteString(pr.String())
	}
	return sb.String()
}

func (p *Problem) describe(r *rules.Rule) string {
	switch r.Reason {
	case rules.RootRequire:
		return p.describeRequire("Root requires", r.Job.Name, r.Job.Constraint, jobPretty(r.Job), r)

	case rules.JobRule:
		return p.describeJob(r)

	case rules.PackageRequire:
		return p.describeRequire(r.Package.String()+" requires", r.Link.Target, r.Link.Constraint, r.Link.Pretty, r)

	case rules.PackageConflict:
		other := p.packages(r)[1]
		return fmt.Sprintf("%s conflicts with %s %s, matched by %s.", r.Package, r.Link.Target, r.Link.Pretty, other)

	case rules.SameNamePackagesConflict:
		pkgs := p.packages(r)
		a, b := pkgs[0], pkgs[1]
		line := fmt.Sprintf("Only one of these can be installed: %s, %s.", a, b)
		if why := replacement(a, b); why != "" {
			line += " " + why
		}
		return line

	case rules.PackageAlias:
		return fmt.Sprintf("%s is an alias of %s and thus requires it to be installed too.", r.Package, r.Package.AliasOf)

	case rules.PackageInverseAlias:
		alias := p.packages(r)[1]
		return fmt.Sprintf("%s is aliased as %s, which is installed along with it.", r.Package, alias)
	}
	return r.Format(p.pool)
}

func (p *Problem) describeRequire(subject, name string, c version.Constraint, pretty string, r *rules.Rule) string {
	var candidates []*pkg.Pkg
	for _, l := range r.Literals {
		if l.Positive() {
			candidates = append(candidates, p.pool.PackageByID(l.ID()))
		}
	}
	prefix := fmt.Sprintf("%s %s %s", subject, pkg.NormalizeName(name), pretty)
	if len(candidates) > 0 {
		return fmt.Sprintf("%s -> satisfiable by %s.", prefix, listPackages(candidates))
	}
	return prefix + " -> " + p.missing(pkg.NormalizeName(name), c)
}

// missing explains why nothing satisfies a requirement on name.
func (p *Problem) missing(name string, c version.Constraint) string {
	if c == nil {
		c = version.MatchAll{}
	}
	var unstable []*pkg.Pkg
	for _, r := range p.pool.Rejected(name) {
		if c.Matches(r.Version) {
			unstable = append(unstable, r)
		}
	}
	if len(unstable) > 0 {
		return fmt.Sprintf("found %s but %s not match the minimum stability.", listPackages(unstable), doVerb(unstable))
	}
	if found := p.pool.PackagesByName(name); len(found) > 0 {
		return fmt.Sprintf("found %s but %s not match the constraint.", listPackages(found), doVerb(found))
	}
	if rejected := p.pool.Rejected(name); len(rejected) > 0 {
		return fmt.Sprintf("found %s but %s not match the constraint nor the minimum stability.", listPackages(rejected), doVerb(rejected))
	}
	return "it could not be found in any version, there may be a typo in the package name."
}

func (p *Problem) describeJob(r *rules.Rule) string {
	j := r.Job
	name := pkg.NormalizeName(j.Name)
	switch j.Action {
	case rules.ActionRemove:
		return fmt.Sprintf("Removal of %s %s was requested, so %s cannot be installed.", name, jobPretty(j), p.packages(r)[0])
	case rules.ActionLock:
		if r.IsEmpty() {
			return fmt.Sprintf("%s %s is locked -> %s", name, jobPretty(j), p.missing(name, j.Constraint))
		}
		return fmt.Sprintf("%s %s is locked to %s.", name, jobPretty(j), listPackages(p.packages(r)))
	}
	return r.Format(p.pool)
}

func (p *Problem) packages(r *rules.Rule) []*pkg.Pkg {
	out := make([]*pkg.Pkg, len(r.Literals))
	for i, l := range r.Literals {
		out[i] = p.pool.PackageByID(l.ID())
	}
	return out
}

// replacement explains why two packages of different names exclude each
// other.
func replacement(a, b *pkg.Pkg) string {
	if replaces(b, a.Name) {
		return fmt.Sprintf("%s replaces %s and thus cannot coexist with it.", b.Name, a.Name)
	}
	if replaces(a, b.Name) {
		return fmt.Sprintf("%s replaces %s and thus cannot coexist with it.", a.Name, b.Name)
	}
	for _, l := range a.Replaces {
		if replaces(b, l.Target) {
			return fmt.Sprintf("They both replace %s and thus cannot coexist.", l.Target)
		}
	}
	return ""
}

func replaces(p *pkg.Pkg, name string) bool {
	for _, l := range p.Replaces {
		if l.Target == name {
			return true
		}
	}
	return false
}

// listPackages renders packages grouped by name, as in "b[1.0.0, 1.1.0]".
func listPackages(pkgs []*pkg.Pkg) string {
	sorted := append([]*pkg.Pkg(nil), pkgs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return version.Compare(sorted[i].Version, sorted[j].Version) < 0
	})

	var groups []string
	for i := 0; i < len(sorted); {
		j := i
		var versions []string
		for ; j < len(sorted) && sorted[j].Name == sorted[i].Name; j++ {
			versions = append(versions, sorted[j].PrettyVersion)
		}
		groups = append(groups, fmt.Sprintf("%s[%s]", sorted[i].Name, strings.Join(versions, ", ")))
		i = j
	}
	return strings.Join(groups, ", ")
}

func doVerb(pkgs []*pkg.Pkg) string {
	if len(pkgs) == 1 {
		return "it does"
	}
	return "these do"
}

func jobPretty(j *rules.Job) string {
	if j.Pretty != "" {
		return j.Pretty
	}
	if j.Constraint == nil {
		return "*"
	}
	return j.Constraint.String()
}
