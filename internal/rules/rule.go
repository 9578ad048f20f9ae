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

package rules

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rancher-sandbox/hypsolve/internal/pkg"
	"github.com/rancher-sandbox/hypsolve/internal/pool"
)

// Reason says why a rule exists.
type Reason int

const (
	// RootRequire comes from an install or update job.
	RootRequire Reason = iota
	// PackageRequire comes from a requires link.
	PackageRequire
	// PackageConflict comes from a conflicts link.
	PackageConflict
	// SameNamePackagesConflict keeps two versions of a name (or a name
	// and its replacer) from being installed together.
	SameNamePackagesConflict
	// LearnedClause was derived by the solver from a conflict.
	LearnedClause
	// JobRule comes from a remove or lock job.
	JobRule
	// PackageAlias makes an alias package require its target.
	PackageAlias
	// PackageInverseAlias makes a package bring its alias along.
	PackageInverseAlias
)

var reasonNames = map[Reason]string{
	RootRequire:              "RootRequire",
	PackageRequire:           "PackageRequire",
	PackageConflict:          "PackageConflict",
	SameNamePackagesConflict: "SameNamePackagesConflict",
	LearnedClause:            "LearnedClause",
	JobRule:                  "Job",
	PackageAlias:             "PackageAlias",
	PackageInverseAlias:      "PackageInverseAlias",
}

func (r Reason) String() string {
	return reasonNames[r]
}

// Rule is a disjunction of literals.
type Rule struct {
	Literals []Literal
	Reason   Reason

	// Package is the package whose link produced the rule.
	Package *pkg.Pkg
	// Link is the requires or conflicts link behind a package rule.
	Link *pkg.Link
	// Job is the job behind RootRequire and JobRule rules.
	Job *Job
	// Why lists the rules a learned rule was derived from.
	Why []*Rule

	// ID is the position in the rule set, assigned when added.
	ID       int
	disabled bool
}

// NewRule creates a rule over literals, keeping their order.
func NewRule(literals []Literal, reason Reason) *Rule {
	return &Rule{Literals: literals, Reason: reason}
}

// IsAssertion reports whether the rule has a single literal.
func (r *Rule) IsAssertion() bool {
	return len(r.Literals) == 1
}

// IsEmpty reports whether the rule can never be satisfied.
func (r *Rule) IsEmpty() bool {
	return len(r.Literals) == 0
}

// Disabled reports whether the rule is ignored by the solver.
func (r *Rule) Disabled() bool {
	return r.disabled
}

// Disable makes the solver ignore the rule.
func (r *Rule) Disable() {
	r.disabled = true
}

// Enable reverses Disable.
func (r *Rule) Enable() {
	r.disabled = false
}

// key identifies rules with the same literals regardless of order.
func (r *Rule) key() string {
	lits := make([]int, len(r.Literals))
	for i, l := range r.Literals {
		lits[i] = int(l)
	}
	sort.Ints(lits)
	parts := make([]string, len(lits))
	for i, l := range lits {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, "|")
}

func (r *Rule) String() string {
	parts := make([]string, len(r.Literals))
	for i, l := range r.Literals {
		parts[i] = l.String()
	}
	return "(" + strings.Join(parts, "|") + ") [" + r.Reason.String() + "]"
}

// Format renders the rule with package names instead of IDs.
func (r *Rule) Format(p *pool.Pool) string {
	parts := make([]string, len(r.Literals))
	for i, l := range r.Literals {
		prefix := ""
		if !l.Positive() {
			prefix = "-"
		}
		parts[i] = prefix + p.PackageByID(l.ID()).String()
	}
	return "(" + strings.Join(parts, " | ") + ") [" + r.Reason.String() + "]"
}

// RuleSet holds the rules of one resolution, grouped as the solver consumes
// them: job rules, package rules, learned rules.
type RuleSet struct {
	jobRules     []*Rule
	packageRules []*Rule
	learnedRules []*Rule
	all          []*Rule
	keys         map[string]*Rule
	jobs         []*Job
}

// NewRuleSet creates an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{keys: map[string]*Rule{}}
}

// Add appends r and returns it. A package rule with the same literals as an
// existing one is dropped and the existing rule returned instead; job and
// learned rules are always kept so that each can be reported on its own.
func (rs *RuleSet) Add(r *Rule) *Rule {
	if isPackageReason(r.Reason) {
		k := r.key()
		if existing, ok := rs.keys[k]; ok {
			return existing
		}
		rs.keys[k] = r
	}
	r.ID = len(rs.all)
	rs.all = append(rs.all, r)
	switch r.Reason {
	case RootRequire, JobRule:
		rs.jobRules = append(rs.jobRules, r)
	case LearnedClause:
		rs.learnedRules = append(rs.learnedRules, r)
	default:
		rs.packageRules = append(rs.packageRules, r)
	}
	return r
}

func isPackageReason(r Reason) bool {
	switch r {
	case RootRequire, JobRule, LearnedClause:
		return false
	}
	return true
}

// All returns every rule in the order added.
func (rs *RuleSet) All() []*Rule {
	return rs.all
}

// JobRules returns the rules coming from jobs, in job order.
func (rs *RuleSet) JobRules() []*Rule {
	return rs.jobRules
}

// PackageRules returns the rules coming from package links, in generation
// order.
func (rs *RuleSet) PackageRules() []*Rule {
	return rs.packageRules
}

// LearnedRules returns the rules the solver learned.
func (rs *RuleSet) LearnedRules() []*Rule {
	return rs.learnedRules
}

// Jobs returns the jobs the rules were generated from.
func (rs *RuleSet) Jobs() []*Job {
	return rs.jobs
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	return len(rs.all)
}

// Clone copies the set without its learned rules. Rules are shared, so
// disabling a rule affects both sets.
func (rs *RuleSet) Clone() *RuleSet {
	c := NewRuleSet()
	c.jobs = rs.jobs
	for _, r := range rs.all {
		if r.Reason == LearnedClause {
			continue
		}
		if isPackageReason(r.Reason) {
			c.keys[r.key()] = r
		}
		c.all = append(c.all, r)
		switch r.Reason {
		case RootRequire, JobRule:
			c.jobRules = append(c.jobRules, r)
		default:
			c.packageRules = append(c.packageRules, r)
		}
	}
	return c
}
