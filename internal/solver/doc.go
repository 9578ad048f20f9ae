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

/*
Package solver finds a set of packages to install that satisfies every rule
generated for a pool, or proves that none exists and explains why.

To perform an operation, for example "install packageA", we:

 1. Build a pool of all packages that could play a role (see package pool):
    the installed packages, and the versions of every name reachable from the
    root requirements in the known repositories.

 2. Turn the pool and the jobs into rules (see package rules). A rule is a
    disjunction of literals, one literal per package: "A 1.0 is not
    installed, or B 1.1 is, or B 1.0 is".

 3. Search for an assignment of the packages that satisfies all rules. The
    search is a conflict-driven clause learning loop:

    - Propagating: every rule with all literals false but one forces that
      last literal. Rules are looked at through two watched literals, so a
      rule is only visited when one of its watches becomes false.
    - Deciding: when propagation settles, the first rule that still needs a
      package picks one. Job rules go first, in job order, then package
      rules in the order they were generated, then learned rules. The Policy
      chooses between the candidates of a rule.
    - Conflict: a rule has all its literals false. The rules that led to it
      are resolved until a single literal of the current level is left (the
      first unique implication point). The result is a learned rule.
    - Backtracking: the search goes back to the second highest level of the
      learned rule, where the learned rule forces the opposite of the
      conflicting choice.

    A conflict at level 0 does not depend on any decision: the rules cannot
    be satisfied together. A search where no rule needs a package anymore is
    done, and packages that were never decided are not installed.

 4. On success, the installed packages are handed to the transaction
    builder. On failure, the rules involved in the conflict are collected
    into a Problem. The job rules of that problem are then disabled and the
    search run again, so that independent problems are all reported.

The search is deterministic: the same pool and jobs always produce the same
decisions, in the same order.
*/
package solver
