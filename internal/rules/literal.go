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
Package rules turns a pool and a list of jobs into boolean clauses.

Every package of the pool is a variable, identified by its pool ID. A Literal
is a signed ID: positive means "installed", negative "not installed". A Rule
is a disjunction of literals tagged with the reason it exists, so that a
failed resolution can be explained in terms of requirements instead of
clauses.

	requires    A 1.0 requires B ^1.0      (-A1.0 | B1.0 | B1.1)
	conflicts   A 1.0 conflicts with C     (-A1.0 | -C2.0)
	same name   B 1.0 and B 1.1            (-B1.0 | -B1.1)
	install     A *                        (A1.0 | A0.9)
	remove      C                          (-C2.0)
*/
package rules

import (
	"strconv"
)

// Literal is a package ID with a sign.
type Literal int

// ID returns the package ID of the literal.
func (l Literal) ID() int {
	if l < 0 {
		return int(-l)
	}
	return int(l)
}

// Positive reports whether the literal asks for the package to be installed.
func (l Literal) Positive() bool {
	return l > 0
}

// Negate returns the opposite literal.
func (l Literal) Negate() Literal {
	return -l
}

func (l Literal) String() string {
	if l > 0 {
		return "+" + strconv.Itoa(int(l))
	}
	return strconv.Itoa(int(l))
}

// Install returns the positive literal of a package ID.
func Install(id int) Literal {
	if id < 1 {
		panic("rules: invalid package id " + strconv.Itoa(id))
	}
	return Literal(id)
}

// DontInstall returns the negative literal of a package ID.
func DontInstall(id int) Literal {
	return -Install(id)
}
