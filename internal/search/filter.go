// Package search implements the name filter used by the list pages: a
// case-folded, whitespace-insensitive match of every query term against a
// resource name.
package search

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Normalize folds s for caseless comparison and collapses runs of
// non-alphanumerics to single spaces.
func Normalize(s string) string {
	words := wordRE.FindAllString(cases.Fold().String(s), -1)
	return strings.Join(words, " ")
}

// Terms splits a query into normalized terms. A blank query has no terms.
func Terms(q string) []string {
	n := Normalize(q)
	if n == "" {
		return nil
	}
	return strings.Split(n, " ")
}

// Match reports whether every term occurs in name. No terms match everything.
func Match(name string, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	hay := Normalize(name)
	for _, t := range terms {
		if !strings.Contains(hay, t) {
			return false
		}
	}
	return true
}

// Filter returns the elements of in whose name (as returned by name) matches q,
// preserving order. The input slice is not modified.
func Filter[T any](in []T, q string, name func(T) string) []T {
	terms := Terms(q)
	if len(terms) == 0 {
		return in
	}
	out := make([]T, 0, len(in))
	for _, v := range in {
		if Match(name(v), terms) {
			out = append(out, v)
		}
	}
	return out
}
