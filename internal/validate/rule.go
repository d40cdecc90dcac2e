// Package validate runs ordered validation rules over a graph source file or a
// content package and collects the issues they report.
package validate

import (
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
)

// Rule is one stateless check. Apply must not mutate the context and must not
// panic; problems in the checked input are reported as issues.
type Rule interface {
	// ID is a stable dotted identifier such as "code.required_inputs".
	ID() string
	// Category is the issue category the rule reports under.
	Category() string
	Apply(ctx *Context) []issue.Issue
}

// Revisioned is implemented by rules whose behavior is versioned for cache
// fingerprinting. Rules that do not implement it count as revision 1.
type Revisioned interface {
	// Package names the rule's owning package, e.g. "coderules".
	Package() string
	Revision() int
}
