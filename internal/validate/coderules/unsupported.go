package coderules

import (
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
)

// UnsupportedShapeRule surfaces parse diagnostics: syntax errors and shapes
// the graph generator never emits.
type UnsupportedShapeRule struct{}

func (UnsupportedShapeRule) ID() string       { return "code.unsupported_shape" }
func (UnsupportedShapeRule) Category() string { return issue.CategoryCodeStyle }
func (UnsupportedShapeRule) Package() string  { return pkgName }
func (UnsupportedShapeRule) Revision() int    { return 1 }

func (r UnsupportedShapeRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.FileMode() {
		return nil
	}
	out := make([]issue.Issue, 0, len(ctx.Diagnostics))
	for _, d := range ctx.Diagnostics {
		code := d.Code
		if code == "" {
			code = issue.CodeUnsupportedShape
		}
		out = append(out, at(ctx, issue.LevelError, r.Category(), code, d.Span, "%s", d.Message))
	}
	return out
}
