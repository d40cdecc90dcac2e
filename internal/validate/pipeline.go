package validate

import (
	"time"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
)

// Pipeline applies an ordered list of rules.
type Pipeline struct {
	rules []Rule
}

// NewPipeline returns a pipeline running rules in the given order.
func NewPipeline(rules ...Rule) *Pipeline {
	return &Pipeline{rules: append([]Rule(nil), rules...)}
}

// Rules returns the pipeline's rules in order.
func (p *Pipeline) Rules() []Rule { return append([]Rule(nil), p.rules...) }

// Run applies each enabled rule once, in order, and concatenates their issues.
// It does not deduplicate.
func (p *Pipeline) Run(ctx *Context) []issue.Issue {
	var out []issue.Issue
	profile := ProfilingEnabled()
	for _, r := range p.rules {
		if !ctx.Config.Enabled(r.ID()) {
			continue
		}
		if !profile {
			out = append(out, r.Apply(ctx)...)
			continue
		}
		start := time.Now()
		got := r.Apply(ctx)
		record(r.ID(), time.Since(start))
		out = append(out, got...)
	}
	ctx.Logger().Debugw("pipeline finished", "file", ctx.RelPath, "rules", len(p.rules), "issues", len(out))
	return out
}
