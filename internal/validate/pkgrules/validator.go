package pkgrules

import (
	"context"
	"sync"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/pkgmodel"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
)

// ComprehensiveValidator runs the package rules over one package and keeps the
// result of the last run.
type ComprehensiveValidator struct {
	pkg     *pkgmodel.Package
	res     pkgmodel.ResourceAccessor
	env     *validate.Env
	checker *GraphCodeChecker

	once     sync.Once
	pipeline *validate.Pipeline

	mu     sync.Mutex
	issues []issue.Issue
}

// NewComprehensiveValidator returns a validator for pkg backed by res. checker
// may be nil.
func NewComprehensiveValidator(pkg *pkgmodel.Package, res pkgmodel.ResourceAccessor, env *validate.Env, checker *GraphCodeChecker) *ComprehensiveValidator {
	if checker == nil {
		checker = NewGraphCodeChecker()
	}
	return &ComprehensiveValidator{pkg: pkg, res: res, env: env, checker: checker}
}

// Rules returns the package rules, building them on first use.
func (v *ComprehensiveValidator) Rules() []validate.Rule {
	v.once.Do(func() { v.pipeline = validate.NewPipeline(Default(v.checker)...) })
	return v.pipeline.Rules()
}

// ValidateAll reloads the node library, runs every package rule and replaces
// the previous result. Exact duplicate issues are kept once, first occurrence
// wins.
func (v *ComprehensiveValidator) ValidateAll(ctx context.Context) ([]issue.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.Rules()
	if err := v.env.Refresh(); err != nil {
		return nil, err
	}

	pctx := v.env.PackageContext(v.pkg, v.res)
	log := pctx.Logger()
	log.Debugw("package validation started", "package", v.pkg.ID, "rules", len(v.pipeline.Rules()))

	found := v.pipeline.Run(pctx)
	seen := make(map[string]bool, len(found))
	out := make([]issue.Issue, 0, len(found))
	for _, is := range found {
		k := is.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, is)
	}

	v.mu.Lock()
	v.issues = out
	v.mu.Unlock()
	log.Infow("package validated", "package", v.pkg.ID, "issues", len(out), "dropped_duplicates", len(found)-len(out))
	return v.Issues(), nil
}

// Issues returns a copy of the last result.
func (v *ComprehensiveValidator) Issues() []issue.Issue {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]issue.Issue(nil), v.issues...)
}

// Summary counts the last result by level.
func (v *ComprehensiveValidator) Summary() issue.Summary {
	return issue.Summarize(v.Issues())
}

// IssuesByCategory groups the last result by category, in first-seen order.
func (v *ComprehensiveValidator) IssuesByCategory() ([]string, map[string][]issue.Issue) {
	return issue.GroupByCategory(v.Issues())
}
