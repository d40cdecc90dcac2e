// Package report renders validation results as text or JSON.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-json"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
)

// Options controls text rendering.
type Options struct {
	// Color enables ANSI colors.
	Color bool
}

type palette struct {
	err, warn, info, ok, dim, bold *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow),
		info: color.New(color.FgCyan),
		ok:   color.New(color.FgGreen, color.Bold),
		dim:  color.New(color.Faint),
		bold: color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.ok, p.dim, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) level(l issue.Level) (*color.Color, string) {
	switch l {
	case issue.LevelError:
		return p.err, "❌"
	case issue.LevelWarning:
		return p.warn, "⚠️"
	default:
		return p.info, "ℹ️"
	}
}

// Text writes issues grouped by category under title, followed by a summary
// line. An empty result renders a single pass line.
func Text(w io.Writer, title string, issues []issue.Issue, opts Options) error {
	p := newPalette(opts.Color)
	var b strings.Builder
	if title != "" {
		fmt.Fprintln(&b, p.bold.Sprint(title))
	}
	if len(issues) == 0 {
		fmt.Fprintln(&b, p.ok.Sprint("✅ 验证通过，未发现问题"))
		_, err := io.WriteString(w, b.String())
		return err
	}

	order, groups := issue.GroupByCategory(issues)
	for _, cat := range order {
		fmt.Fprintf(&b, "\n%s (%d)\n", p.bold.Sprintf("【%s】", cat), len(groups[cat]))
		for _, is := range groups[cat] {
			c, icon := p.level(is.Level)
			head := is.Message
			if is.Code != "" {
				head += " " + p.dim.Sprintf("[%s]", is.Code)
			}
			fmt.Fprintf(&b, "  %s %s\n", c.Sprint(icon), head)
			if loc := location(is); loc != "" {
				fmt.Fprintf(&b, "     位置：%s\n", loc)
			}
			if is.Suggestion != "" {
				fmt.Fprintf(&b, "     建议：%s\n", is.Suggestion)
			}
			if is.Reference != "" {
				fmt.Fprintf(&b, "     参考：%s\n", p.dim.Sprint(is.Reference))
			}
		}
	}
	fmt.Fprintf(&b, "\n%s\n", summaryLine(p, issue.Summarize(issues)))
	_, err := io.WriteString(w, b.String())
	return err
}

func location(is issue.Issue) string {
	switch {
	case is.Location != "":
		return is.Location
	case is.File != "" && is.LineSpan != "":
		return is.File + " " + is.LineSpan
	default:
		return is.File
	}
}

func summaryLine(p palette, s issue.Summary) string {
	parts := []string{fmt.Sprintf("发现 %d 个问题：", s.Total)}
	if s.Errors > 0 {
		parts = append(parts, p.err.Sprintf("%d 个错误", s.Errors))
	}
	if s.Warnings > 0 {
		parts = append(parts, p.warn.Sprintf("%d 个警告", s.Warnings))
	}
	if s.Infos > 0 {
		parts = append(parts, p.info.Sprintf("%d 个提示", s.Infos))
	}
	return strings.Join(parts, " ")
}

// Document is the JSON report of one run.
type Document struct {
	RunID     string        `json:"run_id,omitempty"`
	PackageID string        `json:"package_id,omitempty"`
	Name      string        `json:"name,omitempty"`
	Summary   issue.Summary `json:"summary"`
	Issues    []issue.Dict  `json:"issues"`
}

// NewDocument builds the JSON report of issues.
func NewDocument(runID, packageID, name string, issues []issue.Issue) Document {
	return Document{
		RunID:     runID,
		PackageID: packageID,
		Name:      name,
		Summary:   issue.Summarize(issues),
		Issues:    issue.ToDicts(issues),
	}
}

// JSON writes doc as indented JSON followed by a newline.
func JSON(w io.Writer, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("report: encode: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// JSONDocuments writes docs as one indented JSON array.
func JSONDocuments(w io.Writer, docs []Document) error {
	if docs == nil {
		docs = []Document{}
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("report: encode: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

const rule = "================================================================================"

// Banner writes the self-check result of one graph file: pass or fail, then
// numbered error and warning lists.
func Banner(w io.Writer, path string, passed bool, errs, warns []string, opts Options) error {
	p := newPalette(opts.Color)
	var b strings.Builder
	name := path
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		name = path[i+1:]
	}
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "节点图自检: %s\n", name)
	fmt.Fprintf(&b, "文件: %s\n", path)
	if passed {
		fmt.Fprintf(&b, "结果: %s\n", p.ok.Sprint("通过"))
	} else {
		fmt.Fprintf(&b, "结果: %s\n", p.err.Sprintf("未通过（错误: %d，警告: %d）", len(errs), len(warns)))
	}
	list := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for i, msg := range items {
			fmt.Fprintf(&b, "  [%d] %s\n", i+1, msg)
		}
	}
	if !passed {
		list("错误明细", errs)
	}
	list("警告明细", warns)
	fmt.Fprintln(&b, rule)
	_, err := io.WriteString(w, b.String())
	return err
}
