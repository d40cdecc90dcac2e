// Package issue defines the diagnostic vocabulary shared by every validation rule.
package issue

import (
	"fmt"
	"sort"
)

// Level classifies the impact of an issue.
type Level string

const (
	// LevelError indicates a defect that must be resolved before the graph is trusted.
	LevelError Level = "error"
	// LevelWarning indicates a condition that should be reviewed.
	LevelWarning Level = "warning"
	// LevelInfo is purely informational.
	LevelInfo Level = "info"
)

// Rank orders levels from most to least severe.
func (l Level) Rank() int {
	switch l {
	case LevelError:
		return 0
	case LevelWarning:
		return 1
	default:
		return 2
	}
}

// Icon returns the report glyph for the level.
func (l Level) Icon() string {
	switch l {
	case LevelError:
		return "❌"
	case LevelWarning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

// Issue is a single finding produced by a rule. Issues are values and are never
// mutated after construction.
type Issue struct {
	// Level is the severity of the finding.
	Level Level
	// Category groups issues for presentation, e.g. "代码规范" or "信号系统".
	Category string
	// Code is the stable identifier of the defect class.
	Code string
	// Message is a human-readable description.
	Message string
	// File is the source file the issue was found in, if any.
	File string
	// GraphID, NodeID and Port point into graph data when the issue is not tied to source text.
	GraphID string
	NodeID  string
	Port    string
	// LineSpan is a rendered source range such as "第3~5行".
	LineSpan string
	// Location is a human-readable owner path, e.g. "模板 'x' > 节点图 'g'".
	Location   string
	Suggestion string
	Reference  string
	// Detail carries structured context for hosts that navigate to the defect.
	Detail map[string]any
}

// New returns an issue with the mandatory fields set. Empty level or category
// are replaced by LevelError and "未分类" so every issue stays well-formed.
func New(level Level, category, code, message string) Issue {
	if level == "" {
		level = LevelError
	}
	if category == "" {
		category = "未分类"
	}
	return Issue{Level: level, Category: category, Code: code, Message: message}
}

// Errorf builds an error-level issue with a formatted message.
func Errorf(category, code, format string, args ...any) Issue {
	return New(LevelError, category, code, fmt.Sprintf(format, args...))
}

// Warnf builds a warning-level issue with a formatted message.
func Warnf(category, code, format string, args ...any) Issue {
	return New(LevelWarning, category, code, fmt.Sprintf(format, args...))
}

// InFile returns a copy of i bound to file and line span.
func (i Issue) InFile(file, lineSpan string) Issue {
	i.File = file
	i.LineSpan = lineSpan
	return i
}

// At returns a copy of i with a location string.
func (i Issue) At(location string) Issue {
	i.Location = location
	return i
}

// WithHint returns a copy of i with suggestion and reference set.
func (i Issue) WithHint(suggestion, reference string) Issue {
	i.Suggestion = suggestion
	i.Reference = reference
	return i
}

// WithDetail returns a copy of i carrying detail. The map is copied.
func (i Issue) WithDetail(detail map[string]any) Issue {
	if len(detail) == 0 {
		return i
	}
	cp := make(map[string]any, len(detail))
	for k, v := range detail {
		cp[k] = v
	}
	i.Detail = cp
	return i
}

// WithGraph returns a copy of i pointing at a graph node port.
func (i Issue) WithGraph(graphID, nodeID, port string) Issue {
	i.GraphID = graphID
	i.NodeID = nodeID
	i.Port = port
	return i
}

// HasErrors reports whether any issue is error-level.
func HasErrors(issues []Issue) bool {
	for _, is := range issues {
		if is.Level == LevelError {
			return true
		}
	}
	return false
}

// Split partitions issues into error and warning messages, in order. Info-level
// issues are dropped.
func Split(issues []Issue) (errs, warns []string) {
	for _, is := range issues {
		switch is.Level {
		case LevelError:
			errs = append(errs, is.Message)
		case LevelWarning:
			warns = append(warns, is.Message)
		}
	}
	return errs, warns
}

// SortByLevel stably orders issues errors first, then warnings, then infos.
func SortByLevel(issues []Issue) {
	sort.SliceStable(issues, func(a, b int) bool {
		return issues[a].Level.Rank() < issues[b].Level.Rank()
	})
}

// Summary counts issues by level.
type Summary struct {
	Total    int  `json:"total"`
	Errors   int  `json:"errors"`
	Warnings int  `json:"warnings"`
	Infos    int  `json:"infos"`
	Passed   bool `json:"passed"`
}

// Summarize computes the summary of issues. A result passes when it has no errors.
func Summarize(issues []Issue) Summary {
	s := Summary{Total: len(issues)}
	for _, is := range issues {
		switch is.Level {
		case LevelError:
			s.Errors++
		case LevelWarning:
			s.Warnings++
		default:
			s.Infos++
		}
	}
	s.Passed = s.Errors == 0
	return s
}

// GroupByCategory groups issues by category, preserving first-seen category
// order and issue order within each group.
func GroupByCategory(issues []Issue) ([]string, map[string][]Issue) {
	var order []string
	groups := make(map[string][]Issue)
	for _, is := range issues {
		if _, ok := groups[is.Category]; !ok {
			order = append(order, is.Category)
		}
		groups[is.Category] = append(groups[is.Category], is)
	}
	return order, groups
}
