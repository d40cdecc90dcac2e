package issue

import (
	"fmt"
	"sort"
	"strings"
)

// Dict is the serialized form of an Issue. It mirrors Issue field for field and
// is what the validation cache and JSON reports store.
type Dict struct {
	Level      string         `json:"level"`
	Category   string         `json:"category"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	File       string         `json:"file,omitempty"`
	GraphID    string         `json:"graph_id,omitempty"`
	NodeID     string         `json:"node_id,omitempty"`
	Port       string         `json:"port,omitempty"`
	LineSpan   string         `json:"line_span,omitempty"`
	Location   string         `json:"location,omitempty"`
	Suggestion string         `json:"suggestion,omitempty"`
	Reference  string         `json:"reference,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
}

// ToDict converts an issue to its serialized form.
func (i Issue) ToDict() Dict {
	return Dict{
		Level:      string(i.Level),
		Category:   i.Category,
		Code:       i.Code,
		Message:    i.Message,
		File:       i.File,
		GraphID:    i.GraphID,
		NodeID:     i.NodeID,
		Port:       i.Port,
		LineSpan:   i.LineSpan,
		Location:   i.Location,
		Suggestion: i.Suggestion,
		Reference:  i.Reference,
		Detail:     i.Detail,
	}
}

// FromDict rebuilds an issue from its serialized form.
func FromDict(d Dict) Issue {
	is := New(Level(d.Level), d.Category, d.Code, d.Message)
	is.File = d.File
	is.GraphID = d.GraphID
	is.NodeID = d.NodeID
	is.Port = d.Port
	is.LineSpan = d.LineSpan
	is.Location = d.Location
	is.Suggestion = d.Suggestion
	is.Reference = d.Reference
	is.Detail = d.Detail
	return is
}

// ToDicts converts a slice of issues. The result is never nil.
func ToDicts(issues []Issue) []Dict {
	out := make([]Dict, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.ToDict())
	}
	return out
}

// FromDicts converts a slice of serialized issues.
func FromDicts(dicts []Dict) []Issue {
	out := make([]Issue, 0, len(dicts))
	for _, d := range dicts {
		out = append(out, FromDict(d))
	}
	return out
}

// Key returns a string identifying the issue by value. Two issues with equal
// keys are exact duplicates.
func (i Issue) Key() string {
	var b strings.Builder
	for _, f := range []string{
		string(i.Level), i.Category, i.Code, i.Message, i.File, i.GraphID,
		i.NodeID, i.Port, i.LineSpan, i.Location, i.Suggestion, i.Reference,
	} {
		b.WriteString(f)
		b.WriteByte(0)
	}
	keys := make([]string, 0, len(i.Detail))
	for k := range i.Detail {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v\x00", k, i.Detail[k])
	}
	return b.String()
}
