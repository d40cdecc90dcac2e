package coderules

import (
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/graphcode"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
)

// UnknownEventNameRule reports register_event_handler calls naming an event
// that is neither an event node of the registry nor a defined signal.
type UnknownEventNameRule struct{}

func (UnknownEventNameRule) ID() string       { return "code.unknown_event_name" }
func (UnknownEventNameRule) Category() string { return issue.CategoryCodeStyle }
func (UnknownEventNameRule) Package() string  { return pkgName }
func (UnknownEventNameRule) Revision() int    { return 1 }

func (r UnknownEventNameRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.FileMode() || ctx.IsComposite || ctx.Registry == nil {
		return nil
	}
	events := ctx.Registry.EventNames()
	if len(events) == 0 {
		return nil
	}
	known := make(map[string]bool, len(events))
	for _, e := range events {
		known[e] = true
	}
	consts := ctx.Module.StringConstants()

	var out []issue.Issue
	for _, call := range graphcode.Calls(ctx.Module) {
		attr, ok := call.Func.(*graphcode.Attribute)
		if !ok || attr.Attr != graphcode.RegisterEventHandler || len(call.Args) == 0 {
			continue
		}
		name, ok := staticString(ctx.Module, consts, call.Args[0])
		if !ok || name == "" || known[name] || r.isSignal(ctx, name) {
			continue
		}
		out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeUnknownEventName, call.Span,
			"注册的事件 '%s' 不是已知的事件节点，也不是已定义的信号；请检查事件名称拼写", name))
	}
	return out
}

func (UnknownEventNameRule) isSignal(ctx *validate.Context, name string) bool {
	if ctx.Catalog == nil {
		return false
	}
	if _, ok := ctx.Catalog.SignalByName(name); ok {
		return true
	}
	_, ok := ctx.Catalog.SignalByID(name)
	return ok
}
