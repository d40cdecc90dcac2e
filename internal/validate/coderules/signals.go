package coderules

import (
	"slices"
	"strings"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/graphcode"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/ruletable"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
)

// SignalParamNamesRule checks 发送信号 calls against the signal table: the
// 信号名 argument must be a known signal name and every data keyword must be
// one of the signal's parameters.
type SignalParamNamesRule struct{}

func (SignalParamNamesRule) ID() string       { return "code.signal_param_names" }
func (SignalParamNamesRule) Category() string { return issue.CategorySignal }
func (SignalParamNamesRule) Package() string  { return pkgName }
func (SignalParamNamesRule) Revision() int    { return 1 }

func (r SignalParamNamesRule) Apply(ctx *validate.Context) []issue.Issue {
	if !ctx.FileMode() || ctx.IsComposite || ctx.Catalog == nil || !ctx.Catalog.HasSignals() {
		return nil
	}
	consts := ctx.Module.StringConstants()

	var out []issue.Issue
	for _, call := range calls(functions(ctx.Module)) {
		if name, _ := graphcode.FuncName(call); name != ruletable.NodeSendSignal {
			continue
		}
		v, ok := call.Keyword(ruletable.PortSignalName)
		if !ok {
			continue
		}
		key, ok := staticString(ctx.Module, consts, v)
		if !ok || key == "" {
			continue
		}

		sig, ok := ctx.Catalog.SignalByName(key)
		if !ok {
			if byID, isID := ctx.Catalog.SignalByID(key); isID {
				display := byID.Name
				if display == "" {
					display = key
				}
				out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeSignalIDNotAllowed, call.Span,
					"【发送信号】的“信号名”参数值 '%s' 是信号 ID，请改为使用该信号的名称 '%s' 作为“信号名”参数；信号 ID 仅用于事件名或内部绑定，不应用于节点图代码。",
					key, display))
				continue
			}
			out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeSignalUnknownID, call.Span,
				"【发送信号】的“信号名”参数值 '%s' 在当前信号定义中不存在，请先在信号管理中定义该信号，或改用已有信号的名称。", key))
			continue
		}
		if len(sig.Params) == 0 {
			continue
		}

		var extra []string
		for _, kw := range call.Keywords {
			if kw.Name == "" || ruletable.SignalStaticInputs[kw.Name] {
				continue
			}
			if _, ok := sig.Param(kw.Name); !ok && !slices.Contains(extra, kw.Name) {
				extra = append(extra, kw.Name)
			}
		}
		if len(extra) == 0 {
			continue
		}
		slices.Sort(extra)
		out = append(out, at(ctx, issue.LevelError, r.Category(), issue.CodeSignalExtraParams, call.Span,
			"【发送信号】调用中使用了信号定义中不存在的参数: %s；这些参数在运行时不会收到任何值，请参照信号 '%s' 的参数列表修正参数名，或在信号管理中补充对应的参数定义。",
			strings.Join(extra, ", "), sig.ID))
	}
	return out
}
