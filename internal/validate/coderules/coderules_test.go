package coderules_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/pkgmodel"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/registry"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate/coderules"
)

var nodes = registry.StaticSource{
	{
		Name: "加法运算", Category: "运算节点",
		Inputs:  []registry.Port{{Name: "左值", Type: "整数"}, {Name: "右值", Type: "整数"}},
		Outputs: []registry.Port{{Name: "结果", Type: "整数"}},
	},
	{
		Name: "获取局部变量", Category: "查询节点",
		Inputs:  []registry.Port{{Name: "初始值", Type: "泛型"}},
		Outputs: []registry.Port{{Name: "值", Type: "泛型"}},
	},
	{
		Name: "发送信号", Category: "执行节点",
		Inputs: []registry.Port{{Name: "流程入", Type: "流程"}, {Name: "目标实体", Type: "实体"}, {Name: "信号名", Type: "字符串"}},
	},
	{
		Name: "拼装结构体", Category: "运算节点",
		Inputs: []registry.Port{{Name: "结构体名", Type: "字符串"}},
	},
	{
		Name: "设置节点图变量", Category: "执行节点",
		Inputs: []registry.Port{{Name: "变量名", Type: "字符串"}, {Name: "变量值", Type: "泛型"}},
	},
	{
		Name: "打印字符串", Category: "执行节点",
		Inputs: []registry.Port{{Name: "流程入", Type: "流程"}, {Name: "字符串", Type: "字符串"}},
	},
	{Name: "实体创建时", Category: "事件节点", Outputs: []registry.Port{{Name: "事件源实体", Type: "实体"}}},
	{Name: "复合甲", Category: "复合节点", Composite: true},
}

func newEnv(t *testing.T) *validate.Env {
	t.Helper()
	store := pkgmodel.NewStore()
	store.AddSignal(pkgmodel.Signal{
		ID: "signal_001", Name: "开关_状态变化",
		Params: []pkgmodel.SignalParam{{Name: "状态", Type: "布尔值"}},
	})
	store.AddSignal(pkgmodel.Signal{ID: "signal_002", Name: "空信号"})
	store.AddStruct(pkgmodel.Struct{ID: "struct_001", Name: "坐标", Kind: "basic"})
	store.AddStruct(pkgmodel.Struct{ID: "struct_002", Name: "存档", Kind: "ingame_save"})

	env, err := validate.NewEnv(t.TempDir(), validate.EnvOptions{
		Config:     validate.DefaultConfig(),
		Registries: registry.NewCache(nodes),
		Resources:  store,
	})
	require.NoError(t, err)
	return env
}

func apply(t *testing.T, rule validate.Rule, rel, src string) []issue.Issue {
	t.Helper()
	ctx, err := newEnv(t).SourceContext(context.Background(), rel, []byte(src))
	require.NoError(t, err)
	return rule.Apply(ctx)
}

func codes(issues []issue.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Code)
	}
	return out
}

func graph(body string) string {
	return "class 图:\n    def on_实体创建时(self, 事件源实体):\n" + body
}

func TestRequiredInputs(t *testing.T) {
	t.Run("one issue naming every missing port", func(t *testing.T) {
		got := apply(t, coderules.RequiredInputsRule{}, "graphs/a.py", graph("        加法运算(self.game)\n"))
		require.Len(t, got, 1)
		assert.Equal(t, issue.CodeMissingRequiredInputs, got[0].Code)
		assert.Contains(t, got[0].Message, "左值，右值")
		assert.Equal(t, "graphs/a.py", got[0].File)
		assert.Equal(t, "第3~3行", got[0].LineSpan)
	})

	t.Run("keywords and positionals both count", func(t *testing.T) {
		src := graph("        加法运算(self.game, 左值=事件源实体, 右值=事件源实体)\n        加法运算(self.game, 事件源实体, 事件源实体)\n")
		assert.Empty(t, apply(t, coderules.RequiredInputsRule{}, "graphs/a.py", src))
	})

	t.Run("flow ports are not required", func(t *testing.T) {
		src := graph("        打印字符串(self.game, 字符串=事件源实体)\n")
		assert.Empty(t, apply(t, coderules.RequiredInputsRule{}, "graphs/a.py", src))
	})

	t.Run("partial keywords", func(t *testing.T) {
		got := apply(t, coderules.RequiredInputsRule{}, "graphs/a.py", graph("        加法运算(self.game, 左值=事件源实体)\n"))
		require.Len(t, got, 1)
		assert.Contains(t, got[0].Message, "右值")
		assert.NotContains(t, got[0].Message, "左值，")
	})

	t.Run("leading ctx is not a data argument", func(t *testing.T) {
		got := apply(t, coderules.RequiredInputsRule{}, "graphs/a.py", graph("        加法运算(ctx, 右值=事件源实体)\n"))
		require.Len(t, got, 1)
		assert.Contains(t, got[0].Message, "左值")
		assert.NotContains(t, got[0].Message, "右值")

		assert.Empty(t, apply(t, coderules.RequiredInputsRule{}, "graphs/a.py", graph("        加法运算(ctx, 事件源实体, 事件源实体)\n")))
	})
}

func TestNoLiteralAssignment(t *testing.T) {
	src := "名称: \"字符串\" = \"默认\"\n\n" + graph(
		"        计数 = 1\n"+
			"        文本 = \"a\"\n"+
			"        负数 = -2\n"+
			"        别名 = 名称\n"+
			"        标记: \"布尔值\" = True\n"+
			"        结果 = 加法运算(self.game, 左值=计数, 右值=负数)\n")

	got := apply(t, coderules.NoLiteralAssignmentRule{}, "graphs/a.py", src)
	assert.Equal(t, []string{
		issue.CodeNoLiteralAssignment,
		issue.CodeNoLiteralAssignment,
		issue.CodeNoLiteralAssignment,
		issue.CodeNoConstAliasAssignment,
	}, codes(got))
	assert.Contains(t, got[3].Message, "『名称』")
	assert.Contains(t, got[3].Message, "『别名』")
}

func TestLocalVarInitialValue(t *testing.T) {
	src := graph(
		"        甲 = 获取局部变量(self.game, 初始值=None)\n" +
			"        乙 = 获取局部变量(self.game)\n" +
			"        丙 = 获取局部变量(self.game, 初始值=事件源实体)\n" +
			"        丁 = 获取局部变量(self.game, 事件源实体)\n")
	got := apply(t, coderules.LocalVarInitialValueRule{}, "graphs/a.py", src)
	require.Len(t, got, 2)
	assert.Equal(t, "第3~3行", got[0].LineSpan)
	assert.Equal(t, "第4~4行", got[1].LineSpan)
}

func TestGraphVarsDeclaration(t *testing.T) {
	src := "GRAPH_VARIABLES: list[GraphVariableConfig] = [\n" +
		"    GraphVariableConfig(name=\"分数\", variable_type=\"整数\"),\n" +
		"]\n\n" + graph(
		"        设置节点图变量(self.game, 变量名=\"分数\", 变量值=事件源实体)\n"+
			"        设置节点图变量(self.game, 变量名=\"生命\", 变量值=事件源实体)\n"+
			"        设置节点图变量(self.game, 变量名=事件源实体, 变量值=事件源实体)\n"+
			"        设置节点图变量(self.game, 变量值=事件源实体)\n")

	got := apply(t, coderules.GraphVarsDeclarationRule{}, "graphs/a.py", src)
	require.Len(t, got, 3)
	assert.Contains(t, got[0].Message, "'生命' 未在 GRAPH_VARIABLES 清单中声明；已声明: 分数")
	assert.Contains(t, got[1].Message, "必须为字符串常量")
	assert.Contains(t, got[2].Message, "必须提供参数『变量名』")
}

func TestTypeName(t *testing.T) {
	src := "GRAPH_VARIABLES: list[GraphVariableConfig] = [\n" +
		"    GraphVariableConfig(name=\"甲\", variable_type=\"整数列表\"),\n" +
		"    GraphVariableConfig(name=\"乙\", variable_type=\"字符串-整数字典\"),\n" +
		"    GraphVariableConfig(name=\"丙\", variable_type=\"大整数\"),\n" +
		"]\n\n" + graph("        计数: \"无效类型\" = 加法运算(self.game, 左值=事件源实体, 右值=事件源实体)\n")

	got := apply(t, coderules.TypeNameRule{}, "graphs/a.py", src)
	require.Len(t, got, 2)
	assert.Contains(t, got[0].Message, "'大整数'")
	assert.Contains(t, got[1].Message, "'无效类型'")
}

func TestSignalParamNames(t *testing.T) {
	tests := []struct {
		name string
		call string
		want []string
		text string
	}{
		{"known signal and params", `发送信号(self.game, 目标实体=事件源实体, 信号名="开关_状态变化", 状态=事件源实体)`, nil, ""},
		{"constant name", `发送信号(self.game, 目标实体=事件源实体, 信号名=信号常量, 状态=事件源实体)`, nil, ""},
		{"extra params sorted", `发送信号(self.game, 目标实体=事件源实体, 信号名="开关_状态变化", 乙=事件源实体, 甲=事件源实体)`, []string{issue.CodeSignalExtraParams}, "乙, 甲"},
		{"id instead of name", `发送信号(self.game, 目标实体=事件源实体, 信号名="signal_001")`, []string{issue.CodeSignalIDNotAllowed}, "开关_状态变化"},
		{"unknown name", `发送信号(self.game, 目标实体=事件源实体, 信号名="不存在")`, []string{issue.CodeSignalUnknownID}, "不存在"},
		{"signal without params skips extras", `发送信号(self.game, 目标实体=事件源实体, 信号名="空信号", 任意=事件源实体)`, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "信号常量 = \"开关_状态变化\"\n\n" + graph("        "+tt.call+"\n")
			got := apply(t, coderules.SignalParamNamesRule{}, "graphs/a.py", src)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, codes(got))
			assert.Contains(t, got[0].Message, tt.text)
		})
	}
}

func TestStructNameRequired(t *testing.T) {
	src := "结构体常量 = \"坐标\"\n\n" + graph(
		"        拼装结构体(self.game, 结构体名=\"坐标\")\n"+
			"        拼装结构体(self.game, 结构体名=结构体常量)\n"+
			"        拼装结构体(self.game, 结构体名=\"struct_001\")\n"+
			"        拼装结构体(self.game, 结构体名=\"  \")\n"+
			"        拼装结构体(self.game, 结构体名=\"未知\")\n"+
			"        拼装结构体(self.game, 结构体名=\"存档\")\n"+
			"        拼装结构体(self.game, 结构体名=事件源实体)\n"+
			"        拼装结构体(self.game)\n")

	got := apply(t, coderules.StructNameRequiredRule{}, "graphs/a.py", src)
	assert.Equal(t, []string{
		issue.CodeStructNameInvalid,
		issue.CodeStructNameUnknown,
		issue.CodeStructNameNotBasic,
		issue.CodeStructNameNotStatic,
	}, codes(got))
}

func TestUnknownEventName(t *testing.T) {
	src := "class 图:\n" +
		"    def register_handlers(self):\n" +
		"        self.game.register_event_handler(\"实体创建时\", self.on_a)\n" +
		"        self.game.register_event_handler(\"开关_状态变化\", self.on_b)\n" +
		"        self.game.register_event_handler(\"实体创健时\", self.on_c)\n"
	got := apply(t, coderules.UnknownEventNameRule{}, "graphs/a.py", src)
	require.Len(t, got, 1)
	assert.Equal(t, issue.CodeUnknownEventName, got[0].Code)
	assert.Contains(t, got[0].Message, "'实体创健时'")
}

func TestCompositeTypesAndNesting(t *testing.T) {
	t.Run("function style", func(t *testing.T) {
		src := "def 复合乙(game, 流程入, 数值: \"整数\"):\n" +
			"    复合甲(game)\n"
		got := apply(t, coderules.CompositeTypesAndNestingRule{}, "composite_nodes/b.py", src)
		assert.ElementsMatch(t, []string{
			issue.CodeCompositeArgType,
			issue.CodeCompositeReturnType,
			issue.CodeCompositeFlowIn,
			issue.CodeCompositeNesting,
		}, codes(got))
	})

	t.Run("well formed", func(t *testing.T) {
		src := "def 复合乙(game, 流程入: \"流程\", 数值: \"整数\") -> \"流程\":\n" +
			"    加法运算(game, 左值=数值, 右值=数值)\n"
		assert.Empty(t, apply(t, coderules.CompositeTypesAndNestingRule{}, "composite_nodes/b.py", src))
	})

	t.Run("class style pins", func(t *testing.T) {
		src := "@composite_class\n" +
			"class 复合丙:\n" +
			"    @flow_entry\n" +
			"    def 入口(self, 数值: \"整数\", 任意: \"泛型\"):\n" +
			"        数据出(\"输出\", pin_type=\"字典\")\n"
		got := apply(t, coderules.CompositeTypesAndNestingRule{}, "composite_nodes/c.py", src)
		assert.Equal(t, []string{issue.CodeCompositePinGeneric, issue.CodeCompositePinType}, codes(got))
	})

	t.Run("skips graphs", func(t *testing.T) {
		assert.Empty(t, apply(t, coderules.CompositeTypesAndNestingRule{}, "graphs/a.py", "def f(x):\n    pass\n"))
	})
}

func TestLongWire(t *testing.T) {
	body := "        打印字符串(self.game, 字符串=事件源实体)\n"
	for range 60 {
		body += "        pass\n"
	}
	body += "        打印字符串(self.game, 字符串=事件源实体)\n"
	body += "        打印字符串(self.game, 字符串=事件源实体)\n"

	got := apply(t, coderules.LongWireRule{}, "graphs/a.py", graph(body))
	require.Len(t, got, 1)
	assert.Equal(t, issue.CodeEventEntityLongWire, got[0].Code)
	assert.Equal(t, 3, got[0].Detail["usage_count"])
	assert.Equal(t, "on_实体创建时", got[0].Detail["method"])

	short := graph("        打印字符串(self.game, 字符串=事件源实体)\n" +
		"        打印字符串(self.game, 字符串=事件源实体)\n" +
		"        打印字符串(self.game, 字符串=事件源实体)\n")
	assert.Empty(t, apply(t, coderules.LongWireRule{}, "graphs/a.py", short))
}

func TestUnusedQueryOutput(t *testing.T) {
	src := graph(
		"        用过 = 加法运算(self.game, 左值=事件源实体, 右值=事件源实体)\n" +
			"        没用 = 加法运算(self.game, 左值=事件源实体, 右值=事件源实体)\n" +
			"        打印字符串(self.game, 字符串=用过)\n")
	got := apply(t, coderules.UnusedQueryOutputRule{}, "graphs/a.py", src)
	require.Len(t, got, 1)
	assert.Equal(t, issue.LevelWarning, got[0].Level)
	assert.Contains(t, got[0].Message, "'没用'")
}

func TestUnreachableCode(t *testing.T) {
	src := graph(
		"        if 事件源实体:\n" +
			"            return\n" +
			"            打印字符串(self.game, 字符串=事件源实体)\n" +
			"        return\n" +
			"        pass\n" +
			"        pass\n")
	got := apply(t, coderules.UnreachableCodeRule{}, "graphs/a.py", src)
	require.Len(t, got, 2)
	assert.Equal(t, "第5~5行", got[0].LineSpan)
	assert.Equal(t, "第7~7行", got[1].LineSpan)
	for _, is := range got {
		assert.Equal(t, issue.LevelError, is.Level)
		assert.Equal(t, issue.CategoryCodeStyle, is.Category)
	}
}

func TestUnsupportedShape(t *testing.T) {
	got := apply(t, coderules.UnsupportedShapeRule{}, "graphs/a.py", graph("        x = [i for i in 事件源实体]\n"))
	require.NotEmpty(t, got)
	assert.Equal(t, issue.CategoryCodeStyle, got[0].Category)
}

func TestDefaultPipeline_SkipsPackageMode(t *testing.T) {
	ctx := newEnv(t).PackageContext(&pkgmodel.Package{ID: "p"}, pkgmodel.NewStore())
	assert.Empty(t, coderules.NewPipeline().Run(ctx))
}
