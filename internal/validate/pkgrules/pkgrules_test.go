package pkgrules_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/pkgmodel"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/registry"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/validate/pkgrules"
)

var nodes = registry.StaticSource{
	{
		Name: "加法运算", Category: "运算节点",
		Inputs:  []registry.Port{{Name: "左值", Type: "整数"}, {Name: "右值", Type: "整数"}},
		Outputs: []registry.Port{{Name: "结果", Type: "整数"}},
	},
	{
		Name: "获取文本", Category: "查询节点",
		Outputs: []registry.Port{{Name: "文本", Type: "字符串"}},
	},
	{
		Name: "获取泛型", Category: "查询节点",
		Outputs: []registry.Port{{Name: "值", Type: "泛型"}},
	},
	{
		Name: "发送信号", Category: "执行节点",
		Inputs: []registry.Port{{Name: "流程入", Type: "流程"}, {Name: "目标实体", Type: "实体"}, {Name: "信号名", Type: "字符串"}},
	},
	{Name: "实体创建时", Category: "事件节点", Outputs: []registry.Port{{Name: "事件源实体", Type: "实体"}}},
	{Name: "实体销毁时", Category: "事件节点"},
}

func newEnv(t *testing.T, store *pkgmodel.Store) *validate.Env {
	t.Helper()
	env, err := validate.NewEnv(t.TempDir(), validate.EnvOptions{
		Config:     validate.DefaultConfig(),
		Registries: registry.NewCache(nodes),
		Resources:  store,
	})
	require.NoError(t, err)
	return env
}

func run(t *testing.T, rule validate.Rule, pkg *pkgmodel.Package, store *pkgmodel.Store) []issue.Issue {
	t.Helper()
	return rule.Apply(newEnv(t, store).PackageContext(pkg, store))
}

func codes(issues []issue.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Code)
	}
	return out
}

func TestPackageGraphMount(t *testing.T) {
	store := pkgmodel.NewStore()
	store.AddGraph(&pkgmodel.GraphResource{ID: "g1", Name: "主图"})
	store.AddGraph(&pkgmodel.GraphResource{ID: "g3", Name: "副图"})
	pkg := &pkgmodel.Package{
		ID: "p1", Name: "存档一",
		Graphs: []string{"g1", "g2"},
		Templates: []pkgmodel.Template{
			{ID: "t1", Name: "门", EntityType: "物件-动态", Graphs: []string{"g1", "g3"}},
		},
	}

	got := run(t, pkgrules.PackageGraphMountRule{}, pkg, store)
	require.Len(t, got, 2)
	assert.Equal(t, issue.CodeGraphNotAttached, got[0].Code)
	assert.Equal(t, "g2", got[0].GraphID)
	assert.Equal(t, "存档 '存档一' (p1) > 节点图索引", got[0].Location)
	assert.Equal(t, issue.CodeGraphNotDeclared, got[1].Code)
	assert.Equal(t, "g3", got[1].GraphID)
	assert.Contains(t, got[1].Message, "'副图' (g3)")
	for _, is := range got {
		assert.Equal(t, issue.LevelWarning, is.Level)
	}

	t.Run("view packages are skipped", func(t *testing.T) {
		view := *pkg
		view.ID = "global_view"
		assert.Empty(t, run(t, pkgrules.PackageGraphMountRule{}, &view, store))
	})
}

func TestCompositeNodes(t *testing.T) {
	store := pkgmodel.NewStore()
	store.AddComposite(pkgmodel.CompositeNode{ID: "c0", Name: "空壳"})
	store.AddComposite(pkgmodel.CompositeNode{
		ID: "c1", Name: "计数器",
		SubGraph: &pkgmodel.SubGraph{
			Nodes: []pkgmodel.GraphNode{{ID: "n1", Title: "加法运算"}, {ID: "n2", Title: "加法运算"}},
			Edges: []pkgmodel.Edge{{SrcNode: "n1", SrcPort: "结果", DstNode: "n2", DstPort: "左值"}},
		},
		Pins: []pkgmodel.VirtualPin{
			{Name: "输出", Mapped: []pkgmodel.MappedPort{{NodeID: "n1", Port: "结果"}}},
			{Name: "空引脚"},
			{Name: "可选", AllowUnmapped: true},
			{Name: "失效", Mapped: []pkgmodel.MappedPort{{NodeID: "n9", Port: "左值", IsInput: true}}},
		},
	})

	got := run(t, pkgrules.CompositeNodesRule{}, &pkgmodel.Package{ID: "p1"}, store)
	assert.Equal(t, []string{
		issue.CodeCompositeSubgraphMissing,
		issue.CodeCompositePinUnmapped,
		issue.CodeCompositePinNodeMissing,
		issue.CodeCompositePinExtraWiring,
	}, codes(got))
	assert.Contains(t, got[3].Message, "'输出'")
	assert.Equal(t, "复合节点 '计数器' (c1) > 节点 n1", got[3].Location)
}

func clientGraph(source string) *pkgmodel.GraphResource {
	return &pkgmodel.GraphResource{
		ID: "ui", Name: "界面图", Type: "client",
		Nodes: []pkgmodel.GraphNode{
			{ID: "src", Title: source},
			{ID: "read", Title: "获取自定义变量"},
		},
		Edges: []pkgmodel.Edge{{SrcNode: "src", SrcPort: "实体", DstNode: "read", DstPort: "目标实体"}},
	}
}

func TestFrontendVariable(t *testing.T) {
	tests := []struct {
		name   string
		source string
		entity string
		want   int
	}{
		{"level entity is allowed", "获取关卡实体", "物件-动态", 0},
		{"entity position is not", "获取实体位置", "物件-动态", 1},
		{"self on a player", "获取自身实体", "玩家", 0},
		{"self on an object", "获取自身实体", "物件-动态", 1},
		{"unknown producer is not traced", "加法运算", "物件-动态", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := pkgmodel.NewStore()
			store.AddGraph(clientGraph(tt.source))
			pkg := &pkgmodel.Package{
				ID:        "p1",
				Templates: []pkgmodel.Template{{ID: "t1", Name: "甲", EntityType: tt.entity, Graphs: []string{"ui"}}},
			}
			got := run(t, pkgrules.FrontendVariableRule{}, pkg, store)
			require.Len(t, got, tt.want)
			if tt.want > 0 {
				assert.Equal(t, issue.CodeFrontendVariable, got[0].Code)
				assert.Equal(t, "read", got[0].NodeID)
				assert.Contains(t, got[0].Message, tt.source)
			}
		})
	}

	t.Run("traced through list iteration", func(t *testing.T) {
		g := &pkgmodel.GraphResource{
			ID: "ui", Type: "client",
			Nodes: []pkgmodel.GraphNode{
				{ID: "q", Title: "获取单位标签的实体列表"},
				{ID: "it", Title: "遍历实体列表"},
				{ID: "read", Title: "获取自定义变量"},
			},
			Edges: []pkgmodel.Edge{
				{SrcNode: "q", SrcPort: "列表", DstNode: "it", DstPort: "实体列表"},
				{SrcNode: "it", SrcPort: "当前实体", DstNode: "read", DstPort: "目标实体"},
			},
		}
		store := pkgmodel.NewStore()
		store.AddGraph(g)
		pkg := &pkgmodel.Package{ID: "p1", Templates: []pkgmodel.Template{{ID: "t1", EntityType: "玩家", Graphs: []string{"ui"}}}}
		got := run(t, pkgrules.FrontendVariableRule{}, pkg, store)
		require.Len(t, got, 1)
		assert.Contains(t, got[0].Message, "获取单位标签的实体列表")
	})

	t.Run("server graphs are ignored", func(t *testing.T) {
		g := clientGraph("获取实体位置")
		g.Type = "server"
		store := pkgmodel.NewStore()
		store.AddGraph(g)
		pkg := &pkgmodel.Package{ID: "p1", Templates: []pkgmodel.Template{{ID: "t1", EntityType: "物件-动态", Graphs: []string{"ui"}}}}
		assert.Empty(t, run(t, pkgrules.FrontendVariableRule{}, pkg, store))
	})
}

func TestTemplateRule(t *testing.T) {
	store := pkgmodel.NewStore()
	store.AddGraph(&pkgmodel.GraphResource{ID: "g1"})
	pkg := &pkgmodel.Package{
		ID: "p1",
		Templates: []pkgmodel.Template{
			{ID: "t1", Name: "关卡模板", EntityType: "关卡"},
			{ID: "t2", Name: "怪东西", EntityType: "外星人"},
			{ID: "t3", Name: "石头", EntityType: "物件-静态", Graphs: []string{"g1"}, Components: []string{"背包"}},
			{ID: "t4", Name: "箱子", EntityType: "物件", Components: []string{"背包", "商店"}, Graphs: []string{"missing"}},
		},
	}
	got := run(t, pkgrules.TemplateRule{}, pkg, store)
	assert.Equal(t, []string{
		issue.CodeEntityType,
		issue.CodeEntityType, issue.CodeEntityType,
		issue.CodeStaticObjectAttachment, issue.CodeStaticObjectAttachment,
		issue.CodeEntityComponent, issue.CodeGraphMissing,
	}, codes(got))
	assert.Equal(t, issue.LevelWarning, got[1].Level)
	assert.Equal(t, issue.LevelError, got[2].Level)
	assert.Contains(t, got[2].Message, "外星人")
	assert.Equal(t, "模板 '石头' (t3) > 节点图", got[4].Location)
	assert.Contains(t, got[5].Message, "商店")
}

func TestInstanceAndLevelEntity(t *testing.T) {
	store := pkgmodel.NewStore()
	store.AddGraph(&pkgmodel.GraphResource{
		ID:    "g1",
		Nodes: []pkgmodel.GraphNode{{ID: "e1", Title: "实体销毁时", Category: "事件节点"}},
	})
	pkg := &pkgmodel.Package{
		ID:        "p1",
		Templates: []pkgmodel.Template{{ID: "t1", Name: "英雄", EntityType: "角色"}},
		Instances: []pkgmodel.Instance{
			{ID: "i1", Name: "孤儿", TemplateID: "nope"},
			{ID: "i2", Name: "英雄一号", TemplateID: "t1", Graphs: []string{"g1"}},
		},
		LevelEntity: &pkgmodel.Instance{ID: "lv", Name: "关卡", Graphs: []string{"g1"}, Components: []string{"背包"}},
	}

	got := run(t, pkgrules.InstanceRule{}, pkg, store)
	assert.Equal(t, []string{issue.CodeInstanceTemplateMissing, issue.CodeEventNotAllowed}, codes(got))
	assert.Equal(t, "e1", got[1].NodeID)
	assert.Contains(t, got[1].Message, "角色")

	got = run(t, pkgrules.LevelEntityRule{}, pkg, store)
	assert.Equal(t, []string{issue.CodeEntityComponent}, codes(got))
	assert.Equal(t, "lv", got[0].Detail["level_entity_id"])
}

func TestGraphCodeChecker_RunsCodeRules(t *testing.T) {
	store := pkgmodel.NewStore()
	store.AddGraph(&pkgmodel.GraphResource{
		ID: "g1", Name: "主图",
		Source: []byte("class 图:\n    def on_实体创建时(self, 事件源实体):\n        加法运算(self.game, 左值=事件源实体)\n"),
	})
	pkg := &pkgmodel.Package{
		ID:        "p1",
		Templates: []pkgmodel.Template{{ID: "t1", Name: "门", EntityType: "物件-动态", Graphs: []string{"g1"}}},
	}
	got := run(t, pkgrules.TemplateRule{}, pkg, store)
	require.Len(t, got, 1)
	assert.Equal(t, issue.CodeMissingRequiredInputs, got[0].Code)
	assert.Equal(t, "graphs/g1.py", got[0].File)
	assert.Equal(t, "g1", got[0].GraphID)
	assert.Contains(t, got[0].Message, "右值")
}

func TestManagementConfig(t *testing.T) {
	zero := 0.0
	store := pkgmodel.NewStore()
	store.AddGraph(&pkgmodel.GraphResource{ID: "cb"})
	pkg := &pkgmodel.Package{
		ID: "p1",
		Management: pkgmodel.Management{
			Timers: []pkgmodel.Timer{
				{ID: "t1", Name: "倒计时", CallbackGraph: "cb"},
				{ID: "t1", Name: "倒计时", InitialTime: &zero},
				{Name: "无名", CallbackGraph: "gone"},
			},
			LevelVariables: []pkgmodel.LevelVariable{
				{Name: "分数", Type: "整数", Default: "10"},
				{Name: "分数", Type: "整数", Default: "abc"},
				{Name: "怪", Type: "不存在的类型"},
			},
		},
	}
	got := run(t, pkgrules.ManagementConfigRule{}, pkg, store)
	msgs := make([]string, 0, len(got))
	for _, is := range got {
		assert.Equal(t, issue.CodeManagementConfig, is.Code)
		msgs = append(msgs, is.Message)
	}
	assert.Equal(t, []string{
		"计时器 ID 't1' 重复",
		"计时器名称 '倒计时' 重复",
		"计时器 '倒计时' 的初始时间必须大于 0，当前为 0",
		"第3个计时器缺少 timer_id",
		"计时器 '无名' 的回调节点图 'gone' 不存在",
		"关卡变量名称 '分数' 重复",
		"关卡变量 '分数' 的默认值 'abc' 与类型 '整数' 不兼容",
		"关卡变量 '怪' 的类型 '不存在的类型' 无效",
	}, msgs)
}

func TestUiControls(t *testing.T) {
	pkg := &pkgmodel.Package{
		ID: "p1",
		UIControls: []pkgmodel.UIControl{
			{ID: "u1", Name: "血条"},
			{ID: "u2", Name: "按钮", Graphs: []string{"g1"}},
		},
	}
	got := run(t, pkgrules.UiControlsRule{}, pkg, pkgmodel.NewStore())
	require.Len(t, got, 1)
	assert.Equal(t, issue.CodeUIControlGraph, got[0].Code)
	assert.Equal(t, "界面控件 '按钮' (u2) > 节点图", got[0].Location)
}

func TestStructUsage(t *testing.T) {
	store := pkgmodel.NewStore()
	store.AddStruct(pkgmodel.Struct{ID: "s1", Name: "坐标", Kind: "basic", Fields: []pkgmodel.StructField{{Name: "x", Type: "浮点数"}}})
	store.AddStruct(pkgmodel.Struct{ID: "s2", Name: "存档", Kind: "ingame_save", Fields: []pkgmodel.StructField{{Name: "y"}}})
	store.AddStruct(pkgmodel.Struct{ID: "s3", Name: "空", Kind: "basic"})
	store.AddGraph(&pkgmodel.GraphResource{
		ID: "g1",
		Nodes: []pkgmodel.GraphNode{
			{ID: "ok", Title: "拆分结构体"},
			{ID: "unbound", Title: "拼装结构体"},
			{ID: "missing", Title: "修改结构体"},
			{ID: "save", Title: "拆分结构体"},
			{ID: "empty", Title: "拆分结构体"},
			{ID: "field", Title: "拆分结构体"},
			{ID: "other", Title: "加法运算"},
		},
		Metadata: pkgmodel.GraphMetadata{StructBindings: map[string]pkgmodel.StructBinding{
			"ok":      {StructID: "s1", FieldNames: []string{"x"}},
			"missing": {StructID: "s9"},
			"save":    {StructID: "s2"},
			"empty":   {StructID: "s3"},
			"field":   {StructID: "s1", FieldNames: []string{"x", "z"}},
		}},
	})
	pkg := &pkgmodel.Package{ID: "p1"}

	got := run(t, pkgrules.StructUsageRule{}, pkg, store)
	require.Len(t, got, 5)
	var nodes []string
	for _, is := range got {
		assert.Equal(t, issue.CodeStructBinding, is.Code)
		nodes = append(nodes, is.NodeID)
	}
	assert.Equal(t, []string{"unbound", "missing", "save", "empty", "field"}, nodes)
	assert.Equal(t, "结构体节点未选择结构体。", got[0].Message)
	assert.Equal(t, []string{"z"}, got[4].Detail["invalid_fields"])
	assert.Equal(t, "资源库 > 节点图 'g1' (g1) > 节点 '拼装结构体' (ID: unbound)", got[0].Location)
}

func TestSignalUsage(t *testing.T) {
	store := pkgmodel.NewStore()
	store.AddSignal(pkgmodel.Signal{
		ID: "sig1", Name: "开门",
		Params: []pkgmodel.SignalParam{{Name: "次数", Type: "整数"}, {Name: "原因", Type: "字符串"}},
	})
	long := pkgmodel.Signal{ID: "sig2", Name: "长信号", Params: []pkgmodel.SignalParam{{Name: "一二三四五六七八九十一二三四五六七八九十一二三四五六七八九十一", Type: "整数"}}}
	store.AddSignal(long)
	store.AddGraph(&pkgmodel.GraphResource{
		ID: "g1",
		Nodes: []pkgmodel.GraphNode{
			{ID: "unbound", Title: "发送信号"},
			{ID: "ghost", Title: "监听信号"},
			{
				ID: "byname", Title: "发送信号", Inputs: []string{"信号名", "次数"},
				InputConstants: map[string]string{"信号名": "开门", "次数": "abc"},
			},
			{ID: "wired", Title: "发送信号", Inputs: []string{"次数", "原因"}},
			{ID: "txt", Title: "获取文本"},
			{ID: "gen", Title: "获取泛型"},
		},
		Edges: []pkgmodel.Edge{
			{SrcNode: "txt", SrcPort: "文本", DstNode: "wired", DstPort: "次数"},
			{SrcNode: "gen", SrcPort: "值", DstNode: "wired", DstPort: "原因"},
		},
		Metadata: pkgmodel.GraphMetadata{SignalBindings: map[string]pkgmodel.SignalBinding{
			"ghost": {SignalID: "sig404"},
			"wired": {SignalID: "sig1"},
		}},
	})

	got := run(t, pkgrules.SignalUsageRule{}, &pkgmodel.Package{ID: "p1"}, store)
	assert.Equal(t, []string{
		issue.CodeSignalDefinitionBounds,
		issue.CodeSignalUnbound,
		issue.CodeSignalUnbound,
		issue.CodeSignalConstantType,
		issue.CodeSignalMissingParamPort,
		issue.CodeSignalWireType,
	}, codes(got))
	assert.Equal(t, "信号定义 '长信号' (ID: sig2)", got[0].Location)
	assert.Equal(t, "发送信号节点未选择信号", got[1].Message)
	assert.Equal(t, "节点引用了在当前存档中不存在的信号（可能已被删除）。", got[2].Message)
	assert.Equal(t, "byname", got[3].NodeID)
	assert.Equal(t, "原因", got[4].Port)
	assert.Equal(t, issue.LevelWarning, got[5].Level)
	assert.Equal(t, "次数", got[5].Port)
}

func TestComprehensiveValidator(t *testing.T) {
	store := pkgmodel.NewStore()
	store.AddGraph(&pkgmodel.GraphResource{ID: "g1"})
	pkg := &pkgmodel.Package{
		ID:     "p1",
		Graphs: []string{"g1", "g2"},
		UIControls: []pkgmodel.UIControl{
			{ID: "u1", Name: "按钮", Graphs: []string{"g1"}},
			{ID: "u1", Name: "按钮", Graphs: []string{"g1"}},
		},
		Templates: []pkgmodel.Template{{ID: "t1", Name: "门", EntityType: "物件-动态", Graphs: []string{"g1"}}},
	}
	v := pkgrules.NewComprehensiveValidator(pkg, store, newEnv(t, store), nil)

	got, err := v.ValidateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{issue.CodeGraphNotAttached, issue.CodeUIControlGraph}, codes(got))

	s := v.Summary()
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Errors)
	assert.False(t, s.Passed)

	order, groups := v.IssuesByCategory()
	assert.Equal(t, []string{issue.CategoryMount, issue.CategoryUIControl}, order)
	assert.Len(t, groups[issue.CategoryUIControl], 1)

	again, err := v.ValidateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, got, v.Issues())

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := v.ValidateAll(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDefault_Order(t *testing.T) {
	var ids []string
	for _, r := range pkgrules.Default(nil) {
		ids = append(ids, r.ID())
	}
	assert.Equal(t, []string{
		"package.templates", "package.instances", "package.level_entity",
		"package.graph_mount", "package.composite_nodes", "package.frontend_variable_usage",
		"package.graph_performance", "package.management", "package.ui_controls",
		"package.struct_usage", "package.signal_usage", "package.library_graphs",
	}, ids)
}

func TestComprehensiveValidator_MountedGraphCheckedOnce(t *testing.T) {
	src := []byte("class 图:\n    def on_实体创建时(self, 事件源实体):\n        加法运算(self.game, 左值=事件源实体)\n")
	store := pkgmodel.NewStore()
	store.AddGraph(&pkgmodel.GraphResource{ID: "g1", Name: "主图", Source: src})
	store.AddGraph(&pkgmodel.GraphResource{ID: "g2", Name: "备用", Source: src})
	pkg := &pkgmodel.Package{
		ID:        "p1",
		Graphs:    []string{"g1"},
		Templates: []pkgmodel.Template{{ID: "t1", Name: "门", EntityType: "物件-动态", Graphs: []string{"g1"}}},
	}
	v := pkgrules.NewComprehensiveValidator(pkg, store, newEnv(t, store), nil)

	got, err := v.ValidateAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{issue.CodeMissingRequiredInputs, issue.CodeMissingRequiredInputs}, codes(got))
	assert.Equal(t, "g1", got[0].GraphID)
	assert.Contains(t, got[0].Location, "模板 '门' (t1)")
	assert.Equal(t, "g2", got[1].GraphID)
	assert.Contains(t, got[1].Location, "资源库")
}

// mutableSource serves whatever definitions it currently holds.
type mutableSource struct {
	defs registry.StaticSource
}

func (s *mutableSource) Load(ws string) ([]registry.NodeDefinition, error) {
	return s.defs.Load(ws)
}

func TestComprehensiveValidator_ReloadsNodeLibrary(t *testing.T) {
	lib := &mutableSource{defs: registry.StaticSource{
		{Name: "加法运算", Category: "运算节点", Inputs: []registry.Port{{Name: "左值", Type: "整数"}}},
		{Name: "实体创建时", Category: "事件节点", Outputs: []registry.Port{{Name: "事件源实体", Type: "实体"}}},
	}}
	store := pkgmodel.NewStore()
	store.AddGraph(&pkgmodel.GraphResource{
		ID: "g1", Name: "主图",
		Source: []byte("class 图:\n    def on_实体创建时(self, 事件源实体):\n        加法运算(self.game, 左值=事件源实体)\n"),
	})
	pkg := &pkgmodel.Package{ID: "p1", Graphs: []string{"g1"}}
	env, err := validate.NewEnv(t.TempDir(), validate.EnvOptions{
		Config:     validate.DefaultConfig(),
		Registries: registry.NewCache(lib),
		Resources:  store,
	})
	require.NoError(t, err)
	v := pkgrules.NewComprehensiveValidator(pkg, store, env, nil)

	got, err := v.ValidateAll(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, codes(got), issue.CodeMissingRequiredInputs)

	lib.defs[0].Inputs = append(lib.defs[0].Inputs, registry.Port{Name: "右值", Type: "整数"})
	got, err = v.ValidateAll(context.Background())
	require.NoError(t, err)
	assert.Contains(t, codes(got), issue.CodeMissingRequiredInputs)
}
