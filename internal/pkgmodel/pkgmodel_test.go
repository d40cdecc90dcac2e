package pkgmodel_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/pkgmodel"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	ws := t.TempDir()
	for name, content := range files {
		path := filepath.Join(ws, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return ws
}

func TestAttachments_OrderAndOwners(t *testing.T) {
	store := pkgmodel.NewStore()
	store.AddGraph(&pkgmodel.GraphResource{ID: "g1", Name: "开门"})
	store.AddGraph(&pkgmodel.GraphResource{ID: "g2"})

	pkg := &pkgmodel.Package{
		ID: "p1",
		Templates: []pkgmodel.Template{
			{ID: "t1", Name: "门", EntityType: "物件-动态", Graphs: []string{"g1", "g1"}},
		},
		Instances: []pkgmodel.Instance{
			{ID: "i1", Name: "门1", TemplateID: "t1", Graphs: []string{"missing"}},
		},
		LevelEntity: &pkgmodel.Instance{ID: "lvl", Name: "关卡", Graphs: []string{"g2"}},
	}

	var got []pkgmodel.Attachment
	for a := range pkgmodel.Attachments(pkg, store) {
		got = append(got, a)
	}
	require.Len(t, got, 5)

	assert.Equal(t, pkgmodel.OwnerTemplate, got[0].OwnerKind)
	assert.Equal(t, "模板 '门' (t1) > 节点图 '开门' (g1)", got[0].Location)
	assert.NotNil(t, got[0].Graph)

	assert.Equal(t, pkgmodel.OwnerInstance, got[1].OwnerKind)
	assert.Equal(t, "物件-动态", got[1].EntityType, "instance inherits template entity type")
	assert.Nil(t, got[1].Graph)

	assert.Equal(t, pkgmodel.OwnerLevelEntity, got[2].OwnerKind)
	assert.Equal(t, "关卡", got[2].EntityType)

	assert.Equal(t, pkgmodel.OwnerLibrary, got[3].OwnerKind)
	assert.False(t, got[3].Mounted())
	assert.Equal(t, "g1", got[3].GraphID)
	assert.Equal(t, "g2", got[4].GraphID)
}

func TestAttachments_StopsEarly(t *testing.T) {
	pkg := &pkgmodel.Package{Templates: []pkgmodel.Template{{ID: "t1", Graphs: []string{"a", "b", "c"}}}}
	n := 0
	for range pkgmodel.Attachments(pkg, nil) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestLoadResourcesAndPackage(t *testing.T) {
	ws := writeFiles(t, map[string]string{
		"resources/graphs/door.yaml": `id: g1
name: 开门
type: server
source_path: graphs/door.py
nodes:
  - {id: n1, title: 发送信号, inputs: [流程入, 信号名, 数量]}
metadata:
  signal_bindings:
    n1: {signal_id: s1}
`,
		"graphs/door.py":              "x: \"整数\" = 1\n",
		"resources/signals.yaml":      "signals:\n  - {id: s1, name: 开门, params: [{name: 数量, type: 整数}]}\n",
		"resources/structs.yaml":      "structs:\n  - {id: st1, name: 背包, kind: basic, fields: [{name: 容量, type: 整数}]}\n",
		"resources/composites/c.yaml": "id: c1\nname: 计时器\n",
		"packages/p1/package.yaml":    "name: 测试包\ngraphs: [g1]\ntemplates:\n  - {id: t1, name: 门, entity_type: 物件-动态, default_graphs: [g1]}\n",
	})

	store, err := pkgmodel.LoadResources(ws)
	require.NoError(t, err)
	g, ok := store.Graph("g1")
	require.True(t, ok)
	assert.Equal(t, "x: \"整数\" = 1\n", string(g.Source))
	assert.Equal(t, "s1", g.Metadata.SignalBindings["n1"].SignalID)
	assert.Len(t, store.Composites(), 1)

	cat := pkgmodel.NewCatalog(store)
	sig, ok := cat.SignalByName("开门")
	require.True(t, ok)
	assert.Equal(t, "s1", sig.ID)
	st, ok := cat.StructByName("背包")
	require.True(t, ok)
	assert.True(t, st.HasField("容量"))

	ids, err := pkgmodel.PackageIDs(ws)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)

	pkg, err := pkgmodel.LoadPackage(ws, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", pkg.ID)
	assert.Equal(t, "测试包", pkg.Name)
	require.Len(t, pkg.Templates, 1)
}

func TestLoadResources_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"malformed graph", map[string]string{"resources/graphs/g.yaml": "id: [\n"}},
		{"graph without id", map[string]string{"resources/graphs/g.yaml": "name: x\n"}},
		{"bad graph type", map[string]string{"resources/graphs/g.yaml": "id: g\ntype: web\n"}},
		{"duplicate graph", map[string]string{
			"resources/graphs/a.yaml": "id: g\n",
			"resources/graphs/b.yaml": "id: g\n",
		}},
		{"signal without name", map[string]string{"resources/signals.yaml": "signals:\n  - {id: s1}\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pkgmodel.LoadResources(writeFiles(t, tt.files))
			assert.ErrorIs(t, err, pkgmodel.ErrLoad)
		})
	}
}

func TestTimerInitialDefault(t *testing.T) {
	assert.Equal(t, pkgmodel.DefaultTimerInitialTime, pkgmodel.Timer{}.Initial())
	v := 0.0
	assert.Equal(t, 0.0, pkgmodel.Timer{InitialTime: &v}.Initial())
}
