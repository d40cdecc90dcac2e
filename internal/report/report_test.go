package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/issue"
	"github.com/AyayaXiaowang/Ayaya-Miliastra-Editor-sub005/internal/report"
)

func sample() []issue.Issue {
	return []issue.Issue{
		issue.Errorf(issue.CategoryCodeStyle, issue.CodeMissingRequiredInputs, "缺少必填输入端口：右值").
			InFile("graphs/a.py", "第3~3行").
			WithHint("请补全端口。", "节点图规范.md"),
		issue.Warnf(issue.CategoryMount, issue.CodeGraphNotAttached, "节点图 'g2' 未挂载").
			At("存档 'A' (p1) > 节点图索引"),
		issue.Warnf(issue.CategoryCodeStyle, issue.CodeNoLiteralAssignment, "不允许直接赋值字面量"),
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Text(&buf, "存档 p1", sample(), report.Options{}))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "存档 p1\n"))
	style := strings.Index(out, "【代码规范】 (2)")
	mount := strings.Index(out, "【节点图挂载】 (1)")
	require.GreaterOrEqual(t, style, 0)
	assert.Greater(t, mount, style)
	assert.Contains(t, out, "  ❌ 缺少必填输入端口：右值 [CODE_NODE_MISSING_REQUIRED_INPUTS]\n")
	assert.Contains(t, out, "     位置：graphs/a.py 第3~3行\n")
	assert.Contains(t, out, "     建议：请补全端口。\n")
	assert.Contains(t, out, "     参考：节点图规范.md\n")
	assert.Contains(t, out, "     位置：存档 'A' (p1) > 节点图索引\n")
	assert.Contains(t, out, "发现 3 个问题： 1 个错误 2 个警告\n")
	assert.NotContains(t, out, "\x1b[")
}

func TestText_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Text(&buf, "", nil, report.Options{}))
	assert.Equal(t, "✅ 验证通过，未发现问题\n", buf.String())
}

func TestText_Color(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Text(&buf, "", sample(), report.Options{Color: true}))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	doc := report.NewDocument("run-1", "p1", "存档一", sample())
	require.NoError(t, report.JSON(&buf, doc))

	var got struct {
		RunID     string        `json:"run_id"`
		PackageID string        `json:"package_id"`
		Name      string        `json:"name"`
		Summary   issue.Summary `json:"summary"`
		Issues    []issue.Dict  `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "p1", got.PackageID)
	assert.Equal(t, issue.Summary{Total: 3, Errors: 1, Warnings: 2}, got.Summary)
	require.Len(t, got.Issues, 3)
	assert.Equal(t, "第3~3行", got.Issues[0].LineSpan)

	t.Run("empty issues encode as a list", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, report.JSON(&buf, report.NewDocument("", "", "", nil)))
		assert.Contains(t, buf.String(), `"issues": []`)
		assert.Contains(t, buf.String(), `"passed": true`)
	})
}

func TestJSONDocuments(t *testing.T) {
	var buf bytes.Buffer
	docs := []report.Document{
		report.NewDocument("r", "p1", "一", sample()),
		report.NewDocument("r", "p2", "二", nil),
	}
	require.NoError(t, report.JSONDocuments(&buf, docs))

	var got []report.Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "p2", got[1].PackageID)
	assert.True(t, got[1].Summary.Passed)

	buf.Reset()
	require.NoError(t, report.JSONDocuments(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestBanner(t *testing.T) {
	t.Run("failed", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, report.Banner(&buf, "/ws/graphs/门.py", false, []string{"错一", "错二"}, []string{"警一"}, report.Options{}))
		out := buf.String()
		assert.Contains(t, out, "节点图自检: 门.py\n")
		assert.Contains(t, out, "文件: /ws/graphs/门.py\n")
		assert.Contains(t, out, "结果: 未通过（错误: 2，警告: 1）\n")
		assert.Contains(t, out, "\n错误明细:\n  [1] 错一\n  [2] 错二\n")
		assert.Contains(t, out, "\n警告明细:\n  [1] 警一\n")
		assert.Equal(t, 2, strings.Count(out, strings.Repeat("=", 80)))
	})

	t.Run("passed", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, report.Banner(&buf, "a.py", true, nil, nil, report.Options{}))
		assert.Contains(t, buf.String(), "结果: 通过\n")
		assert.NotContains(t, buf.String(), "明细")
	})
}
