package section

import (
	"strings"
	"testing"

	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestEngine 默认配置的测试引擎
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(Config{})
	require.NoError(t, err)
	return engine
}

// TestDiscoverExpandsToInnerContainer 指令块要扩展到最内层的合格容器
// 外层div和内层div都在指令之前打开，但外层的interim里有一个未闭合的内层div，
// 计数不平衡，所以必须选中内层
func TestDiscoverExpandsToInnerContainer(t *testing.T) {
	engine := newTestEngine(t)

	doc := `<div>A<div class='section'>{{#work}}X{{/work}}</div>B</div>`
	sections := engine.Discover(doc, DiscoverOptions{})

	require.Len(t, sections, 1)
	s := sections[0]
	assert.Equal(t, "work", s.Identifier)
	assert.Equal(t, types.KindStandard, s.Kind)
	require.NotNil(t, s.Span)
	assert.Equal(t, `<div class='section'>{{#work}}X{{/work}}</div>`, s.RawContent)
	assert.Equal(t, doc[s.Span.Start:s.Span.End], s.RawContent)
}

// TestDiscoverExpansionMonotonic 扩展后的范围必须完整包含指令的字面范围
func TestDiscoverExpansionMonotonic(t *testing.T) {
	engine := newTestEngine(t)

	doc := `<section id="w"><h3>Work</h3>{{#work}}W{{/work}}</section>`
	directiveStart := strings.Index(doc, "{{#work}}")
	directiveEnd := strings.Index(doc, "{{/work}}") + len("{{/work}}")

	sections := engine.Discover(doc, DiscoverOptions{})
	require.Len(t, sections, 1)
	require.NotNil(t, sections[0].Span)
	assert.LessOrEqual(t, sections[0].Span.Start, directiveStart)
	assert.GreaterOrEqual(t, sections[0].Span.End, directiveEnd)
}

// TestDiscoverUnclosedDirectiveSkipped 没有闭合对的指令不是合法章节，静默跳过
func TestDiscoverUnclosedDirectiveSkipped(t *testing.T) {
	engine := newTestEngine(t)

	doc := `<div>{{#work}}truncated here`
	sections := engine.Discover(doc, DiscoverOptions{})
	assert.Empty(t, sections)
}

// TestDiscoverFallbackWithoutContainer 回溯窗口内没有合格容器时退回字面范围
func TestDiscoverFallbackWithoutContainer(t *testing.T) {
	engine := newTestEngine(t)

	doc := `plain text {{#skills}}S{{/skills}} more text`
	sections := engine.Discover(doc, DiscoverOptions{})

	require.Len(t, sections, 1)
	require.NotNil(t, sections[0].Span)
	assert.Equal(t, `{{#skills}}S{{/skills}}`, sections[0].RawContent)
}

// TestDiscoverFallbackOnMissingClose 找不到配对闭标签时整体放弃扩展
func TestDiscoverFallbackOnMissingClose(t *testing.T) {
	engine := newTestEngine(t)

	doc := `<div><div class='x'>{{#work}}X{{/work}}`
	sections := engine.Discover(doc, DiscoverOptions{})

	require.Len(t, sections, 1)
	assert.Equal(t, `{{#work}}X{{/work}}`, sections[0].RawContent)
}

// TestDiscoverScanWindowBounded 容器开标签超出回溯窗口时视为不存在
func TestDiscoverScanWindowBounded(t *testing.T) {
	engine, err := NewEngine(Config{ScanWindow: 8})
	require.NoError(t, err)

	// 容器和指令之间隔了远超窗口的填充
	doc := `<div>` + strings.Repeat("x", 64) + `{{#work}}W{{/work}}</div>`
	sections := engine.Discover(doc, DiscoverOptions{})

	require.Len(t, sections, 1)
	assert.Equal(t, `{{#work}}W{{/work}}`, sections[0].RawContent)
}

// TestDiscoverSelfClosingIgnored 自闭合标签既不是候选容器也不参与平衡计数
func TestDiscoverSelfClosingIgnored(t *testing.T) {
	engine := newTestEngine(t)

	doc := `<div class="a"><img/><div/>{{#work}}W{{/work}}</div>`
	sections := engine.Discover(doc, DiscoverOptions{})

	require.Len(t, sections, 1)
	assert.Equal(t, `<div class="a"><img/><div/>{{#work}}W{{/work}}</div>`, sections[0].RawContent)
}

// TestDiscoverForwardNestingCounted 向后找闭标签时同名开标签要加深嵌套计数
func TestDiscoverForwardNestingCounted(t *testing.T) {
	engine := newTestEngine(t)

	doc := `<div>{{#work}}W{{/work}}<div>sibling</div></div>tail`
	sections := engine.Discover(doc, DiscoverOptions{})

	require.Len(t, sections, 1)
	assert.Equal(t, `<div>{{#work}}W{{/work}}<div>sibling</div></div>`, sections[0].RawContent)
}

// TestDiscoverSpansNeverOverlap 任何文档上实际章节的范围都互不重叠
// 两个指令共享一个容器时扩展会争抢，后到的先退回字面范围、仍冲突则丢弃
func TestDiscoverSpansNeverOverlap(t *testing.T) {
	engine := newTestEngine(t)

	docs := []string{
		`<div>{{#work}}W{{/work}}{{#education}}E{{/education}}</div>`,
		`<div><div>{{#work}}W{{/work}}</div><div>{{#skills}}S{{/skills}}</div></div>`,
		`{{#work}}W{{/work}}{{#work}}W2{{/work}}`,
	}
	for _, doc := range docs {
		sections := realSections(engine.Discover(doc, DiscoverOptions{}))
		for i := 1; i < len(sections); i++ {
			prev, cur := sections[i-1], sections[i]
			assert.False(t, prev.Span.Overlaps(*cur.Span),
				"章节范围重叠: %v 与 %v (doc=%q)", prev.Span, cur.Span, doc)
			assert.LessOrEqual(t, prev.Span.Start, cur.Span.Start, "发现结果必须按起始偏移排序")
		}
		for _, s := range sections {
			assert.GreaterOrEqual(t, s.Span.Start, 0)
			assert.LessOrEqual(t, s.Span.End, len(doc))
		}
	}
}

// TestDiscoverSiblingContainers 相邻的独立容器互不干扰，各自扩展
func TestDiscoverSiblingContainers(t *testing.T) {
	engine := newTestEngine(t)

	doc := `<div><div>{{#work}}W{{/work}}</div><div>{{#skills}}S{{/skills}}</div></div>`
	sections := engine.Discover(doc, DiscoverOptions{})

	require.Len(t, sections, 2)
	assert.Equal(t, "work", sections[0].Identifier)
	assert.Equal(t, `<div>{{#work}}W{{/work}}</div>`, sections[0].RawContent)
	assert.Equal(t, "skills", sections[1].Identifier)
	assert.Equal(t, `<div>{{#skills}}S{{/skills}}</div>`, sections[1].RawContent)
}

// TestDiscoverSlotAssignment 两套槽位约定都要被识别，按包含关系归属
func TestDiscoverSlotAssignment(t *testing.T) {
	engine := newTestEngine(t)

	doc := `{{#sidebar}}<div class="s">{{#skills}}S{{/skills}}</div>{{/sidebar}}` +
		`<!-- SLOT-START: MAIN --><div>{{#work}}W{{/work}}</div><!-- slot-end: main -->`
	sections := engine.Discover(doc, DiscoverOptions{})

	require.Len(t, sections, 2)
	byID := map[string]*types.Section{}
	for _, s := range sections {
		byID[s.Identifier] = s
	}
	require.Contains(t, byID, "skills")
	require.Contains(t, byID, "work")
	assert.Equal(t, types.SlotSidebar, byID["skills"].Slot)
	assert.Equal(t, types.SlotMain, byID["work"].Slot)
}

// TestDiscoverSlotUnsetWithoutMarkers 文档完全没有槽位标记时槽位保持未设置
func TestDiscoverSlotUnsetWithoutMarkers(t *testing.T) {
	engine := newTestEngine(t)

	doc := `<div>{{#work}}W{{/work}}</div>`
	sections := engine.Discover(doc, DiscoverOptions{})

	require.Len(t, sections, 1)
	assert.Equal(t, types.SlotUnset, sections[0].Slot)
}

// TestDiscoverCustomGroupKind customSections块识别为自定义章节组
func TestDiscoverCustomGroupKind(t *testing.T) {
	engine := newTestEngine(t)

	doc := `<div>{{#customSections}}C{{/customSections}}</div>`
	sections := engine.Discover(doc, DiscoverOptions{})

	require.Len(t, sections, 1)
	assert.Equal(t, constants.CustomGroupIdentifier, sections[0].Identifier)
	assert.Equal(t, types.KindCustomGroup, sections[0].Kind)
	assert.Equal(t, "Custom Sections", sections[0].DisplayName)
}

// TestDiscoverSchemaPlaceholders schema声明但未发现的章节补成占位，排在实际章节后
func TestDiscoverSchemaPlaceholders(t *testing.T) {
	engine := newTestEngine(t)

	doc := `<div>{{#work}}W{{/work}}</div>`
	schema := []types.SchemaSection{
		{Identifier: "education", Title: "学历", SlotHint: types.SlotSidebar, CanHaveContent: true},
		{Identifier: "work", Title: "工作经历", CanHaveContent: true},
		{Identifier: "awards", CanHaveContent: true},
	}
	sections := engine.Discover(doc, DiscoverOptions{Schema: schema})

	require.Len(t, sections, 3)
	// 实际章节在前，schema标题覆盖推导名
	assert.Equal(t, "work", sections[0].Identifier)
	assert.False(t, sections[0].IsVirtual())
	assert.Equal(t, "工作经历", sections[0].DisplayName)
	// 占位章节按schema声明顺序
	assert.Equal(t, "education", sections[1].Identifier)
	assert.True(t, sections[1].IsVirtual())
	assert.Equal(t, types.KindPlaceholder, sections[1].Kind)
	assert.Equal(t, "学历", sections[1].DisplayName)
	assert.Equal(t, types.SlotSidebar, sections[1].Slot)
	assert.Empty(t, sections[1].RawContent)
	// 没有槽位提示的占位默认main
	assert.Equal(t, "awards", sections[2].Identifier)
	assert.Equal(t, types.SlotMain, sections[2].Slot)
	assert.Equal(t, "Awards", sections[2].DisplayName)
}

// TestDiscoverSchemaDeclaredIdentifier schema声明的自定义标识符也参与指令扫描
func TestDiscoverSchemaDeclaredIdentifier(t *testing.T) {
	engine := newTestEngine(t)

	doc := `<div>{{#publications}}P{{/publications}}</div>`
	schema := []types.SchemaSection{
		{Identifier: "publications", Title: "Publications", CanHaveContent: true},
	}
	sections := engine.Discover(doc, DiscoverOptions{Schema: schema})

	require.Len(t, sections, 1)
	assert.Equal(t, "publications", sections[0].Identifier)
	assert.False(t, sections[0].IsVirtual())
}

// TestDiscoverCustomPresencePlaceholder 数据层有自定义内容但文档里没有指令块时补占位
func TestDiscoverCustomPresencePlaceholder(t *testing.T) {
	engine := newTestEngine(t)

	doc := `<div>{{#work}}W{{/work}}</div>`
	sections := engine.Discover(doc, DiscoverOptions{
		Presence: map[string]bool{constants.CustomGroupIdentifier: true},
	})

	require.Len(t, sections, 2)
	assert.Equal(t, constants.CustomGroupIdentifier, sections[1].Identifier)
	assert.True(t, sections[1].IsVirtual())
	assert.Equal(t, types.SlotMain, sections[1].Slot)
}

// TestDiscoverPure 同样的输入反复调用结果一致（无跨调用状态）
func TestDiscoverPure(t *testing.T) {
	engine := newTestEngine(t)

	doc := `<div>{{#work}}W{{/work}}</div><div>{{#skills}}S{{/skills}}</div>`
	first := engine.Discover(doc, DiscoverOptions{})
	second := engine.Discover(doc, DiscoverOptions{})
	assert.Equal(t, first, second)
}

// TestDeriveDisplayName 标识符到展示名的推导规则
func TestDeriveDisplayName(t *testing.T) {
	cases := map[string]string{
		"work":           "Work",
		"education":      "Education",
		"customSections": "Custom Sections",
		"volunteer":      "Volunteer",
	}
	for id, want := range cases {
		assert.Equal(t, want, deriveDisplayName(id))
	}
}
