package section

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/types"
)

// Config 章节引擎的配置
type Config struct {
	// ScanWindow 容器边界扩展的回溯窗口（字符数），<=0 时取默认值
	ScanWindow int

	// GroupingTags 认可的分组容器家族，为空时取默认家族
	GroupingTags []string

	// ExtraIdentifiers 词表之外额外固定扫描的章节标识符
	ExtraIdentifiers []string
}

// DiscoverOptions 单次发现调用的可选输入
type DiscoverOptions struct {
	// Schema 声明的期望章节列表（有序），未发现的声明会合成占位章节
	Schema []types.SchemaSection

	// Presence 数据层的内容存在性，key为章节标识符
	// 用于自定义章节组：数据里有内容但文档里还没有指令块时也要给出占位
	Presence map[string]bool
}

// Engine 章节发现与边界引擎
// 无内部可变状态，所有方法都是输入的纯函数，可在任意文档上反复调用
type Engine struct {
	scanWindow   int
	groupingTags map[string]bool
	identifiers  []string

	// 构造时编译好的正则表达式
	directiveRegexps map[string]*regexp.Regexp
	slotPatterns     []slotPattern
	familyOpenRe     *regexp.Regexp
	familyCloseRe    *regexp.Regexp
	closeScanRegexps map[string]*regexp.Regexp
}

// NewEngine 创建一个新的章节引擎
func NewEngine(cfg Config) (*Engine, error) {
	scanWindow := cfg.ScanWindow
	if scanWindow <= 0 {
		scanWindow = constants.DefaultBoundaryScanWindow
	}

	tags := cfg.GroupingTags
	if len(tags) == 0 {
		tags = constants.DefaultGroupingTags
	}
	groupingTags := make(map[string]bool, len(tags))
	quoted := make([]string, 0, len(tags))
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		if groupingTags[lower] {
			continue
		}
		groupingTags[lower] = true
		quoted = append(quoted, regexp.QuoteMeta(lower))
	}

	identifiers := make([]string, 0, len(constants.StandardSectionIdentifiers)+1+len(cfg.ExtraIdentifiers))
	identifiers = append(identifiers, constants.StandardSectionIdentifiers...)
	identifiers = append(identifiers, constants.CustomGroupIdentifier)
	identifiers = append(identifiers, cfg.ExtraIdentifiers...)

	directiveRegexps, err := compileDirectiveRegexps(identifiers)
	if err != nil {
		return nil, err
	}

	slotPatterns, err := compileSlotPatterns()
	if err != nil {
		return nil, err
	}

	family := strings.Join(quoted, "|")
	familyOpenRe, err := regexp.Compile(`(?i)<(?:` + family + `)\b[^>]*>`)
	if err != nil {
		return nil, fmt.Errorf("编译家族开标签正则错误: %w", err)
	}
	familyCloseRe, err := regexp.Compile(`(?i)</(?:` + family + `)\s*>`)
	if err != nil {
		return nil, fmt.Errorf("编译家族闭标签正则错误: %w", err)
	}

	closeScanRegexps := make(map[string]*regexp.Regexp, len(groupingTags))
	for tag := range groupingTags {
		re, err := regexp.Compile(`(?i)<(/?)` + regexp.QuoteMeta(tag) + `\b[^>]*>`)
		if err != nil {
			return nil, fmt.Errorf("编译闭合扫描正则错误 %s: %w", tag, err)
		}
		closeScanRegexps[tag] = re
	}

	return &Engine{
		scanWindow:       scanWindow,
		groupingTags:     groupingTags,
		identifiers:      identifiers,
		directiveRegexps: directiveRegexps,
		slotPatterns:     slotPatterns,
		familyOpenRe:     familyOpenRe,
		familyCloseRe:    familyCloseRe,
		closeScanRegexps: closeScanRegexps,
	}, nil
}

// Discover 对文档做一次完整的章节发现
// 每次调用都从头重新计算，不保留任何跨调用的章节身份；
// 返回顺序：实际章节按起始偏移升序，之后是schema顺序的占位章节
func (e *Engine) Discover(doc string, opts DiscoverOptions) []*types.Section {
	slots := e.locateSlots(doc)

	ids := append([]string{}, e.identifiers...)
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	for _, s := range opts.Schema {
		if !known[s.Identifier] {
			known[s.Identifier] = true
			ids = append(ids, s.Identifier)
		}
	}

	// 第一步：收集全部指令对并尝试边界扩展
	type candidate struct {
		id   string
		raw  types.Span // 指令对的字面范围，扩展失败或冲突时的退路
		span types.Span
	}
	var candidates []candidate
	for _, id := range ids {
		for _, m := range e.findDirectiveSpans(doc, id) {
			c := candidate{id: id, raw: m.Span, span: m.Span}
			if expanded, ok := e.expandToContainer(doc, m.Span); ok {
				c.span = expanded
			}
			candidates = append(candidates, c)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].span.Start != candidates[j].span.Start {
			return candidates[i].span.Start < candidates[j].span.Start
		}
		return candidates[i].raw.Start < candidates[j].raw.Start
	})

	// 第二步：强制实际范围互不重叠
	// 扩展可能让相邻指令争抢同一个容器；冲突的先退回字面范围，仍冲突则丢弃
	// （宁可少报一个章节，也不报出会撕坏文档的范围）
	titles := schemaTitles(opts.Schema)
	var real []*types.Section
	prevEnd := 0
	for _, c := range candidates {
		span := c.span
		if span.Start < prevEnd {
			span = c.raw
		}
		if span.Start < prevEnd {
			continue
		}
		prevEnd = span.End

		kind := types.KindStandard
		if c.id == constants.CustomGroupIdentifier {
			kind = types.KindCustomGroup
		}
		s := span
		real = append(real, &types.Section{
			Identifier:  c.id,
			DisplayName: sectionTitle(c.id, titles),
			Kind:        kind,
			Span:        &s,
			RawContent:  doc[span.Start:span.End],
			Slot:        slotFor(slots, span),
		})
	}

	// 退回字面范围可能打乱起始顺序，最终再排一次
	sort.Slice(real, func(i, j int) bool {
		return real[i].Span.Start < real[j].Span.Start
	})

	return e.reconcile(real, opts)
}

// schemaTitles 提取schema声明的展示标题
func schemaTitles(schema []types.SchemaSection) map[string]string {
	if len(schema) == 0 {
		return nil
	}
	titles := make(map[string]string, len(schema))
	for _, s := range schema {
		if s.Title != "" {
			titles[s.Identifier] = s.Title
		}
	}
	return titles
}

// sectionTitle 取schema标题，没有则按标识符推导
func sectionTitle(identifier string, titles map[string]string) string {
	if t, ok := titles[identifier]; ok {
		return t
	}
	return deriveDisplayName(identifier)
}

// deriveDisplayName 从标识符推导展示名称
// 驼峰标识符按大写字母拆词，每个词首字母大写："customSections" -> "Custom Sections"
func deriveDisplayName(identifier string) string {
	var b strings.Builder
	prevLower := false
	for i, r := range identifier {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			prevLower = unicode.IsLower(r)
			continue
		}
		if unicode.IsUpper(r) && prevLower {
			b.WriteByte(' ')
		}
		prevLower = unicode.IsLower(r)
		b.WriteRune(r)
	}
	return b.String()
}
