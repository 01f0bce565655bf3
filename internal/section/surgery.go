package section

import (
	"strings"

	"cv-agent-go/internal/types"
)

// Reorder 按目标标识符顺序对章节内容做保位置重排
//
// 内部总是对传入文档重新做一次发现，不接受缓存的章节列表：
// 文档只要在任何早于某偏移的位置变过长度，旧偏移就全部作废
//
// 重排把各章节捕获的原始内容在"物理槽位"（各章节当前占据的字节范围）之间
// 置换，槽位之间的静态文本逐字节保留。目标顺序中未被发现的标识符直接忽略；
// 目标顺序没覆盖到的章节出现（同名章节多于顺序中的次数时）按原物理顺序
// 补在已覆盖部分之后，槽位数与内容数始终一一对应，内容多重集合逐字节守恒
//
// 已知局限：该算法假设各槽位的外层包装结构可以互换（模板刻意统一包装样式
// 时成立）。槽位容器结构不一致时这里不做检测，只保证边界处字节完整，
// 不保证渲染结果正确；跨列移动请走外部的apply-layout协作方
func (e *Engine) Reorder(doc string, order []string) string {
	real := realSections(e.Discover(doc, DiscoverOptions{}))
	if len(real) == 0 {
		return doc
	}

	// 各标识符捕获的内容队列，同名章节出现多次时先到先得
	queues := make(map[string][]string, len(real))
	remaining := make(map[string]int, len(real))
	for _, s := range real {
		queues[s.Identifier] = append(queues[s.Identifier], s.RawContent)
		remaining[s.Identifier]++
	}

	// 目标顺序过滤成"确实有内容可放"的序列，位置i对应第i个物理槽位
	filtered := make([]string, 0, len(real))
	for _, id := range order {
		if remaining[id] > 0 {
			filtered = append(filtered, id)
			remaining[id]--
		}
	}

	// 顺序没覆盖到的剩余出现按物理顺序补齐，每个槽位都有且只有一份内容，
	// 不会出现"同一份内容进了两个槽位"或"某份内容没处可去"
	for _, s := range real {
		if remaining[s.Identifier] > 0 {
			filtered = append(filtered, s.Identifier)
			remaining[s.Identifier]--
		}
	}

	var b strings.Builder
	b.Grow(len(doc))
	prev := 0
	for i, s := range real {
		b.WriteString(doc[prev:s.Span.Start])

		content := s.RawContent // 安全退路：保留槽位原内容
		if i < len(filtered) {
			if q := queues[filtered[i]]; len(q) > 0 {
				content = q[0]
				queues[filtered[i]] = q[1:]
			}
		}
		b.WriteString(content)
		prev = s.Span.End
	}
	b.WriteString(doc[prev:])
	return b.String()
}

// SwapSections 只交换两个章节的内容，其余一切不动
// 与Reorder相比牺牲表达力换取最小扰动，适合开启了保守编辑的调用方；
// 任一标识符未被发现（或两者相同）时原样返回文档
func (e *Engine) SwapSections(doc string, first, second string) string {
	if first == second {
		return doc
	}

	real := realSections(e.Discover(doc, DiscoverOptions{}))
	a := findByIdentifier(real, first)
	b := findByIdentifier(real, second)
	if a == nil || b == nil {
		return doc
	}
	if a.Span.Start > b.Span.Start {
		a, b = b, a
	}

	var out strings.Builder
	out.Grow(len(doc))
	out.WriteString(doc[:a.Span.Start])
	out.WriteString(b.RawContent)
	out.WriteString(doc[a.Span.End:b.Span.Start])
	out.WriteString(a.RawContent)
	out.WriteString(doc[b.Span.End:])
	return out.String()
}

// DeleteSpan 删除一个章节的范围，纯子串移除
// 不做回流、不清理相邻空白；范围越界时原样返回文档
func (e *Engine) DeleteSpan(doc string, span types.Span) string {
	if span.Start < 0 || span.End < span.Start || span.End > len(doc) {
		return doc
	}
	return doc[:span.Start] + doc[span.End:]
}

// realSections 过滤出实际存在于文档中的章节（发现结果已按起始偏移排序）
func realSections(sections []*types.Section) []*types.Section {
	real := make([]*types.Section, 0, len(sections))
	for _, s := range sections {
		if !s.IsVirtual() {
			real = append(real, s)
		}
	}
	return real
}

// findByIdentifier 返回第一个匹配标识符的实际章节
func findByIdentifier(sections []*types.Section, identifier string) *types.Section {
	for _, s := range sections {
		if s.Identifier == identifier {
			return s
		}
	}
	return nil
}
