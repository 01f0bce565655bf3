package section

import (
	"fmt"
	"regexp"
	"sort"

	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/types"
)

// slotPattern 槽位标记的一种匹配方式
type slotPattern struct {
	slot types.SlotType
	re   *regexp.Regexp
}

// compileSlotPatterns 预编译两套槽位标记约定的正则
// 约定一：指令块 {{#sidebar}} / {{#main}}
// 约定二：注释对 SLOT-START / SLOT-END，区域名大小写不敏感
func compileSlotPatterns() ([]slotPattern, error) {
	type marker struct {
		slot      types.SlotType
		directive string
		comment   string
	}
	markers := []marker{
		{types.SlotSidebar, constants.SlotDirectiveSidebar, "SIDEBAR"},
		{types.SlotMain, constants.SlotDirectiveMain, "MAIN"},
	}

	var patterns []slotPattern
	for _, s := range markers {
		dirRe, err := directivePattern(s.directive)
		if err != nil {
			return nil, fmt.Errorf("编译槽位指令正则错误 %s: %w", s.directive, err)
		}
		patterns = append(patterns, slotPattern{slot: s.slot, re: dirRe})

		commentSrc := `(?is)` +
			fmt.Sprintf(constants.SlotCommentStartFmt, s.comment) +
			`.*?` +
			fmt.Sprintf(constants.SlotCommentEndFmt, s.comment)
		commentRe, err := regexp.Compile(commentSrc)
		if err != nil {
			return nil, fmt.Errorf("编译槽位注释正则错误 %s: %w", s.comment, err)
		}
		patterns = append(patterns, slotPattern{slot: s.slot, re: commentRe})
	}
	return patterns, nil
}

// locateSlots 扫描文档中全部槽位标记，两套约定的结果汇入同一个列表
// 不去重、不校验互相嵌套：下游按"第一个完整包含"的规则取值，天然容忍重叠
// 按起始偏移排序，使"第一个包含"具有确定性
func (e *Engine) locateSlots(doc string) []types.SlotRange {
	var ranges []types.SlotRange
	for _, p := range e.slotPatterns {
		for _, loc := range p.re.FindAllStringIndex(doc, -1) {
			ranges = append(ranges, types.SlotRange{
				Slot: p.slot,
				Span: types.Span{Start: loc[0], End: loc[1]},
			})
		}
	}
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].Span.Start != ranges[j].Span.Start {
			return ranges[i].Span.Start < ranges[j].Span.Start
		}
		return ranges[i].Span.End < ranges[j].Span.End
	})
	return ranges
}

// slotFor 返回第一个完整包含给定范围的槽位，找不到则返回未设置
func slotFor(ranges []types.SlotRange, span types.Span) types.SlotType {
	for _, r := range ranges {
		if r.Span.Contains(span) {
			return r.Slot
		}
	}
	return types.SlotUnset
}
