package section

import (
	"strings"

	"cv-agent-go/internal/types"
)

// expandToContainer 把一个指令对的字面范围扩展到最小的封闭分组容器
//
// 不依赖HTML解析树：AI生成的文档经常嵌套不规范，整树解析既昂贵又不可靠
// 做法是从指令起点向前做有界回溯，找最近的一个"尚未被闭合"的分组开标签：
//  1. 候选开标签到指令起点之间（interim）统计同家族开/闭标签数量
//  2. 数量相等说明候选容器在到达指令前没有被关掉，可证明它仍包着指令
//  3. 数量不等则继续向外回溯，找更外层的候选
//
// 接受候选后从指令终点向后找同名闭标签，同名开标签加深嵌套计数，
// 计数归零处即扩展终点。任一步失败整体失败，调用方退回字面范围
func (e *Engine) expandToContainer(doc string, span types.Span) (types.Span, bool) {
	low := span.Start - e.scanWindow
	if low < 0 {
		low = 0
	}

	for pos := span.Start - 1; pos >= low; pos-- {
		if doc[pos] != '<' {
			continue
		}
		name, tagEnd, ok := readOpenTag(doc, pos, span.Start)
		if !ok || !e.groupingTags[name] {
			continue
		}

		interim := doc[tagEnd:span.Start]
		if e.countFamilyOpens(interim) != e.countFamilyCloses(interim) {
			// 候选在中途被关掉过（或包着没关完的子容器），向外继续找
			continue
		}

		closeEnd, found := e.findMatchingClose(doc, span.End, name)
		if !found {
			// 文档残缺，没有对应的闭标签，放弃扩展
			return types.Span{}, false
		}
		return types.Span{Start: pos, End: closeEnd}, true
	}

	// 回溯窗口内没有合格的候选容器
	return types.Span{}, false
}

// readOpenTag 尝试把doc[pos:]读成一个开标签
// 返回小写标签名和'>'之后的偏移；闭标签、注释、自闭合标签都不算
// limit限制'>'必须出现的范围（开标签整体必须在指令起点之前结束）
func readOpenTag(doc string, pos int, limit int) (string, int, bool) {
	if pos+1 >= len(doc) {
		return "", 0, false
	}
	c := doc[pos+1]
	if !isTagNameStart(c) {
		// '</' 闭标签、'<!' 注释或声明、'<?' 处理指令等一律跳过
		return "", 0, false
	}

	nameEnd := pos + 1
	for nameEnd < limit && isTagNameChar(doc[nameEnd]) {
		nameEnd++
	}

	gt := strings.IndexByte(doc[nameEnd:limit], '>')
	if gt < 0 {
		return "", 0, false
	}
	gt += nameEnd

	if gt > nameEnd && doc[gt-1] == '/' {
		// 自闭合标签不可能是父容器
		return "", 0, false
	}

	return strings.ToLower(doc[pos+1 : nameEnd]), gt + 1, true
}

func isTagNameStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isTagNameChar(c byte) bool {
	return isTagNameStart(c) || (c >= '0' && c <= '9') || c == '-'
}

// countFamilyOpens 统计一段文本中分组家族开标签的数量（不含自闭合）
func (e *Engine) countFamilyOpens(text string) int {
	count := 0
	for _, loc := range e.familyOpenRe.FindAllStringIndex(text, -1) {
		if strings.HasSuffix(text[loc[0]:loc[1]], "/>") {
			continue
		}
		count++
	}
	return count
}

// countFamilyCloses 统计一段文本中分组家族闭标签的数量
func (e *Engine) countFamilyCloses(text string) int {
	return len(e.familyCloseRe.FindAllStringIndex(text, -1))
}

// findMatchingClose 从from向后找name的配对闭标签
// 同名开标签使嵌套计数加一，闭标签减一，归零处的闭标签终点即扩展终点
func (e *Engine) findMatchingClose(doc string, from int, name string) (int, bool) {
	re, ok := e.closeScanRegexps[name]
	if !ok {
		return 0, false
	}

	depth := 1
	for _, m := range re.FindAllStringSubmatchIndex(doc[from:], -1) {
		tag := doc[from+m[0] : from+m[1]]
		closing := m[2] != m[3] // 第一个捕获组是可选的'/'
		switch {
		case closing:
			depth--
			if depth == 0 {
				return from + m[1], true
			}
		case strings.HasSuffix(tag, "/>"):
			// 自闭合，不影响嵌套深度
		default:
			depth++
		}
	}
	return 0, false
}
