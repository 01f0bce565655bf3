package section

import (
	"fmt"
	"regexp"

	"cv-agent-go/internal/types"
)

// directiveMatch 一次指令块匹配的原始结果
type directiveMatch struct {
	// Identifier 匹配到的章节标识符
	Identifier string
	// Span 指令对的字面范围，包含 {{#id}} 和 {{/id}} 本身
	Span types.Span
	// Raw 范围对应的原始子串
	Raw string
}

// directivePattern 构造某个标识符的指令对匹配正则
// 非贪婪匹配，同名指令块不会互相嵌套（简历模板不会把章节套进它自己）
// 文档在指令中途被截断时（没有闭合对），该处自然不产生匹配，即静默跳过
func directivePattern(identifier string) (*regexp.Regexp, error) {
	quoted := regexp.QuoteMeta(identifier)
	return regexp.Compile(`(?s)\{\{#` + quoted + `\}\}.*?\{\{/` + quoted + `\}\}`)
}

// compileDirectiveRegexps 预编译一组标识符的指令正则
func compileDirectiveRegexps(identifiers []string) (map[string]*regexp.Regexp, error) {
	regexps := make(map[string]*regexp.Regexp, len(identifiers))
	for _, id := range identifiers {
		if _, ok := regexps[id]; ok {
			continue
		}
		re, err := directivePattern(id)
		if err != nil {
			return nil, fmt.Errorf("编译章节指令正则表达式错误 %s: %w", id, err)
		}
		regexps[id] = re
	}
	return regexps, nil
}

// findDirectiveSpans 找出某个标识符的全部指令对，按出现位置排列
// 返回的是字面范围，对范围内部的内容不做任何假设
func (e *Engine) findDirectiveSpans(doc string, identifier string) []directiveMatch {
	re, ok := e.directiveRegexps[identifier]
	if !ok {
		// schema新声明的标识符没有预编译，现场编译一次
		compiled, err := directivePattern(identifier)
		if err != nil {
			return nil
		}
		re = compiled
	}

	locs := re.FindAllStringIndex(doc, -1)
	if len(locs) == 0 {
		return nil
	}

	matches := make([]directiveMatch, 0, len(locs))
	for _, loc := range locs {
		matches = append(matches, directiveMatch{
			Identifier: identifier,
			Span:       types.Span{Start: loc[0], End: loc[1]},
			Raw:        doc[loc[0]:loc[1]],
		})
	}
	return matches
}
