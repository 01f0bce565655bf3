package section

import (
	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/types"
)

// reconcile 把发现的实际章节与schema声明合并
// schema声明了但文档中没有的标识符补成虚拟占位章节，排在全部实际章节之后、
// 保持schema声明顺序；自定义章节组在数据层有内容但文档里还没有指令块时，
// 即使schema没声明也要补占位，否则用户会"丢失"自己刚加的内容
func (e *Engine) reconcile(real []*types.Section, opts DiscoverOptions) []*types.Section {
	discovered := make(map[string]bool, len(real))
	for _, s := range real {
		discovered[s.Identifier] = true
	}

	result := real
	titles := schemaTitles(opts.Schema)

	customSynthesized := false
	for _, decl := range opts.Schema {
		if discovered[decl.Identifier] {
			continue
		}
		discovered[decl.Identifier] = true

		slot := decl.SlotHint
		if slot == types.SlotUnset {
			slot = types.SlotMain
		}
		result = append(result, &types.Section{
			Identifier:  decl.Identifier,
			DisplayName: sectionTitle(decl.Identifier, titles),
			Kind:        types.KindPlaceholder,
			Slot:        slot,
		})
		if decl.Identifier == constants.CustomGroupIdentifier {
			customSynthesized = true
		}
	}

	if !customSynthesized &&
		!discovered[constants.CustomGroupIdentifier] &&
		opts.Presence[constants.CustomGroupIdentifier] {
		result = append(result, &types.Section{
			Identifier:  constants.CustomGroupIdentifier,
			DisplayName: sectionTitle(constants.CustomGroupIdentifier, titles),
			Kind:        types.KindPlaceholder,
			Slot:        types.SlotMain,
		})
	}

	return result
}
