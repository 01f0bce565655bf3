package types

// SectionKind 表示简历版面章节的类别
// 采用封闭枚举而不是开放式字符串，switch时编译器可以保证分支完整
type SectionKind int

const (
	// KindStandard 标准章节（work、education、skills等固定词表）
	KindStandard SectionKind = iota
	// KindCustomGroup 用户自定义章节组（customSections块）
	KindCustomGroup
	// KindPlaceholder 占位章节（schema声明了但文档中不存在）
	KindPlaceholder
)

// String 返回章节类别的可读名称
func (k SectionKind) String() string {
	switch k {
	case KindStandard:
		return "standard"
	case KindCustomGroup:
		return "custom_group"
	case KindPlaceholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// SlotType 表示版面列（布局槽位）类型
type SlotType string

const (
	// SlotSidebar 侧栏列
	SlotSidebar SlotType = "sidebar"
	// SlotMain 主内容列
	SlotMain SlotType = "main"
	// SlotUnset 未能判定所属列
	SlotUnset SlotType = ""
)

// Span 文档中一段半开区间 [Start, End) 的字节范围
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len 返回区间长度
func (s Span) Len() int {
	return s.End - s.Start
}

// Contains 判断本区间是否完整包含另一个区间
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Overlaps 判断两个区间是否有重叠
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// Section 简历版面中一个可编辑章节
// Span为nil表示虚拟章节（schema声明但文档中无对应内容）
type Section struct {
	// Identifier 章节标识符，如 work、education、customSections
	Identifier string `json:"identifier"`
	// DisplayName 展示给用户的章节名称
	DisplayName string `json:"display_name"`
	// Kind 章节类别
	Kind SectionKind `json:"kind"`
	// Span 章节在文档中的字节范围（已包含扩展后的容器），虚拟章节为nil
	Span *Span `json:"span,omitempty"`
	// RawContent 章节范围对应的原始子串，重排时原样搬运；虚拟章节为空
	RawContent string `json:"raw_content"`
	// Slot 章节所在的版面列，无法判定时为空
	Slot SlotType `json:"slot,omitempty"`
}

// IsVirtual 判断是否为虚拟章节（文档中不存在实际内容）
func (s *Section) IsVirtual() bool {
	return s.Span == nil
}

// SchemaSection schema中声明的一个期望章节
type SchemaSection struct {
	// Identifier 章节标识符
	Identifier string `json:"identifier" yaml:"identifier"`
	// Title 展示标题，为空时按标识符推导
	Title string `json:"title" yaml:"title"`
	// SlotHint 期望所在的版面列，为空时默认main
	SlotHint SlotType `json:"slot_hint" yaml:"slot_hint"`
	// CanHaveContent 该章节是否允许携带内容（纯装饰性声明为false）
	CanHaveContent bool `json:"can_have_content" yaml:"can_have_content"`
}

// SlotRange 布局槽位标记覆盖的一段范围
type SlotRange struct {
	Slot SlotType // 槽位类型
	Span Span     // 覆盖范围
}
