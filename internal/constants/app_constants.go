package constants

const (
	// Application-level constants
	DefaultEngineVer = "1.0"

	// CustomGroupIdentifier 自定义章节组的专用标识符
	// 模板生成提示词强制要求输出 {{#customSections}} 块，标识符与之保持一致
	CustomGroupIdentifier = "customSections"

	// DefaultBoundaryScanWindow 容器边界扩展时向前回溯的最大字符数
	// 限制回溯窗口，单个章节的扫描成本与文档总长度无关
	DefaultBoundaryScanWindow = 2048
)

// StandardSectionIdentifiers 标准章节标识符词表（与模板指令块名称一一对应）
var StandardSectionIdentifiers = []string{
	"work",
	"education",
	"skills",
	"projects",
	"certificates",
	"awards",
	"languages",
	"interests",
	"references",
	"volunteer",
	"basics",
}

// DefaultGroupingTags 容器边界扩展认可的分组元素家族
// 仅限通用块级容器，扩展只在这个封闭家族内做平衡计数
var DefaultGroupingTags = []string{"div", "section", "article", "aside"}

// 布局槽位的两套标记约定
// 约定一：指令块 {{#sidebar}}...{{/sidebar}} / {{#main}}...{{/main}}
// 约定二：HTML注释对 <!-- SLOT-START: SIDEBAR --> ... <!-- SLOT-END: SIDEBAR -->
// （约定二由模板生成提示词写入 #cv-sidebar / #cv-main 容器内部）
const (
	SlotDirectiveSidebar = "sidebar"
	SlotDirectiveMain    = "main"

	SlotCommentStartFmt = `<!--\s*SLOT-START:\s*%s\s*-->`
	SlotCommentEndFmt   = `<!--\s*SLOT-END:\s*%s\s*-->`
)
