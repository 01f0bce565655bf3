package handler

import (
	"context"
	"errors"
	"fmt"

	"cv-agent-go/internal/agent"
	"cv-agent-go/internal/logger"
	"cv-agent-go/internal/section"
	"cv-agent-go/internal/tracing"
	"cv-agent-go/internal/types"
	"cv-agent-go/pkg/utils"

	"github.com/gofrs/uuid/v5"
)

// ErrStaleDocument 客户端回传的文档指纹与当前文档不一致
// 说明文档在上次发现之后被改过，旧的章节偏移已全部作废
var ErrStaleDocument = errors.New("文档指纹不匹配，章节偏移已失效，请重新发现")

// LayoutHandler 版面处理器，负责协调章节发现与文本手术流程
type LayoutHandler struct {
	engine      *section.Engine
	layoutAgent agent.LayoutApplier // 外部apply-layout协作方，可为nil
}

// NewLayoutHandler 创建一个新的版面处理器
func NewLayoutHandler(engine *section.Engine, layoutAgent agent.LayoutApplier) *LayoutHandler {
	return &LayoutHandler{
		engine:      engine,
		layoutAgent: layoutAgent,
	}
}

// DiscoverRequest 章节发现请求
type DiscoverRequest struct {
	HTML string `json:"html"`
	// Schema 声明的期望章节（有序），可选
	Schema []types.SchemaSection `json:"schema,omitempty"`
	// Presence 数据层内容存在性，可选（用于还没有指令块的自定义章节组）
	Presence map[string]bool `json:"presence,omitempty"`
}

// SectionView 对外暴露的章节视图
type SectionView struct {
	Identifier  string      `json:"identifier"`
	DisplayName string      `json:"display_name"`
	Kind        string      `json:"kind"`
	IsVirtual   bool        `json:"is_virtual"`
	Span        *types.Span `json:"span"`
	RawContent  string      `json:"raw_content"`
	Slot        string      `json:"slot"`
}

// DiscoverResponse 章节发现响应
type DiscoverResponse struct {
	Sections []SectionView `json:"sections"`
	// DocumentMD5 当前文档指纹，变更请求回传它即可检测文档是否已过期
	DocumentMD5 string `json:"document_md5"`
}

// HandleDiscover 处理章节发现请求
func (h *LayoutHandler) HandleDiscover(ctx context.Context, req *DiscoverRequest) (*DiscoverResponse, error) {
	if req.HTML == "" {
		return nil, fmt.Errorf("html不能为空")
	}
	requestID := newRequestID()

	sections := h.engine.Discover(req.HTML, section.DiscoverOptions{
		Schema:   req.Schema,
		Presence: req.Presence,
	})

	views := make([]SectionView, 0, len(sections))
	for _, s := range sections {
		views = append(views, SectionView{
			Identifier:  s.Identifier,
			DisplayName: s.DisplayName,
			Kind:        s.Kind.String(),
			IsVirtual:   s.IsVirtual(),
			Span:        s.Span,
			RawContent:  s.RawContent,
			Slot:        string(s.Slot),
		})
	}

	logger.Info().
		Str("request_id", requestID).
		Int("doc_len", len(req.HTML)).
		Int("sections", len(views)).
		Str("doc_head", tracing.SafeDocumentContent(req.HTML)).
		Msg("章节发现完成")

	return &DiscoverResponse{
		Sections:    views,
		DocumentMD5: utils.CalculateMD5([]byte(req.HTML)),
	}, nil
}

// ReorderRequest 章节重排请求
type ReorderRequest struct {
	HTML  string   `json:"html"`
	Order []string `json:"order"`
	// UseAgent 为true且配置了外部apply-layout端点时优先委托外部服务
	// （跨列移动保位置重排保证不了渲染效果，这是系统预留的外部出口）
	UseAgent bool `json:"use_agent,omitempty"`
	// ExpectedMD5 上次发现时拿到的文档指纹，可选
	ExpectedMD5 string `json:"expected_md5,omitempty"`
}

// ReorderResponse 章节重排响应
type ReorderResponse struct {
	HTML        string `json:"html"`
	DocumentMD5 string `json:"document_md5"`
	// Source 结果来源：engine 或 agent
	Source string `json:"source"`
}

// HandleReorder 处理章节重排请求
// 引擎路径内部总是对当前文档重新发现，不信任任何缓存的章节列表
func (h *LayoutHandler) HandleReorder(ctx context.Context, req *ReorderRequest) (*ReorderResponse, error) {
	if req.HTML == "" {
		return nil, fmt.Errorf("html不能为空")
	}
	if len(req.Order) == 0 {
		return nil, fmt.Errorf("order不能为空")
	}
	if err := checkFingerprint(req.HTML, req.ExpectedMD5); err != nil {
		return nil, err
	}
	requestID := newRequestID()

	if req.UseAgent && h.layoutAgent != nil {
		regenerated, err := h.layoutAgent.ApplyLayout(ctx, req.HTML, req.Order)
		if err == nil {
			logger.Info().
				Str("request_id", requestID).
				Strs("order", req.Order).
				Msg("外部apply-layout服务完成重排")
			return &ReorderResponse{
				HTML:        regenerated,
				DocumentMD5: utils.CalculateMD5([]byte(regenerated)),
				Source:      "agent",
			}, nil
		}
		// 协作方失败时退回引擎的保位置重排，绝不让用户的文档操作整体失败
		logger.Warn().
			Err(err).
			Str("request_id", requestID).
			Msg("外部apply-layout服务失败，退回引擎重排")
	}

	out := h.engine.Reorder(req.HTML, req.Order)
	logger.Info().
		Str("request_id", requestID).
		Strs("order", req.Order).
		Bool("changed", out != req.HTML).
		Msg("引擎完成保位置重排")

	return &ReorderResponse{
		HTML:        out,
		DocumentMD5: utils.CalculateMD5([]byte(out)),
		Source:      "engine",
	}, nil
}

// SwapRequest 单对章节交换请求
type SwapRequest struct {
	HTML        string `json:"html"`
	First       string `json:"first"`
	Second      string `json:"second"`
	ExpectedMD5 string `json:"expected_md5,omitempty"`
}

// HandleSwap 处理单对章节交换请求
// 比整体重排扰动更小，给开启保守编辑的调用方用
func (h *LayoutHandler) HandleSwap(ctx context.Context, req *SwapRequest) (*ReorderResponse, error) {
	if req.HTML == "" {
		return nil, fmt.Errorf("html不能为空")
	}
	if req.First == "" || req.Second == "" {
		return nil, fmt.Errorf("first和second都不能为空")
	}
	if err := checkFingerprint(req.HTML, req.ExpectedMD5); err != nil {
		return nil, err
	}

	out := h.engine.SwapSections(req.HTML, req.First, req.Second)
	logger.Info().
		Str("first", req.First).
		Str("second", req.Second).
		Bool("changed", out != req.HTML).
		Msg("完成章节交换")

	return &ReorderResponse{
		HTML:        out,
		DocumentMD5: utils.CalculateMD5([]byte(out)),
		Source:      "engine",
	}, nil
}

// DeleteRequest 章节删除请求，范围来自最近一次发现的结果
type DeleteRequest struct {
	HTML        string `json:"html"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	ExpectedMD5 string `json:"expected_md5,omitempty"`
}

// DeleteResponse 章节删除响应
type DeleteResponse struct {
	HTML        string `json:"html"`
	DocumentMD5 string `json:"document_md5"`
}

// HandleDelete 处理章节删除请求：纯子串移除，不做任何清理
func (h *LayoutHandler) HandleDelete(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error) {
	if req.HTML == "" {
		return nil, fmt.Errorf("html不能为空")
	}
	if req.Start < 0 || req.End < req.Start || req.End > len(req.HTML) {
		return nil, fmt.Errorf("非法的删除范围 [%d, %d)", req.Start, req.End)
	}
	if err := checkFingerprint(req.HTML, req.ExpectedMD5); err != nil {
		return nil, err
	}

	out := h.engine.DeleteSpan(req.HTML, types.Span{Start: req.Start, End: req.End})
	logger.Info().
		Int("start", req.Start).
		Int("end", req.End).
		Int("removed", len(req.HTML)-len(out)).
		Msg("完成章节删除")

	return &DeleteResponse{
		HTML:        out,
		DocumentMD5: utils.CalculateMD5([]byte(out)),
	}, nil
}

// checkFingerprint 校验客户端回传的文档指纹
// 引擎自己发现不了偏移过期（单次调用没有历史），这层护栏只能放在这里做
func checkFingerprint(html string, expected string) error {
	if expected == "" {
		return nil
	}
	if utils.CalculateMD5([]byte(html)) != expected {
		return ErrStaleDocument
	}
	return nil
}

// newRequestID 生成请求标识，生成失败时退化为空串（只影响日志归并）
func newRequestID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return id.String()
}
