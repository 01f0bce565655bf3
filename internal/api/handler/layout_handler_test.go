package handler

import (
	"context"
	"errors"
	"testing"

	"cv-agent-go/internal/agent"
	"cv-agent-go/internal/section"
	"cv-agent-go/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubApplier 可控的外部apply-layout协作方替身
type stubApplier struct {
	html string
	err  error
}

func (s *stubApplier) ApplyLayout(ctx context.Context, html string, order []string) (string, error) {
	return s.html, s.err
}

// newTestHandler 默认引擎配置的测试处理器
func newTestHandler(t *testing.T, applier agent.LayoutApplier) *LayoutHandler {
	t.Helper()
	engine, err := section.NewEngine(section.Config{})
	require.NoError(t, err)
	return NewLayoutHandler(engine, applier)
}

const handlerTestDoc = `<div>{{#work}}W{{/work}}</div><div>{{#education}}E{{/education}}</div>`

// TestHandleDiscover 发现响应携带章节列表和当前文档指纹
func TestHandleDiscover(t *testing.T) {
	h := newTestHandler(t, nil)

	resp, err := h.HandleDiscover(context.Background(), &DiscoverRequest{HTML: handlerTestDoc})
	require.NoError(t, err)

	require.Len(t, resp.Sections, 2)
	assert.Equal(t, "work", resp.Sections[0].Identifier)
	assert.Equal(t, "education", resp.Sections[1].Identifier)
	assert.Equal(t, utils.CalculateMD5([]byte(handlerTestDoc)), resp.DocumentMD5)
}

// TestHandleReorderStaleFingerprint 指纹不匹配必须拒绝变更
func TestHandleReorderStaleFingerprint(t *testing.T) {
	h := newTestHandler(t, nil)

	_, err := h.HandleReorder(context.Background(), &ReorderRequest{
		HTML:        handlerTestDoc,
		Order:       []string{"education", "work"},
		ExpectedMD5: "deadbeef",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStaleDocument))
}

// TestHandleReorderAgentPreferred use_agent为真且协作方成功时采用外部结果
func TestHandleReorderAgentPreferred(t *testing.T) {
	regenerated := `<div>{{#education}}E{{/education}}</div><div>{{#work}}W{{/work}}</div>`
	h := newTestHandler(t, &stubApplier{html: regenerated})

	resp, err := h.HandleReorder(context.Background(), &ReorderRequest{
		HTML:     handlerTestDoc,
		Order:    []string{"education", "work"},
		UseAgent: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "agent", resp.Source)
	assert.Equal(t, regenerated, resp.HTML)
	assert.Equal(t, utils.CalculateMD5([]byte(regenerated)), resp.DocumentMD5)
}

// TestHandleReorderAgentFallback 协作方失败时退回引擎重排，请求不整体失败
func TestHandleReorderAgentFallback(t *testing.T) {
	h := newTestHandler(t, &stubApplier{err: errors.New("layout model unavailable")})

	resp, err := h.HandleReorder(context.Background(), &ReorderRequest{
		HTML:     handlerTestDoc,
		Order:    []string{"education", "work"},
		UseAgent: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "engine", resp.Source)
	assert.Len(t, resp.HTML, len(handlerTestDoc))
	assert.Contains(t, resp.HTML, `{{#work}}W{{/work}}`)
}

// TestHandleDeleteInvalidSpan 非法范围直接报错，不碰文档
func TestHandleDeleteInvalidSpan(t *testing.T) {
	h := newTestHandler(t, nil)

	_, err := h.HandleDelete(context.Background(), &DeleteRequest{
		HTML:  handlerTestDoc,
		Start: 10,
		End:   5,
	})
	assert.Error(t, err)
}
