package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// LayoutApplier 外部apply-layout协作方的接口
// 保位置重排处理不了跨列移动，外部服务可以整体重新生成文档版面；
// 引擎自身永远不调用它，由上层在配置了端点时按需选用
type LayoutApplier interface {
	// ApplyLayout 把文档和目标章节顺序交给外部服务，返回重新生成的文档
	ApplyLayout(ctx context.Context, html string, order []string) (string, error)
}

// HTTPLayoutAgent 通过HTTP调用外部apply-layout服务
type HTTPLayoutAgent struct {
	// Endpoint 服务地址，例如 http://localhost:8100/apply-layout
	Endpoint string
	// Client HTTP客户端，可配置超时等参数
	Client *http.Client
}

// LayoutAgentOption 定义配置选项函数
type LayoutAgentOption func(*HTTPLayoutAgent)

// WithTimeout 配置HTTP客户端超时时间
func WithTimeout(timeout time.Duration) LayoutAgentOption {
	return func(a *HTTPLayoutAgent) {
		a.Client.Timeout = timeout
	}
}

// WithHTTPClient 配置自定义HTTP客户端
func WithHTTPClient(client *http.Client) LayoutAgentOption {
	return func(a *HTTPLayoutAgent) {
		a.Client = client
	}
}

// 确保HTTPLayoutAgent实现了LayoutApplier接口
var _ LayoutApplier = (*HTTPLayoutAgent)(nil)

// NewHTTPLayoutAgent 创建一个新的apply-layout客户端
func NewHTTPLayoutAgent(endpoint string, options ...LayoutAgentOption) *HTTPLayoutAgent {
	agent := &HTTPLayoutAgent{
		Endpoint: endpoint,
		Client: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
	for _, opt := range options {
		opt(agent)
	}
	return agent
}

// applyLayoutRequest 请求体
type applyLayoutRequest struct {
	HTML  string   `json:"html"`
	Order []string `json:"order"`
}

// applyLayoutResponse 响应体
type applyLayoutResponse struct {
	HTML  string `json:"html"`
	Error string `json:"error,omitempty"`
}

// ApplyLayout 调用外部服务重新生成版面
func (a *HTTPLayoutAgent) ApplyLayout(ctx context.Context, html string, order []string) (string, error) {
	if a.Endpoint == "" {
		return "", fmt.Errorf("apply-layout服务未配置端点")
	}

	body, err := json.Marshal(applyLayoutRequest{HTML: html, Order: order})
	if err != nil {
		return "", fmt.Errorf("序列化apply-layout请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("创建apply-layout请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("调用apply-layout服务失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取apply-layout响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("apply-layout服务返回状态码 %d", resp.StatusCode)
	}

	var result applyLayoutResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("解析apply-layout响应失败: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("apply-layout服务报错: %s", result.Error)
	}
	if result.HTML == "" {
		return "", fmt.Errorf("apply-layout服务返回了空文档")
	}

	// 外部模型偶尔会把文档截断，残缺结果宁可不要
	tail := result.HTML
	if len(tail) > 40 {
		tail = tail[len(tail)-40:]
	}
	if strings.Contains(html, "</html>") && !strings.Contains(strings.ToLower(tail), "</html>") {
		return "", fmt.Errorf("apply-layout服务返回的文档疑似被截断")
	}

	return result.HTML, nil
}
