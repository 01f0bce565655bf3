package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestApplyLayoutSuccess 正常链路：请求体透传，返回重新生成的文档
func TestApplyLayoutSuccess(t *testing.T) {
	var gotReq applyLayoutRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(applyLayoutResponse{HTML: "<html><body>regenerated</body></html>"})
	}))
	defer server.Close()

	agent := NewHTTPLayoutAgent(server.URL)
	out, err := agent.ApplyLayout(context.Background(), "<html><body>old</body></html>", []string{"education", "work"})

	require.NoError(t, err)
	assert.Equal(t, "<html><body>regenerated</body></html>", out)
	assert.Equal(t, "<html><body>old</body></html>", gotReq.HTML)
	assert.Equal(t, []string{"education", "work"}, gotReq.Order)
}

// TestApplyLayoutServerError 非200状态码要报错，让上层退回引擎重排
func TestApplyLayoutServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	agent := NewHTTPLayoutAgent(server.URL)
	_, err := agent.ApplyLayout(context.Background(), "<p>x</p>", []string{"work"})
	assert.Error(t, err)
}

// TestApplyLayoutBusinessError 响应体携带error字段视为失败
func TestApplyLayoutBusinessError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(applyLayoutResponse{Error: "layout model unavailable"})
	}))
	defer server.Close()

	agent := NewHTTPLayoutAgent(server.URL)
	_, err := agent.ApplyLayout(context.Background(), "<p>x</p>", []string{"work"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layout model unavailable")
}

// TestApplyLayoutTruncatedResponse 输入是完整HTML文档而返回缺了结尾标签时，
// 判定为被截断的残缺结果，必须报错而不是把半截文档交回去
func TestApplyLayoutTruncatedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(applyLayoutResponse{HTML: "<html><body>cut off in the mid"})
	}))
	defer server.Close()

	agent := NewHTTPLayoutAgent(server.URL)
	_, err := agent.ApplyLayout(context.Background(), "<html><body>full</body></html>", []string{"work"})
	assert.Error(t, err)
}

// TestApplyLayoutNoEndpoint 未配置端点时直接报错
func TestApplyLayoutNoEndpoint(t *testing.T) {
	agent := NewHTTPLayoutAgent("")
	_, err := agent.ApplyLayout(context.Background(), "<p>x</p>", []string{"work"})
	assert.Error(t, err)
}
