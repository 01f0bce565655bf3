package router

import (
	"context"
	"errors"

	"cv-agent-go/internal/api/handler"
	"cv-agent-go/internal/config"
	"cv-agent-go/internal/logger"
	"cv-agent-go/internal/tracing"
	"cv-agent-go/pkg/ratelimit"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, layoutHandler *handler.LayoutHandler, cfg *config.Config) {
	api := h.Group("/api/v1")

	// 配置了API Key时启用鉴权，密钥进日志前先掩码
	if cfg.Server.APIKey != "" {
		apiKey := cfg.Server.APIKey
		logger.Info().Str("api_key", tracing.MaskPII(apiKey)).Msg("已启用API Key鉴权")
		api.Use(keyauth.New(
			keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
			keyauth.WithValidator(func(c context.Context, ctx *app.RequestContext, key string) (bool, error) {
				return key == apiKey, nil
			}),
		))
	}

	// 变更类接口的限流中间件
	var mutationLimiter app.HandlerFunc
	if cfg.Server.MutationQPM > 0 {
		bucket := ratelimit.NewTokenBucket(cfg.Server.MutationQPM, 0)
		mutationLimiter = func(c context.Context, ctx *app.RequestContext) {
			if !bucket.Allow() {
				ctx.JSON(consts.StatusTooManyRequests, utils.H{"error": "请求过于频繁，请稍后再试"})
				ctx.Abort()
				return
			}
			ctx.Next(c)
		}
	}

	layout := api.Group("/layout")

	// 章节发现
	layout.POST("/sections", func(c context.Context, ctx *app.RequestContext) {
		var req handler.DiscoverRequest
		if err := ctx.BindAndValidate(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}
		resp, err := layoutHandler.HandleDiscover(c, &req)
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 章节重排（整体）
	layout.POST("/reorder", withLimiter(mutationLimiter, func(c context.Context, ctx *app.RequestContext) {
		var req handler.ReorderRequest
		if err := ctx.BindAndValidate(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}
		resp, err := layoutHandler.HandleReorder(c, &req)
		if err != nil {
			ctx.JSON(statusFor(err), utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})...)

	// 章节交换（单对）
	layout.POST("/swap", withLimiter(mutationLimiter, func(c context.Context, ctx *app.RequestContext) {
		var req handler.SwapRequest
		if err := ctx.BindAndValidate(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}
		resp, err := layoutHandler.HandleSwap(c, &req)
		if err != nil {
			ctx.JSON(statusFor(err), utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})...)

	// 章节删除
	layout.POST("/section/delete", withLimiter(mutationLimiter, func(c context.Context, ctx *app.RequestContext) {
		var req handler.DeleteRequest
		if err := ctx.BindAndValidate(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}
		resp, err := layoutHandler.HandleDelete(c, &req)
		if err != nil {
			ctx.JSON(statusFor(err), utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})...)

	// 添加健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}

// withLimiter 给路由挂上可选的限流中间件
func withLimiter(limiter app.HandlerFunc, handlers ...app.HandlerFunc) []app.HandlerFunc {
	if limiter == nil {
		return handlers
	}
	return append([]app.HandlerFunc{limiter}, handlers...)
}

// statusFor 业务错误到HTTP状态码的映射
func statusFor(err error) int {
	if errors.Is(err, handler.ErrStaleDocument) {
		return consts.StatusConflict
	}
	return consts.StatusBadRequest
}
