// Package websocket_router 提供 WebSocket 路由处理器
package websocket_router

import (
	"context"
	"strings"

	"github.com/caredraft/draft-sync-service/internal/app"
	"github.com/caredraft/draft-sync-service/internal/middleware"
	pkgapp "github.com/caredraft/draft-sync-service/pkg/app"
	"github.com/caredraft/draft-sync-service/pkg/code"
	"github.com/caredraft/draft-sync-service/pkg/logger"

	"go.uber.org/zap"
)

// WSHandler WebSocket 基础 Handler 结构体，封装 App Container
// 所有 WebSocket Handler 都应该嵌入此结构体以获得依赖注入能力
type WSHandler struct {
	App *app.App
}

// NewWSHandler 创建 WebSocket 基础 Handler 实例
func NewWSHandler(a *app.App) *WSHandler {
	return &WSHandler{App: a}
}

// traceID 获取连接升级时的 Trace ID
func traceID(c *pkgapp.WebsocketClient) string {
	if c == nil || c.Ctx == nil {
		return ""
	}
	return middleware.GetTraceIDFromGin(c.Ctx)
}

// logError 记录错误日志，包含 Trace ID
func (h *WSHandler) logError(c *pkgapp.WebsocketClient, method string, err error) {
	// 连接关闭导致的错误降级为 Debug
	if isNetworkClosedError(err) && c != nil && c.Context().Err() != nil {
		h.App.Logger().Debug(method, zap.Error(err), zap.String(logger.FieldTraceID, traceID(c)))
		return
	}

	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String(logger.FieldTraceID, traceID(c)),
	)
}

// logInfo 记录信息日志，包含 Trace ID
func (h *WSHandler) logInfo(c *pkgapp.WebsocketClient, method string, fields ...zap.Field) {
	allFields := append([]zap.Field{zap.String(logger.FieldTraceID, traceID(c))}, fields...)
	h.App.Logger().Info(method, allFields...)
}

// respondError 统一错误响应方法
// 记录错误日志并发送包含 Details 的错误响应给客户端
func (h *WSHandler) respondError(c *pkgapp.WebsocketClient, codeErr *code.Code, err error, method string) {
	h.logError(c, method, err)
	c.ToResponse(codeErr.WithDetails(err.Error()))
}

// respondErrorWithData 带数据的统一错误响应方法
func (h *WSHandler) respondErrorWithData(c *pkgapp.WebsocketClient, codeErr *code.Code, err error, data interface{}, method string) {
	h.logError(c, method, err)
	c.ToResponse(codeErr.WithData(data))
}

// isNetworkClosedError 检查是否为网络关闭相关的错误
func isNetworkClosedError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "broken pipe") ||
		err == context.Canceled
}
