package api_router

import (
	"time"

	"github.com/caredraft/draft-sync-service/internal/app"
	pkgapp "github.com/caredraft/draft-sync-service/pkg/app"
	"github.com/caredraft/draft-sync-service/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status   string       `json:"status"`   // "healthy" 或 "unhealthy"
	Version  string       `json:"version"`  // 服务版本号
	Uptime   float64      `json:"uptime"`   // 运行时间（秒）
	Database string       `json:"database"` // "connected" 或 "error"
	Upstream bool         `json:"upstream"` // 上游镜像是否连通
	Queue    int          `json:"queue"`    // 重试队列待处理数
	System   SystemStatus `json:"system"`
}

// SystemStatus 主机资源状态
type SystemStatus struct {
	MemUsedPercent float64 `json:"memUsedPercent"` // 内存使用率
	CPUPercent     float64 `json:"cpuPercent"`     // CPU 使用率
}

// Check 健康检查接口
// @Summary 健康检查
// @Description 检查服务健康状态，包括数据库连接、上游连通性和重试队列积压
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	response := HealthResponse{
		Status:   "healthy",
		Version:  h.App.Version().Version,
		Uptime:   time.Since(h.App.StartTime).Seconds(),
		Database: "connected",
		Upstream: h.App.NetMonitor().IsConnected(),
		Queue:    h.App.RetryQueue().Len(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		response.System.MemUsedPercent = vm.UsedPercent
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		response.System.CPUPercent = percents[0]
	}

	// 检查数据库连接
	if err := h.App.DB.Raw("SELECT 1").Error; err != nil {
		response.Status = "unhealthy"
		response.Database = "error"
		pkgapp.NewResponse(c).ToResponse(code.Failed.WithData(response))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(response))
}
