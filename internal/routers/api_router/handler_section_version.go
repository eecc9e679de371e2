package api_router

import (
	"context"

	"github.com/caredraft/draft-sync-service/internal/app"
	"github.com/caredraft/draft-sync-service/internal/dto"
	"github.com/caredraft/draft-sync-service/internal/middleware"
	"github.com/caredraft/draft-sync-service/internal/service"
	pkgapp "github.com/caredraft/draft-sync-service/pkg/app"
	"github.com/caredraft/draft-sync-service/pkg/code"
	apperrors "github.com/caredraft/draft-sync-service/pkg/errors"
	"github.com/caredraft/draft-sync-service/pkg/logger"
	"github.com/caredraft/draft-sync-service/pkg/timex"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SectionVersionHandler 章节版本历史 API 路由处理器
// 使用 App Container 注入依赖，支持统一错误处理
type SectionVersionHandler struct {
	*Handler
}

// NewSectionVersionHandler 创建 SectionVersionHandler 实例
func NewSectionVersionHandler(a *app.App, wss *pkgapp.WebsocketServer) *SectionVersionHandler {
	return &SectionVersionHandler{
		Handler: NewHandlerWithWSS(a, wss),
	}
}

// List 获取章节的版本历史列表
// @Summary 获取版本历史列表
// @Description 分页获取章节的版本快照列表，按版本号降序，不含快照正文
// @Tags 版本
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param id path int64 true "章节 ID"
// @Success 200 {object} pkgapp.Res{data=[]dto.VersionBriefDTO} "成功"
// @Router /api/section/{id}/versions [get]
func (h *SectionVersionHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.VersionListRequest{}

	// 参数绑定和验证（路径参数）
	if err := c.ShouldBindUri(params); err != nil {
		h.App.Logger().Error("SectionVersionHandler.List.BindUri err", zap.Error(err))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(err.Error()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("SectionVersionHandler.List err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	pager := &pkgapp.Pager{Page: pkgapp.GetPage(c), PageSize: pkgapp.GetPageSize(c)}

	list, count, err := h.App.VersionService.List(ctx, uid, params, pager)
	if err != nil {
		h.logError(ctx, "SectionVersionHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponseList(code.Success, list, int(count))
}

// Get 获取指定版本的快照详情
// @Summary 获取版本快照
// @Description 获取章节某个版本的完整快照内容
// @Tags 版本
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param id path int64 true "章节 ID"
// @Param version path int64 true "版本号"
// @Success 200 {object} pkgapp.Res{data=dto.VersionDTO} "成功"
// @Router /api/section/{id}/versions/{version} [get]
func (h *SectionVersionHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.VersionGetRequest{}

	// 参数绑定和验证（路径参数）
	if err := c.ShouldBindUri(params); err != nil {
		h.App.Logger().Error("SectionVersionHandler.Get.BindUri err", zap.Error(err))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(err.Error()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("SectionVersionHandler.Get err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	version, err := h.App.VersionService.Get(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "SectionVersionHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(version))
}

// Restore 回滚章节到指定版本
// @Summary 回滚版本
// @Description 以目标版本内容追加一个新版本，历史不被改写
// @Tags 版本
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Accept json
// @Produce json
// @Param id path int64 true "章节 ID"
// @Param version path int64 true "目标版本号"
// @Success 200 {object} pkgapp.Res{data=dto.SectionDTO} "成功"
// @Router /api/section/{id}/versions/{version}/restore [put]
func (h *SectionVersionHandler) Restore(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.VersionRestoreRequest{}

	// 参数绑定和验证（路径参数）
	if err := c.ShouldBindUri(params); err != nil {
		h.App.Logger().Error("SectionVersionHandler.Restore.BindUri err", zap.Error(err))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(err.Error()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("SectionVersionHandler.Restore err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	if params.ClientName == "" {
		params.ClientName = app.WebClientName
	}

	section, err := h.App.VersionService.Restore(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "SectionVersionHandler.Restore", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(section))

	// 广播回滚结果到该用户的其他在线客户端
	h.WSS.BroadcastToUser(uid, code.Success.WithData(section), dto.SectionSyncModify)
	h.WSS.BroadcastToUser(uid, code.Success.WithData(dto.VersionListRequest{SectionID: section.ID}), dto.VersionSyncCreate)
	h.pushMirror(section, uid)
}

// pushMirror 将回滚产生的新版本事件入队推送到上游镜像
// 推送失败只记日志，不影响主流程
func (h *SectionVersionHandler) pushMirror(section *dto.SectionDTO, uid int64) {
	if section == nil {
		return
	}
	if err := h.App.MirrorService.Push(&service.MirrorEvent{
		Event:      "version.restore",
		ProposalID: section.ProposalID,
		SectionID:  section.ID,
		Version:    section.Version,
		UID:        uid,
		Timestamp:  timex.Now().UnixMilli(),
	}); err != nil {
		h.App.Logger().Warn("SectionVersionHandler.pushMirror enqueue failed", zap.Error(err))
	}
}

// Compare 对比两个版本
// @Summary 版本对比
// @Description 对比章节的两个版本，返回行级编辑脚本及增删统计
// @Tags 版本
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param sectionId query int64 true "章节 ID"
// @Param fromVersion query int64 true "旧版本号"
// @Param toVersion query int64 true "新版本号"
// @Success 200 {object} pkgapp.Res{data=dto.VersionCompareDTO} "成功"
// @Router /api/section/versions/compare [get]
func (h *SectionVersionHandler) Compare(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.VersionCompareRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("SectionVersionHandler.Compare.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("SectionVersionHandler.Compare err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	result, err := h.App.VersionService.Compare(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "SectionVersionHandler.Compare", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(result))
}

// logError 记录错误日志，包含 Trace ID
func (h *SectionVersionHandler) logError(ctx context.Context, method string, err error) {
	traceID := middleware.GetTraceID(ctx)
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String(logger.FieldTraceID, traceID),
	)
}
