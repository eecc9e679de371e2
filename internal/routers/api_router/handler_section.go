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

// SectionHandler section API router handler
// SectionHandler 章节 API 路由处理器
// Uses App Container to inject dependencies, supports unified error handling
// 使用 App Container 注入依赖，支持统一错误处理
type SectionHandler struct {
	*Handler
}

// NewSectionHandler 创建 SectionHandler 实例
func NewSectionHandler(a *app.App, wss *pkgapp.WebsocketServer) *SectionHandler {
	return &SectionHandler{
		Handler: NewHandlerWithWSS(a, wss),
	}
}

// Create creates a section and writes the first version snapshot
// @Summary Create section
// @Description Create a new section under a proposal. The initial content becomes version 1.
// @Description 在提案下创建新章节，初始内容成为版本 1。
// @Tags Section
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Accept json
// @Produce json
// @Param params body dto.SectionCreateRequest true "Create Parameters"
// @Success 200 {object} pkgapp.Res{data=dto.SectionDTO} "Success"
// @Router /api/section [post]
func (h *SectionHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.SectionCreateRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("SectionHandler.Create.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("SectionHandler.Create err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	if params.ClientName == "" {
		params.ClientName = app.WebClientName
	}

	section, err := h.App.SectionService.Create(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "SectionHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(section))

	// 通知该用户的其他在线客户端
	h.WSS.BroadcastToUser(uid, code.Success.WithData(section), dto.SectionSyncModify)
	h.pushMirror("section.modify", section, uid)
}

// Modify updates section content, appending a version snapshot when content changed
// @Summary Modify section content
// @Description Update section content. A new version snapshot is appended when the content actually changed; identical content is a no-op.
// @Description 更新章节内容。内容确实变化时追加新版本快照，内容相同则为幂等操作。
// @Tags Section
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Accept json
// @Produce json
// @Param params body dto.SectionModifyRequest true "Modify Parameters"
// @Success 200 {object} pkgapp.Res{data=dto.SectionDTO} "Success"
// @Router /api/section [put]
func (h *SectionHandler) Modify(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.SectionModifyRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("SectionHandler.Modify.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("SectionHandler.Modify err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	if params.ClientName == "" {
		params.ClientName = app.WebClientName
	}

	section, err := h.App.SectionService.Modify(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "SectionHandler.Modify", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(section))

	// 通知该用户的其他在线客户端
	h.WSS.BroadcastToUser(uid, code.Success.WithData(section), dto.SectionSyncModify)
	h.pushMirror("section.modify", section, uid)
}

// Delete soft-deletes a section
// @Summary Delete section
// @Description Soft delete a section. It disappears from lists but is kept until the retention window expires.
// @Description 软删除章节，列表中不再可见，保留期到期后物理清理。
// @Tags Section
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Accept json
// @Produce json
// @Param params body dto.SectionDeleteRequest true "Delete Parameters"
// @Success 200 {object} pkgapp.Res "Success"
// @Router /api/section [delete]
func (h *SectionHandler) Delete(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.SectionDeleteRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("SectionHandler.Delete.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("SectionHandler.Delete err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	err := h.App.SectionService.Delete(ctx, uid, params.ID)
	if err != nil {
		h.logError(ctx, "SectionHandler.Delete", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success)

	// 通知该用户的其他在线客户端
	h.WSS.BroadcastToUser(uid, code.Success.WithData(dto.SectionDeleteRequest{ID: params.ID}), dto.SectionSyncDelete)
	h.pushMirror("section.delete", &dto.SectionDTO{ID: params.ID}, uid)
}

// Get retrieves section detail
// @Summary Get section
// @Description Get a single section with its content.
// @Description 获取单个章节及其正文内容。
// @Tags Section
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Produce json
// @Param id path int64 true "Section ID"
// @Success 200 {object} pkgapp.Res{data=dto.SectionDTO} "Success"
// @Router /api/section/{id} [get]
func (h *SectionHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.SectionGetRequest{}

	// 参数绑定和验证（路径参数）
	if err := c.ShouldBindUri(params); err != nil {
		h.App.Logger().Error("SectionHandler.Get.BindUri err", zap.Error(err))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(err.Error()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("SectionHandler.Get err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	section, err := h.App.SectionService.Get(ctx, uid, params.ID)
	if err != nil {
		h.logError(ctx, "SectionHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(section))
}

// List retrieves sections of a proposal
// @Summary List sections
// @Description List all live sections under a proposal, without content bodies.
// @Description 列出提案下所有未删除章节，不含正文。
// @Tags Section
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Produce json
// @Param params query dto.SectionListRequest true "List Parameters"
// @Success 200 {object} pkgapp.Res{data=[]dto.SectionBriefDTO} "Success"
// @Router /api/sections [get]
func (h *SectionHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.SectionListRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("SectionHandler.List.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("SectionHandler.List err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	list, count, err := h.App.SectionService.List(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "SectionHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponseList(code.Success, list, int(count))
}

// Sync retrieves sections changed since a timestamp
// @Summary Incremental section sync
// @Description Return sections of a proposal changed since the given timestamp, including soft-deleted ones so clients can drop them.
// @Description 返回提案下指定时间戳之后发生变更的章节，包含软删除的章节以便客户端移除。
// @Tags Section
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Produce json
// @Param params query dto.SectionSyncRequest true "Sync Parameters"
// @Success 200 {object} pkgapp.Res{data=[]dto.SectionDTO} "Success"
// @Router /api/sections/sync [get]
func (h *SectionHandler) Sync(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.SectionSyncRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("SectionHandler.Sync.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("SectionHandler.Sync err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	list, err := h.App.SectionService.Sync(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "SectionHandler.Sync", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(list))
}

// pushMirror 将章节变更事件入队推送到上游镜像
// 推送失败只记日志，不影响主流程
func (h *SectionHandler) pushMirror(event string, section *dto.SectionDTO, uid int64) {
	if section == nil {
		return
	}
	if err := h.App.MirrorService.Push(&service.MirrorEvent{
		Event:      event,
		ProposalID: section.ProposalID,
		SectionID:  section.ID,
		Version:    section.Version,
		UID:        uid,
		Timestamp:  timex.Now().UnixMilli(),
	}); err != nil {
		h.App.Logger().Warn("SectionHandler.pushMirror enqueue failed", zap.Error(err))
	}
}

// logError 记录错误日志，包含 Trace ID
func (h *SectionHandler) logError(ctx context.Context, method string, err error) {
	traceID := middleware.GetTraceID(ctx)
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String(logger.FieldTraceID, traceID),
	)
}
