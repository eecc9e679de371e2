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

// CommentHandler 批注 API 路由处理器
// 使用 App Container 注入依赖，支持统一错误处理
type CommentHandler struct {
	*Handler
}

// NewCommentHandler 创建 CommentHandler 实例
func NewCommentHandler(a *app.App, wss *pkgapp.WebsocketServer) *CommentHandler {
	return &CommentHandler{
		Handler: NewHandlerWithWSS(a, wss),
	}
}

// Add 在章节上创建根批注
// @Summary 创建批注
// @Description 在章节的指定文本范围上创建根批注，内容至多 1000 字符
// @Tags 批注
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Accept json
// @Produce json
// @Param params body dto.CommentAddRequest true "批注参数"
// @Success 200 {object} pkgapp.Res{data=dto.CommentDTO} "成功"
// @Router /api/comment [post]
func (h *CommentHandler) Add(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.CommentAddRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("CommentHandler.Add.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("CommentHandler.Add err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	comment, err := h.App.CommentService.Add(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "CommentHandler.Add", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(comment))

	// 通知该用户的其他在线客户端
	h.WSS.BroadcastToUser(uid, code.Success.WithData(comment), dto.CommentSyncModify)
	h.pushMirror("comment.add", comment, uid)
}

// Reply 回复根批注
// @Summary 回复批注
// @Description 回复一条批注，对回复的回复会挂到其根批注下（单层线程）
// @Tags 批注
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Accept json
// @Produce json
// @Param params body dto.CommentReplyRequest true "回复参数"
// @Success 200 {object} pkgapp.Res{data=dto.CommentDTO} "成功"
// @Router /api/comment/reply [post]
func (h *CommentHandler) Reply(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.CommentReplyRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("CommentHandler.Reply.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("CommentHandler.Reply err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	comment, err := h.App.CommentService.Reply(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "CommentHandler.Reply", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(comment))

	// 通知该用户的其他在线客户端
	h.WSS.BroadcastToUser(uid, code.Success.WithData(comment), dto.CommentSyncModify)
	h.pushMirror("comment.reply", comment, uid)
}

// Edit 编辑批注内容
// @Summary 编辑批注
// @Description 编辑批注内容，仅作者可操作
// @Tags 批注
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Accept json
// @Produce json
// @Param params body dto.CommentEditRequest true "编辑参数"
// @Success 200 {object} pkgapp.Res "成功"
// @Router /api/comment [put]
func (h *CommentHandler) Edit(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.CommentEditRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("CommentHandler.Edit.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("CommentHandler.Edit err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	comment, err := h.App.CommentService.Edit(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "CommentHandler.Edit", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(comment))

	// 通知该用户的其他在线客户端
	h.WSS.BroadcastToUser(uid, code.Success.WithData(comment), dto.CommentSyncModify)
	h.pushMirror("comment.edit", comment, uid)
}

// Delete 删除批注
// @Summary 删除批注
// @Description 删除批注，仅作者可操作，删除根批注会级联删除其全部回复
// @Tags 批注
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Accept json
// @Produce json
// @Param params body dto.CommentDeleteRequest true "删除参数"
// @Success 200 {object} pkgapp.Res "成功"
// @Router /api/comment [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.CommentDeleteRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("CommentHandler.Delete.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("CommentHandler.Delete err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	comment, err := h.App.CommentService.Delete(ctx, uid, params.ID)
	if err != nil {
		h.logError(ctx, "CommentHandler.Delete", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success)

	// 通知该用户的其他在线客户端
	h.WSS.BroadcastToUser(uid, code.Success.WithData(dto.CommentDeleteRequest{ID: params.ID}), dto.CommentSyncDelete)
	h.pushMirror("comment.delete", comment, uid)
}

// Resolve 将根批注标记为已解决
// @Summary 标记批注已解决
// @Description 将根批注标记为已解决，回复不可单独解决
// @Tags 批注
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Accept json
// @Produce json
// @Param params body dto.CommentResolveRequest true "解决参数"
// @Success 200 {object} pkgapp.Res "成功"
// @Router /api/comment/resolve [put]
func (h *CommentHandler) Resolve(c *gin.Context) {
	h.setResolved(c, true)
}

// Unresolve 取消根批注的已解决标记
// @Summary 取消批注已解决标记
// @Description 将已解决的根批注恢复为未解决状态
// @Tags 批注
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Accept json
// @Produce json
// @Param params body dto.CommentResolveRequest true "解决参数"
// @Success 200 {object} pkgapp.Res "成功"
// @Router /api/comment/unresolve [put]
func (h *CommentHandler) Unresolve(c *gin.Context) {
	h.setResolved(c, false)
}

// setResolved 解决状态变更的公共实现
func (h *CommentHandler) setResolved(c *gin.Context, resolved bool) {
	response := pkgapp.NewResponse(c)
	params := &dto.CommentResolveRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("CommentHandler.setResolved.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("CommentHandler.setResolved err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	var comment *dto.CommentDTO
	var err error
	event := "comment.resolve"
	if resolved {
		comment, err = h.App.CommentService.Resolve(ctx, uid, params.ID)
	} else {
		comment, err = h.App.CommentService.Unresolve(ctx, uid, params.ID)
		event = "comment.unresolve"
	}
	if err != nil {
		h.logError(ctx, "CommentHandler.setResolved", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(comment))

	// 通知该用户的其他在线客户端
	h.WSS.BroadcastToUser(uid, code.Success.WithData(comment), dto.CommentSyncModify)
	h.pushMirror(event, comment, uid)
}

// List 获取章节下的批注列表
// @Summary 获取批注列表
// @Description 获取章节全部批注，未解决的根批注在前，已解决的在后，各按创建时间升序，回复紧随其根批注
// @Tags 批注
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param id path int64 true "章节 ID"
// @Success 200 {object} pkgapp.Res{data=[]dto.CommentDTO} "成功"
// @Router /api/section/{id}/comments [get]
func (h *CommentHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.CommentListRequest{}

	// 参数绑定和验证（路径参数）
	if err := c.ShouldBindUri(params); err != nil {
		h.App.Logger().Error("CommentHandler.List.BindUri err", zap.Error(err))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(err.Error()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("CommentHandler.List err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	list, err := h.App.CommentService.List(ctx, uid, params.SectionID)
	if err != nil {
		h.logError(ctx, "CommentHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(list))
}

// pushMirror 将批注变更事件入队推送到上游镜像
// 推送失败只记日志，不影响主流程
func (h *CommentHandler) pushMirror(event string, comment *dto.CommentDTO, uid int64) {
	if comment == nil {
		return
	}
	if err := h.App.MirrorService.Push(&service.MirrorEvent{
		Event:     event,
		SectionID: comment.SectionID,
		CommentID: comment.ID,
		UID:       uid,
		Timestamp: timex.Now().UnixMilli(),
	}); err != nil {
		h.App.Logger().Warn("CommentHandler.pushMirror enqueue failed", zap.Error(err))
	}
}

// logError 记录错误日志，包含 Trace ID
func (h *CommentHandler) logError(ctx context.Context, method string, err error) {
	traceID := middleware.GetTraceID(ctx)
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String(logger.FieldTraceID, traceID),
	)
}
