package websocket_router

import (
	"github.com/caredraft/draft-sync-service/internal/app"
	"github.com/caredraft/draft-sync-service/internal/dto"
	"github.com/caredraft/draft-sync-service/internal/service"
	pkgapp "github.com/caredraft/draft-sync-service/pkg/app"
	"github.com/caredraft/draft-sync-service/pkg/code"
	"github.com/caredraft/draft-sync-service/pkg/convert"
	"github.com/caredraft/draft-sync-service/pkg/logger"
	"github.com/caredraft/draft-sync-service/pkg/timex"

	"go.uber.org/zap"
)

// SectionWSHandler WebSocket 章节处理器
// 使用 App Container 注入依赖
type SectionWSHandler struct {
	*WSHandler
}

// NewSectionWSHandler 创建 SectionWSHandler 实例
func NewSectionWSHandler(a *app.App) *SectionWSHandler {
	return &SectionWSHandler{
		WSHandler: NewWSHandler(a),
	}
}

// queuedMessage 同步过程中待下发的消息
type queuedMessage struct {
	Action dto.WebSocketAction
	Data   interface{}
}

// SectionModify 处理章节内容修改消息
// 校验参数后调用 SectionService，内容变化时追加版本快照，
// 并把修改结果广播给同一用户的其他连接
func (h *SectionWSHandler) SectionModify(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.SectionModifyRequest{}

	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		h.respondErrorWithData(c, code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), errs, errs.MapsToString(), "websocket_router.section.SectionModify.BindAndValid")
		return
	}

	ctx := c.Context()

	section, err := h.App.SectionService.Modify(ctx, c.User.UID, params)
	if err != nil {
		h.respondError(c, code.ErrorSectionCreateFailed, err, "websocket_router.section.SectionModify.Modify")
		return
	}

	h.logInfo(c, "websocket_router.section.SectionModify",
		zap.Int64(logger.FieldUID, c.User.UID),
		zap.Int64(logger.FieldSection, section.ID),
		zap.Int64(logger.FieldVersion, section.Version))

	c.ToResponse(code.Success.WithData(section))

	// 通知同一用户的其他连接
	c.BroadcastResponse(code.Success.WithData(section), true, dto.SectionSyncModify)

	h.pushMirror("section.modify", section, c.User.UID)
}

// SectionDelete 处理章节删除消息
// 执行软删除并通知其他连接同步删除事件
func (h *SectionWSHandler) SectionDelete(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.SectionDeleteRequest{}

	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		h.respondErrorWithData(c, code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), errs, errs.MapsToString(), "websocket_router.section.SectionDelete.BindAndValid")
		return
	}

	ctx := c.Context()

	if err := h.App.SectionService.Delete(ctx, c.User.UID, params.ID); err != nil {
		h.respondError(c, code.ErrorSectionNotFound, err, "websocket_router.section.SectionDelete.Delete")
		return
	}

	h.logInfo(c, "websocket_router.section.SectionDelete",
		zap.Int64(logger.FieldUID, c.User.UID),
		zap.Int64(logger.FieldSection, params.ID))

	c.ToResponse(code.Success)
	c.BroadcastResponse(code.Success.WithData(dto.SectionDeleteRequest{ID: params.ID}), true, dto.SectionSyncDelete)

	h.pushMirror("section.delete", &dto.SectionDTO{ID: params.ID}, c.User.UID)
}

// SectionCheck 检查章节状态
// 返回章节当前版本与内容哈希，由客户端决定是否需要上传内容
func (h *SectionWSHandler) SectionCheck(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.SectionGetRequest{}

	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		h.respondErrorWithData(c, code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), errs, errs.MapsToString(), "websocket_router.section.SectionCheck.BindAndValid")
		return
	}

	ctx := c.Context()

	section, err := h.App.SectionService.Get(ctx, c.User.UID, params.ID)
	if err != nil {
		h.respondError(c, code.ErrorSectionNotFound, err, "websocket_router.section.SectionCheck.Get")
		return
	}

	c.ToResponse(code.Success.WithData(section))
}

// SectionSync 处理增量同步消息
// 下发指定时间戳之后发生变更的章节：存活章节下发修改消息，
// 软删除章节下发删除消息，最后发送同步结束消息与统计计数
func (h *SectionWSHandler) SectionSync(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.SectionSyncRequest{}

	valid, errs := c.BindAndValid(msg.Data, params)
	if !valid {
		h.respondErrorWithData(c, code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()), errs, errs.MapsToString(), "websocket_router.section.SectionSync.BindAndValid")
		return
	}

	ctx := c.Context()

	list, err := h.App.SectionService.Sync(ctx, c.User.UID, params)
	if err != nil {
		h.respondError(c, code.ErrorDatabase, err, "websocket_router.section.SectionSync.Sync")
		return
	}

	var messageQueue []queuedMessage
	var lastTime int64
	var modifyCount int64
	var deleteCount int64

	for _, section := range list {
		if section.Mtime > lastTime {
			lastTime = section.Mtime
		}
		if section.IsDeleted {
			messageQueue = append(messageQueue, queuedMessage{
				Action: dto.SectionSyncDelete,
				Data:   dto.SectionDeleteRequest{ID: section.ID},
			})
			deleteCount++
		} else {
			messageQueue = append(messageQueue, queuedMessage{
				Action: dto.SectionSyncModify,
				Data:   section,
			})
			modifyCount++
		}
	}

	if len(list) == 0 {
		lastTime = timex.Now().UnixMilli()
	}

	// 先发送同步结束消息，再逐条下发变更
	c.ToResponse(code.Success.WithData(map[string]int64{
		"lastTime":    lastTime,
		"modifyCount": modifyCount,
		"deleteCount": deleteCount,
	}), dto.SectionSyncEnd)

	for _, item := range messageQueue {
		c.ToResponse(code.Success.WithData(item.Data), item.Action)
	}
}

// pushMirror 将章节变更事件入队推送到上游镜像
// 推送失败只记日志，不影响主流程
func (h *SectionWSHandler) pushMirror(event string, section *dto.SectionDTO, uid int64) {
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
		h.App.Logger().Warn("websocket_router.section.pushMirror enqueue failed", zap.Error(err))
	}
}

// UserInfo 验证并获取用户信息
// 从 service 层获取用户信息并转换成 WebSocket 连接授权需要的结构体
func (h *SectionWSHandler) UserInfo(c *pkgapp.WebsocketClient, uid int64) (*pkgapp.UserSelectEntity, error) {
	ctx := c.Context()

	user, err := h.App.UserService.GetInfo(ctx, uid)
	if err != nil || user == nil {
		return nil, err
	}

	return convert.StructAssign(user, &pkgapp.UserSelectEntity{}).(*pkgapp.UserSelectEntity), nil
}
