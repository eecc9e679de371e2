package global

import (
	"github.com/caredraft/draft-sync-service/pkg/validator"
)

// Validator 全局验证器，启动时由 cmd 设置
// websocket 消息体验证复用该实例
var Validator *validator.CustomValidator
