package code

// 通用状态码
var (
	Success            = NewSuss(0, lang{en: "ok", zh_cn: "成功"})
	Failed             = NewError(1, lang{en: "failed", zh_cn: "失败"})
	ErrorInvalidParams = NewError(10001, lang{en: "Invalid request parameters", zh_cn: "请求参数错误"})
	ErrorNotFoundAPI   = NewError(10002, lang{en: "API not found", zh_cn: "接口不存在"})
	ErrorInternal      = NewError(10003, lang{en: "Internal server error", zh_cn: "服务内部错误"})
	ErrorDatabase      = NewError(10004, lang{en: "Database operation failed", zh_cn: "数据库操作失败"})
	ErrorRequestTimeout = NewError(10005, lang{en: "Request timeout", zh_cn: "请求超时"})
	ErrorTooManyRequests = NewError(10006, lang{en: "Too many requests", zh_cn: "请求过于频繁"})
)

// 用户与鉴权状态码
var (
	ErrorNotUserAuthToken     = NewError(20001, lang{en: "Authorization token missing", zh_cn: "缺少鉴权令牌"})
	ErrorInvalidUserAuthToken = NewError(20002, lang{en: "Authorization token invalid or expired", zh_cn: "鉴权令牌无效或已过期"})
	ErrorUserNotFound         = NewError(20003, lang{en: "User does not exist", zh_cn: "用户不存在"})
	ErrorUserPasswordInvalid  = NewError(20004, lang{en: "Incorrect email or password", zh_cn: "邮箱或密码错误"})
	ErrorUserAlreadyExists    = NewError(20005, lang{en: "User already exists", zh_cn: "用户已存在"})
	ErrorUserRegisterClosed   = NewError(20006, lang{en: "Registration is closed", zh_cn: "注册已关闭"})
)

// 章节与版本状态码
var (
	ErrorSectionNotFound     = NewError(30001, lang{en: "Section does not exist", zh_cn: "章节不存在"})
	ErrorSectionCreateFailed = NewError(30002, lang{en: "Failed to save section", zh_cn: "章节保存失败"})
	ErrorVersionNotFound     = NewError(30003, lang{en: "Version does not exist", zh_cn: "版本不存在"})
	ErrorVersionCreateFailed = NewError(30004, lang{en: "Failed to create version snapshot", zh_cn: "版本快照创建失败"})
	ErrorVersionRestoreFailed = NewError(30005, lang{en: "Failed to restore version", zh_cn: "版本恢复失败"})
	ErrorVersionCompareFailed = NewError(30006, lang{en: "Failed to compare versions", zh_cn: "版本对比失败"})
)

// 批注状态码
var (
	ErrorCommentNotFound     = NewError(40001, lang{en: "Comment does not exist", zh_cn: "批注不存在"})
	ErrorCommentTooLong      = NewError(40002, lang{en: "Comment content exceeds maximum length", zh_cn: "批注内容超出长度限制"})
	ErrorCommentEmpty        = NewError(40003, lang{en: "Comment content is empty", zh_cn: "批注内容为空"})
	ErrorCommentResolveReply = NewError(40004, lang{en: "Only root comments can be resolved", zh_cn: "只有根批注可以标记解决"})
	ErrorCommentNoPermission = NewError(40005, lang{en: "No permission to modify this comment", zh_cn: "无权修改此批注"})
	ErrorCommentParentInvalid = NewError(40006, lang{en: "Parent comment does not exist in this section", zh_cn: "父批注在此章节中不存在"})
)

// 上游镜像与通知状态码
var (
	ErrorUpstreamUnavailable = NewError(50001, lang{en: "Upstream mirror is unavailable", zh_cn: "上游镜像不可用"})
	ErrorNotifyFailed        = NewError(50002, lang{en: "Failed to send notification", zh_cn: "通知发送失败"})
	ErrorQueueFull           = NewError(50003, lang{en: "Retry queue is full", zh_cn: "重试队列已满"})
)
