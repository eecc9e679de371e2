package global

import (
	"fmt"
	"runtime"

	dumpx "github.com/gookit/goutil/dump"
	"go.uber.org/zap"
)

// Logger 全局日志器，启动时由 cmd 设置
// websocket 层等无法走依赖注入的代码使用该实例
var Logger *zap.Logger

// Dump 开发调试用，带调用位置地打印任意值
func Dump(a ...any) {
	_, file, line, ok := runtime.Caller(1)
	if ok {
		fmt.Printf("\033[32m%s:%d:\033[0m\n", file, line)
	}
	dumpx.P(a...)
}
