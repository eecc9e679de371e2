package api_router

import (
	"expvar"
	"fmt"

	"github.com/gin-gonic/gin"
)

// Expvar 以 JSON 形式导出 expvar 注册的运行时指标
// 挂载在私有路由 /debug/vars 下
func Expvar(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")

	first := true
	fmt.Fprintf(c.Writer, "{\n")
	expvar.Do(func(kv expvar.KeyValue) {
		if !first {
			fmt.Fprintf(c.Writer, ",\n")
		}
		first = false
		// expvar.Var 的 String() 输出即为合法 JSON
		fmt.Fprintf(c.Writer, "%q: %s", kv.Key, kv.Value.String())
	})
	fmt.Fprintf(c.Writer, "\n}\n")
}
