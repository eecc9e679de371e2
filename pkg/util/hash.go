package util

import (
	"strconv"
)

// EncodeHash32 计算内容的 32 位滚动哈希
// 逐字符累加，服务端与客户端对同一内容必须得到相同的哈希值
func EncodeHash32(content string) string {
	var hash int32 = 0
	runes := []rune(content)
	for i := 0; i < len(runes); i++ {
		hash = (hash << 5) - hash + int32(runes[i])
	}
	return strconv.Itoa(int(hash))
}
