package util

import (
	"math/rand"
)

const randomCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GetRandomString 生成指定长度的随机字符串
// 用于自动生成配置中的认证密钥
func GetRandomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = randomCharset[rand.Intn(len(randomCharset))]
	}
	return string(b)
}
