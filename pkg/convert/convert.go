// Package convert 提供字符串与结构体转换辅助
package convert

import (
	"strconv"
)

// StrTo 字符串转换类型
type StrTo string

func (s StrTo) String() string {
	return string(s)
}

// Int 转换为 int
func (s StrTo) Int() (int, error) {
	return strconv.Atoi(s.String())
}

// MustInt 转换为 int，出错时返回 0
func (s StrTo) MustInt() int {
	v, _ := s.Int()
	return v
}

// Int64 转换为 int64
func (s StrTo) Int64() (int64, error) {
	return strconv.ParseInt(s.String(), 10, 64)
}

// MustInt64 转换为 int64，出错时返回 0
func (s StrTo) MustInt64() int64 {
	v, _ := s.Int64()
	return v
}
