package convert

import (
	"github.com/jinzhu/copier"
)

// StructAssign 把 src 中同名字段复制到 dst，返回 dst
// 用于结构体之间的同构转换
func StructAssign(src any, dst any) any {
	copier.Copy(dst, src)
	return dst
}
