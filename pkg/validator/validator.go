// Package validator 封装 gin binding 使用的参数验证器
package validator

import (
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	validatorV10 "github.com/go-playground/validator/v10"
)

// CustomValidator 实现 binding.StructValidator
type CustomValidator struct {
	once     sync.Once
	Validate *validatorV10.Validate
}

// NewCustomValidator 创建验证器实例
func NewCustomValidator() *CustomValidator {
	v := &CustomValidator{}
	v.lazyinit()
	return v
}

func (v *CustomValidator) lazyinit() {
	v.once.Do(func() {
		v.Validate = validatorV10.New()
		v.Validate.SetTagName("binding")
	})
}

// ValidateStruct 验证结构体
func (v *CustomValidator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}
	value := reflect.ValueOf(obj)
	if value.Kind() == reflect.Ptr {
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}
	v.lazyinit()
	return v.Validate.Struct(obj)
}

// Engine 返回底层验证引擎
func (v *CustomValidator) Engine() any {
	v.lazyinit()
	return v.Validate
}

var _ binding.StructValidator = (*CustomValidator)(nil)

// RegisterCustom 注册项目自定义验证规则
func RegisterCustom() {
	v, ok := binding.Validator.Engine().(*validatorV10.Validate)
	if !ok {
		return
	}

	// notblank 内容去除空白后不能为空
	_ = v.RegisterValidation("notblank", func(fl validatorV10.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		return strings.TrimSpace(s) != ""
	})

	// maxrunes 按字符数而非字节数限制长度，参数为最大字符数
	_ = v.RegisterValidation("maxrunes", func(fl validatorV10.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		max := 0
		for _, ch := range fl.Param() {
			if ch < '0' || ch > '9' {
				return false
			}
			max = max*10 + int(ch-'0')
		}
		return utf8.RuneCountInString(s) <= max
	})
}
