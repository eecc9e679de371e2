package app

import (
	"strings"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// ValidError 单个字段的验证错误
type ValidError struct {
	Key     string
	Message string
}

type ValidErrors []*ValidError

func (v *ValidError) Error() string {
	return v.Message
}

func (v ValidErrors) Error() string {
	return strings.Join(v.Errors(), ",")
}

func (v ValidErrors) Errors() []string {
	var errs []string
	for _, err := range v {
		errs = append(errs, err.Error())
	}
	return errs
}

// ErrorsToString 将所有错误消息合并为一个字符串
func (v ValidErrors) ErrorsToString() string {
	return strings.Join(v.Errors(), ",")
}

// MapsToString 以 字段名 => 错误消息 形式返回错误映射
func (v ValidErrors) MapsToString() map[string]string {
	m := make(map[string]string, len(v))
	for _, err := range v {
		m[err.Key] = err.Message
	}
	return m
}

// BindAndValid 绑定请求参数并使用全局验证器校验
// 验证错误消息根据请求语言翻译
func BindAndValid(c *gin.Context, v any) (bool, ValidErrors) {
	var errs ValidErrors

	if err := c.ShouldBind(v); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			errs = append(errs, &ValidError{
				Key:     "body",
				Message: err.Error(),
			})
			return false, errs
		}

		trans, _ := c.Value("trans").(ut.Translator)
		for _, fieldErr := range validationErrors {
			message := fieldErr.Error()
			if trans != nil {
				message = fieldErr.Translate(trans)
			}
			errs = append(errs, &ValidError{
				Key:     fieldErr.Field(),
				Message: message,
			})
		}
		return false, errs
	}

	return true, nil
}
