// Package validation 封装 go-playground/validator 单例，供请求 DTO 与配置校验共享。
package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-playground/validator/v10"
)

// ReasonRequestInvalid 是请求字段校验失败时的错误原因。
const ReasonRequestInvalid = "REQUEST_INVALID"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError 描述单个字段的校验失败。
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

// Errors 聚合一次校验的全部字段错误。
type Errors []FieldError

// Error 实现 error 接口。
func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(e))
	for _, fe := range e {
		messages = append(messages, fe.Message)
	}
	return strings.Join(messages, "; ")
}

// Fields 返回失败字段名，按出现顺序。
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for _, fe := range e {
		out = append(out, fe.Field)
	}
	return out
}

// Get 返回单例 validator，字段名使用 json 标签。
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			for _, tag := range []string{"json", "yaml"} {
				name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return field.Name
		})
	})
	return validate
}

// Struct 校验结构体，失败时返回 Errors。
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return Errors{{Field: "unknown", Tag: "unknown", Message: err.Error()}}
	}
	out := make(Errors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translate(fe),
		})
	}
	return out
}

// Request 校验请求 DTO，失败时返回 400 kratos 错误并在 metadata 中列出字段。
func Request(s any) error {
	err := Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs Errors
	if !stderrors.As(err, &fieldErrs) {
		return errors.BadRequest(ReasonRequestInvalid, err.Error())
	}
	return errors.BadRequest(ReasonRequestInvalid, fieldErrs.Error()).
		WithMetadata(map[string]string{"fields": strings.Join(fieldErrs.Fields(), ",")})
}

var simpleMessages = map[string]string{
	"required":      "%s is required",
	"uuid":          "%s must be a valid UUID",
	"hostname_port": "%s must be host:port",
	"url":           "%s must be a valid URL",
}

var paramMessages = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
	"min":   "%s must be at least %s",
	"max":   "%s must be at most %s",
}

func translate(fe validator.FieldError) string {
	if tmpl, ok := simpleMessages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Field())
	}
	if tmpl, ok := paramMessages[fe.Tag()]; ok {
		return fmt.Sprintf(tmpl, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
