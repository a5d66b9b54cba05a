package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/Akash00404/Ayush-Textbook-Assesment/pkg/errors"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/response"
)

func init() {
	// 校验错误使用 json / form 标签名作为字段名
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	}
}

// respondBindError 将绑定错误转换为字段级 400 响应
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ve := pkgerrors.NewValidationError()
	for _, fe := range verrs {
		ve.Add(fieldPath(fe.Namespace()), ruleMessage(fe))
	}
	response.ValidationFailed(c, ve)
}

// fieldPath 去掉顶层结构体名：LoginRequest.email → email
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "不能为空"
	case "email":
		return "邮箱格式无效"
	case "uuid":
		return "必须为 UUID"
	case "oneof":
		return "取值必须为 " + fe.Param() + " 之一"
	case "min":
		return "不能小于 " + fe.Param()
	case "max":
		return "不能大于 " + fe.Param()
	default:
		return "不合法（" + fe.Tag() + "）"
	}
}
