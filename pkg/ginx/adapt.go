package ginx

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// ErrorStatus 把业务错误映射为 HTTP 状态码
type ErrorStatus func(err error) int

var errorStatus ErrorStatus = func(error) int { return http.StatusInternalServerError }

// SetErrorStatus 注入业务错误到状态码的映射，应在注册路由前调用一次
func SetErrorStatus(fn ErrorStatus) {
	if fn != nil {
		errorStatus = fn
	}
}

// Adapt 适配 POST-RPC handler：绑定 JSON 请求体，渲染 JSON 响应
func Adapt[TArgs any, TResp any](fn func(*gin.Context, *TArgs) (TResp, error)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		args := new(TArgs)
		if err := bindJSON(ctx, args); err != nil {
			renderError(ctx, http.StatusBadRequest, err)
			return
		}

		result, err := fn(ctx, args)
		if err != nil {
			renderError(ctx, errorStatus(err), err)
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

// bindJSON 绑定 JSON 请求体
// 空请求体等价于空对象，但 binding 标签的校验仍然执行
func bindJSON(ctx *gin.Context, args any) error {
	err := ctx.ShouldBindJSON(args)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		if binding.Validator == nil {
			return nil
		}
		return binding.Validator.ValidateStruct(args)
	}
	return err
}

// renderError 渲染错误响应
func renderError(ctx *gin.Context, statusCode int, err error) {
	ctx.JSON(statusCode, gin.H{"error": err.Error()})
}
