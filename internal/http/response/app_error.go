package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AppError 业务错误：对外的业务码与消息，内部保留原始错误
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable 服务端错误，调用方可重投
func (e *AppError) Retryable() bool {
	return e != nil && e.Code >= http.StatusInternalServerError
}

// WrapError 包装错误
func WrapError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Fail 以业务码返回错误（HTTP 200）
func Fail(c *gin.Context, appErr *AppError) {
	if appErr == nil {
		appErr = WrapError(CodeInternal, "internal error", nil)
	}
	Error(c, appErr.Code, appErr.Message)
}

// FailRetryable 可重投的错误同时设置 HTTP 状态码
func FailRetryable(c *gin.Context, appErr *AppError) {
	if appErr == nil {
		appErr = WrapError(CodeInternal, "internal error", nil)
	}
	ErrorWithHTTPStatus(c, appErr.Code, appErr.Message)
}
