package shared

import (
	"errors"

	"github.com/affiliate-next/internal/http/response"
	"github.com/affiliate-next/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 按消息键返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	appErr := response.WrapError(code, Message(key), err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Fail(c, appErr)
}

// MappedHandlerError 定义业务错误到接口错误响应的映射关系。
type MappedHandlerError struct {
	Target error
	Code   int
	Key    string
}

// RespondWithMappedError 按规则表映射错误，未命中时使用兜底错误码。
func RespondWithMappedError(c *gin.Context, err error, rules []MappedHandlerError, fallbackCode int, fallbackKey string) {
	code, key, mapped := MatchMappedError(err, rules)
	if !mapped {
		RespondError(c, fallbackCode, fallbackKey, err)
		return
	}
	RespondError(c, code, key, nil)
}

// MatchMappedError 查找首个匹配的映射规则。
func MatchMappedError(err error, rules []MappedHandlerError) (int, string, bool) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			return rule.Code, rule.Key, true
		}
	}
	return 0, "", false
}

// ConcatMappedHandlerErrors 合并多组映射规则。
func ConcatMappedHandlerErrors(groups ...[]MappedHandlerError) []MappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}
