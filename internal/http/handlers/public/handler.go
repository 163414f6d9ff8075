package public

import "github.com/affiliate-next/internal/provider"

// Handler 公开接口处理器入口
// 说明：该处理器仅用于订单 webhook 与商户注册登录。
type Handler struct {
	*provider.Container
}

// New 创建公开接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
