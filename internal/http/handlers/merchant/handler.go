package merchant

import "github.com/affiliate-next/internal/provider"

// Handler 商户后台接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建商户后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
