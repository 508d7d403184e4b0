package admin

import (
	"github.com/storefront-next/internal/provider"
)

// Handler 运营接口处理器
type Handler struct {
	*provider.Container
}

// New 创建运营接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
