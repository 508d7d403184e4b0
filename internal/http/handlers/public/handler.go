package public

import (
	"github.com/storefront-next/internal/provider"
)

// Handler 对外回调处理器
type Handler struct {
	*provider.Container
}

// New 创建对外回调处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
