package shared

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// 运营身份上下文键
const (
	ContextKeyOperator     = "operator"
	ContextKeyOperatorRole = "operator_role"
)

// GetOperator 读取鉴权中间件写入的运营身份
func GetOperator(c *gin.Context) (string, string, bool) {
	if c == nil {
		return "", "", false
	}
	operator := strings.TrimSpace(c.GetString(ContextKeyOperator))
	role := strings.TrimSpace(c.GetString(ContextKeyOperatorRole))
	if operator == "" || role == "" {
		return "", "", false
	}
	return operator, role, true
}
