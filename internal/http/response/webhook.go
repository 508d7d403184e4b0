package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// WebhookResult 推送回调响应体，HTTP 状态码即处理结果
type WebhookResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	OrderID string `json:"orderId,omitempty"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WebhookOK 处理完成
func WebhookOK(c *gin.Context, message, orderID, status string) {
	c.JSON(http.StatusOK, WebhookResult{
		Success: true,
		Message: message,
		OrderID: orderID,
		Status:  status,
	})
}

// WebhookFailed 处理失败但仍返回 200，避免发送方重试
func WebhookFailed(c *gin.Context, errMsg string) {
	c.JSON(http.StatusOK, WebhookResult{
		Success: false,
		Error:   errMsg,
	})
}

// WebhookReject 协议层拒绝（4xx）
func WebhookReject(c *gin.Context, httpStatus int, errMsg string) {
	c.AbortWithStatusJSON(httpStatus, WebhookResult{
		Success: false,
		Error:   errMsg,
	})
}
