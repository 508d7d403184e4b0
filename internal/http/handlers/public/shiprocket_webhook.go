package public

import (
	"crypto/subtle"
	"io"
	"net/http"
	"strings"

	"github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/metrics"
	"github.com/storefront-next/internal/shipping/shiprocket"

	"github.com/gin-gonic/gin"
)

const (
	shiprocketTokenHeader   = "x-api-key"
	maxWebhookBodyBytes     = 1 << 20
	webhookProcessedMessage = "Webhook processed"
)

// ShiprocketWebhook 接收 Shiprocket 物流状态推送
func (h *Handler) ShiprocketWebhook(c *gin.Context) {
	log := shared.RequestLog(c)
	if !h.authorizeShiprocketWebhook(c) {
		log.Warnw("shiprocket_webhook_unauthorized", "client_ip", c.ClientIP())
		metrics.ObserveWebhook(metrics.OutcomeUnauthorized)
		response.WebhookReject(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		log.Warnw("shiprocket_webhook_read_body_failed", "error", err)
		metrics.ObserveWebhook(metrics.OutcomeBadRequest)
		response.WebhookReject(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	event, err := shiprocket.ParseWebhookEvent(body)
	if err != nil {
		log.Warnw("shiprocket_webhook_parse_failed", "error", err, "body_size", len(body))
		h.respondWebhookError(c, err)
		return
	}

	if h.ShipmentSyncService == nil {
		log.Errorw("shiprocket_webhook_service_unavailable", "order_number", event.OrderID)
		metrics.ObserveWebhook(metrics.OutcomeFailed)
		response.WebhookFailed(c, "Shipment sync unavailable")
		return
	}

	result, err := h.ShipmentSyncService.HandleWebhook(c.Request.Context(), event)
	if err != nil {
		log.Warnw("shiprocket_webhook_process_failed",
			"order_number", event.OrderID,
			"shipment_id", event.ShipmentID,
			"error", err,
		)
		h.respondWebhookError(c, err)
		return
	}

	outcome := metrics.OutcomeUnchanged
	if result.StatusChanged {
		outcome = metrics.OutcomeUpdated
	}
	metrics.ObserveWebhook(outcome)
	log.Infow("shiprocket_webhook_processed",
		"order_number", result.OrderNumber,
		"previous_status", result.PreviousStatus,
		"status", result.Status,
		"attempts", result.Attempts,
	)
	response.WebhookOK(c, webhookProcessedMessage, result.OrderNumber, string(result.Status))
}

func (h *Handler) respondWebhookError(c *gin.Context, err error) {
	httpStatus, outcome := resolveWebhookError(err)
	metrics.ObserveWebhook(outcome)
	if httpStatus == http.StatusOK {
		response.WebhookFailed(c, webhookErrorMessage(err))
		return
	}
	response.WebhookReject(c, httpStatus, webhookErrorMessage(err))
}

// authorizeShiprocketWebhook 未配置密钥时仅在显式放开后放行
func (h *Handler) authorizeShiprocketWebhook(c *gin.Context) bool {
	if h.Container == nil || h.Config == nil {
		return false
	}
	cfg := h.Config.Shiprocket
	secret := strings.TrimSpace(cfg.WebhookSecret)
	if secret == "" {
		return cfg.WebhookOpen()
	}
	token := strings.TrimSpace(c.GetHeader(shiprocketTokenHeader))
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}

// MethodNotAllowed 回调地址仅接受 POST
func MethodNotAllowed(c *gin.Context) {
	metrics.ObserveWebhook(metrics.OutcomeMethodNotAllowed)
	response.WebhookReject(c, http.StatusMethodNotAllowed, "Method not allowed")
}
