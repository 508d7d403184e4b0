package public

import (
	"errors"
	"net/http"

	"github.com/storefront-next/internal/metrics"
	"github.com/storefront-next/internal/service"
	"github.com/storefront-next/internal/shipping/shiprocket"
)

type webhookErrorRule struct {
	target     error
	httpStatus int
	outcome    string
}

// 协议层错误直接返回 4xx，其余处理失败统一 200 + success=false
var webhookErrorRules = []webhookErrorRule{
	{target: shiprocket.ErrWebhookBodyInvalid, httpStatus: http.StatusBadRequest, outcome: metrics.OutcomeBadRequest},
	{target: shiprocket.ErrWebhookFieldMissing, httpStatus: http.StatusBadRequest, outcome: metrics.OutcomeBadRequest},
	{target: service.ErrOrderNotFound, httpStatus: http.StatusNotFound, outcome: metrics.OutcomeNotFound},
}

func resolveWebhookError(err error) (int, string) {
	for _, rule := range webhookErrorRules {
		if errors.Is(err, rule.target) {
			return rule.httpStatus, rule.outcome
		}
	}
	return http.StatusOK, metrics.OutcomeFailed
}

func webhookErrorMessage(err error) string {
	switch {
	case errors.Is(err, shiprocket.ErrWebhookFieldMissing):
		return "Missing required fields: order_id, sr_shipment_id"
	case errors.Is(err, shiprocket.ErrWebhookBodyInvalid):
		return "Invalid JSON body"
	case errors.Is(err, service.ErrOrderNotFound):
		return "Order not found"
	case errors.Is(err, service.ErrShipmentStatusMissing):
		return "shipment_status is missing"
	case errors.Is(err, service.ErrOrderVersionConflict):
		return "Order was modified concurrently"
	case errors.Is(err, service.ErrOrderFetchFailed):
		return "Failed to load order"
	default:
		return "Failed to process webhook"
	}
}
