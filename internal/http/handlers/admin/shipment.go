package admin

import (
	"strconv"
	"strings"

	"github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetOrderShipment 查询订单物流镜像与状态历史
func (h *Handler) GetOrderShipment(c *gin.Context) {
	orderNumber := strings.TrimSpace(c.Param("order_number"))
	if orderNumber == "" {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	detail, err := h.ShipmentSyncService.GetShipment(orderNumber, page, pageSize)
	if err != nil {
		respondWithMappedError(c, err, shipmentErrorRules, "error.order_fetch_failed")
		return
	}

	response.SuccessWithPage(c, detail, response.NewPagination(page, pageSize, detail.HistoryTotal))
}

// SyncOrderShipment 手动触发单个订单的物流状态同步
func (h *Handler) SyncOrderShipment(c *gin.Context) {
	orderNumber := strings.TrimSpace(c.Param("order_number"))
	if orderNumber == "" {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	operator, _, _ := shared.GetOperator(c)

	result, err := h.ShipmentSyncService.ResyncOrder(c.Request.Context(), orderNumber)
	if err != nil {
		shared.RequestLog(c).Warnw("admin_shipment_sync_failed",
			"order_number", orderNumber,
			"operator", operator,
			"error", err,
		)
		respondWithMappedError(c, err, shipmentErrorRules, "error.shipment_sync_failed")
		return
	}
	shared.RequestLog(c).Infow("admin_shipment_synced",
		"order_number", result.OrderNumber,
		"operator", operator,
		"status", result.Status,
		"status_changed", result.StatusChanged,
	)
	response.Success(c, result)
}

// ResyncStaleShipments 为长时间未同步的在途订单安排补偿同步
func (h *Handler) ResyncStaleShipments(c *gin.Context) {
	scheduled, err := h.ShipmentSyncService.EnqueueStaleResyncs(c.Request.Context())
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "error.shipment_sync_failed", err)
		return
	}
	response.Success(c, gin.H{"scheduled": scheduled})
}
