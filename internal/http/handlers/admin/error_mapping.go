package admin

import (
	"errors"

	"github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError struct {
	target error
	code   int
	key    string
}

var shipmentErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrShipmentAWBMissing, code: response.CodeBadRequest, key: "error.shipment_awb_missing"},
	{target: service.ErrShipmentStatusMissing, code: response.CodeBadRequest, key: "error.shipment_status_empty"},
	{target: service.ErrShiprocketDisabled, code: response.CodeUnavailable, key: "error.shiprocket_disabled"},
	{target: service.ErrOrderVersionConflict, code: response.CodeConflict, key: "error.order_conflict"},
	{target: service.ErrShipmentSyncFailed, code: response.CodeInternal, key: "error.shipment_sync_failed"},
	{target: service.ErrOrderFetchFailed, code: response.CodeInternal, key: "error.order_fetch_failed"},
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			var logErr error
			if rule.code == response.CodeInternal {
				logErr = err
			}
			shared.RespondError(c, rule.code, rule.key, logErr)
			return
		}
	}
	shared.RespondError(c, response.CodeInternal, fallbackKey, err)
}
