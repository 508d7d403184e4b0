package shared

// messages 错误键到对外提示文案
var messages = map[string]string{
	"error.bad_request":           "bad request",
	"error.unauthorized":          "unauthorized",
	"error.forbidden":             "forbidden",
	"error.not_found":             "not found",
	"error.method_not_allowed":    "method not allowed",
	"error.too_many_requests":     "too many requests",
	"error.internal":              "internal error",
	"error.order_not_found":       "order not found",
	"error.order_fetch_failed":    "failed to load order",
	"error.order_conflict":        "order was modified concurrently, please retry",
	"error.shipment_awb_missing":  "order has no AWB assigned yet",
	"error.shipment_status_empty": "courier returned no shipment status",
	"error.shipment_sync_failed":  "shipment sync failed",
	"error.shiprocket_disabled":   "shiprocket api is not configured",
}

// Message 解析错误键，未登记的键原样返回
func Message(key string) string {
	if msg, ok := messages[key]; ok {
		return msg
	}
	return key
}
