package service

import "errors"

var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrOrderFetchFailed       = errors.New("order fetch failed")
	ErrOrderVersionConflict   = errors.New("order version conflict")
	ErrShipmentWebhookInvalid = errors.New("shipment webhook invalid")
	ErrShipmentStatusMissing  = errors.New("shipment status missing")
	ErrShipmentSyncFailed     = errors.New("shipment sync failed")
	ErrShipmentAWBMissing     = errors.New("shipment awb missing")
	ErrShiprocketDisabled     = errors.New("shiprocket api disabled")
)

var (
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrInvalidEmail              = errors.New("invalid email")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
	ErrNotificationEventInvalid  = errors.New("notification event invalid")
	ErrNotificationSendFailed    = errors.New("notification send failed")
	ErrShipmentNotifySkipped     = errors.New("shipment notification skipped")
)

var (
	ErrOperatorTokenInvalid = errors.New("operator token invalid")
	ErrJWTSecretMissing     = errors.New("jwt secret missing")
)
