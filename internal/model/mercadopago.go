package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexibleID accepts both JSON strings and numbers; Mercado Pago sends ids either way.
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = FlexibleID(n.String())
	return nil
}

func (id FlexibleID) String() string {
	return string(id)
}

type TransactionData struct {
	TicketURL    string `json:"ticket_url"`
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
}

type PointOfInteraction struct {
	TransactionData TransactionData `json:"transaction_data"`
}

type MercadoPagoPayment struct {
	ID                 FlexibleID         `json:"id"`
	Status             string             `json:"status"`
	StatusDetail       string             `json:"status_detail"`
	ExternalReference  string             `json:"external_reference"`
	DateApproved       string             `json:"date_approved"`
	PointOfInteraction PointOfInteraction `json:"point_of_interaction"`
}

type MercadoPagoPreference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type WebhookData struct {
	ID FlexibleID `json:"id"`
}

// MercadoPagoNotification covers both webhook shapes:
// {"resource": "...", "topic": "payment"} and {"action": "payment.updated", "data": {"id": "..."}}.
type MercadoPagoNotification struct {
	Resource *FlexibleID  `json:"resource"`
	Topic    *string      `json:"topic"`
	Action   *string      `json:"action"`
	Data     *WebhookData `json:"data"`
}

// ParseExternalReference returns the order id carried as external reference.
func ParseExternalReference(ref string) (uint, bool) {
	if ref == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(ref, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
