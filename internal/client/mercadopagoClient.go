package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"food-storefront/internal/config"
	"food-storefront/internal/model"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

var ErrPaymentNotFound = errors.New("payment not found on gateway")

type MercadoPagoClient interface {
	CreatePixPayment(ctx context.Context, req *PixPaymentRequest) (*model.MercadoPagoPayment, error)
	CreatePreference(ctx context.Context, req *PreferenceRequest) (*model.MercadoPagoPreference, error)
	GetPayment(ctx context.Context, paymentID string) (*model.MercadoPagoPayment, error)
}

type mercadoPagoClientImpl struct {
	httpClient      *http.Client
	baseApiURL      string
	accessToken     string
	notificationURL string
}

type Identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type PixPayer struct {
	Email          string         `json:"email"`
	Identification Identification `json:"identification"`
}

type PixPaymentRequest struct {
	TransactionAmount float64  `json:"transaction_amount"`
	Description       string   `json:"description"`
	PaymentMethodID   string   `json:"payment_method_id"`
	ExternalReference string   `json:"external_reference,omitempty"`
	NotificationURL   string   `json:"notification_url,omitempty"`
	Payer             PixPayer `json:"payer"`
}

type PreferenceItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int32   `json:"quantity"`
	CurrencyID string  `json:"currency_id"`
	UnitPrice  float64 `json:"unit_price"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url,omitempty"`
	BackURLs          BackURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return,omitempty"`
}

func NewMercadoPagoClient(mpCfg *config.MercadoPago) MercadoPagoClient {
	return &mercadoPagoClientImpl{
		httpClient: &http.Client{
			Timeout: mpCfg.Timeout,
		},
		baseApiURL:      mpCfg.BaseApiURL,
		accessToken:     mpCfg.AccessToken,
		notificationURL: mpCfg.NotificationURL,
	}
}

func (c *mercadoPagoClientImpl) CreatePixPayment(ctx context.Context, req *PixPaymentRequest) (*model.MercadoPagoPayment, error) {
	if req.PaymentMethodID == "" {
		req.PaymentMethodID = "pix"
	}
	if req.NotificationURL == "" {
		req.NotificationURL = c.notificationURL
	}

	var payment model.MercadoPagoPayment
	if err := c.do(ctx, http.MethodPost, "/v1/payments", req, &payment); err != nil {
		return nil, fmt.Errorf("create pix payment: %w", err)
	}

	return &payment, nil
}

func (c *mercadoPagoClientImpl) CreatePreference(ctx context.Context, req *PreferenceRequest) (*model.MercadoPagoPreference, error) {
	if req.NotificationURL == "" {
		req.NotificationURL = c.notificationURL
	}

	var preference model.MercadoPagoPreference
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", req, &preference); err != nil {
		return nil, fmt.Errorf("create preference: %w", err)
	}

	return &preference, nil
}

func (c *mercadoPagoClientImpl) GetPayment(ctx context.Context, paymentID string) (*model.MercadoPagoPayment, error) {
	var payment model.MercadoPagoPayment
	err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, &payment)
	if err != nil {
		return nil, fmt.Errorf("get payment %s: %w", paymentID, err)
	}

	return &payment, nil
}

func (c *mercadoPagoClientImpl) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal req payload: %w", err)
		}
		body = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, body)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	if method == http.MethodPost {
		req.Header.Set("X-Idempotency-Key", uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrPaymentNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mercadopago error %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode mercadopago response: %w", err)
	}

	return nil
}
