package client

import (
	"context"
	"fmt"
	"food-storefront/internal/config"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// MessageSender delivers a text message to the store's WhatsApp number.
type MessageSender interface {
	SendText(ctx context.Context, text string) error
}

type callMeBotClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	phone      string
	apiKey     string
	limiter    *rate.Limiter
}

func NewCallMeBotClient(cmbCfg *config.CallMeBot) MessageSender {
	limit := rate.Limit(cmbCfg.RatePerSec)
	if cmbCfg.RatePerSec <= 0 {
		limit = rate.Inf
	}

	return &callMeBotClientImpl{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseApiURL: cmbCfg.BaseApiURL,
		phone:      cmbCfg.Phone,
		apiKey:     cmbCfg.ApiKey,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

func (c *callMeBotClientImpl) SendText(ctx context.Context, text string) error {
	if c.phone == "" || c.apiKey == "" {
		return fmt.Errorf("callmebot is not configured")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("callmebot rate limit: %w", err)
	}

	query := url.Values{}
	query.Set("phone", c.phone)
	query.Set("text", text)
	query.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseApiURL+"/whatsapp.php?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("callmebot error %d: %s", resp.StatusCode, string(b))
	}

	return nil
}
