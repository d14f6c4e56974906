package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// GraphClient habla con la Graph API de Meta para WhatsApp Business y
// Messenger.
type GraphClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewGraphClient construye un cliente apuntando a la Graph API.
func NewGraphClient(baseURL string, logger *zap.Logger) *GraphClient {
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v17.0"
	}
	return &GraphClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// SendWhatsApp envía un mensaje de texto por WhatsApp Business API.
func (c *GraphClient) SendWhatsApp(ctx context.Context, phoneNumberID, accessToken, to, text string) error {
	if phoneNumberID == "" || accessToken == "" {
		return ErrIntegrationMissing
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}
	endpoint := fmt.Sprintf("%s/%s/messages", c.baseURL, phoneNumberID)
	return c.post(ctx, endpoint, accessToken, payload)
}

// SendMessenger envía un mensaje de texto por la Send API de Messenger.
func (c *GraphClient) SendMessenger(ctx context.Context, pageAccessToken, recipientID, text string) error {
	if pageAccessToken == "" {
		return ErrIntegrationMissing
	}

	payload := map[string]any{
		"recipient": map[string]string{"id": recipientID},
		"message":   map[string]string{"text": text},
	}
	endpoint := c.baseURL + "/me/messages?access_token=" + url.QueryEscape(pageAccessToken)
	return c.post(ctx, endpoint, "", payload)
}

func (c *GraphClient) post(ctx context.Context, endpoint, bearer string, payload any) error {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		if c.logger != nil {
			c.logger.Warn("graph api error",
				zap.Int("status", resp.StatusCode),
				zap.ByteString("body", respBody),
			)
		}
		return fmt.Errorf("graph api error: status=%d", resp.StatusCode)
	}
	return nil
}
