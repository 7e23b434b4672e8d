package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SMSGateway posts messages to an HTTP SMS gateway as JSON {to, from, message}.
type SMSGateway struct {
	url    string
	apiKey string
	sender string
	client *http.Client
}

func NewSMSGateway(url, apiKey, sender string) *SMSGateway {
	return &SMSGateway{
		url:    url,
		apiKey: apiKey,
		sender: sender,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type smsRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

type smsResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (g *SMSGateway) SendMessage(ctx context.Context, to, body string) (Result, error) {
	if g == nil || g.url == "" {
		return Result{}, ErrNotConfigured
	}
	payload, err := json.Marshal(smsRequest{To: to, From: g.sender, Message: body})
	if err != nil {
		return Result{}, fmt.Errorf("sms: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("sms: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("sms: send: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("sms: gateway responded %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	var decoded smsResponse
	// Gateways which answer with an empty or non JSON body are still treated as accepted
	_ = json.Unmarshal(raw, &decoded)
	if decoded.Status == "" {
		decoded.Status = "accepted"
	}
	return Result{Provider: "sms", ID: decoded.ID, Status: decoded.Status}, nil
}
