package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sarafbook/ledger/pkg/logger"
	"github.com/valyala/fasthttp"
)

type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "DELIVERED"
	StatusFailed    DeliveryStatus = "FAILED"
)

// Sender delivers one rendered notification text over one channel.
// Implementations must be safe for concurrent use by the worker pool.
type Sender interface {
	Send(ctx context.Context, channel, recipient, text string) error
}

type SendRequest struct {
	EventID   string `json:"event_id"`
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

type SendResponse struct {
	EventID     string         `json:"event_id"`
	Status      DeliveryStatus `json:"status"`
	ErrorCode   string         `json:"error_code,omitempty"`
	ErrorMsg    string         `json:"error_message,omitempty"`
	ProcessedAt time.Time      `json:"processed_at"`
}

// GatewayClient talks to the external channel gateway. The gateway exposes
// one send endpoint per channel (sms, whatsapp, telegram) behind a common
// base URL, see cmd/channelsim for the contract.
type GatewayClient struct {
	baseURL string
	client  *fasthttp.Client
	timeout time.Duration
}

func NewGatewayClient(baseURL string, timeout time.Duration) *GatewayClient {
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	return &GatewayClient{
		baseURL: baseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     256,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		timeout: timeout,
	}
}

func (c *GatewayClient) Send(ctx context.Context, channel, recipient, text string) error {
	body, err := json.Marshal(SendRequest{Recipient: recipient, Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/api/v1/%s/send", c.baseURL, channel))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode != fasthttp.StatusOK && statusCode != fasthttp.StatusAccepted {
		return fmt.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	var out SendResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if out.Status != StatusDelivered {
		return fmt.Errorf("gateway returned %s: %s", out.Status, out.ErrorMsg)
	}

	logger.Info("notification sent", "channel", channel, "recipient", recipient)
	return nil
}
