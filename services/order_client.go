package services

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

const defaultSubmitTimeout = 60 * time.Second

// OrderClient posts bulk order batches to the order-ingestion endpoint.
type OrderClient struct {
	endpoint string
	token    string
	timeout  time.Duration
	client   *fasthttp.Client
}

// NewOrderClient returns a client for endpoint. token is sent as a bearer
// token when non-empty; a zero timeout falls back to 60 seconds.
func NewOrderClient(endpoint, token string, timeout time.Duration) *OrderClient {
	if timeout <= 0 {
		timeout = defaultSubmitTimeout
	}
	return &OrderClient{
		endpoint: endpoint,
		token:    token,
		timeout:  timeout,
		client: &fasthttp.Client{
			Name:                "bulkorder",
			MaxResponseBodySize: 32 << 20,
		},
	}
}

type bulkOrderRequest struct {
	Orders []CreateBulkOrder `json:"orders"`
}

type bulkOrderResponse struct {
	Status  bool         `json:"status"`
	Message string       `json:"message"`
	Data    *BatchResult `json:"data"`
}

// SubmitBulkOrders sends the whole batch in one request. Transport errors,
// non-2xx responses, undecodable bodies and a false status flag all fail
// the batch as a whole.
func (c *OrderClient) SubmitBulkOrders(ctx context.Context, batch []CreateBulkOrder, idempotencyKey string) (*BatchResult, error) {
	body, err := json.Marshal(bulkOrderRequest{Orders: batch})
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if c.token != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.token)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	req.SetBodyRaw(body)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	status := resp.StatusCode()
	var decoded bulkOrderResponse
	decodeErr := json.Unmarshal(resp.Body(), &decoded)

	if status < 200 || status > 299 {
		msg := decoded.Message
		if decodeErr != nil || msg == "" {
			msg = fasthttp.StatusMessage(status)
		}
		return nil, fmt.Errorf("%w: endpoint returned %d: %s", ErrSubmissionFailed, status, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSubmissionFailed, decodeErr)
	}
	if !decoded.Status {
		return nil, fmt.Errorf("%w: %s", ErrSubmissionFailed, decoded.Message)
	}
	if decoded.Data == nil {
		return &BatchResult{}, nil
	}
	return decoded.Data, nil
}
