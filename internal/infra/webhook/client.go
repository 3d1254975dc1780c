package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/astro-daily/internal/domain/chat"
)

// DefaultTimeout bounds a single webhook attempt.
const DefaultTimeout = 15 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// Client posts chat messages to the webhook, directly or through a relay.
type Client struct {
	httpClient *http.Client
	origin     string
}

// NewClient builds a webhook client. origin, when set, is sent as the Origin header.
func NewClient(timeout time.Duration, origin string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		origin:     strings.TrimSpace(origin),
	}
}

// Post sends req to target. Transport failures become *chat.NetworkError and
// non-success statuses become *chat.ServerError.
func (c *Client) Post(ctx context.Context, target string, req chat.Request) (chat.Reply, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return chat.Reply{}, fmt.Errorf("encode webhook payload: %w", err)
	}
	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	if c.origin != "" {
		headers["Origin"] = c.origin
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return chat.Reply{}, fmt.Errorf("build webhook request: %w", err)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return chat.Reply{}, ctxErr
		}
		return chat.Reply{}, &chat.NetworkError{
			URL:     target,
			Method:  http.MethodPost,
			Headers: headers,
			Payload: string(payload),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return chat.Reply{}, &chat.NetworkError{
			URL:     target,
			Method:  http.MethodPost,
			Headers: headers,
			Payload: string(payload),
			Err:     fmt.Errorf("read webhook response: %w", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return chat.Reply{}, serverError(resp.StatusCode, body)
	}

	var reply chat.Reply
	if err := json.Unmarshal(body, &reply); err != nil {
		// A non-JSON body has no output; the pipeline substitutes its apology text.
		return chat.Reply{}, nil
	}
	return reply, nil
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint"`
}

func serverError(status int, body []byte) *chat.ServerError {
	var parsed errorBody
	_ = json.Unmarshal(body, &parsed)
	return &chat.ServerError{
		Status:  status,
		Code:    parsed.Code,
		Message: parsed.Message,
		Hint:    parsed.Hint,
		Body:    string(body),
	}
}
