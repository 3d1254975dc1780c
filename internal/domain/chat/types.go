package chat

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Message is one entry of a chat session.
type Message struct {
	Text      string    `json:"text"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
	IsError   bool      `json:"isError,omitempty"`
	Debug     string    `json:"debug,omitempty"`
}

// Request is the webhook payload.
type Request struct {
	Message string `json:"message"`
}

// Reply is the webhook response body.
type Reply struct {
	Output string `json:"output"`
}

// Transport posts a request to url. It returns *NetworkError when no response was received
// and *ServerError when the endpoint answered with a non-success status.
type Transport interface {
	Post(ctx context.Context, url string, req Request) (Reply, error)
}

// Config wires runtime knobs for the delivery pipeline.
type Config struct {
	WebhookURL      string
	RelayTemplate   string
	MaxRetries      int
	RetryDelay      time.Duration
	LocalReplyDelay time.Duration
	Development     bool
}

// RelayURL routes the webhook through the relay template. A "{url}" placeholder receives the
// escaped webhook URL; without one the escaped URL is appended.
func (c Config) RelayURL() string {
	escaped := url.QueryEscape(c.WebhookURL)
	if strings.Contains(c.RelayTemplate, "{url}") {
		return strings.ReplaceAll(c.RelayTemplate, "{url}", escaped)
	}
	return c.RelayTemplate + escaped
}

// NetworkError means no HTTP response came back at all.
type NetworkError struct {
	URL     string
	Method  string
	Headers map[string]string
	Payload string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError means the endpoint responded with a non-success status.
type ServerError struct {
	Status  int
	Code    int
	Message string
	Hint    string
	Body    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server error (%d)", e.Status)
}
