package astroapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/astro-daily/internal/domain/profile"
	"github.com/yanqian/astro-daily/internal/domain/reading"
)

const (
	defaultBaseURL = "http://localhost:3001"
	readingPath    = "/api/daily-reading"
)

// Client fetches daily readings from the reading endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a reading API client. A zero timeout disables the deadline.
func NewClient(baseURL string, timeout time.Duration) *Client {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch retrieves the reading for a profile.
func (c *Client) Fetch(ctx context.Context, p profile.UserProfile) (reading.Response, error) {
	query := url.Values{}
	query.Set("birthYear", strconv.Itoa(p.BirthYear))
	query.Set("birthMonth", strconv.Itoa(p.BirthMonth))
	query.Set("birthDay", strconv.Itoa(p.BirthDay))
	if hour, ok := p.BirthHour(); ok {
		query.Set("birthHour", strconv.Itoa(hour))
	}
	endpoint := c.baseURL + readingPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return reading.Response{}, fmt.Errorf("build reading request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return reading.Response{}, fmt.Errorf("reading request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return reading.Response{}, fmt.Errorf("reading request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var raw apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return reading.Response{}, fmt.Errorf("decode reading response: %w", err)
	}
	if !raw.Success {
		return reading.Response{}, errors.New("reading api reported failure")
	}
	if raw.Data.Zodiac == "" || raw.Data.Reading == "" {
		return reading.Response{}, errors.New("reading api returned an incomplete reading")
	}
	return raw.Data, nil
}

type apiResponse struct {
	Success bool             `json:"success"`
	Data    reading.Response `json:"data"`
}
