// Package stream adapts the Stream video and chat REST APIs to the call and
// channel service contracts.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultVideoBaseURL = "https://video.stream-io-api.com/api/v2/video"
	DefaultChatBaseURL  = "https://chat.stream-io-api.com"
	DefaultCallType     = "default"
	DefaultChannelType  = "messaging"
)

// ErrNotFound is returned when Stream reports the addressed resource is absent.
var ErrNotFound = errors.New("stream resource not found")

// APIError is a non-2xx answer from Stream.
type APIError struct {
	StatusCode int    `json:"StatusCode"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stream api error: status=%d code=%d message=%s", e.StatusCode, e.Code, e.Message)
}

// Unwrap lets errors.Is(err, ErrNotFound) match 404 answers.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Config holds the credentials and endpoints shared by both clients.
type Config struct {
	APIKey       string
	APISecret    string
	VideoBaseURL string
	ChatBaseURL  string
	CallType     string
	ChannelType  string
	Timeout      time.Duration
}

// client is the transport shared by VideoClient and ChatClient.
type client struct {
	apiKey string
	tokens *Tokens
	http   *http.Client
	log    logrus.FieldLogger
}

func newClient(cfg Config, log logrus.FieldLogger) (*client, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("stream api key and secret are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &client{
		apiKey: cfg.APIKey,
		tokens: NewTokens(cfg.APISecret),
		http:   &http.Client{Timeout: timeout},
		log:    log,
	}, nil
}

// do sends body as JSON to baseURL+path and decodes a 2xx answer into out.
func (c *client) do(ctx context.Context, method, baseURL, path string, query url.Values, body, out interface{}) error {
	token, err := c.tokens.ServerToken()
	if err != nil {
		return err
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	endpoint := baseURL + path + "?" + query.Encode()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Stream-Auth-Type", "jwt")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("stream request %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	c.log.WithFields(logrus.Fields{
		"method":  method,
		"path":    path,
		"status":  res.StatusCode,
		"latency": time.Since(started),
	}).Debug("stream request")

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read stream response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := &APIError{}
		if len(raw) == 0 || json.Unmarshal(raw, apiErr) != nil {
			apiErr.Message = string(raw)
		}
		apiErr.StatusCode = res.StatusCode
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode stream response: %w", err)
	}
	return nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
