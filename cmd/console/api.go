package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jwebster45206/critfumble/internal/handlers"
	"github.com/jwebster45206/critfumble/pkg/roll"
	"github.com/jwebster45206/critfumble/pkg/storage"
)

type ErrorResponse struct {
	Status       string `json:"status"`
	Error        string `json:"error"`
	ErrorMessage string `json:"errorMessage"`
}

func (e ErrorResponse) message() string {
	if e.ErrorMessage != "" {
		return e.ErrorMessage
	}
	return e.Error
}

// APIClient talks to the critfumble HTTP API.
type APIClient struct {
	baseURL string
	client  *http.Client
}

func NewAPIClient(baseURL string, client *http.Client) *APIClient {
	return &APIClient{baseURL: baseURL, client: client}
}

func (c *APIClient) testConnection() bool {
	resp, err := c.client.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// do sends a request and decodes a 200 response into out.
func (c *APIClient) do(method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(data, &errorResp); err != nil || errorResp.message() == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
		}
		return fmt.Errorf("%s", errorResp.message())
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *APIClient) Roll(req roll.Request) (*roll.Result, error) {
	var res roll.Result
	if err := c.do(http.MethodPost, "/v1/roll", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *APIClient) History(limit int) ([]storage.HistoryItem, error) {
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	var resp handlers.HistoryResponse
	if err := c.do(http.MethodGet, "/v1/history?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}

func (c *APIClient) Tables() ([]handlers.SourceSummary, error) {
	var resp struct {
		Sources []handlers.SourceSummary `json:"sources"`
	}
	if err := c.do(http.MethodGet, "/v1/tables", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sources, nil
}

func (c *APIClient) Share(message string) error {
	return c.do(http.MethodPost, "/v1/share", handlers.ShareRequest{Message: message}, nil)
}
