package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kalambet/studybot/internal/config"
	"github.com/kalambet/studybot/internal/notify"
)

// apiClient talks to a running studybot server on the relay base URL.
type apiClient struct {
	baseURL    string
	signer     *notify.Signer
	httpClient *http.Client
}

var newAPIClient = func(cfg config.Config) *apiClient {
	c := &apiClient{
		baseURL:    strings.TrimRight(cfg.Relay.BaseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if cfg.Relay.Secret != "" {
		c.signer = notify.NewSigner(cfg.Relay.Secret)
	}
	return c
}

func (c *apiClient) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.signer != nil {
		tok, err := c.signer.Token()
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server not reachable, is studybot serve running? (%w)", err)
	}
	return resp, nil
}

func (c *apiClient) get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path)
}

func (c *apiClient) post(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path)
}

func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("server returned %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
