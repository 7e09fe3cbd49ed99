package plex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
)

// AuthClient handles HTTP communication with the plex.tv PIN endpoints.
type AuthClient interface {
	RequestPin(ctx context.Context, clientIdentifier string) (*Pin, error)
	PollPin(ctx context.Context, clientIdentifier string, id int64) (*PinStatus, error)
}

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// httpAuthClient implements AuthClient using HTTP JSON requests.
type httpAuthClient struct {
	baseURL string
	client  HTTPDoer
}

// NewHTTPAuthClient constructs a plex.tv client using the provided HTTP backend.
func NewHTTPAuthClient(baseURL string, client HTTPDoer) AuthClient {
	trimmed := strings.TrimRight(baseURL, "/")
	return &httpAuthClient{baseURL: trimmed, client: client}
}

func (c *httpAuthClient) RequestPin(ctx context.Context, clientIdentifier string) (*Pin, error) {
	var resp pinResponse
	body := map[string]any{"strong": false}
	if err := c.doJSONRequest(ctx, http.MethodPost, "/api/v2/pins", body, clientIdentifier, &resp); err != nil {
		return nil, err
	}
	if resp.ID == 0 || strings.TrimSpace(resp.Code) == "" {
		return nil, fmt.Errorf("plex pin: incomplete response")
	}

	return &Pin{
		ID:        resp.ID,
		Code:      resp.Code,
		ExpiresAt: resp.expirationTime(),
	}, nil
}

func (c *httpAuthClient) PollPin(ctx context.Context, clientIdentifier string, id int64) (*PinStatus, error) {
	path := fmt.Sprintf("/api/v2/pins/%d", id)
	var resp pinResponse
	if err := c.doJSONRequest(ctx, http.MethodGet, path, nil, clientIdentifier, &resp); err != nil {
		return nil, err
	}

	status := &PinStatus{
		ExpiresAt: resp.expirationTime(),
	}
	if token := strings.TrimSpace(resp.AuthToken); token != "" {
		status.Authorized = true
		status.AuthorizationToken = token
	}
	return status, nil
}

func (c *httpAuthClient) doJSONRequest(ctx context.Context, method, path string, body any, clientIdentifier string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	applyStandardHeaders(req, clientIdentifier)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("plex request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrPinInvalid
		case http.StatusUnauthorized:
			return ErrAuthorizationMissing
		}
		return fmt.Errorf("plex %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func applyStandardHeaders(req *http.Request, clientIdentifier string) {
	if clientIdentifier != "" {
		req.Header.Set("X-Plex-Client-Identifier", clientIdentifier)
	}
	req.Header.Set("X-Plex-Product", productName)
	req.Header.Set("X-Plex-Version", productVersion)
	req.Header.Set("X-Plex-Device-Name", productName)
	req.Header.Set("X-Plex-Platform", runtime.GOOS)
	req.Header.Set("User-Agent", productName+"/"+productVersion)
}
