package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	claimhooks "github.com/cowhooks/claimhooks"
)

// ============================================================================
// AppData Registry Client
// ============================================================================

// DefaultRegistryURL is the Gnosis Chain order book API
const DefaultRegistryURL = "https://api.cow.fi/xdai"

// DefaultTimeout is the default HTTP client timeout
const DefaultTimeout = 30 * time.Second

// appDataPath is appended to the base URL, followed by the hash
const appDataPath = "/api/v1/app_data/"

// RegistryClient uploads and fetches AppData documents
type RegistryClient struct {
	url        string
	httpClient *http.Client
	headers    map[string]string
}

// RegistryConfig configures the registry client
type RegistryConfig struct {
	// URL is the base URL of the order book API (optional)
	URL string

	// HTTPClient is the HTTP client to use (optional)
	HTTPClient *http.Client

	// Timeout for requests (optional, defaults to 30s)
	Timeout time.Duration

	// Headers are added to every request (optional)
	Headers map[string]string
}

// RegistryError is returned when the registry answers with a non-success status
type RegistryError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry %s %s returned %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Status implements claimhooks.StatusError
func (e *RegistryError) Status() int {
	return e.StatusCode
}

// putAppDataRequest is the body of PUT /api/v1/app_data/{hash}
type putAppDataRequest struct {
	FullAppData string `json:"fullAppData"`
}

// getAppDataResponse is the body of GET /api/v1/app_data/{hash}
type getAppDataResponse struct {
	FullAppData string `json:"fullAppData"`
}

// NewRegistryClient creates a new registry client.
//
// Args:
//
//	config: Client configuration. nil uses DefaultRegistryURL and a client
//	  with DefaultTimeout.
//
// Example:
//
//	registry := http.NewRegistryClient(&http.RegistryConfig{
//	    URL: "https://api.cow.fi/xdai",
//	})
//	hash, err := registry.PutAppData(ctx, appData)
func NewRegistryClient(config *RegistryConfig) *RegistryClient {
	if config == nil {
		config = &RegistryConfig{}
	}

	url := config.URL
	if url == "" {
		url = DefaultRegistryURL
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{
			Timeout: timeout,
		}
	}

	return &RegistryClient{
		url:        strings.TrimSuffix(url, "/"),
		httpClient: httpClient,
		headers:    config.Headers,
	}
}

// URL returns the base URL
func (c *RegistryClient) URL() string {
	return c.url
}

// AppDataURL returns the registry URL of a document hash
func (c *RegistryClient) AppDataURL(hash string) string {
	return c.url + appDataPath + hash
}

// PutAppData uploads appData under its hash. The returned hash is the one
// reported by the registry, or appData.Hash when the response body is empty.
func (c *RegistryClient) PutAppData(ctx context.Context, appData claimhooks.AppData) (string, error) {
	if appData.Hash == "" {
		return "", fmt.Errorf("app data hash is empty")
	}

	body, err := json.Marshal(putAppDataRequest{FullAppData: appData.Data})
	if err != nil {
		return "", fmt.Errorf("failed to marshal app data request: %w", err)
	}

	url := c.AppDataURL(appData.Hash)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create app data request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("app data request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read app data response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", &RegistryError{
			Method:     http.MethodPut,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(responseBody),
		}
	}

	// The registry answers with the hash as a JSON string
	trimmed := bytes.TrimSpace(responseBody)
	if len(trimmed) == 0 {
		return appData.Hash, nil
	}
	var registryHash string
	if err := json.Unmarshal(trimmed, &registryHash); err != nil {
		return "", fmt.Errorf("failed to decode app data response: %w", err)
	}
	if registryHash == "" {
		return appData.Hash, nil
	}
	return registryHash, nil
}

// GetAppData fetches the serialized document stored under hash
func (c *RegistryClient) GetAppData(ctx context.Context, hash string) (string, error) {
	url := c.AppDataURL(hash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create app data request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("app data request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		responseBody, _ := io.ReadAll(resp.Body)
		return "", &RegistryError{
			Method:     http.MethodGet,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(responseBody),
		}
	}

	var result getAppDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode app data response: %w", err)
	}
	return result.FullAppData, nil
}

func (c *RegistryClient) applyHeaders(req *http.Request) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}
