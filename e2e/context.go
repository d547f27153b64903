package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// TestContext holds state between the steps of one scenario.
type TestContext struct {
	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte

	AdminEmail    string
	AdminPassword string
	DemoPassword  string

	AccessToken  string
	SessionToken string
	TenantID     string
	TenantSlug   string
	LastVenueID  string
	DemoTenants  map[string]string
}

func NewTestContext() *TestContext {
	return &TestContext{
		BaseURL:       envOr("BASE_URL", "http://localhost:8080"),
		HTTPClient:    &http.Client{Timeout: 10 * time.Second},
		AdminEmail:    envOr("BOOTSTRAP_ADMIN_EMAIL", "root@tenantgate.test"),
		AdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		DemoPassword:  envOr("DEMO_PASSWORD", "demo-password"),
		DemoTenants:   make(map[string]string),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Do sends a request as the signed-in principal, if any, and stores the response.
func (tc *TestContext) Do(method, path string, body any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+tc.AccessToken)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.Do(http.MethodPost, path, body)
}

func (tc *TestContext) GET(path string) error {
	return tc.Do(http.MethodGet, path, nil)
}

// GetResponseField reads a top-level field of a JSON object response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var data map[string]any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	value, ok := data[field]
	if !ok {
		return nil, fmt.Errorf("field %s not found in response", field)
	}
	return value, nil
}

func (tc *TestContext) ResponseContains(text string) bool {
	return strings.Contains(string(tc.LastResponseBody), text)
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}

func (tc *TestContext) SetTokens(access, session string) {
	tc.AccessToken = access
	tc.SessionToken = session
}

func (tc *TestContext) GetSessionToken() string {
	return tc.SessionToken
}

func (tc *TestContext) ClearAccessToken() {
	tc.AccessToken = ""
}

func (tc *TestContext) GetTenant() (string, string) {
	return tc.TenantID, tc.TenantSlug
}

func (tc *TestContext) SetTenant(tenantID, slug string) {
	tc.TenantID = tenantID
	tc.TenantSlug = slug
}

func (tc *TestContext) GetLastVenueID() string {
	return tc.LastVenueID
}

func (tc *TestContext) SetLastVenueID(id string) {
	tc.LastVenueID = id
}

func (tc *TestContext) AdminCredentials() (string, string) {
	return tc.AdminEmail, tc.AdminPassword
}

func (tc *TestContext) GetDemoPassword() string {
	return tc.DemoPassword
}

func (tc *TestContext) RememberDemoTenant(slug, tenantID string) {
	tc.DemoTenants[slug] = tenantID
}

func (tc *TestContext) DemoTenant(slug string) (string, bool) {
	tenantID, ok := tc.DemoTenants[slug]
	return tenantID, ok
}
