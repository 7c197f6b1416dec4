package obituary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Client calls the obituary sibling service. It logs in with service
// credentials and caches the bearer token in memory until shortly before
// expiry.
type ObituaryClient struct {
	baseURL    string
	email      string
	secret     string
	httpClient *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

type Client interface {
	FetchObituary(ctx context.Context, memorialID string) (*Obituary, error)
}

func NewClient(baseURL, email, secret string) *ObituaryClient {
	return &ObituaryClient{
		baseURL: baseURL,
		email:   email,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type Obituary struct {
	MemorialID string    `json:"memorial_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type loginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

func (c *ObituaryClient) FetchObituary(ctx context.Context, memorialID string) (*Obituary, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/internal/obituaries/%s", c.baseURL, memorialID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf(
			"obituary service error: status=%d body=%s",
			resp.StatusCode,
			string(b),
		)
	}

	var obituary Obituary
	if err := json.NewDecoder(resp.Body).Decode(&obituary); err != nil {
		return nil, err
	}

	return &obituary, nil
}

// ensureToken returns a valid token, logging in again when the cached one is
// about to expire.
func (c *ObituaryClient) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-30*time.Second)) {
		return c.token, nil
	}

	body, err := json.Marshal(loginRequest{Email: c.email, Secret: c.secret})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/auth/login",
		bytes.NewReader(body),
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf(
			"obituary service login error: status=%d body=%s",
			resp.StatusCode,
			string(b),
		)
	}

	var payload loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}

	c.token = payload.Token
	c.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)

	return c.token, nil
}
