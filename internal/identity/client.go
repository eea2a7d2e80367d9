// Package identity talks to the identity authority (Clerk) that owns user
// accounts.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the Clerk backend API root.
const DefaultBaseURL = "https://api.clerk.com/v1"

// ErrUserExists is returned by CreateUser when the authority already has
// an account for the email address.
var ErrUserExists = errors.New("identity: user already exists")

// User is the part of an authority account the service uses.
type User struct {
	ID        string  `json:"id"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// Client communicates with the Clerk backend API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type createUserRequest struct {
	EmailAddress            []string `json:"email_address"`
	SkipPasswordChecks      bool     `json:"skip_password_checks"`
	SkipPasswordRequirement bool     `json:"skip_password_requirement"`
}

// CreateUser registers a passwordless account for email.
func (c *Client) CreateUser(ctx context.Context, email string) (*User, error) {
	body, err := json.Marshal(createUserRequest{
		EmailAddress:            []string{email},
		SkipPasswordChecks:      true,
		SkipPasswordRequirement: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/users", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnprocessableEntity {
		return nil, ErrUserExists
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, statusError("create user", resp)
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

// FindUserByEmail returns the account registered for email, or nil, nil.
func (c *Client) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/users?email_address="+url.QueryEscape(email), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("find user", resp)
	}

	var users []User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	return req, nil
}

func statusError(op string, resp *http.Response) error {
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, string(respBody))
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
