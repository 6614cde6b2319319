package tasksdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the taskboard API.
// It provides access to public operations and creates authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new taskboard client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates an account and returns the new user.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/register", req)
	if err != nil {
		return nil, err
	}

	var user User
	if err := decodeEnvelope(resp, &user, http.StatusCreated); err != nil {
		return nil, err
	}
	return &user, nil
}

// LoginTokens logs in and returns the raw session response.
func (c *SDKClient) LoginTokens(ctx context.Context, email, password string) (*SessionResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/login", LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var sr SessionResponse
	if err := decodeEnvelope(resp, &sr, http.StatusOK); err != nil {
		return nil, err
	}
	return &sr, nil
}

// Login logs in and returns an authenticated session.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	sr, err := c.LoginTokens(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return newSession(c, sr), nil
}

// Refresh exchanges a refresh token for a new pair. The token passed in is
// no longer valid afterwards.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*SessionResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}

	var sr SessionResponse
	if err := decodeEnvelope(resp, &sr, http.StatusOK); err != nil {
		return nil, err
	}
	return &sr, nil
}

// AuthenticateWithRefreshToken creates a session from an existing refresh token.
func (c *SDKClient) AuthenticateWithRefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	sr, err := c.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return newSession(c, sr), nil
}

// NewSessionFromTokens creates a session from tokens obtained elsewhere.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string) *Session {
	return newSession(c, &SessionResponse{AccessToken: accessToken, RefreshToken: refreshToken})
}

// ForgotPassword asks for a reset link. It succeeds whether or not the email
// is registered.
func (c *SDKClient) ForgotPassword(ctx context.Context, email string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/forgot-password", ForgotPasswordRequest{Email: email})
	if err != nil {
		return err
	}
	return decodeEnvelope(resp, nil, http.StatusOK)
}

// ResetPassword completes a reset with the token from the reset link.
func (c *SDKClient) ResetPassword(ctx context.Context, token, newPassword string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/reset-password", ResetPasswordRequest{
		Token:       token,
		NewPassword: newPassword,
	})
	if err != nil {
		return err
	}
	return decodeEnvelope(resp, nil, http.StatusOK)
}

// Bootstrap promotes a user to admin using the server's bootstrap token. It
// only succeeds while no admin exists.
func (c *SDKClient) Bootstrap(ctx context.Context, token, email string) (*User, error) {
	body, err := jsonBody(BootstrapRequest{Email: email})
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/bootstrap", body, map[string]string{
		"Content-Type":      "application/json",
		"X-Bootstrap-Token": token,
	})
	if err != nil {
		return nil, err
	}

	var user User
	if err := decodeEnvelope(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}
