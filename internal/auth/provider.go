package auth

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"
)

// TokenRequest is the JSON body sent to the provider's token endpoint.
// Transient; never persisted.
type TokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
}

// TokenResponse holds the provider's reply from the token endpoint.
// Transient; never persisted.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	IDToken     string `json:"id_token"`
	TokenType   string `json:"token_type"`
}

// Provider performs the authorization-code exchange against the identity
// provider.
type Provider struct {
	settings Settings
	client   *http.Client
	tokenURL string
}

// ProviderOption customizes a Provider.
type ProviderOption func(*Provider)

// WithProviderHTTPClient overrides the HTTP client used for the exchange.
func WithProviderHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		p.client = client
	}
}

// WithTokenURL overrides the token endpoint derived from the provider domain.
func WithTokenURL(url string) ProviderOption {
	return func(p *Provider) {
		p.tokenURL = url
	}
}

// NewProvider creates a Provider for the configured identity provider.
func NewProvider(settings Settings, opts ...ProviderOption) *Provider {
	p := &Provider{
		settings: settings,
		client:   &http.Client{Timeout: 10 * time.Second},
		tokenURL: settings.TokenEndpoint(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AuthURL returns the authorize redirect URL carrying the given CSRF state.
func (p *Provider) AuthURL(state string) string {
	return p.settings.AuthorizeURL(state)
}

// Exchange swaps an authorization code for the provider's token set. Any
// transport or decoding failure fails the login attempt outright; no retry
// is performed.
func (p *Provider) Exchange(ctx context.Context, code string) (*TokenResponse, error) {
	body, err := json.Marshal(p.settings.ExchangeRequest(code))
	if err != nil {
		return nil, &SerializationError{Name: "token_request"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange: provider returned %s", resp.Status)
	}

	var tokens TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, &DeserializationError{Name: "token_response"}
	}
	if tokens.IDToken == "" {
		return nil, &DeserializationError{Name: "token_response"}
	}

	return &tokens, nil
}

const (
	stateLength  = 30
	stateCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// GenerateState returns a cryptographically random alphanumeric state string
// for CSRF protection of the login flow.
func GenerateState() (string, error) {
	charsetLen := big.NewInt(int64(len(stateCharset)))
	buf := make([]byte, stateLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", fmt.Errorf("generate state: %w", err)
		}
		buf[i] = stateCharset[n.Int64()]
	}
	return string(buf), nil
}
