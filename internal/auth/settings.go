package auth

import (
	"fmt"

	"golang.org/x/oauth2"
)

// Settings holds the identity-provider configuration shared across requests.
// ClientSecret is confidential and must never be logged or serialized to
// clients.
type Settings struct {
	Domain       string
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// AuthorizeURL builds the provider's authorize redirect carrying the CSRF
// state, requesting the authorization-code flow with openid and profile
// scopes.
func (s Settings) AuthorizeURL(state string) string {
	conf := &oauth2.Config{
		ClientID:    s.ClientID,
		RedirectURL: s.RedirectURI,
		Scopes:      []string{"openid", "profile"},
		Endpoint: oauth2.Endpoint{
			AuthURL: fmt.Sprintf("https://%s/authorize", s.Domain),
		},
	}
	return conf.AuthCodeURL(state)
}

// TokenEndpoint returns the provider's code-exchange endpoint.
func (s Settings) TokenEndpoint() string {
	return fmt.Sprintf("https://%s/oauth/token", s.Domain)
}

// Issuer returns the exact issuer string the provider stamps into ID tokens.
func (s Settings) Issuer() string {
	return fmt.Sprintf("https://%s/", s.Domain)
}

// ExchangeRequest builds the JSON body for the code-for-token exchange.
func (s Settings) ExchangeRequest(code string) TokenRequest {
	return TokenRequest{
		GrantType:    "authorization_code",
		ClientID:     s.ClientID,
		ClientSecret: s.ClientSecret,
		Code:         code,
		RedirectURI:  s.RedirectURI,
	}
}
