package flights

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Credentials selects how the provider is authorised. Client credentials win
// over a static token when both are set.
type Credentials struct {
	Token        string
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// NewHTTPClient returns a client that attaches a bearer token to every
// request. Without any credentials it is a plain client with the timeout.
func NewHTTPClient(ctx context.Context, creds Credentials, timeout time.Duration) *http.Client {
	base := &http.Client{Timeout: timeout}
	// oauth2 picks up the base client (and its timeout) from the context.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	switch {
	case creds.ClientID != "" && creds.ClientSecret != "" && creds.TokenURL != "":
		cc := clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     creds.TokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		c := cc.Client(ctx)
		c.Timeout = timeout
		return c
	case creds.Token != "":
		c := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: creds.Token,
			TokenType:   "Bearer",
		}))
		c.Timeout = timeout
		return c
	default:
		return base
	}
}
