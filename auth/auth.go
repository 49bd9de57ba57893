// Package auth provides the OAuth2 client-credentials token source used
// by HTTP connectors.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCred caches a client-credentials token and refreshes it when it
// expires.
type ClientCred struct {
	conf  clientcredentials.Config
	token *oauth2.Token
}

// NewClientCred creates a token source from the configuration.
func NewClientCred(conf Conf) *ClientCred {
	return &ClientCred{conf: conf.toOauth2Config()}
}

// GetToken returns a valid access token, requesting a new one when the
// cached token expired.
func (c *ClientCred) GetToken() (string, error) {
	if c.token != nil && c.token.Valid() {
		return c.token.AccessToken, nil
	}
	if err := c.refresh(); err != nil {
		return "", err
	}
	return c.token.AccessToken, nil
}

// ForceRefresh discards the cached token and requests a new one.
func (c *ClientCred) ForceRefresh() (string, error) {
	if err := c.refresh(); err != nil {
		return "", err
	}
	return c.token.AccessToken, nil
}

// SetAuthHeader puts a valid bearer token on the request.
func (c *ClientCred) SetAuthHeader(r *http.Request) error {
	if c.token == nil || !c.token.Valid() {
		if err := c.refresh(); err != nil {
			return err
		}
	}
	c.token.SetAuthHeader(r)
	return nil
}

func (c *ClientCred) refresh() error {
	token, err := c.conf.Token(context.Background())
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	c.token = token
	return nil
}
