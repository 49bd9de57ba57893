package auth

import "golang.org/x/oauth2/clientcredentials"

// Conf holds the client-credentials grant settings. AuthURL is the token
// endpoint.
type Conf struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AuthURL      string `json:"auth_url"`
}

// Configured reports whether a token endpoint is set; connectors skip
// authentication entirely when it is not.
func (c Conf) Configured() bool { return c.AuthURL != "" }

func (c Conf) toOauth2Config() clientcredentials.Config {
	return clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.AuthURL,
	}
}
