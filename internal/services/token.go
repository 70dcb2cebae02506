package services

import (
	"sync"

	"golang.org/x/oauth2"
)

// refreshableTokenSource reports every token that differs from the last one seen,
// so refreshed credentials can be written back to the config file.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

// Token implements [oauth2.TokenSource].
func (s *refreshableTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	changed := tok.AccessToken != s.last
	s.last = tok.AccessToken
	s.mu.Unlock()

	if changed && s.callback != nil {
		s.callback(tok)
	}
	return tok, nil
}

// oauthClient holds the provider config and the token source shared by the Spotify and YouTube services.
type oauthClient struct {
	config         *oauth2.Config
	source         oauth2.TokenSource
	onTokenRefresh func(*oauth2.Token)
}

// AuthURL returns the consent page URL requesting offline access.
func (c *oauthClient) AuthURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// SetTokenRefreshCallback registers fn to receive every newly issued token.
// It must be called before Authenticate.
func (c *oauthClient) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	c.onTokenRefresh = fn
}

// Token returns the current token, refreshing it when expired.
func (c *oauthClient) Token() (*oauth2.Token, error) {
	if c.source == nil {
		return nil, errNotAuthenticated
	}
	return c.source.Token()
}
