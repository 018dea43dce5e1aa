package gitgraph

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"artsync/internal/artsync"
	"artsync/internal/config"
)

// Provider opens Clients that share one HTTP client.
type Provider struct {
	baseURL *url.URL
	http    *http.Client
}

var _ artsync.Provider = (*Provider)(nil)

// NewProvider creates a Provider for the API at baseURL. An empty baseURL
// selects DefaultAPIURL.
func NewProvider(baseURL string, httpClient *http.Client) (*Provider, error) {
	u, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Provider{baseURL: u, http: httpClient}, nil
}

// Graph returns a Client authenticated with token.
func (p *Provider) Graph(token artsync.Secret) artsync.ObjectGraph {
	return newClient(p.baseURL, token, p.http)
}

// NewProviderFromConfig creates a Provider based on the provider config type.
func NewProviderFromConfig(cfg config.ProviderConfig) (artsync.Provider, error) {
	switch cfg.Type {
	case "github", "":
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		p, err := NewProvider(cfg.APIURL, &http.Client{Timeout: timeout})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}
