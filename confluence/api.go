// Package confluence is a minimal client for the bits of the Confluence Cloud
// v1 content REST API that publishing a page needs: search by title, create,
// fetch, update, and attachment upload.
package confluence

import (
	"fmt"
	"net/http"
	"net/url"
)

func NewAPI(baseURL string, username string, token string) (*API, error) {

	if baseURL == "" {
		return &API{}, fmt.Errorf("confluence: configure your Confluence base URL with --base-url or the credentials file")
	}
	if username == "" {
		return &API{}, fmt.Errorf("confluence: configure your Confluence username with --username or the credentials file")
	}
	if token == "" {
		return &API{}, fmt.Errorf("confluence: API token is empty, set --api-token or the credentials file")
	}

	u, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse REST API URL: %w", err)
	}

	a := &API{
		BaseURI:  u,
		token:    token,
		username: username,
	}
	a.Client = &http.Client{}

	return a, nil
}

type API struct {
	// Base URL of the wiki, e.g. https://INSTANCE.atlassian.net/wiki
	BaseURI *url.URL

	// An HTTP client - you can substitute VCR or whatnot.
	Client *http.Client

	// Auth info
	username, token string
}
