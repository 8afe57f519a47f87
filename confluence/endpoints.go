package confluence

import (
	"fmt"
	"net/url"
	"path"

	"github.com/google/go-querystring/query"
)

// searchContentEndpoint returns the (v1) API endpoint to search content by
// space and title:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-get
func (a *API) searchContentEndpoint(opts SearchContentQuery) (*url.URL, error) {
	ep, err := a.resolveEndpoint("/rest/api/content")
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// createContentEndpoint returns the (v1) API endpoint to create content:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-post
func (a *API) createContentEndpoint() (*url.URL, error) {
	return a.resolveEndpoint("/rest/api/content")
}

// contentByIDEndpoint returns the (v1) API endpoint to fetch or update one
// content item:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-id-get
func (a *API) contentByIDEndpoint(id string, opts GetContentQuery) (*url.URL, error) {
	if id == "" {
		return nil, fmt.Errorf("confluence: please provide ID to address content")
	}

	ep, err := a.resolveEndpoint(fmt.Sprintf("/rest/api/content/%s", id))
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// attachmentEndpoint returns the (v1) API endpoint to upload an attachment
// under a content item:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content---attachments/#api-wiki-rest-api-content-id-child-attachment-post
func (a *API) attachmentEndpoint(id string) (*url.URL, error) {
	if id == "" {
		return nil, fmt.Errorf("confluence: please provide content ID for attachment upload")
	}

	return a.resolveEndpoint(fmt.Sprintf("/rest/api/content/%s/child/attachment", id))
}

// Do a bit of error checking on endpoint format, and return it appended to the
// base URI's path.  The base URL may itself carry a path prefix (the usual
// /wiki on Cloud), which must survive.
func (a *API) resolveEndpoint(endpoint string) (*url.URL, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("confluence: failed to parse endpoint ref: %w", err)
	}

	ep := *a.BaseURI
	ep.Path = path.Join(ep.Path, ref.Path)
	return &ep, nil
}
