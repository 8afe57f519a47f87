package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// StatusError is returned for any non-success HTTP status.  The response body
// is carried along because Confluence's error payloads are the only clue to
// what went wrong.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("confluence: unexpected response %s: %s", e.Status, e.Body)
}

// IsNotSuccess reports whether err represents a non-2xx HTTP response, as
// opposed to a transport-level failure.
func IsNotSuccess(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// CreatePageRequest carries everything needed to create a fresh page.
type CreatePageRequest struct {
	SpaceKey string
	Title    string
	ParentID string // optional
	Body     string // storage-format body
}

// UpdatePageRequest carries the full payload for a page update.  Version must
// already be the next version number the wiki expects.
type UpdatePageRequest struct {
	ID       string
	SpaceKey string
	Title    string
	ParentID string // optional
	Version  int
	Body     string // storage-format body
}

// FindPageByTitle searches the space for a page with exactly the given title.
// Returns nil if no such page exists.  The version field is expanded so
// callers can log what they found.
func (api *API) FindPageByTitle(ctx context.Context, spaceKey string, title string) (*Content, error) {
	ep, err := api.searchContentEndpoint(SearchContentQuery{
		Type:     "page",
		SpaceKey: spaceKey,
		Title:    title,
		Expand:   []string{"version", "space", "ancestors"},
		Limit:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get content search endpoint: %w", err)
	}

	body, err := api.request(ctx, http.MethodGet, ep, "", nil)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't perform request: %w", err)
	}

	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	if len(result.Results) == 0 {
		return nil, nil
	}

	return &result.Results[0], nil
}

// CreatePage creates a new page with a storage-format body and returns the
// wiki's view of it, including the assigned ID.
func (api *API) CreatePage(ctx context.Context, req CreatePageRequest) (*Content, error) {
	ep, err := api.createContentEndpoint()
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get content create endpoint: %w", err)
	}

	payload := Content{
		Type:  "page",
		Title: req.Title,
		Space: &Space{Key: req.SpaceKey},
		Body: &Body{
			Storage: Storage{
				Representation: "storage",
				Value:          req.Body,
			},
		},
	}
	if req.ParentID != "" {
		payload.Ancestors = []Ancestor{{ID: req.ParentID}}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode create payload: %w", err)
	}

	body, err := api.request(ctx, http.MethodPost, ep, "application/json", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't create page: %w", err)
	}

	var page Content
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &page, nil
}

// GetPageByID fetches one page with its version expanded.  A non-success
// status means "not found" here: the caller uses this purely as a precondition
// check before updating.
func (api *API) GetPageByID(ctx context.Context, id string) (*Content, error) {
	ep, err := api.contentByIDEndpoint(id, GetContentQuery{
		Expand: []string{"version", "space", "ancestors"},
	})
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get single content endpoint: %w", err)
	}

	body, err := api.request(ctx, http.MethodGet, ep, "", nil)
	if err != nil {
		if IsNotSuccess(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("confluence: couldn't perform request: %w", err)
	}

	var page Content
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &page, nil
}

// UpdatePage submits the full page payload at the given version number.
func (api *API) UpdatePage(ctx context.Context, req UpdatePageRequest) (*Content, error) {
	ep, err := api.contentByIDEndpoint(req.ID, GetContentQuery{})
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get content update endpoint: %w", err)
	}

	payload := Content{
		ID:      req.ID,
		Type:    "page",
		Title:   req.Title,
		Space:   &Space{Key: req.SpaceKey},
		Version: &Version{Number: req.Version},
		Body: &Body{
			Storage: Storage{
				Representation: "storage",
				Value:          req.Body,
			},
		},
	}
	if req.ParentID != "" {
		payload.Ancestors = []Ancestor{{ID: req.ParentID}}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode update payload: %w", err)
	}

	body, err := api.request(ctx, http.MethodPut, ep, "application/json", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't update page %s: %w", req.ID, err)
	}

	var page Content
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &page, nil
}

// UploadAttachment posts one file as multipart form data under the page.  The
// X-Atlassian-Token header defeats Confluence's XSRF check, which otherwise
// rejects programmatic uploads.
func (api *API) UploadAttachment(ctx context.Context, pageID string, fileName string, contents io.Reader) (*AttachmentList, error) {
	ep, err := api.attachmentEndpoint(pageID)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get attachment endpoint: %w", err)
	}

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't create multipart file part: %w", err)
	}
	if _, err := io.Copy(part, contents); err != nil {
		return nil, fmt.Errorf("confluence: couldn't read attachment contents: %w", err)
	}
	if err := writer.WriteField("minorEdit", "true"); err != nil {
		return nil, fmt.Errorf("confluence: couldn't write multipart field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("confluence: couldn't finalise multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.String(), &form)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't instantiate http request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Atlassian-Token", "nocheck")

	body, err := api.do(req)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't upload attachment %s: %w", fileName, err)
	}

	var uploaded AttachmentList
	if err := json.Unmarshal(body, &uploaded); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &uploaded, nil
}

// request performs one JSON round-trip against the API.
func (api *API) request(ctx context.Context, method string, url *url.URL, contentType string, payload io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url.String(), payload)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't instantiate http request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return api.do(req)
}

// do sends a prepared request, reading the whole response body before
// returning.  Non-success statuses come back as *StatusError with the body
// attached.
func (api *API) do(req *http.Request) ([]byte, error) {
	req.Header.Add("Accept", "application/json, */*")

	// if user & token are not set, do not add authorization header
	if api.username != "" && api.token != "" {
		req.SetBasicAuth(api.username, api.token)
	} else if api.token != "" {
		req.Header.Set("Authorization", "Bearer "+api.token)
	}

	response, err := api.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't perform http request: %w", err)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't read http response body: %w", err)
	}

	if err := response.Body.Close(); err != nil {
		return nil, fmt.Errorf("confluence: couldn't close response body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: response.StatusCode,
			Status:     response.Status,
			Body:       string(body),
		}
	}

	return body, nil
}
