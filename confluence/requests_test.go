package confluence

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResolveEndpointKeepsBasePathPrefix(t *testing.T) {
	api, err := NewAPI("https://example.atlassian.net/wiki", "u", "t")
	if err != nil {
		t.Fatalf("couldn't construct API: %v", err)
	}

	ep, err := api.searchContentEndpoint(SearchContentQuery{
		Type:     "page",
		SpaceKey: "DOC",
		Title:    "My page",
	})
	if err != nil {
		t.Fatalf("couldn't build endpoint: %v", err)
	}

	if ep.Path != "/wiki/rest/api/content" {
		t.Errorf("the /wiki prefix must survive, got path %q", ep.Path)
	}
	query := ep.Query()
	if query.Get("spaceKey") != "DOC" || query.Get("title") != "My page" || query.Get("type") != "page" {
		t.Errorf("unexpected query encoding: %q", ep.RawQuery)
	}
}

func TestNewAPIRejectsMissingConfig(t *testing.T) {
	if _, err := NewAPI("", "u", "t"); err == nil {
		t.Errorf("empty base URL should be rejected")
	}
	if _, err := NewAPI("https://example.atlassian.net/wiki", "", "t"); err == nil {
		t.Errorf("empty username should be rejected")
	}
	if _, err := NewAPI("https://example.atlassian.net/wiki", "u", ""); err == nil {
		t.Errorf("empty token should be rejected")
	}
}

func TestRequestsCarryBasicAuth(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(rw).Encode(map[string]any{"results": []any{}})
	}))
	defer server.Close()

	api, err := NewAPI(server.URL, "user@example.com", "token123")
	if err != nil {
		t.Fatalf("couldn't construct API: %v", err)
	}

	if _, err := api.FindPageByTitle(context.Background(), "DOC", "T"); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("user@example.com:token123"))
	if gotAuth != want {
		t.Errorf("expected basic auth header %q, got %q", want, gotAuth)
	}
}

func TestStatusErrorCarriesResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		http.Error(rw, `{"message":"A page with this title already exists"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	api, err := NewAPI(server.URL, "u", "t")
	if err != nil {
		t.Fatalf("couldn't construct API: %v", err)
	}

	_, err = api.CreatePage(context.Background(), CreatePageRequest{
		SpaceKey: "DOC",
		Title:    "T",
		Body:     "<p>hi</p>",
	})
	if err == nil {
		t.Fatalf("expected error for 400 response")
	}
	if !IsNotSuccess(err) {
		t.Errorf("expected a StatusError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("error should surface the response body, got: %v", err)
	}
}

func TestGetPageByIDTreatsNotSuccessAsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		http.Error(rw, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	api, err := NewAPI(server.URL, "u", "t")
	if err != nil {
		t.Fatalf("couldn't construct API: %v", err)
	}

	page, err := api.GetPageByID(context.Background(), "123")
	if err != nil {
		t.Errorf("404 should not be an error here, got: %v", err)
	}
	if page != nil {
		t.Errorf("expected nil page for 404, got %+v", page)
	}
}

func TestFindPageByTitleEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		json.NewEncoder(rw).Encode(map[string]any{"results": []any{}, "size": 0})
	}))
	defer server.Close()

	api, err := NewAPI(server.URL, "u", "t")
	if err != nil {
		t.Fatalf("couldn't construct API: %v", err)
	}

	page, err := api.FindPageByTitle(context.Background(), "DOC", "Nope")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if page != nil {
		t.Errorf("expected nil page for empty results, got %+v", page)
	}
}

func TestUpdatePagePayloadShape(t *testing.T) {
	var payload Content
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("couldn't decode payload: %v", err)
		}
		json.NewEncoder(rw).Encode(payload)
	}))
	defer server.Close()

	api, err := NewAPI(server.URL, "u", "t")
	if err != nil {
		t.Fatalf("couldn't construct API: %v", err)
	}

	_, err = api.UpdatePage(context.Background(), UpdatePageRequest{
		ID:       "123",
		SpaceKey: "DOC",
		Title:    "T",
		ParentID: "42",
		Version:  7,
		Body:     "<p>hello</p>",
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if payload.ID != "123" || payload.Type != "page" || payload.Title != "T" {
		t.Errorf("unexpected payload identity: %+v", payload)
	}
	if payload.Space == nil || payload.Space.Key != "DOC" {
		t.Errorf("payload should name the space key, got %+v", payload.Space)
	}
	if len(payload.Ancestors) != 1 || payload.Ancestors[0].ID != "42" {
		t.Errorf("payload should carry the ancestor, got %+v", payload.Ancestors)
	}
	if payload.Version == nil || payload.Version.Number != 7 {
		t.Errorf("payload should carry version 7, got %+v", payload.Version)
	}
	if payload.Body == nil || payload.Body.Storage.Representation != "storage" {
		t.Errorf("payload body should use storage representation, got %+v", payload.Body)
	}
}
