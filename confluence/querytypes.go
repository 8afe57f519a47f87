package confluence

// SearchContentQuery defines the query parameters for the (v1) content search:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-get
type SearchContentQuery struct {
	Type     string   `url:"type,omitempty"`     // "page" for us, always
	SpaceKey string   `url:"spaceKey,omitempty"` // key of the space to search in
	Title    string   `url:"title,omitempty"`    // exact title match
	Expand   []string `url:"expand,omitempty,comma"`

	Start int `url:"start,omitempty"`
	Limit int `url:"limit,omitempty"` // default 25
}

// GetContentQuery defines the query parameters for fetching one content item:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-id-get
type GetContentQuery struct {
	Expand  []string `url:"expand,omitempty,comma"` // e.g. version, space, ancestors
	Status  string   `url:"status,omitempty"`
	Version int      `url:"version,omitempty"`
}
