package confluence

// Content is the v1 REST representation of a page, both as the API returns it
// and as we submit it on create/update.  Only the fields this tool touches are
// modelled.
//
// See https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/
type Content struct {
	ID        string     `json:"id,omitempty"`
	Type      string     `json:"type,omitempty"`   // "page"
	Status    string     `json:"status,omitempty"` // current, archived, deleted, trashed
	Title     string     `json:"title,omitempty"`
	Space     *Space     `json:"space,omitempty"`
	Ancestors []Ancestor `json:"ancestors,omitempty"`
	Version   *Version   `json:"version,omitempty"`
	Body      *Body      `json:"body,omitempty"`

	Links *Links `json:"_links,omitempty"`
}

type Links struct {
	WebUI string `json:"webui,omitempty"`
	Base  string `json:"base,omitempty"`
}

type Space struct {
	ID   int    `json:"id,omitempty"`
	Key  string `json:"key,omitempty"`
	Name string `json:"name,omitempty"`
}

// Ancestor names a parent page; on create/update only the ID is submitted.
type Ancestor struct {
	ID string `json:"id"`
}

// Version is the optimistic-concurrency counter; the wiki rejects updates
// whose number isn't exactly current+1.
type Version struct {
	Number    int    `json:"number"`
	When      string `json:"when,omitempty"`
	Message   string `json:"message,omitempty"`
	MinorEdit bool   `json:"minorEdit,omitempty"`
}

// Body holds the storage representation
type Body struct {
	Storage Storage `json:"storage"`
}

// Storage defines the storage information
type Storage struct {
	Representation string `json:"representation"`
	Value          string `json:"value"`
}

// SearchResult is the envelope around content search responses.
type SearchResult struct {
	Results []Content `json:"results"`
	Start   int       `json:"start"`
	Limit   int       `json:"limit"`
	Size    int       `json:"size"`
}

// AttachmentList is the envelope around attachment upload responses.
type AttachmentList struct {
	Results []Content `json:"results"`
	Size    int       `json:"size"`
}
