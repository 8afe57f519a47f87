// Package credentials loads and saves the wiki credentials file.  Plain JSON
// on disk; fine for a local developer tool, wrong for anything else.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// Credentials is everything needed to authenticate against the wiki.
type Credentials struct {
	BaseURL  string `json:"baseUrl" validate:"required,url"`
	Username string `json:"username" validate:"required"`
	APIToken string `json:"apiToken" validate:"required"`
}

// Load reads the credentials file at path.  A missing file is not an error:
// the caller may be supplying everything via flags.
func Load(path string) (Credentials, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("credentials: couldn't read %s: %w", path, err)
	}

	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return Credentials{}, fmt.Errorf("credentials: couldn't parse %s: %w", path, err)
	}

	return creds, nil
}

// Merge overlays explicitly supplied values onto the loaded set.  Flags win
// over file contents; empty flags leave file values alone.
func (c *Credentials) Merge(baseURL string, username string, apiToken string) {
	if baseURL != "" {
		c.BaseURL = baseURL
	}
	if username != "" {
		c.Username = username
	}
	if apiToken != "" {
		c.APIToken = apiToken
	}
}

// Validate checks the merged set is complete and the base URL parses.
func (c Credentials) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("credentials: incomplete or invalid credentials (set --base-url, --username, --api-token or use a credentials file): %w", err)
	}
	return nil
}

// Save writes the credentials back to path, mode 0600: the token is a secret
// even if the format isn't.
func (c Credentials) Save(path string) error {
	encoded, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("credentials: couldn't encode credentials: %w", err)
	}

	if err := os.WriteFile(path, append(encoded, '\n'), 0600); err != nil {
		return fmt.Errorf("credentials: couldn't write %s: %w", path, err)
	}

	return nil
}
