// Package publish turns one markdown document into a Confluence page: mermaid
// fences become rendered PNG attachments, local image references become
// uploaded attachments, and the converted body is pushed through the v1
// content API.
package publish

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Logger is the logging collaborator handed to every pipeline stage, so
// nothing in this package touches ambient global state.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Attachment is one binary destined for the page.  Records are never mutated
// after registration; the upload phase just reads them back.
type Attachment struct {
	// SourcePath is where the file lives on local disk.
	SourcePath string
	// FileName is the name it gets on the wiki; unique within a run.
	FileName string
	// Generated marks files we produced ourselves (rendered diagrams) rather
	// than files the author referenced.
	Generated bool
}

// Registry collects attachments and the reference→filename mapping built up
// by the mermaid and image stages, consumed read-only by the converter and
// the uploader.
type Registry struct {
	attachments []Attachment
	refs        map[string]string
	names       map[string]bool
}

func NewRegistry() *Registry {
	return &Registry{
		refs:  map[string]string{},
		names: map[string]bool{},
	}
}

// Register records an attachment under a run-unique file name derived from
// wantName, suffixing a counter before the extension on collision
// (diagram.png, diagram-1.png, ...).  Returns the name actually assigned.
func (r *Registry) Register(sourcePath string, wantName string, generated bool) string {
	name := r.uniqueName(wantName)
	r.names[name] = true
	r.attachments = append(r.attachments, Attachment{
		SourcePath: sourcePath,
		FileName:   name,
		Generated:  generated,
	})
	return name
}

// MapRef records that the reference text ref, wherever it appears as an image
// source, should be replaced by the named attachment.
func (r *Registry) MapRef(ref string, fileName string) {
	r.refs[ref] = fileName
}

// Lookup returns the attachment name a reference maps to, if any.
func (r *Registry) Lookup(ref string) (string, bool) {
	name, ok := r.refs[ref]
	return name, ok
}

// Attachments returns the registered attachments in registration order.
func (r *Registry) Attachments() []Attachment {
	return r.attachments
}

// Refs returns the mapped reference strings, sorted, for logging.
func (r *Registry) Refs() []string {
	refs := maps.Keys(r.refs)
	slices.Sort(refs)
	return refs
}

func (r *Registry) uniqueName(name string) string {
	if !r.names[name] {
		return name
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if !r.names[candidate] {
			return candidate
		}
	}
}
