package publish

import (
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Matches markdown image references, capturing the target.  Optional titles
// (`![alt](pic.png "title")`) are tolerated but not captured.
var imageRefRe = regexp.MustCompile(`!\[[^\]]*\]\(\s*([^)\s]+)(?:\s+"[^"]*")?\s*\)`)

// ImageResolver finds every image reference in the document and decides what
// to do with it: remote URLs pass through untouched, attachment: pseudo-refs
// are just mapped, and local paths become registered attachments.
type ImageResolver struct {
	// DocDir is the directory of the input document; relative references
	// resolve against it.
	DocDir string
	Logger Logger
}

// ResolveAll walks the references in text and fills in the registry.  The
// text itself is not modified; rewriting happens after HTML conversion, keyed
// on the mapping built here.
func (r *ImageResolver) ResolveAll(text string, reg *Registry) {
	for _, match := range imageRefRe.FindAllStringSubmatch(text, -1) {
		ref := match[1]
		r.resolveOne(ref, reg)
	}
}

func (r *ImageResolver) resolveOne(ref string, reg *Registry) {
	if strings.TrimSpace(ref) == "" {
		return
	}

	if _, seen := reg.Lookup(ref); seen {
		// Same image referenced twice; one upload is enough.
		return
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		// The wiki fetches remote images at render time; nothing to upload.
		return
	}

	if strings.HasPrefix(ref, AttachmentScheme) {
		// Already produced by the mermaid stage; just map the reference.
		reg.MapRef(ref, strings.TrimPrefix(ref, AttachmentScheme))
		return
	}

	sourcePath := ref
	if !filepath.IsAbs(sourcePath) {
		sourcePath = filepath.Join(r.DocDir, sourcePath)
	}

	if _, err := os.Stat(sourcePath); err != nil {
		r.Logger.Warnf("publish: image %s not found at %s, leaving reference as-is", ref, sourcePath)
		return
	}

	name := reg.Register(sourcePath, filepath.Base(sourcePath), false)
	reg.MapRef(ref, name)

	// The HTML converter may percent-encode the src attribute, so the encoded
	// spelling of the reference has to resolve too.
	escaped := (&url.URL{Path: ref}).EscapedPath()
	if escaped != ref {
		reg.MapRef(escaped, name)
	}

	r.Logger.Infof("publish: image %s registered as attachment %s", ref, name)
}
