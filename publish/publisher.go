package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/toothbrush/confluence-publish/confluence"
)

// placeholderBody is the storage-format body a freshly created page carries
// until the real content lands in the update step.
const placeholderBody = "<p>Publishing in progress...</p>"

// Publisher drives one publish run end to end.  Everything is sequential: the
// pipeline stages, then find-or-create, then uploads, then the body update.
type Publisher struct {
	API    *confluence.API
	Logger Logger

	SpaceKey string
	Title    string
	ParentID string // optional explicit parent for created pages
	PageID   string // optional explicit target; skips find-by-title

	MermaidCLI string
}

// Publish reads the markdown file, runs the text pipeline, and pushes the
// result to the wiki.  Only page create/update failures are fatal; everything
// else degrades with a warning.
func (p *Publisher) Publish(ctx context.Context, markdownPath string) error {
	raw, err := os.ReadFile(markdownPath)
	if err != nil {
		return fmt.Errorf("publish: couldn't read markdown file %s: %w", markdownPath, err)
	}

	reg := NewRegistry()

	renderer := &MermaidRenderer{CLI: p.MermaidCLI, Logger: p.Logger}
	text := renderer.RenderAll(string(raw), reg)

	resolver := &ImageResolver{DocDir: filepath.Dir(markdownPath), Logger: p.Logger}
	resolver.ResolveAll(text, reg)

	if refs := reg.Refs(); len(refs) > 0 {
		p.Logger.Infof("publish: resolved image references: %s", strings.Join(refs, ", "))
	}

	converter := &Converter{Logger: p.Logger}
	storage, err := converter.Convert(text, reg)
	if err != nil {
		return err
	}

	pageID, err := p.EnsurePage(ctx)
	if err != nil {
		return err
	}

	uploaded := p.UploadAttachments(ctx, pageID, reg.Attachments())
	p.Logger.Infof("publish: uploaded %d of %d attachment(s)", uploaded, len(reg.Attachments()))

	return p.UpdatePageBody(ctx, pageID, storage)
}

// EnsurePage returns the ID of the destination page, creating it with a
// placeholder body if neither an explicit --page-id nor a title match exists.
// A failed lookup is treated as "page doesn't exist", not as an error; only
// the create call can fail fatally here.
func (p *Publisher) EnsurePage(ctx context.Context) (string, error) {
	if p.PageID != "" {
		p.Logger.Infof("publish: using explicit page id %s", p.PageID)
		return p.PageID, nil
	}

	page, err := p.API.FindPageByTitle(ctx, p.SpaceKey, p.Title)
	if err != nil {
		p.Logger.Warnf("publish: page lookup failed, assuming %q doesn't exist yet: %v", p.Title, err)
		page = nil
	}

	if page != nil {
		if page.Version != nil {
			p.Logger.Infof("publish: found existing page %s (version %d)", page.ID, page.Version.Number)
		} else {
			p.Logger.Infof("publish: found existing page %s", page.ID)
		}
		return page.ID, nil
	}

	created, err := p.API.CreatePage(ctx, confluence.CreatePageRequest{
		SpaceKey: p.SpaceKey,
		Title:    p.Title,
		ParentID: p.ParentID,
		Body:     placeholderBody,
	})
	if err != nil {
		return "", fmt.Errorf("publish: couldn't create page %q in space %s: %w", p.Title, p.SpaceKey, err)
	}

	p.Logger.Infof("publish: created page %s (%q)", created.ID, p.Title)
	return created.ID, nil
}

// UploadAttachments pushes each registered attachment to the page, one at a
// time.  A failed upload is a warning, not an abort: the remaining uploads
// and the body update may still succeed.  Returns how many made it.
func (p *Publisher) UploadAttachments(ctx context.Context, pageID string, attachments []Attachment) int {
	if len(attachments) == 0 {
		return 0
	}

	prog := mpb.New(mpb.WithWidth(64))
	bar := prog.AddBar(int64(len(attachments)),
		mpb.PrependDecorators(
			decor.Name("uploading:",
				decor.WC{C: decor.DindentRight | decor.DextraSpace}),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d/%d) "),
			decor.NewPercentage("%d"),
		),
	)

	uploaded := 0
	for _, att := range attachments {
		if p.uploadOne(ctx, pageID, att) {
			uploaded++
		}
		bar.Increment()
	}

	prog.Wait()
	return uploaded
}

func (p *Publisher) uploadOne(ctx context.Context, pageID string, att Attachment) bool {
	f, err := os.Open(att.SourcePath)
	if err != nil {
		p.Logger.Warnf("publish: couldn't open attachment %s: %v", att.FileName, err)
		return false
	}
	defer f.Close()

	if _, err := p.API.UploadAttachment(ctx, pageID, att.FileName, f); err != nil {
		p.Logger.Warnf("publish: couldn't upload attachment %s: %v", att.FileName, err)
		return false
	}

	p.Logger.Infof("publish: uploaded attachment %s", att.FileName)
	return true
}

// UpdatePageBody fetches the page's current version and submits the storage
// body at version+1.  A missing page or missing version information at this
// point is fatal: there's nothing sensible to fall back to.
func (p *Publisher) UpdatePageBody(ctx context.Context, pageID string, storage string) error {
	page, err := p.API.GetPageByID(ctx, pageID)
	if err != nil {
		return fmt.Errorf("publish: couldn't fetch page %s before update: %w", pageID, err)
	}
	if page == nil {
		return fmt.Errorf("publish: page %s not found before update", pageID)
	}
	if page.Version == nil {
		return fmt.Errorf("publish: page %s response carries no version information", pageID)
	}

	next := page.Version.Number + 1
	if page.Version.Number == 0 {
		// A zero version number usually means the response shape didn't match
		// expectations.  Submitting version 2 has worked on freshly created
		// pages; a hard failure here would be the more honest behaviour once
		// the real cause is understood.
		p.Logger.Warnf("publish: page %s reports version 0, falling back to submitting version 2", pageID)
		next = 2
	}

	if _, err := p.API.UpdatePage(ctx, confluence.UpdatePageRequest{
		ID:       pageID,
		SpaceKey: p.SpaceKey,
		Title:    p.Title,
		ParentID: p.ParentID,
		Version:  next,
		Body:     storage,
	}); err != nil {
		return fmt.Errorf("publish: couldn't update page %s: %w", pageID, err)
	}

	p.Logger.Infof("publish: updated page %s to version %d", pageID, next)
	return nil
}
