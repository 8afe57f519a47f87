package publish

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// DefaultMermaidCLI is the executable name we rely on PATH to resolve when no
// explicit --mermaid-cli is given.
const DefaultMermaidCLI = "mmdc"

// AttachmentScheme is the pseudo-URL scheme marking image references that
// point at an attachment we've already produced, rather than a file on disk.
const AttachmentScheme = "attachment:"

// Matches a whole ```mermaid fence including its body.
var mermaidFenceRe = regexp.MustCompile("(?ms)^```mermaid[ \t]*\r?\n(.*?)^```[ \t]*$")

// MermaidRenderer shells out to the mermaid CLI to turn fenced diagram code
// into PNG files.
type MermaidRenderer struct {
	// CLI is the mermaid executable; name or path.  Empty means
	// DefaultMermaidCLI via PATH.
	CLI    string
	Logger Logger

	workDir string
}

// RenderAll replaces every renderable mermaid fence in text with an image
// reference to a generated attachment named mermaid-diagram-<n>.png, where n
// counts successful renders only.  Fences that are empty or fail to render
// are left untouched (the diagram stays as source code on the page).
func (m *MermaidRenderer) RenderAll(text string, reg *Registry) string {
	rendered := 0

	return mermaidFenceRe.ReplaceAllStringFunc(text, func(fence string) string {
		code := mermaidFenceRe.FindStringSubmatch(fence)[1]
		if strings.TrimSpace(code) == "" {
			return fence
		}

		outPath, err := m.renderOne(code)
		if err != nil {
			m.Logger.Warnf("publish: mermaid render failed, leaving diagram as code: %v", err)
			return fence
		}

		rendered++
		name := reg.Register(outPath, fmt.Sprintf("mermaid-diagram-%d.png", rendered), true)
		m.Logger.Infof("publish: rendered mermaid diagram to attachment %s", name)
		return fmt.Sprintf("![Mermaid diagram](%s%s)", AttachmentScheme, name)
	})
}

// renderOne writes the diagram code to a scratch file and runs the CLI over
// it.  Success means both a zero exit status and an output file that actually
// exists.  Scratch files aren't cleaned up; the process is short-lived.
func (m *MermaidRenderer) renderOne(code string) (string, error) {
	dir, err := m.scratchDir()
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	inPath := filepath.Join(dir, id+".mmd")
	outPath := filepath.Join(dir, id+".png")

	if err := os.WriteFile(inPath, []byte(code), 0600); err != nil {
		return "", fmt.Errorf("publish: couldn't write diagram scratch file: %w", err)
	}

	cmd := exec.Command(m.cli(), "-i", inPath, "-o", outPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("publish: mermaid CLI failed: %w (output: %s)", err, strings.TrimSpace(string(output)))
	}

	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("publish: mermaid CLI exited cleanly but produced no output file: %w", err)
	}

	return outPath, nil
}

func (m *MermaidRenderer) cli() string {
	if m.CLI == "" {
		return DefaultMermaidCLI
	}
	return m.CLI
}

func (m *MermaidRenderer) scratchDir() (string, error) {
	if m.workDir != "" {
		return m.workDir, nil
	}

	dir, err := os.MkdirTemp("", "confluence-publish-mermaid-")
	if err != nil {
		return "", fmt.Errorf("publish: couldn't create scratch directory: %w", err)
	}
	m.workDir = dir
	return dir, nil
}
