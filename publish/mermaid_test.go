package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeMermaidCLI writes a shell script that pretends to be mmdc.  The real
// CLI is invoked as `mmdc -i <input> -o <output>`, so $2 is the input path
// and $4 the output path.
func fakeMermaidCLI(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mmdc")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("couldn't write fake mermaid CLI: %v", err)
	}
	return path
}

func TestRenderAllReplacesFences(t *testing.T) {
	cli := fakeMermaidCLI(t, "#!/bin/sh\ncp \"$2\" \"$4\"\n")
	logger := &testLogger{}
	renderer := &MermaidRenderer{CLI: cli, Logger: logger}
	reg := NewRegistry()

	input := "# Title\n\n```mermaid\ngraph TD; A-->B;\n```\n\ntext after\n"
	got := renderer.RenderAll(input, reg)

	want := "![Mermaid diagram](attachment:mermaid-diagram-1.png)"
	if !strings.Contains(got, want) {
		t.Errorf("expected %q in output, got:\n%s", want, got)
	}
	if strings.Contains(got, "```mermaid") {
		t.Errorf("fence should have been replaced, got:\n%s", got)
	}

	atts := reg.Attachments()
	if len(atts) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(atts))
	}
	if atts[0].FileName != "mermaid-diagram-1.png" {
		t.Errorf("unexpected attachment name %q", atts[0].FileName)
	}
	if !atts[0].Generated {
		t.Errorf("rendered diagram should be marked generated")
	}
	if _, err := os.Stat(atts[0].SourcePath); err != nil {
		t.Errorf("rendered output file should exist: %v", err)
	}
}

func TestRenderAllCounterSkipsFailures(t *testing.T) {
	// Succeeds unless the diagram source contains the string "boom".
	cli := fakeMermaidCLI(t, "#!/bin/sh\nif grep -q boom \"$2\"; then exit 1; fi\ncp \"$2\" \"$4\"\n")
	logger := &testLogger{}
	renderer := &MermaidRenderer{CLI: cli, Logger: logger}
	reg := NewRegistry()

	input := strings.Join([]string{
		"```mermaid\ngraph TD; A-->B;\n```",
		"```mermaid\nboom\n```",
		"```mermaid\ngraph TD; C-->D;\n```",
	}, "\n\n")
	got := renderer.RenderAll(input, reg)

	// The failed middle fence mustn't consume a counter value.
	if !strings.Contains(got, "attachment:mermaid-diagram-1.png") {
		t.Errorf("first diagram missing from output:\n%s", got)
	}
	if !strings.Contains(got, "attachment:mermaid-diagram-2.png") {
		t.Errorf("third diagram should be numbered 2, got:\n%s", got)
	}
	if !strings.Contains(got, "```mermaid\nboom\n```") {
		t.Errorf("failed fence should be left unchanged, got:\n%s", got)
	}
	if len(reg.Attachments()) != 2 {
		t.Errorf("expected 2 attachments, got %d", len(reg.Attachments()))
	}
	if len(logger.warnings) != 1 {
		t.Errorf("expected 1 warning for the failed render, got %v", logger.warnings)
	}
}

func TestRenderAllLeavesEmptyFenceAlone(t *testing.T) {
	cli := fakeMermaidCLI(t, "#!/bin/sh\ncp \"$2\" \"$4\"\n")
	renderer := &MermaidRenderer{CLI: cli, Logger: &testLogger{}}
	reg := NewRegistry()

	input := "```mermaid\n   \n```\n"
	got := renderer.RenderAll(input, reg)

	if got != input {
		t.Errorf("empty fence should be untouched, got:\n%s", got)
	}
	if len(reg.Attachments()) != 0 {
		t.Errorf("no attachments expected, got %d", len(reg.Attachments()))
	}
}

func TestRenderAllMissingOutputIsFailure(t *testing.T) {
	// Exits 0 but never writes the output file.
	cli := fakeMermaidCLI(t, "#!/bin/sh\nexit 0\n")
	logger := &testLogger{}
	renderer := &MermaidRenderer{CLI: cli, Logger: logger}
	reg := NewRegistry()

	input := "```mermaid\ngraph TD; A-->B;\n```\n"
	got := renderer.RenderAll(input, reg)

	if got != input {
		t.Errorf("fence should be untouched when no output file appears, got:\n%s", got)
	}
	if len(logger.warnings) != 1 {
		t.Errorf("expected a warning, got %v", logger.warnings)
	}
}

func TestRenderAllUnlaunchableCLIIsFailure(t *testing.T) {
	logger := &testLogger{}
	renderer := &MermaidRenderer{CLI: "/nonexistent/mmdc", Logger: logger}
	reg := NewRegistry()

	input := "```mermaid\ngraph TD; A-->B;\n```\n"
	got := renderer.RenderAll(input, reg)

	if got != input {
		t.Errorf("fence should be untouched when the CLI can't launch")
	}
	if len(logger.warnings) != 1 {
		t.Errorf("expected a warning, got %v", logger.warnings)
	}
}
