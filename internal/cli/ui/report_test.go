package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/conduit-lang/metaregistry/internal/catalog"
	"github.com/conduit-lang/metaregistry/runtime/metadata"
	"github.com/conduit-lang/metaregistry/runtime/metadata/coretypes"
)

func coreRegistry(t *testing.T) (*metadata.Registry, *metadata.DiscoveryResult) {
	t.Helper()
	r := metadata.NewRegistry()
	result, err := r.Discover(context.Background(), coretypes.Strategy())
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	return r, result
}

func TestRenderHealth(t *testing.T) {
	r, _ := coreRegistry(t)
	var buf bytes.Buffer
	RenderHealth(&buf, r.ValidateConsistency(), true)

	out := buf.String()
	for _, want := range []string{"Registry health", "EXCELLENT", "Types:", "42"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Errors") {
		t.Errorf("an excellent report has no error section:\n%s", out)
	}

	buf.Reset()
	RenderHealth(&buf, metadata.NewRegistry().ValidateConsistency(), true)
	if out := buf.String(); !strings.Contains(out, "POOR") || !strings.Contains(out, "missing core base types") {
		t.Errorf("expected a poor report with errors:\n%s", out)
	}
}

func TestRenderDiscovery(t *testing.T) {
	_, result := coreRegistry(t)
	var buf bytes.Buffer
	RenderDiscovery(&buf, result, true)

	lines := strings.Split(buf.String(), "\n")
	if !strings.HasPrefix(lines[2], "1  core-types") {
		t.Errorf("expected core-types first, got %q", lines[2])
	}
	if !strings.Contains(buf.String(), "42 types from 7 providers") {
		t.Errorf("missing summary:\n%s", buf.String())
	}
}

func TestRenderType(t *testing.T) {
	r, _ := coreRegistry(t)
	def, ok := r.TypeDefinition("field", "string")
	if !ok {
		t.Fatal("field.string not registered")
	}

	var buf bytes.Buffer
	RenderType(&buf, r, def, true)
	out := buf.String()
	for _, want := range []string{"field.string", "Inherits from:", "field.base", "Accepts children", "(inherited)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	RenderTypes(&buf, r.TypesOf("key"), true)
	if !strings.Contains(buf.String(), "key.primary") || !strings.Contains(buf.String(), "resolved") {
		t.Errorf("unexpected type list:\n%s", buf.String())
	}
}

func TestRenderTreeReport(t *testing.T) {
	var buf bytes.Buffer
	RenderTreeReport(&buf, &catalog.TreeReport{Checked: 3}, true)
	if buf.String() != "✓ 3 nodes valid\n" {
		t.Errorf("unexpected output %q", buf.String())
	}

	buf.Reset()
	RenderTreeReport(&buf, &catalog.TreeReport{
		Checked: 2,
		Skipped: 1,
		Issues:  []catalog.TreeIssue{{Path: "a > b", Err: errors.New("nope")}},
	}, true)
	want := "✗ a > b\n    nope\n\n2 nodes checked, 1 skipped, 1 issues\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
