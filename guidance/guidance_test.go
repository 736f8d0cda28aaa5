package guidance_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/clusterforge/forgectl/guidance"
)

func TestAssemble_JoinsWithDelimiter(t *testing.T) {
	ctx := guidance.Assemble("do the thing",
		guidance.Doc{Name: "a.md", Text: "first"},
		guidance.Doc{Name: "b.md", Text: "second"},
	)

	if ctx.Stable != "first"+guidance.Delimiter+"second" {
		t.Errorf("got stable %q", ctx.Stable)
	}
	if ctx.Instructions != "do the thing" {
		t.Errorf("got instructions %q", ctx.Instructions)
	}
}

func TestAssemble_PreservesCallerOrder(t *testing.T) {
	ctx := guidance.Assemble("x",
		guidance.Doc{Text: "zulu"},
		guidance.Doc{Text: "alpha"},
	)

	if !strings.HasPrefix(ctx.Stable, "zulu") {
		t.Errorf("caller order not preserved: %q", ctx.Stable)
	}
}

func TestAssemble_NoTransformation(t *testing.T) {
	raw := "  leading and trailing whitespace \n\ttabs"
	ctx := guidance.Assemble("i", guidance.Doc{Text: raw})

	if ctx.Stable != raw {
		t.Errorf("content transformed: got %q, want %q", ctx.Stable, raw)
	}
}

func TestFull_ConcatenatesStableAndInstructions(t *testing.T) {
	ctx := guidance.Context{Stable: "guide", Instructions: "steps"}

	want := "guide" + guidance.Delimiter + "steps"
	if ctx.Full() != want {
		t.Errorf("got %q, want %q", ctx.Full(), want)
	}
}

func TestFull_NoGuidance(t *testing.T) {
	ctx := guidance.Context{Instructions: "just these"}

	if ctx.Full() != "just these" {
		t.Errorf("got %q, want instructions only", ctx.Full())
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.md")
	if err := os.WriteFile(path, []byte("profile guidance"), 0o644); err != nil {
		t.Fatal(err)
	}

	docs, err := guidance.LoadFiles(path)
	if err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}

	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1", len(docs))
	}
	if docs[0].Name != "profile.md" {
		t.Errorf("got name %q, want %q", docs[0].Name, "profile.md")
	}
	if docs[0].Text != "profile guidance" {
		t.Errorf("got text %q", docs[0].Text)
	}
}

func TestLoadFiles_MissingFileFailsFast(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.md")
	if err := os.WriteFile(present, []byte("here"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := guidance.LoadFiles(present, filepath.Join(dir, "absent.md"))
	if !errors.Is(err, guidance.ErrLoadFailed) {
		t.Errorf("got %v, want ErrLoadFailed", err)
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"docs/report.md": &fstest.MapFile{Data: []byte("report guidance")},
	}

	docs, err := guidance.LoadFS(fsys, "docs/report.md")
	if err != nil {
		t.Fatalf("LoadFS failed: %v", err)
	}
	if docs[0].Name != "report.md" || docs[0].Text != "report guidance" {
		t.Errorf("got %+v", docs[0])
	}
}

func TestLoadFS_Missing(t *testing.T) {
	_, err := guidance.LoadFS(fstest.MapFS{}, "nope.md")
	if !errors.Is(err, guidance.ErrLoadFailed) {
		t.Errorf("got %v, want ErrLoadFailed", err)
	}
}
