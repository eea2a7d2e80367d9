package parser

import (
	"slices"
	"strings"
	"testing"
)

func load(t *testing.T, input, filename string) *Document {
	t.Helper()
	doc, err := Load(strings.NewReader(input), filename, Options{})
	if err != nil {
		t.Fatalf("Load(%s): %v", filename, err)
	}
	return doc
}

func TestExtractMarkdown_Headings(t *testing.T) {
	input := `# Chapter 5: The Drafting of Wills

Intro text.

## 5.1 Introduction

Section content.

### 5.1.1 Scope

Scope content.

## 5.2 Formalities
`
	doc := load(t, input, "manual.md")
	if doc.Name != "manual" {
		t.Errorf("Name = %q", doc.Name)
	}
	want := []string{"Chapter 5: The Drafting of Wills", "5.1 Introduction", "5.1.1 Scope", "5.2 Formalities"}
	if got := headingLines(doc); !slices.Equal(got, want) {
		t.Errorf("headings = %q, want %q", got, want)
	}
	if len(doc.Blocks) != 7 {
		t.Fatalf("expected 7 blocks, got %d", len(doc.Blocks))
	}
	if b := doc.Blocks[3]; b.Heading || b.Text != "Section content." {
		t.Errorf("block 3 = %+v", b)
	}
}

func TestExtractMarkdown_TextKeepsHeadingLines(t *testing.T) {
	input := "## 5.1 Introduction\n\nLine one\nline two.\n\n- first item\n- second item\n"

	text, err := LoadText(strings.NewReader(input), "manual.md", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "5.1 Introduction\n\nLine one\nline two.\n\nfirst item\nsecond item"
	if text != want {
		t.Errorf("LoadText = %q, want %q", text, want)
	}
}

func TestExtractMarkdown_CodeBlock(t *testing.T) {
	input := "## 5.3 Specimen clause\n\nUse:\n\n```\nI revoke all previous wills.\n```\n\nAfter code.\n"
	doc := load(t, input, "clauses.md")

	text := doc.Text()
	for _, want := range []string{"I revoke all previous wills.", "After code."} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in %q", want, text)
		}
	}
	if strings.Contains(text, "```") {
		t.Errorf("fence markers leaked into %q", text)
	}
}

func TestExtractMarkdown_Names(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"/srv/manual/Chapter5.MD", "Chapter5"},
	}
	for _, tt := range tests {
		if got := load(t, "text", tt.filename).Name; got != tt.want {
			t.Errorf("%s: Name = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestExtractMarkdown_Empty(t *testing.T) {
	if doc := load(t, "", "empty.md"); len(doc.Blocks) != 0 {
		t.Errorf("expected no blocks, got %d", len(doc.Blocks))
	}
}
