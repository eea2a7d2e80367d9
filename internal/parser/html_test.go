package parser

import (
	"strings"
	"testing"
)

func TestExtractHTML(t *testing.T) {
	input := `<html><head><title>Meyerowitz Chapter 5</title><style>p{}</style></head>
<body>
<nav><p>Skip me</p></nav>
<h2>5.1   Introduction</h2>
<p>Line
   one.</p>
<p>Line two.<br>Line three.</p>
<h3>5.1.1 <em>Scope</em></h3>
<ul><li><p>item</p></li></ul>
<script>var x = 1;</script>
</body></html>`

	doc, err := Load(strings.NewReader(input), "chapter5.html", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Name != "Meyerowitz Chapter 5" {
		t.Errorf("Name = %q, want title element", doc.Name)
	}

	want := "5.1 Introduction\n\nLine one.\n\nLine two.\nLine three.\n\n5.1.1 Scope\n\nitem"
	if got := doc.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
	if got := len(headingLines(doc)); got != 2 {
		t.Errorf("expected 2 headings, got %d", got)
	}
}

func TestExtractHTML_NameFallsBackToFilename(t *testing.T) {
	doc, err := Load(strings.NewReader("<p>hello</p>"), "dir/page.htm", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Name != "page" {
		t.Errorf("Name = %q, want %q", doc.Name, "page")
	}
	if doc.Text() != "hello" {
		t.Errorf("Text() = %q", doc.Text())
	}
}
