package chunker

import (
	"strings"
	"testing"
)

func TestSplitSections_HeadingMatching(t *testing.T) {
	heading := HeadingPattern(5)

	tests := []struct {
		line      string
		isHeading bool
		number    string
		title     string
	}{
		{"5.21 Conditions in wills", true, "5.21", "Conditions in wills"},
		{"5.21.3 Conditions precedent", true, "5.21.3", "Conditions precedent"},
		{"5.1\tTabbed title", true, "5.1", "Tabbed title"},
		{"5.2", false, "", ""},
		{"5.2   ", false, "", ""},
		{"5.1.2.3 Too deep", false, "", ""},
		{"6.1 Other chapter", false, "", ""},
		{"5 Chapter heading", false, "", ""},
		{"5.1Intro", false, "", ""},
		{" 5.1 Indented", false, "", ""},
		{"See 5.1 above", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			sections := SplitSections(tt.line+"\nbody", heading, false)
			if !tt.isHeading {
				if len(sections) != 0 {
					t.Fatalf("expected no section, got %+v", sections)
				}
				return
			}
			if len(sections) != 1 {
				t.Fatalf("expected 1 section, got %d", len(sections))
			}
			if sections[0].Number != tt.number {
				t.Errorf("expected number %q, got %q", tt.number, sections[0].Number)
			}
			if sections[0].Title != tt.title {
				t.Errorf("expected title %q, got %q", tt.title, sections[0].Title)
			}
		})
	}
}

func TestSplitSections_DropsBlankLines(t *testing.T) {
	input := "5.1 Intro\n\n  \nfirst   \r\n\n\nsecond\n"
	sections := SplitSections(input, HeadingPattern(5), false)

	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	want := []string{"first", "second"}
	if len(sections[0].Lines) != len(want) {
		t.Fatalf("expected lines %q, got %q", want, sections[0].Lines)
	}
	for i := range want {
		if sections[0].Lines[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], sections[0].Lines[i])
		}
	}
}

func TestSplitSections_BareNumberIsContent(t *testing.T) {
	input := "5.1 Introduction\nSee paragraph\n5.2   \nfor details."
	sections := SplitSections(input, HeadingPattern(5), false)

	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d: %+v", len(sections), sections)
	}
	want := []string{"See paragraph", "5.2", "for details."}
	if strings.Join(sections[0].Lines, "|") != strings.Join(want, "|") {
		t.Errorf("expected lines %q, got %q", want, sections[0].Lines)
	}
}

func TestSplitSections_KeepBreaksCollapsesRuns(t *testing.T) {
	input := "5.1 Intro\n\nfirst\n\n\n\nsecond\n\n"
	sections := SplitSections(input, HeadingPattern(5), true)

	want := []string{"first", "", "second", ""}
	got := sections[0].Lines
	if len(got) != len(want) {
		t.Fatalf("expected lines %q, got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSplitSections_OtherChapter(t *testing.T) {
	input := "5.1 Not this chapter\nignored\n7.3 Executors\nbody"
	sections := SplitSections(input, HeadingPattern(7), false)

	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].Number != "7.3" || sections[0].Title != "Executors" {
		t.Errorf("unexpected section %+v", sections[0])
	}
}

func TestPackSection_EmptySection(t *testing.T) {
	sec := Section{Number: "5.9", Title: "Empty"}
	if chunks := PackSection(sec, 1500, ModeJoined); len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty section, got %d", len(chunks))
	}

	sec.Lines = []string{"", ""}
	if chunks := PackSection(sec, 1500, ModePreserve); len(chunks) != 0 {
		t.Errorf("expected 0 chunks for break-only section, got %d", len(chunks))
	}
}

func TestPackSection_BudgetBoundary(t *testing.T) {
	// A paragraph of maxChars-1 fits (len+1 <= max). Longer ones still yield a
	// single chunk because an empty buffer is never flushed.
	for _, n := range []int{9, 10, 11} {
		sec := Section{Number: "5.1", Title: "T", Lines: []string{strings.Repeat("a", n)}}
		chunks := PackSection(sec, 10, ModeJoined)
		if len(chunks) != 1 {
			t.Errorf("len %d: expected 1 chunk, got %d", n, len(chunks))
		}
	}
}
