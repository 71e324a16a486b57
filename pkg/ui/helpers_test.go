package ui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
)

func TestTruncateRunesHelper(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		max    int
		suffix string
		want   string
	}{
		{name: "zero max", input: "hello", max: 0, suffix: "...", want: ""},
		{name: "fits", input: "hello", max: 10, suffix: "...", want: "hello"},
		{name: "ascii", input: "hello world", max: 8, suffix: "...", want: "hello..."},
		{name: "wide runes", input: "日本語テキスト", max: 7, suffix: "...", want: "日本..."},
		{name: "suffix wider than max", input: "abcdef", max: 2, suffix: "....", want: ".."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateRunesHelper(tt.input, tt.max, tt.suffix)
			if got != tt.want {
				t.Fatalf("truncateRunesHelper(%q, %d, %q) = %q; want %q", tt.input, tt.max, tt.suffix, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("output is not valid UTF-8: %q", got)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Errorf("padRight(ab, 4) = %q", got)
	}
	if got := padRight("abcdef", 3); got != "abcdef" {
		t.Errorf("padRight should not cut, got %q", got)
	}
}

func TestOverlay(t *testing.T) {
	bg := []string{"..........", ".........."}
	got := overlay(bg, "XY\nZW", 3, 1)
	if got[0] != ".........." {
		t.Errorf("row 0 changed: %q", got[0])
	}
	if got[1] != "...XY....." {
		t.Errorf("row 1 = %q, want %q", got[1], "...XY.....")
	}
}

func TestOverlayPadsShortLines(t *testing.T) {
	got := overlay([]string{"ab"}, "Z", 4, 0)
	if got[0] != "ab  Z" {
		t.Errorf("Expected padded line, got %q", got[0])
	}
}

func TestOverlayKeepsStyledBackground(t *testing.T) {
	theme := TestTheme()
	bg := []string{theme.Highlight.Render("0123456789")}
	got := overlay(bg, "ab", 4, 0)
	if plain := ansi.Strip(got[0]); plain != "0123ab6789" {
		t.Errorf("Expected 0123ab6789, got %q", plain)
	}
}

func TestTrimBlankLines(t *testing.T) {
	got := trimBlankLines("\n\n  a  \nb\n\n")
	if got != "  a\nb" {
		t.Errorf("trimBlankLines = %q", got)
	}
	if got := trimBlankLines("\n \n"); got != "" {
		t.Errorf("Expected empty result, got %q", got)
	}
}

func TestDedent(t *testing.T) {
	if got := dedent("  a\n    b\n"); got != "a\n  b\n" {
		t.Errorf("dedent = %q", got)
	}
	if got := dedent("a\n  b"); got != "a\n  b" {
		t.Errorf("dedent without margin changed input: %q", got)
	}
}

func TestMarkdownRenderer(t *testing.T) {
	md := newMarkdownRenderer("")
	if md.style != "auto" {
		t.Errorf("Expected auto style by default, got %q", md.style)
	}
	if got := md.Render("   ", 20); got != "" {
		t.Errorf("Expected empty render for blank text, got %q", got)
	}

	out := md.Render("Some **bold** words that need wrapping across lines", 20)
	plain := ansi.Strip(out)
	if !strings.Contains(plain, "bold") {
		t.Errorf("Expected rendered text to contain 'bold', got %q", plain)
	}
	for _, line := range strings.Split(out, "\n") {
		if w := ansi.StringWidth(line); w > 20 {
			t.Errorf("line %q is %d cells wide, max 20", line, w)
		}
	}
}

func TestMarkdownRendererNilFallsBackToPlainWrap(t *testing.T) {
	var md *markdownRenderer
	out := md.Render("hello world", 5)
	for _, line := range strings.Split(out, "\n") {
		if w := ansi.StringWidth(line); w > 5 {
			t.Errorf("line %q is %d cells wide, max 5", line, w)
		}
	}
	if !strings.Contains(out, "hello") || !strings.Contains(out, "world") {
		t.Errorf("Expected both words in output, got %q", out)
	}
}
