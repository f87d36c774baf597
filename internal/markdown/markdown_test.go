package markdown

import (
	"strings"
	"testing"
)

func TestRenderEmpty(t *testing.T) {
	got, err := Render("")
	if err != nil || got != "" {
		t.Errorf("Render(\"\") = %q, %v, want \"\"", got, err)
	}
}

func TestRenderGFMTable(t *testing.T) {
	html, err := Render("| Check | Status |\n|---|---|\n| Failed Tests | passed |")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "<table>") {
		t.Errorf("Expected table HTML, got: %s", html)
	}
	if !strings.Contains(html, "<td>Failed Tests</td>") {
		t.Errorf("Expected cell, got: %s", html)
	}
}

func TestRenderCodeBlock(t *testing.T) {
	html, err := Render("```text\nheading \"Secure Scribble IDE\"\n```")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "<pre") {
		t.Errorf("Expected <pre> block, got: %s", html)
	}
}

func TestRenderEscapesRawHTML(t *testing.T) {
	html, err := Render("<script>alert(1)</script>")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("Raw HTML should be omitted, got: %s", html)
	}
}

func TestRenderExternalLinks(t *testing.T) {
	html, _ := Render("[Playwright](https://playwright.dev)")
	if !strings.Contains(html, `target="_blank"`) {
		t.Errorf("Expected target=_blank on external link, got: %s", html)
	}
}

func TestRenderFileLinks(t *testing.T) {
	html, _ := Render("[screenshot](verification.png)")
	if strings.Contains(html, `target="_blank"`) {
		t.Errorf("Relative link should NOT have target=_blank, got: %s", html)
	}
}

func TestPage(t *testing.T) {
	page, err := Page("Run <1>", "# Verification\n\nok")
	if err != nil {
		t.Fatal(err)
	}
	s := string(page)
	if !strings.HasPrefix(s, "<!DOCTYPE html>") {
		t.Errorf("Expected doctype, got: %.40s", s)
	}
	if !strings.Contains(s, "<title>Run &lt;1&gt;</title>") {
		t.Errorf("Expected escaped title, got: %s", s)
	}
	if !strings.Contains(s, `<h1 id="verification">Verification</h1>`) {
		t.Errorf("Expected rendered heading, got: %s", s)
	}
}
