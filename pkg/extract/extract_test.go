package extract

import (
	"strings"
	"testing"
)

const articleBody = "The Gulf Stream is a warm and swift Atlantic ocean current that originates in the Gulf of Mexico and flows through the Straits of Florida before following the eastern coastline of the United States. It influences the climate of the east coast of North America and the west coast of Europe. The current is part of the North Atlantic Gyre and transports warm water northward at a significant rate."

func TestExtractPrefersJSONLD(t *testing.T) {
	html := `<html><head>
		<title>Fallback Title</title>
		<script type="application/ld+json">{"@type":"Article","articleBody":"` + articleBody + `"}</script>
	</head><body><nav>Home About Contact</nav><p>short page text</p></body></html>`

	c := Extract(html, "https://example.com/gulf-stream")
	if c == nil {
		t.Fatal("expected content")
	}
	if !strings.HasPrefix(c.Content, "The Gulf Stream is a warm") {
		t.Fatalf("expected JSON-LD body, got %q", c.Content[:50])
	}
	if c.URL != "https://example.com/gulf-stream" {
		t.Fatalf("unexpected URL %q", c.URL)
	}
}

func TestExtractJSONLDGraphWrapper(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
		{"@graph":[{"@type":"WebPage"},{"@type":"Article","articleBody":"` + articleBody + `"}]}
	</script></head><body></body></html>`

	c := Extract(html, "https://example.com/x")
	if c == nil || !strings.HasPrefix(c.Content, "The Gulf Stream") {
		t.Fatalf("expected @graph article body, got %+v", c)
	}
}

func TestExtractSelectorCascade(t *testing.T) {
	html := `<html><head><title>Ocean Currents</title>
		<meta name="description" content="About ocean currents.">
	</head><body>
		<nav><a href="/">Home</a><a href="/about">About</a></nav>
		<article><p>` + articleBody + `</p></article>
		<footer>Copyright</footer>
	</body></html>`

	c := Extract(html, "https://example.com/currents")
	if c == nil {
		t.Fatal("expected content")
	}
	if c.Title != "Ocean Currents" {
		t.Fatalf("unexpected title %q", c.Title)
	}
	if c.Description != "About ocean currents." {
		t.Fatalf("unexpected description %q", c.Description)
	}
	if !strings.Contains(c.Content, "North Atlantic Gyre") {
		t.Fatalf("article text missing from content")
	}
	if strings.Contains(c.Content, "Copyright") || strings.Contains(c.Content, "Home") {
		t.Fatalf("chrome leaked into content: %q", c.Content)
	}
}

func TestExtractScoresBlocksWhenSelectorsMiss(t *testing.T) {
	// No recognized content selector; the dense prose block should beat the
	// link-heavy navigation block.
	para := "<p>" + articleBody + "</p>"
	html := `<html><body>
		<div class="xyzzy-links">
			<a href="/a">` + strings.Repeat("link text ", 30) + `</a>
			<a href="/b">` + strings.Repeat("more links ", 30) + `</a>
		</div>
		<div class="xyzzy-prose">` + para + para + para + `</div>
	</body></html>`

	c := Extract(html, "https://example.com/y")
	if c == nil {
		t.Fatal("expected content")
	}
	if !strings.Contains(c.Content, "Gulf Stream") {
		t.Fatalf("expected prose block to win, got %q", c.Content[:60])
	}
}

func TestExtractReturnsNilForThinPages(t *testing.T) {
	if c := Extract("<html><body><p>tiny</p></body></html>", "https://example.com/z"); c != nil {
		t.Fatalf("expected nil for thin page, got %+v", c)
	}
}

func TestExtractHeadingsAndListItems(t *testing.T) {
	html := `<html><body><article>
		<h1>Main Heading Here</h1>
		<h2>Sub</h2>
		<h2>Another Section Heading</h2>
		<p>` + articleBody + `</p>
		<ul>
			<li>short</li>
			<li>A list item that is long enough to keep around.</li>
		</ul>
	</article></body></html>`

	c := Extract(html, "https://example.com/h")
	if c == nil {
		t.Fatal("expected content")
	}
	// "Sub" is below the minimum heading length.
	if len(c.Headings) != 2 {
		t.Fatalf("expected 2 headings, got %v", c.Headings)
	}
	if len(c.ListItems) != 1 || !strings.HasPrefix(c.ListItems[0], "A list item") {
		t.Fatalf("unexpected list items %v", c.ListItems)
	}
}

func TestCleanText(t *testing.T) {
	in := "  a\n\n b\tc   d  "
	if got := CleanText(in); got != "a b c d" {
		t.Fatalf("CleanText(%q) = %q", in, got)
	}
}

func TestTruncateRespectsRuneBoundaries(t *testing.T) {
	s := "héllo"
	got := Truncate(s, 2)
	if got != "h" {
		t.Fatalf("expected %q, got %q", "h", got)
	}
	if Truncate(s, 100) != s {
		t.Fatal("short strings should pass through")
	}
}
