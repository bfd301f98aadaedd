package parser

import (
	"log/slog"
	"os"
	"testing"

	"github.com/IshaanNene/ReelGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const testHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Test Page</title>
    <meta property="og:title" content="OG Test Title">
    <meta property="og:image" content="https://example.com/image.png">
    <script type="application/ld+json">
    {"@context":"https://schema.org","@type":"Movie","name":"The Test","contentRating":"PG-13"}
    </script>
    <script type="application/ld+json">not json</script>
</head>
<body>
    <h4>Directed by</h4>
    <table class="credits">
        <tr><td class="name"><a href="/name/nm0000001/">  Jane Doe </a></td></tr>
        <tr><td class="name">No Link</td></tr>
    </table>
    <div class="info">Title &amp; Co <span>(1999)</span></div>
</body>
</html>`

func mustParse(t *testing.T, s string) *Node {
	t.Helper()
	doc, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestNodeFind(t *testing.T) {
	doc := mustParse(t, testHTML)

	link := doc.Find(`//td[@class="name"]/a[@href]`)
	if link == nil {
		t.Fatal("expected a link")
	}
	if got := link.Text(); got != "Jane Doe" {
		t.Errorf("Text() = %q", got)
	}
	if got := link.Attr("href"); got != "/name/nm0000001/" {
		t.Errorf("Attr(href) = %q", got)
	}

	if doc.Find(`//div[@class="missing"]`) != nil {
		t.Error("expected nil for no match")
	}
	if doc.Find(`//div[`) != nil {
		t.Error("invalid XPath should match nothing")
	}
}

func TestNodeFindAllRelative(t *testing.T) {
	doc := mustParse(t, testHTML)
	cells := doc.FindAll(`//td[@class="name"]`)
	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(cells))
	}
	if cells[1].Find(`a`) != nil {
		t.Error("second cell has no link")
	}
	if got := cells[1].Text(); got != "No Link" {
		t.Errorf("Text() = %q", got)
	}
}

func TestNodeNavigation(t *testing.T) {
	doc := mustParse(t, testHTML)
	table := doc.Find(`//table[@class="credits"]`)
	prev := table.PrevElement()
	if prev.Tag() != "h4" || prev.Text() != "Directed by" {
		t.Errorf("PrevElement() = <%s>%q", prev.Tag(), prev.Text())
	}
	if table.Parent().Tag() != "body" {
		t.Errorf("Parent() = %s", table.Parent().Tag())
	}

	info := doc.Find(`//div[@class="info"]`)
	if got := info.OwnText(); got != "Title & Co" {
		t.Errorf("OwnText() = %q", got)
	}
	if got := info.RawText(); got != "Title & Co (1999)" {
		t.Errorf("RawText() = %q", got)
	}
	if got := doc.Find(`//td[@class="name"]/a`).RawText(); got != "  Jane Doe " {
		t.Errorf("RawText() = %q, want surrounding spaces kept", got)
	}
}

func TestNilNodeIsEmpty(t *testing.T) {
	var n *Node
	if n.Find("//a") != nil || n.FindAll("//a") != nil {
		t.Error("nil node should match nothing")
	}
	if n.Text() != "" || n.RawText() != "" || n.Attr("href") != "" || n.Tag() != "" || n.Parent() != nil {
		t.Error("nil node should be empty")
	}
}

func TestValid(t *testing.T) {
	if err := Valid(`//tr[@data-item-id]`); err != nil {
		t.Errorf("valid expression rejected: %v", err)
	}
	if err := Valid(`//tr[`); err == nil {
		t.Error("expected error for malformed expression")
	}
}

func TestStructuredDataExtractor(t *testing.T) {
	req, _ := types.NewRequest("https://example.com/title/tt0000001/")
	resp := &types.Response{Request: req, StatusCode: 200, Body: []byte(testHTML), FinalURL: req.URLString()}

	data, err := NewStructuredDataExtractor(testLogger).Extract(resp)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	movie := FindJSONLD(data, "Movie", "TVSeries")
	if movie == nil {
		t.Fatal("expected Movie JSON-LD block")
	}
	if movie["name"] != "The Test" {
		t.Errorf("name = %v", movie["name"])
	}

	og := FindOpenGraph(data)
	if og["title"] != "OG Test Title" {
		t.Errorf("og:title = %v", og["title"])
	}
	if FindJSONLD(data, "Person") != nil {
		t.Error("no Person block expected")
	}
}

func BenchmarkParseAndQuery(b *testing.B) {
	for i := 0; i < b.N; i++ {
		doc, _ := Parse(testHTML)
		_ = doc.FindAll(`//td[@class="name"]`)
	}
}
