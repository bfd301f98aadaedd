package parser

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/ReelGoat/internal/types"
)

// StructuredDataType identifies the type of structured data.
type StructuredDataType string

const (
	JSONLD    StructuredDataType = "json-ld"
	OpenGraph StructuredDataType = "opengraph"
)

// StructuredData represents extracted structured data from a page.
type StructuredData struct {
	Type StructuredDataType `json:"type"`
	Data map[string]any     `json:"data"`
}

// StructuredDataExtractor extracts JSON-LD and OpenGraph metadata. Title
// pages carry both alongside their visible markup.
type StructuredDataExtractor struct {
	logger *slog.Logger
}

// NewStructuredDataExtractor creates a new structured data extractor.
func NewStructuredDataExtractor(logger *slog.Logger) *StructuredDataExtractor {
	return &StructuredDataExtractor{
		logger: logger.With("component", "structured_data"),
	}
}

// Extract finds and parses all structured data in a response.
func (sde *StructuredDataExtractor) Extract(resp *types.Response) ([]StructuredData, error) {
	doc, err := resp.Document()
	if err != nil {
		return nil, &types.ParseError{URL: resp.FinalURL, Err: err}
	}

	results := sde.extractJSONLD(doc)
	if og := extractOpenGraph(doc); len(og.Data) > 0 {
		results = append(results, og)
	}

	sde.logger.Debug("structured data extracted", "url", resp.FinalURL, "blocks", len(results))
	return results, nil
}

// FindJSONLD returns the first JSON-LD object whose @type is one of kinds.
func FindJSONLD(data []StructuredData, kinds ...string) map[string]any {
	for _, d := range data {
		if d.Type != JSONLD {
			continue
		}
		t, _ := d.Data["@type"].(string)
		for _, k := range kinds {
			if strings.EqualFold(t, k) {
				return d.Data
			}
		}
	}
	return nil
}

// FindOpenGraph returns the OpenGraph property map, or nil.
func FindOpenGraph(data []StructuredData) map[string]any {
	for _, d := range data {
		if d.Type == OpenGraph {
			return d.Data
		}
	}
	return nil
}

// extractJSONLD parses <script type="application/ld+json"> elements.
func (sde *StructuredDataExtractor) extractJSONLD(doc *goquery.Document) []StructuredData {
	var results []StructuredData

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err == nil {
			results = append(results, StructuredData{Type: JSONLD, Data: data})
			return
		}

		var dataArr []map[string]any
		if err := json.Unmarshal([]byte(raw), &dataArr); err == nil {
			for _, d := range dataArr {
				results = append(results, StructuredData{Type: JSONLD, Data: d})
			}
			return
		}
		sde.logger.Debug("skipping malformed json-ld block", "index", i)
	})

	return results
}

// extractOpenGraph parses og: meta tags.
func extractOpenGraph(doc *goquery.Document) StructuredData {
	data := make(map[string]any)
	doc.Find(`meta[property^="og:"]`).Each(func(_ int, sel *goquery.Selection) {
		prop, _ := sel.Attr("property")
		content, _ := sel.Attr("content")
		if prop != "" && content != "" {
			data[strings.TrimPrefix(prop, "og:")] = content
		}
	})
	return StructuredData{Type: OpenGraph, Data: data}
}
