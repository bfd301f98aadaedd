package extract

import (
	"html"
	"strconv"
	"strings"

	"github.com/IshaanNene/ReelGoat/internal/catalog"
	"github.com/IshaanNene/ReelGoat/internal/parser"
)

// Title extracts the main page of a title. Missing sections leave their
// fields absent. When structured data is supplied it fills whatever the
// visible markup did not provide.
func Title(doc *parser.Node, id string, sd []parser.StructuredData) *catalog.Movie {
	m := &catalog.Movie{Type: catalog.Feature}
	m.ID = id

	titleBar(doc, m)
	plotSummary(doc, m)
	storyline(doc, m)
	m.Production = details(doc, m)

	if ld := parser.FindJSONLD(sd, "Movie", "TVSeries", "TVEpisode", "VideoGame", "CreativeWork"); ld != nil {
		fromJSONLD(ld, m)
	}
	if og := parser.FindOpenGraph(sd); og != nil && m.PosterURL == "" {
		m.PosterURL, _ = og["image"].(string)
	}
	return m
}

// TitleNameQuery selects the heading that holds a title's name and year.
const TitleNameQuery = `//h1[@itemprop="name"]`

func titleBar(doc *parser.Node, m *catalog.Movie) {
	if h1 := doc.Find(TitleNameQuery); h1 != nil {
		text := h1.Text()
		if match := titleYearPattern.FindStringSubmatch(text); match != nil {
			m.Title = strings.TrimSpace(match[1])
			m.Year = yearOf(match[2])
		} else {
			m.Title = text
		}
	}

	if rating := doc.Find(`//div[@class="imdbRating"]`); rating != nil {
		text := strings.ReplaceAll(rating.Text(), "\n", "")
		if match := titleRatingPattern.FindStringSubmatch(text); match != nil {
			m.Rating = decimal(match[1])
			m.Votes = count(match[2])
		}
	}

	if orig := doc.Find(`//div[@class="originalTitle"]`); orig != nil {
		if match := originalTitlePattern.FindStringSubmatch(orig.Text()); match != nil {
			m.OtherTitles = append(m.OtherTitles, strings.TrimSpace(match[1]))
		}
	}

	if poster := doc.Find(`//div[@class="poster"]/a/img`); poster != nil {
		m.PosterURL = poster.Attr("src")
	}
}

func plotSummary(doc *parser.Node, m *catalog.Movie) {
	if score := doc.Find(`//div[contains(@class,"metacriticScore")]`); score != nil {
		m.CriticScore = intPtr(score.Text())
	}
	if summary := doc.Find(`//div[@class="summary_text"]`); summary != nil {
		m.ShortSummary = collapse(summary.Text())
	}
}

func storyline(doc *parser.Node, m *catalog.Movie) {
	story := doc.Find(`//div[@id="titleStoryLine"]`)
	if story == nil {
		return
	}
	if desc := story.Find(`div[@itemprop="description"]`); desc != nil {
		m.Synopsis = collapse(desc.Text())
	}
	if genres := story.Find(`.//div[@itemprop="genre"]`); genres != nil {
		text := strings.NewReplacer("Genres:", "", "\u00a0", " ", "&nbsp;", "").Replace(genres.Text())
		m.Genres = splitList(text, "|")
	}
	if rating := story.Find(`.//span[@itemprop="contentRating"]`); rating != nil {
		if c, ok := catalog.ParseClassification(rating.Text()); ok {
			m.Classification = c
		}
	}
}

// details reads the titleDetails block. Each txt-block is keyed by its h4
// heading; the first heading keyword that matches decides the field.
func details(doc *parser.Node, m *catalog.Movie) *catalog.Production {
	section := doc.Find(`//div[@id="titleDetails"]`)
	if section == nil {
		return nil
	}
	p := &catalog.Production{}
	for _, block := range section.FindAll(`div[@class="txt-block"]`) {
		header := block.Find(`h4`)
		if header == nil {
			continue
		}
		heading := collapse(header.Text())
		switch {
		case strings.Contains(heading, "Official Sites"):
			for _, a := range block.FindAll(`a[@href]`) {
				p.OfficialSites = append(p.OfficialSites, a.Attr("href"))
			}
		case strings.Contains(heading, "Country"):
			p.Countries = append(p.Countries, linkTexts(block)...)
		case strings.Contains(heading, "Language"):
			p.Languages = append(p.Languages, linkTexts(block)...)
		case strings.Contains(heading, "Release Date"):
			if d := releaseDate(block.OwnText()); d != nil {
				m.ReleaseDate = d
			}
		case strings.Contains(heading, "Budget"):
			p.Budget = money(block.OwnText())
		case strings.Contains(heading, "Gross"):
			p.Gross = money(block.OwnText())
		case strings.Contains(heading, "Runtime"):
			if t := block.Find(`time`); t != nil {
				if rt := runtime(t.Text()); rt != nil {
					m.Runtime = rt
				}
			}
		case strings.Contains(heading, "Color"):
			p.Color = block.Find(`a`).Text()
		}
	}
	return p
}

func linkTexts(n *parser.Node) []string {
	var out []string
	for _, a := range n.FindAll(`a`) {
		if t := collapse(a.Text()); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// fromJSONLD fills fields the markup left empty from a schema.org object.
func fromJSONLD(ld map[string]any, m *catalog.Movie) {
	if m.Title == "" {
		m.Title = html.UnescapeString(stringField(ld, "name"))
	}
	if m.PosterURL == "" {
		m.PosterURL = stringField(ld, "image")
	}
	if m.Synopsis == "" && m.ShortSummary == "" {
		m.ShortSummary = html.UnescapeString(stringField(ld, "description"))
	}
	if len(m.Genres) == 0 {
		switch g := ld["genre"].(type) {
		case string:
			m.Genres = []string{g}
		case []any:
			for _, v := range g {
				if s, ok := v.(string); ok {
					m.Genres = append(m.Genres, s)
				}
			}
		}
	}
	if m.Classification == nil {
		if c, ok := catalog.ParseClassification(stringField(ld, "contentRating")); ok {
			m.Classification = c
		}
	}
	if m.Runtime == nil {
		m.Runtime = runtime(stringField(ld, "duration"))
	}
	if published := stringField(ld, "datePublished"); published != "" {
		if m.ReleaseDate == nil {
			m.ReleaseDate = releaseDate(published)
		}
		if m.Year == nil {
			m.Year = yearOf(published)
		}
	}
	if t := stringField(ld, "@type"); t != "" && t != "Movie" && t != "CreativeWork" {
		if mt := catalog.MediaTypeFromTag(t); mt != catalog.Unknown {
			m.Type = mt
		}
	}
	if agg, ok := ld["aggregateRating"].(map[string]any); ok {
		if m.Rating == nil {
			m.Rating = decimal(numberField(agg, "ratingValue"))
		}
		if m.Votes == nil {
			m.Votes = count(numberField(agg, "ratingCount"))
		}
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

// numberField reads a JSON value that may be encoded as number or string.
func numberField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
