package extract

import (
	"github.com/IshaanNene/ReelGoat/internal/catalog"
	"github.com/IshaanNene/ReelGoat/internal/parser"
)

// WatchlistQuery selects one node per watchlist entry.
const WatchlistQuery = `//div[@class="lister-item-content"]`

// WatchlistItem extracts a record from a lister-item-content block. It
// returns nil when the block has no title link.
func WatchlistItem(node *parser.Node) *catalog.Movie {
	link := node.Find(`h3/a[@href]`)
	if link == nil {
		return nil
	}
	m := &catalog.Movie{}
	m.ID = titleID(link.Attr("href"))
	m.Title = link.Text()
	if m.ID == "" || m.Title == "" {
		return nil
	}

	if cert := node.Find(`p/span[@class="certificate"]`); cert != nil {
		if c, ok := catalog.ParseClassification(cert.Text()); ok {
			m.Classification = c
		}
	}
	if rt := node.Find(`p/span[@class="runtime"]`); rt != nil {
		m.Runtime = runtime(rt.Text())
	}
	if genres := node.Find(`p/span[@class="genre"]`); genres != nil {
		m.Genres = splitList(genres.Text(), ",")
	}
	if rating := node.Find(`div/div[@class="inline-block ratings-imdb-rating"]/strong`); rating != nil {
		m.Rating = decimal(rating.Text())
	}
	if year := node.Find(`h3/span[@class="lister-item-year text-muted unbold"]`); year != nil {
		m.Year = yearOf(year.Text())
	}
	if synopsis := node.Find(`p[@class=""]`); synopsis != nil {
		m.Synopsis = collapse(synopsis.Text())
	}
	if poster := node.Find(`../div[@class="lister-item-image ribbonize"]/a/img[@src]`); poster != nil {
		m.PosterURL = poster.Attr("src")
	}
	if kind := node.Find(`h3/span[@class="lister-item-type"]`); kind != nil {
		m.Type = catalog.MediaTypeFromTag(kind.Text())
	}
	return m
}

// Watchlist extracts every entry of a watchlist page, skipping blocks that
// yield no record.
func Watchlist(doc *parser.Node) []*catalog.Movie {
	var out []*catalog.Movie
	for _, n := range doc.FindAll(WatchlistQuery) {
		if m := WatchlistItem(n); m != nil {
			out = append(out, m)
		}
	}
	return out
}
