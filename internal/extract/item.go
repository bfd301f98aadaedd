// Package extract maps parsed catalog pages onto typed records. Every rule
// is a pure function of its input node: a field whose markup is missing or
// malformed stays absent and never fails the record.
package extract

import (
	"fmt"
	"strings"

	"github.com/IshaanNene/ReelGoat/internal/catalog"
	"github.com/IshaanNene/ReelGoat/internal/parser"
	"github.com/IshaanNene/ReelGoat/internal/types"
)

// Item extracts one record from a list-page node selected with
// catalog.QueryFor(view). It returns (nil, nil) when the node lacks an
// identifier or title.
func Item(node *parser.Node, view catalog.ViewKind) (*catalog.Movie, error) {
	var m *catalog.Movie
	switch view {
	case catalog.Compact:
		m = compactItem(node)
	case catalog.Detail:
		m = detailItem(node)
	case catalog.Grid:
		return nil, &types.UnsupportedViewError{View: view.String()}
	default:
		return nil, &types.ConfigError{
			Field: "view",
			Value: view.String(),
			Err:   fmt.Errorf("no extraction rules registered"),
		}
	}
	if m == nil || m.ID == "" || m.Title == "" {
		return nil, nil
	}
	return m, nil
}

// Items runs Item over every node and keeps the records that were produced.
func Items(nodes []*parser.Node, view catalog.ViewKind) ([]*catalog.Movie, error) {
	var out []*catalog.Movie
	for _, n := range nodes {
		m, err := Item(n, view)
		if err != nil {
			return nil, err
		}
		if m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// compactItem reads a <tr data-item-id> row of the compact ratings table.
func compactItem(row *parser.Node) *catalog.Movie {
	m := &catalog.Movie{}

	if link := row.Find(`td[@class="title"]/a[@href]`); link != nil {
		m.ID = titleID(link.Attr("href"))
		m.Title = link.Text()
	}
	if year := row.Find(`td[@class="year"]`); year != nil {
		m.Year = yearOf(year.Text())
	}
	if kind := row.Find(`td[@class="title_type"]`); kind != nil {
		m.Type = catalog.MediaTypeFromTag(kind.Text())
	}
	// rater_ratings is the user's own score, user_rating the site average.
	if rater := row.Find(`td[@class="rater_ratings"]`); rater != nil {
		m.UserRating = decimal(rater.Text())
	}
	if avg := row.Find(`td[@class="user_rating"]`); avg != nil {
		m.Rating = decimal(avg.Text())
	}
	if votes := row.Find(`td[@class="num_votes"]`); votes != nil {
		m.Votes = count(votes.Text())
	}
	return m
}

// detailItem reads a list_item block of the detail ratings layout.
func detailItem(item *parser.Node) *catalog.Movie {
	info := item.Find(`div[@class="info"]`)
	if info == nil {
		return nil
	}
	m := &catalog.Movie{}

	if heading := info.Find(`b`); heading != nil {
		link := heading.Find(`a`)
		if link == nil {
			return nil
		}
		m.Title = link.Text()
		m.ID = titleID(link.Attr("href"))

		if match := detailYearTypePattern.FindStringSubmatch(heading.Find(`span`).Text()); match != nil {
			m.Year = yearOf(match[1])
			m.Type = detailType(match[2])
			if m.Type == catalog.TVSeries {
				if episode := info.Find(`div[@class="episode"]`); episode != nil {
					m.Type = catalog.TVEpisode
					m.EpisodeName = episode.Find(`a`).Text()
				}
			}
		}
	}

	if widget := info.Find(`div[@class="rating rating-list"]`); widget != nil {
		// The widget id is authoritative; the title link only backs it up.
		if match := ratingWidgetPattern.FindStringSubmatch(widget.Attr("id")); match != nil {
			m.ID = match[1]
			m.UserRating = decimal(match[2])
			m.Rating = decimal(match[3])
		}
	}

	if desc := info.Find(`div[@class="item_description"]`); desc != nil {
		text := desc.Text()
		if span := desc.Find(`span`); span != nil {
			m.Runtime = minutes(span.Text())
			text = strings.Replace(text, span.Text(), "", 1)
		}
		m.Synopsis = collapse(text)
	}

	if img := item.Find(`div[@class="image"]//img[@src]`); img != nil {
		m.PosterURL = img.Attr("src")
	}
	return m
}

// detailType resolves the type suffix of "(1999 TV Series)". A bare year
// means a feature film.
func detailType(label string) catalog.MediaType {
	if catalog.NormalizeTypeLabel(label) == "" {
		return catalog.Feature
	}
	return catalog.MediaTypeFromTag(label)
}
