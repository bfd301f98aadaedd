package extract

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/ReelGoat/internal/catalog"
	"github.com/IshaanNene/ReelGoat/internal/parser"
	"github.com/IshaanNene/ReelGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func parse(t *testing.T, s string) *parser.Node {
	t.Helper()
	doc, err := parser.Parse(s)
	require.NoError(t, err)
	return doc
}

func nodes(t *testing.T, page string, view catalog.ViewKind) []*parser.Node {
	t.Helper()
	return parse(t, page).FindAll(catalog.QueryFor(view))
}

const compactPage = `<html><body><table>
<tr data-item-id="1">
  <td class="title"><a href="/title/tt0111161/">The Shawshank Redemption</a></td>
  <td class="year">1994</td>
  <td class="title_type">Feature</td>
  <td class="rater_ratings">10</td>
  <td class="user_rating">9.3</td>
  <td class="num_votes">2,345,678</td>
</tr>
<tr data-item-id="2">
  <td class="title"><a href="/title/tt0903747/">Breaking Bad</a></td>
  <td class="year">n/a</td>
  <td class="title_type">TV Series</td>
  <td class="rater_ratings">-</td>
</tr>
<tr data-item-id="3">
  <td class="year">2001</td>
</tr>
</table></body></html>`

func TestCompactItem(t *testing.T) {
	rows := nodes(t, compactPage, catalog.Compact)
	require.Len(t, rows, 3)

	m, err := Item(rows[0], catalog.Compact)
	require.NoError(t, err)
	require.NotNil(t, m)

	userRating, rating, votes := 10.0, 9.3, 2345678
	want := &catalog.Movie{
		MediaRecord: catalog.MediaRecord{
			ID:         "tt0111161",
			Title:      "The Shawshank Redemption",
			UserRating: &userRating,
			Rating:     &rating,
			Votes:      &votes,
		},
		Year: catalog.YearOf(1994),
		Type: catalog.Feature,
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("compact record mismatch (-want +got):\n%s", diff)
	}

	m, err = Item(rows[1], catalog.Compact)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, catalog.TVSeries, m.Type)
	assert.Nil(t, m.Year, "unparsable year stays absent")
	assert.Nil(t, m.UserRating, "unparsable rating stays absent")
	assert.Nil(t, m.Votes)

	m, err = Item(rows[2], catalog.Compact)
	require.NoError(t, err)
	assert.Nil(t, m, "row without title link yields no record")
}

const detailPage = `<html><body>
<div class="list_item odd">
  <div class="image"><a href="/title/tt0133093/"><img src="https://img.example/matrix.jpg"></a></div>
  <div class="info">
    <b><a href="/title/tt0133093/">The Matrix &amp;amp; Co</a> <span>(1999)</span></b>
    <div class="rating rating-list" id="tt0133093|imdb|9|8.7|list"></div>
    <div class="item_description">A hacker learns the truth. <span>(136 mins.)</span></div>
  </div>
</div>
<div class="list_item even">
  <div class="info">
    <b><a href="/title/tt0959621/">Breaking Bad</a> <span>(2008 TV Series)</span></b>
    <div class="episode">Episode: <a href="/title/tt0959621/">Pilot</a></div>
    <div class="rating rating-list" id="tt0959621|imdb|8|9.0|list"></div>
    <div class="item_description">Walter starts cooking.</div>
  </div>
</div>
<div class="list_item odd">
  <div class="info">
    <b><span>(2010)</span></b>
    <div class="rating rating-list" id="tt1375666|imdb|7|8.8|list"></div>
  </div>
</div>
<div class="list_item even">
  <div class="info">
    <b><a href="/title/tt0108778/">Friends</a> <span>(1994 TV Series)</span></b>
    <div class="rating rating-list" id="tt0108778|imdb|6|8.9|list"></div>
  </div>
</div>
</body></html>`

func TestDetailItem(t *testing.T) {
	items := nodes(t, detailPage, catalog.Detail)
	require.Len(t, items, 4)

	m, err := Item(items[0], catalog.Detail)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "tt0133093", m.ID)
	assert.Equal(t, "The Matrix &amp; Co", m.Title, "entities are decoded once")
	assert.Equal(t, 1999, m.YearValue())
	assert.Equal(t, catalog.Feature, m.Type)
	require.NotNil(t, m.UserRating)
	assert.Equal(t, 9.0, *m.UserRating)
	require.NotNil(t, m.Rating)
	assert.Equal(t, 8.7, *m.Rating)
	require.NotNil(t, m.Runtime)
	assert.Equal(t, 136*time.Minute, *m.Runtime)
	assert.Equal(t, "A hacker learns the truth.", m.Synopsis)
	assert.Equal(t, "https://img.example/matrix.jpg", m.PosterURL)
}

func TestScrapedTypeLabelsMatchTagsExactly(t *testing.T) {
	page := `<html><body><table>
<tr data-item-id="1"><td class="title"><a href="/title/tt0000001/">A</a></td><td class="title_type">TV Mini-Series</td></tr>
<tr data-item-id="2"><td class="title"><a href="/title/tt0000002/">B</a></td><td class="title_type">tv series</td></tr>
<tr data-item-id="3"><td class="title"><a href="/title/tt0000003/">C</a></td><td class="title_type">TV Movie</td></tr>
</table></body></html>`

	records, err := Items(nodes(t, page, catalog.Compact), catalog.Compact)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, catalog.Unknown, records[0].Type)
	assert.Equal(t, catalog.Unknown, records[1].Type)
	assert.Equal(t, catalog.TVMovie, records[2].Type)
}

func TestDetailItemEpisode(t *testing.T) {
	items := nodes(t, detailPage, catalog.Detail)
	m, err := Item(items[1], catalog.Detail)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, catalog.TVEpisode, m.Type)
	assert.Equal(t, "Pilot", m.EpisodeName)
	assert.Nil(t, m.Runtime, "description without runtime span leaves runtime absent")

	m, err = Item(items[3], catalog.Detail)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, catalog.TVSeries, m.Type, "series without episode block stays a series")
	assert.Empty(t, m.EpisodeName)
}

func TestDetailItemWithoutTitleLink(t *testing.T) {
	items := nodes(t, detailPage, catalog.Detail)
	m, err := Item(items[2], catalog.Detail)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestGridUnsupported(t *testing.T) {
	doc := parse(t, `<div class="list_item grid"><a href="/title/tt1/">X</a></div>`)
	_, err := Item(doc.Find(catalog.QueryFor(catalog.Grid)), catalog.Grid)

	var unsupported *types.UnsupportedViewError
	require.True(t, errors.As(err, &unsupported), "got %v", err)
	assert.Equal(t, "grid", unsupported.View)
}

func TestUnknownView(t *testing.T) {
	_, err := Item(parse(t, `<p></p>`), catalog.ViewKind(9))
	var cfgErr *types.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestItemsSkipsIncomplete(t *testing.T) {
	out, err := Items(nodes(t, compactPage, catalog.Compact), catalog.Compact)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	_, err = Items(nodes(t, detailPage, catalog.Detail), catalog.Grid)
	assert.Error(t, err)
}

const watchlistPage = `<html><body><div class="lister-item mode-detail">
<div class="lister-item-image ribbonize"><a href="/title/tt4154796/"><img src="https://img.example/endgame.jpg"></a></div>
<div class="lister-item-content">
  <h3><a href="/title/tt4154796/">Avengers: Endgame</a> <span class="lister-item-year text-muted unbold">(2019)</span></h3>
  <p><span class="certificate">PG-13</span> <span class="runtime">181 min</span> <span class="genre">Action, Adventure, Drama</span></p>
  <div><div class="inline-block ratings-imdb-rating"><strong>8.4</strong></div></div>
  <p class="">After the devastating events of Infinity War.</p>
</div>
</div>
<div class="lister-item-content"><h3>No link</h3></div>
</body></html>`

func TestWatchlist(t *testing.T) {
	out := Watchlist(parse(t, watchlistPage))
	require.Len(t, out, 1)
	m := out[0]

	assert.Equal(t, "tt4154796", m.ID)
	assert.Equal(t, "Avengers: Endgame", m.Title)
	assert.Equal(t, &catalog.Classification{Scale: catalog.ScaleUS, Code: "PG13"}, m.Classification)
	assert.Equal(t, 181, m.RuntimeMinutes())
	assert.Equal(t, []string{"Action", "Adventure", "Drama"}, m.Genres)
	require.NotNil(t, m.Rating)
	assert.Equal(t, 8.4, *m.Rating)
	assert.Equal(t, 2019, m.YearValue())
	assert.Equal(t, "After the devastating events of Infinity War.", m.Synopsis)
	assert.Equal(t, "https://img.example/endgame.jpg", m.PosterURL)
}

const titlePage = `<html><head>
<script type="application/ld+json">{"@type":"Movie","name":"Ignored","duration":"PT2H22M","aggregateRating":{"ratingValue":9.3,"ratingCount":2500000}}</script>
</head><body>
<div class="title_bar_wrapper">
  <div class="imdbRating"><strong>9.3</strong>/10
    from 2,345,678 users</div>
  <h1 itemprop="name">The Shawshank Redemption&nbsp;<span>(1994)</span></h1>
  <div class="originalTitle">Les évadés (original title)</div>
</div>
<div class="poster"><a href="/x"><img src="https://img.example/shawshank.jpg"></a></div>
<div class="plot_summary_wrapper">
  <div class="metacriticScore score_favorable"><span>80</span></div>
  <div class="summary_text">
     Two imprisoned men bond over a number of years.
  </div>
</div>
<div id="titleStoryLine">
  <div itemprop="description"><p>Chronicles the experiences of a banker.</p></div>
  <div itemprop="genre"><h4>Genres:</h4> <a>Crime</a>&nbsp;|&nbsp;<a>Drama</a></div>
  <div><span itemprop="contentRating">R</span></div>
</div>
<div id="titleDetails">
  <div class="txt-block"><h4>Official Sites:</h4> <a href="/offsite/?page-action=offsite&amp;token=1">Official Facebook</a></div>
  <div class="txt-block"><h4>Country:</h4> <a>USA</a></div>
  <div class="txt-block"><h4>Language:</h4> <a>English</a></div>
  <div class="txt-block"><h4>Release Date:</h4> 14 October 1994 (USA) <span>See more</span></div>
  <div class="txt-block"><h4>Budget:</h4>$25,000,000 <span>(estimated)</span></div>
  <div class="txt-block"><h4>Gross USA:</h4> $28,699,976</div>
  <div class="txt-block"><h4>Runtime:</h4> <time>142 min</time></div>
  <div class="txt-block"><h4>Color:</h4> <a>Color</a></div>
  <div class="txt-block">no heading</div>
</div>
</body></html>`

func TestTitle(t *testing.T) {
	req, _ := types.NewRequest("https://www.example.com/title/tt0111161")
	resp := &types.Response{Request: req, Body: []byte(titlePage), FinalURL: req.URLString()}
	sd, err := parser.NewStructuredDataExtractor(testLogger).Extract(resp)
	require.NoError(t, err)

	m := Title(parse(t, titlePage), "tt0111161", sd)

	assert.Equal(t, "tt0111161", m.ID)
	assert.Equal(t, "The Shawshank Redemption", m.Title)
	assert.Equal(t, 1994, m.YearValue())
	assert.Equal(t, catalog.Feature, m.Type)
	require.NotNil(t, m.Rating)
	assert.Equal(t, 9.3, *m.Rating)
	require.NotNil(t, m.Votes)
	assert.Equal(t, 2345678, *m.Votes)
	assert.Equal(t, []string{"Les évadés"}, m.OtherTitles)
	assert.Equal(t, "https://img.example/shawshank.jpg", m.PosterURL)
	require.NotNil(t, m.CriticScore)
	assert.Equal(t, 80, *m.CriticScore)
	assert.Equal(t, "Two imprisoned men bond over a number of years.", m.ShortSummary)
	assert.Equal(t, "Chronicles the experiences of a banker.", m.Synopsis)
	assert.Equal(t, []string{"Crime", "Drama"}, m.Genres)
	assert.Equal(t, &catalog.Classification{Scale: catalog.ScaleUS, Code: "R"}, m.Classification)
	assert.Equal(t, 142, m.RuntimeMinutes())
	require.NotNil(t, m.ReleaseDate)
	assert.Equal(t, time.Date(1994, time.October, 14, 0, 0, 0, 0, time.UTC), *m.ReleaseDate)

	p := m.Production
	require.NotNil(t, p)
	assert.Equal(t, []string{"/offsite/?page-action=offsite&token=1"}, p.OfficialSites)
	assert.Equal(t, []string{"USA"}, p.Countries)
	assert.Equal(t, []string{"English"}, p.Languages)
	require.NotNil(t, p.Budget)
	assert.Equal(t, 25000000.0, *p.Budget)
	require.NotNil(t, p.Gross)
	assert.Equal(t, 28699976.0, *p.Gross)
	assert.Equal(t, "Color", p.Color)
}

func TestTitleFallsBackToStructuredData(t *testing.T) {
	sd := []parser.StructuredData{{Type: parser.JSONLD, Data: map[string]any{
		"@type":         "TVSeries",
		"name":          "Dark",
		"genre":         []any{"Crime", "Drama"},
		"contentRating": "R16",
		"duration":      "PT1H",
		"datePublished": "2017-12-01",
		"aggregateRating": map[string]any{
			"ratingValue": 8.7,
			"ratingCount": "400,000",
		},
	}}}

	m := Title(parse(t, `<html><body></body></html>`), "tt5753856", sd)
	assert.Equal(t, "Dark", m.Title)
	assert.Equal(t, catalog.TVSeries, m.Type)
	assert.Equal(t, []string{"Crime", "Drama"}, m.Genres)
	assert.Equal(t, &catalog.Classification{Scale: catalog.ScaleNZ, Code: "R16"}, m.Classification)
	assert.Equal(t, 60, m.RuntimeMinutes())
	assert.Equal(t, 2017, m.YearValue())
	require.NotNil(t, m.Rating)
	assert.Equal(t, 8.7, *m.Rating)
	require.NotNil(t, m.Votes)
	assert.Equal(t, 400000, *m.Votes)
	assert.Nil(t, m.Production)
}

const creditsPage = `<html><body><div id="fullcredits_content">
<h4 class="dataHeaderWithBorder">Directed by</h4>
<table class="simpleTable simpleCreditsTable"><tbody>
  <tr><td class="name"><a href="/name/nm0001104/"> Frank Darabont </a></td></tr>
</tbody></table>
<h4 class="dataHeaderWithBorder">Writing Credits</h4>
<table class="simpleTable simpleCreditsTable"><tbody>
  <tr><td class="name"><a href="/name/nm0000175/">Stephen King</a></td></tr>
  <tr><td class="name">Uncredited Writer</td></tr>
</tbody></table>
<h4 class="dataHeaderWithBorder">Cast (in credits order)</h4>
<table class="cast_list">
  <tr><td itemprop="actor"><a href="/name/nm0000209/"><span>Tim Robbins</span></a></td></tr>
</table>
<h4 class="dataHeaderWithBorder">Produced by</h4>
<table class="simpleTable simpleCreditsTable"><tbody>
  <tr><td class="name"><a href="/name/nm0004137/">Liz Glotzer</a></td></tr>
</tbody></table>
<h4 class="dataHeaderWithBorder">Music by</h4>
<table class="simpleTable simpleCreditsTable"><tbody>
  <tr><td class="name"><a href="/name/nm0006293/">Thomas Newman</a></td></tr>
</tbody></table>
<h4 class="dataHeaderWithBorder">Casting By</h4>
<table class="simpleTable simpleCreditsTable"><tbody>
  <tr><td class="name"><a href="/name/nm0000001/">Deborah Aquila</a></td></tr>
</tbody></table>
</div></body></html>`

func TestCredits(t *testing.T) {
	m := Credits(parse(t, creditsPage))

	id := func(s string) *string { return &s }
	want := &catalog.Movie{
		Directors: []catalog.Credit{{ID: id("nm0001104"), Name: "Frank Darabont"}},
		Writers: []catalog.Credit{
			{ID: id("nm0000175"), Name: "Stephen King"},
			{Name: "Uncredited Writer"},
		},
		Cast:      []catalog.Credit{{ID: id("nm0000209"), Name: "Tim Robbins"}},
		Producers: []catalog.Credit{{ID: id("nm0004137"), Name: "Liz Glotzer"}},
		Composers: []catalog.Credit{{ID: id("nm0006293"), Name: "Thomas Newman"}},
		OtherCrew: []catalog.Credit{{ID: id("nm0000001"), Name: "Deborah Aquila"}},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("credits mismatch (-want +got):\n%s", diff)
	}
}

func TestCreditHeadingKeepsPageSpacing(t *testing.T) {
	page := `<html><body>
<h4>Cast</h4>
<table class="cast_list"><tr><td itemprop="actor"><a href="/name/nm0000002/">Bare Heading</a></td></tr></table>
<h4>
Cast <span>(in credits order)</span>
</h4>
<table class="cast_list"><tr><td itemprop="actor"><a href="/name/nm0000003/">Spaced Heading</a></td></tr></table>
</body></html>`

	m := Credits(parse(t, page))
	require.Len(t, m.OtherCrew, 1)
	assert.Equal(t, "Bare Heading", m.OtherCrew[0].Name)
	require.Len(t, m.Cast, 1)
	assert.Equal(t, "Spaced Heading", m.Cast[0].Name)
}

func TestRoleForHeading(t *testing.T) {
	tests := map[string]CreditRole{
		"Directed by":              RoleDirector,
		"Writing Credits":          RoleWriter,
		"Cast (in credits order)":  RoleCast,
		"Cast":                     RoleOther,
		"Casting By":               RoleOther,
		"Produced by":              RoleProducer,
		"Music by":                 RoleComposer,
		"Cinematography by":        RoleOther,
		"Directed and Produced by": RoleDirector,
		"Series Writing Credits":   RoleWriter,
		"Original Music by":        RoleComposer,
	}
	for heading, want := range tests {
		assert.Equal(t, want, RoleForHeading(heading), heading)
	}
}

const keywordsPage = `<html><body><table>
<tr>
  <td class="soda sodavote">
    <div class="sodatext"><a href="/keyword/prison">prison</a></div>
    <div class="did-you-know-actions"><div class="interesting-count-text"><a>
      45 of 50 found this relevant
    </a></div></div>
  </td>
  <td class="soda sodavote">
    <div class="sodatext"><a href="/keyword/hope">hope</a></div>
    <div><div class="interesting-count-text"><a>Is this relevant?</a></div></div>
  </td>
  <td class="soda sodavote"><div class="sodatext"></div></td>
</tr>
</table></body></html>`

func TestKeywords(t *testing.T) {
	kws := Keywords(parse(t, keywordsPage))
	require.Len(t, kws, 2)

	assert.Equal(t, catalog.Keyword{Text: "prison", Helpful: 45, Total: 50}, kws[0])
	assert.InDelta(t, 0.9, kws[0].Relevance(), 1e-9)
	assert.Equal(t, catalog.Keyword{Text: "hope"}, kws[1])
	assert.Zero(t, kws[1].Relevance())
}

func TestFieldHelpers(t *testing.T) {
	rt := func(s string) int {
		d := runtime(s)
		if d == nil {
			return -1
		}
		return int(d.Minutes())
	}
	assert.Equal(t, 142, rt("142 min"))
	assert.Equal(t, 142, rt("2h 22min"))
	assert.Equal(t, 120, rt("2h"))
	assert.Equal(t, 142, rt("PT2H22M"))
	assert.Equal(t, 95, rt("95"))
	assert.Equal(t, -1, rt("unknown"))
	assert.Equal(t, -1, rt(""))

	assert.Nil(t, money("N/A"))
	assert.Equal(t, 1500000.0, *money("€1,500,000"))
	assert.Nil(t, count("none"))
	assert.Nil(t, releaseDate("sometime (USA)"))
	assert.Equal(t, 2010, releaseDate("February 2, 2010 (Japan)").Year())
	assert.Nil(t, personID("/name/"))
}
