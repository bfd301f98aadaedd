// Package catalog holds the media record model and the static lookup tables
// that drive extraction: list views, media types and content ratings.
package catalog

import (
	"time"
)

// MediaRecord is the set of fields every list layout can yield. Pointer
// fields are nil when the page did not provide a parsable value.
type MediaRecord struct {
	ID             string          `json:"id"                        bson:"_id"`
	Title          string          `json:"title"                     bson:"title"`
	Synopsis       string          `json:"synopsis,omitempty"        bson:"synopsis,omitempty"`
	Rating         *float64        `json:"rating,omitempty"          bson:"rating,omitempty"`
	UserRating     *float64        `json:"user_rating,omitempty"     bson:"user_rating,omitempty"`
	Votes          *int            `json:"votes,omitempty"           bson:"votes,omitempty"`
	Classification *Classification `json:"classification,omitempty"  bson:"classification,omitempty"`
	Genres         []string        `json:"genres,omitempty"          bson:"genres,omitempty"`
	PosterURL      string          `json:"poster_url,omitempty"      bson:"poster_url,omitempty"`
}

// Movie extends MediaRecord with the fields of title and detail pages.
type Movie struct {
	MediaRecord `bson:",inline"`

	Year        *time.Time     `json:"year,omitempty"          bson:"year,omitempty"`
	ReleaseDate *time.Time     `json:"release_date,omitempty"  bson:"release_date,omitempty"`
	Runtime     *time.Duration `json:"runtime,omitempty"       bson:"runtime,omitempty"`
	Type        MediaType      `json:"type"                    bson:"type"`
	EpisodeName string         `json:"episode_name,omitempty"  bson:"episode_name,omitempty"`

	Directors []Credit `json:"directors,omitempty"  bson:"directors,omitempty"`
	Writers   []Credit `json:"writers,omitempty"    bson:"writers,omitempty"`
	Cast      []Credit `json:"cast,omitempty"       bson:"cast,omitempty"`
	Producers []Credit `json:"producers,omitempty"  bson:"producers,omitempty"`
	Composers []Credit `json:"composers,omitempty"  bson:"composers,omitempty"`
	OtherCrew []Credit `json:"other_crew,omitempty" bson:"other_crew,omitempty"`

	OtherTitles  []string    `json:"other_titles,omitempty"   bson:"other_titles,omitempty"`
	ShortSummary string      `json:"short_summary,omitempty"  bson:"short_summary,omitempty"`
	CriticScore  *int        `json:"critic_score,omitempty"   bson:"critic_score,omitempty"`
	Production   *Production `json:"production,omitempty"     bson:"production,omitempty"`
	Keywords     []Keyword   `json:"keywords,omitempty"       bson:"keywords,omitempty"`
}

// Credit names a person credited on a title. ID is nil when the credit has
// no profile link.
type Credit struct {
	ID   *string `json:"id,omitempty" bson:"id,omitempty"`
	Name string  `json:"name"         bson:"name"`
}

// Production groups the "details" block of a title page.
type Production struct {
	Countries     []string `json:"countries,omitempty"       bson:"countries,omitempty"`
	Languages     []string `json:"languages,omitempty"       bson:"languages,omitempty"`
	Budget        *float64 `json:"budget,omitempty"          bson:"budget,omitempty"`
	Gross         *float64 `json:"gross,omitempty"           bson:"gross,omitempty"`
	OfficialSites []string `json:"official_sites,omitempty"  bson:"official_sites,omitempty"`
	Color         string   `json:"color,omitempty"           bson:"color,omitempty"`
}

// YearValue returns the release year, or 0 when unknown.
func (m *Movie) YearValue() int {
	if m.Year == nil {
		return 0
	}
	return m.Year.Year()
}

// RuntimeMinutes returns the runtime in whole minutes, or 0 when unknown.
func (m *Movie) RuntimeMinutes() int {
	if m.Runtime == nil {
		return 0
	}
	return int(m.Runtime.Minutes())
}

// Merge copies every field of o that is set into m, leaving m's value where
// o has none. Credit and keyword lists are replaced when o has entries.
func (m *Movie) Merge(o *Movie) {
	if o == nil {
		return
	}
	if o.ID != "" {
		m.ID = o.ID
	}
	if o.Title != "" {
		m.Title = o.Title
	}
	if o.Synopsis != "" {
		m.Synopsis = o.Synopsis
	}
	if o.Rating != nil {
		m.Rating = o.Rating
	}
	if o.UserRating != nil {
		m.UserRating = o.UserRating
	}
	if o.Votes != nil {
		m.Votes = o.Votes
	}
	if o.Classification != nil {
		m.Classification = o.Classification
	}
	if len(o.Genres) > 0 {
		m.Genres = o.Genres
	}
	if o.PosterURL != "" {
		m.PosterURL = o.PosterURL
	}
	if o.Year != nil {
		m.Year = o.Year
	}
	if o.ReleaseDate != nil {
		m.ReleaseDate = o.ReleaseDate
	}
	if o.Runtime != nil {
		m.Runtime = o.Runtime
	}
	if o.Type != Unknown {
		m.Type = o.Type
	}
	if o.EpisodeName != "" {
		m.EpisodeName = o.EpisodeName
	}
	mergeCredits(&m.Directors, o.Directors)
	mergeCredits(&m.Writers, o.Writers)
	mergeCredits(&m.Cast, o.Cast)
	mergeCredits(&m.Producers, o.Producers)
	mergeCredits(&m.Composers, o.Composers)
	mergeCredits(&m.OtherCrew, o.OtherCrew)
	if len(o.OtherTitles) > 0 {
		m.OtherTitles = o.OtherTitles
	}
	if o.ShortSummary != "" {
		m.ShortSummary = o.ShortSummary
	}
	if o.CriticScore != nil {
		m.CriticScore = o.CriticScore
	}
	if o.Production != nil {
		m.Production = o.Production
	}
	if len(o.Keywords) > 0 {
		m.Keywords = o.Keywords
	}
}

func mergeCredits(dst *[]Credit, src []Credit) {
	if len(src) > 0 {
		*dst = src
	}
}

// YearOf returns January 1st of the given year in UTC.
func YearOf(year int) *time.Time {
	t := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &t
}
