package catalog

import (
	"encoding/json"
	"strings"
)

// MediaType classifies a catalog entry.
type MediaType int

const (
	Unknown MediaType = iota
	Documentary
	Feature
	MiniSeries
	ShortFilm
	TVSeries
	TVEpisode
	TVMovie
	Video
	VideoGame
	TVSpecial
)

type mediaTypeMeta struct {
	tag   string
	label string
}

var mediaTypes = []mediaTypeMeta{
	Unknown:     {"Unknown", "Unknown"},
	Documentary: {"Documentary", "Documentary"},
	Feature:     {"Feature", "Feature Film"},
	MiniSeries:  {"MiniSeries", "Mini-Series"},
	ShortFilm:   {"ShortFilm", "Short Film"},
	TVSeries:    {"TVSeries", "TV Series"},
	TVEpisode:   {"TVEpisode", "TV Episode"},
	TVMovie:     {"TVMovie", "TV Movie"},
	Video:       {"Video", "Video"},
	VideoGame:   {"VideoGame", "Video Game"},
	TVSpecial:   {"TVSpecial", "TV Special"},
}

// String returns the tag name, e.g. "TVSeries".
func (t MediaType) String() string {
	if int(t) < 0 || int(t) >= len(mediaTypes) {
		return mediaTypes[Unknown].tag
	}
	return mediaTypes[t].tag
}

// Label returns the human-readable name, e.g. "TV Series".
func (t MediaType) Label() string {
	if int(t) < 0 || int(t) >= len(mediaTypes) {
		return mediaTypes[Unknown].label
	}
	return mediaTypes[t].label
}

// NormalizeTypeLabel removes hyphens and spaces so that "TV Mini-Series"
// becomes "TVMiniSeries".
func NormalizeTypeLabel(label string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(label))
}

// MediaTypeFromTag maps a scraped type label to a MediaType. Hyphens and
// spaces are stripped and the rest must equal a tag name exactly, so "TV
// Series" is TVSeries but "tv series" and "TV Mini-Series" are Unknown.
func MediaTypeFromTag(label string) MediaType {
	n := NormalizeTypeLabel(label)
	for i, m := range mediaTypes {
		if m.tag == n {
			return MediaType(i)
		}
	}
	return Unknown
}

// ParseMediaType maps a user-supplied label to a MediaType. On top of
// MediaTypeFromTag it ignores case and accepts a few long-form aliases.
// Unmatched labels yield Unknown.
func ParseMediaType(label string) MediaType {
	n := NormalizeTypeLabel(label)
	if n == "" {
		return Unknown
	}
	for i, m := range mediaTypes {
		if strings.EqualFold(m.tag, n) {
			return MediaType(i)
		}
	}
	// Long-form labels the site uses for some types.
	switch strings.ToLower(n) {
	case "featurefilm", "movie":
		return Feature
	case "tvminiseries":
		return MiniSeries
	case "short":
		return ShortFilm
	}
	return Unknown
}

func (t MediaType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *MediaType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseMediaType(s)
	return nil
}
