package pipeline

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/IshaanNene/ReelGoat/internal/catalog"
)

// TrimMiddleware collapses whitespace in the free-text fields.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(rec *catalog.Movie) (*catalog.Movie, error) {
	return mapText(rec, func(s string) string {
		return strings.Join(strings.Fields(s), " ")
	}), nil
}

// HTMLSanitizeMiddleware strips leftover tags and entities from text fields.
type HTMLSanitizeMiddleware struct {
	stripRe *regexp.Regexp
}

func NewHTMLSanitizeMiddleware() *HTMLSanitizeMiddleware {
	return &HTMLSanitizeMiddleware{
		stripRe: regexp.MustCompile(`<[^>]*>`),
	}
}

func (m *HTMLSanitizeMiddleware) Name() string { return "html_sanitize" }

func (m *HTMLSanitizeMiddleware) Process(rec *catalog.Movie) (*catalog.Movie, error) {
	return mapText(rec, func(s string) string {
		if !strings.ContainsAny(s, "<&") {
			return s
		}
		cleaned := html.UnescapeString(m.stripRe.ReplaceAllString(s, ""))
		return strings.Join(strings.Fields(cleaned), " ")
	}), nil
}

// mapText returns a copy of rec with f applied to its text fields.
func mapText(rec *catalog.Movie, f func(string) string) *catalog.Movie {
	c := *rec
	c.Title = f(c.Title)
	c.Synopsis = f(c.Synopsis)
	c.ShortSummary = f(c.ShortSummary)
	c.EpisodeName = f(c.EpisodeName)
	if len(rec.Genres) > 0 {
		c.Genres = make([]string, 0, len(rec.Genres))
		for _, g := range rec.Genres {
			if g = f(g); g != "" {
				c.Genres = append(c.Genres, g)
			}
		}
	}
	return &c
}

// TypeFilterMiddleware keeps only records of the listed media types.
type TypeFilterMiddleware struct {
	allowed map[catalog.MediaType]bool
}

// NewTypeFilterMiddleware accepts type labels in any form ParseMediaType
// understands. Unrecognized labels match Unknown.
func NewTypeFilterMiddleware(labels []string) *TypeFilterMiddleware {
	allowed := make(map[catalog.MediaType]bool, len(labels))
	for _, l := range labels {
		allowed[catalog.ParseMediaType(l)] = true
	}
	return &TypeFilterMiddleware{allowed: allowed}
}

func (m *TypeFilterMiddleware) Name() string { return "type_filter" }

func (m *TypeFilterMiddleware) Process(rec *catalog.Movie) (*catalog.Movie, error) {
	if !m.allowed[rec.Type] {
		return nil, nil
	}
	return rec, nil
}

// presence reports whether a record carries a field.
var presence = map[string]func(*catalog.Movie) bool{
	"synopsis":       func(m *catalog.Movie) bool { return m.Synopsis != "" },
	"rating":         func(m *catalog.Movie) bool { return m.Rating != nil },
	"user_rating":    func(m *catalog.Movie) bool { return m.UserRating != nil },
	"votes":          func(m *catalog.Movie) bool { return m.Votes != nil },
	"classification": func(m *catalog.Movie) bool { return m.Classification != nil },
	"genres":         func(m *catalog.Movie) bool { return len(m.Genres) > 0 },
	"poster_url":     func(m *catalog.Movie) bool { return m.PosterURL != "" },
	"year":           func(m *catalog.Movie) bool { return m.Year != nil },
	"release_date":   func(m *catalog.Movie) bool { return m.ReleaseDate != nil },
	"runtime":        func(m *catalog.Movie) bool { return m.Runtime != nil },
	"directors":      func(m *catalog.Movie) bool { return len(m.Directors) > 0 },
	"cast":           func(m *catalog.Movie) bool { return len(m.Cast) > 0 },
	"critic_score":   func(m *catalog.Movie) bool { return m.CriticScore != nil },
	"keywords":       func(m *catalog.Movie) bool { return len(m.Keywords) > 0 },
}

// RequiredFieldNames lists the field names RequiredFieldsMiddleware accepts.
func RequiredFieldNames() []string {
	names := make([]string, 0, len(presence))
	for n := range presence {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RequiredFieldsMiddleware drops records missing any of the named fields.
type RequiredFieldsMiddleware struct {
	fields []string
	checks []func(*catalog.Movie) bool
}

func NewRequiredFieldsMiddleware(fields []string) (*RequiredFieldsMiddleware, error) {
	m := &RequiredFieldsMiddleware{fields: fields}
	for _, f := range fields {
		check, ok := presence[strings.ToLower(strings.TrimSpace(f))]
		if !ok {
			return nil, fmt.Errorf("unknown required field %q (valid: %s)", f, strings.Join(RequiredFieldNames(), ", "))
		}
		m.checks = append(m.checks, check)
	}
	return m, nil
}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(rec *catalog.Movie) (*catalog.Movie, error) {
	for _, has := range m.checks {
		if !has(rec) {
			return nil, nil
		}
	}
	return rec, nil
}

// DedupMiddleware drops records whose ID was already seen.
type DedupMiddleware struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDedupMiddleware() *DedupMiddleware {
	return &DedupMiddleware{seen: make(map[string]struct{})}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(rec *catalog.Movie) (*catalog.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.seen[rec.ID]; exists {
		return nil, nil
	}
	m.seen[rec.ID] = struct{}{}
	return rec, nil
}
