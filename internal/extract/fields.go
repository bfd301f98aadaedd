package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/IshaanNene/ReelGoat/internal/catalog"
)

var (
	titleIDPattern  = regexp.MustCompile(`tt[0-9]+`)
	personIDPattern = regexp.MustCompile(`nm[0-9]+`)
	integerPattern  = regexp.MustCompile(`[0-9]+`)
	countPattern    = regexp.MustCompile(`[0-9,]+`)

	// "(1999 TV Series)" / "(2004)" / "(2010 Video Game)"
	detailYearTypePattern = regexp.MustCompile(`\(([0-9]+).([a-zA-Z -]+|)`)
	// "tt0111161|imdb|10|9.3|..." on the detail view rating widget.
	ratingWidgetPattern = regexp.MustCompile(`(tt[0-9]+)\|[^|]+\|([0-9]+)\|([0-9.]+)`)
	// "1h 30min", "2h", "95min", "95 min"
	hourMinutePattern = regexp.MustCompile(`(?i)^\s*(?:([0-9]+)\s*h)?\s*(?:([0-9]+)\s*m(?:in)?)?\s*$`)
	// ISO-8601 durations used in JSON-LD: "PT2H22M"
	isoDurationPattern = regexp.MustCompile(`^PT(?:([0-9]+)H)?(?:([0-9]+)M)?$`)

	titleYearPattern     = regexp.MustCompile(`(?s)^(.+).\(([0-9]{4})\)$`)
	titleRatingPattern   = regexp.MustCompile(`([0-9.]{3})/1(?:0|1)[^0-9]+([0-9,]+)`)
	originalTitlePattern = regexp.MustCompile(`(.+) \(original title\)`)
	releaseDatePattern   = regexp.MustCompile(`(.+)\([^)]+\)`)
	keywordVotesPattern  = regexp.MustCompile(`([0-9]+) of ([0-9]+)`)
)

var releaseDateLayouts = []string{
	"2 January 2006",
	"January 2, 2006",
	"January 2006",
	"2006-01-02",
	"2006",
}

// titleID returns the first tt-prefixed identifier in s, or "".
func titleID(s string) string {
	return titleIDPattern.FindString(s)
}

// personID returns the nm-prefixed identifier in s, or nil.
func personID(s string) *string {
	id := personIDPattern.FindString(s)
	if id == "" {
		return nil
	}
	return &id
}

// collapse replaces runs of whitespace with single spaces and trims.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// firstInt returns the first run of digits in s.
func firstInt(s string) (int, bool) {
	m := integerPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

func intPtr(s string) *int {
	n, ok := firstInt(s)
	if !ok {
		return nil
	}
	return &n
}

// yearOf parses the first integer in s as a calendar year.
func yearOf(s string) *time.Time {
	n, ok := firstInt(s)
	if !ok || n <= 0 {
		return nil
	}
	return catalog.YearOf(n)
}

// count parses a grouped count like "1,234,567".
func count(s string) *int {
	m := countPattern.FindString(s)
	m = strings.ReplaceAll(m, ",", "")
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}

// decimal parses a decimal rating such as "8.4".
func decimal(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// money keeps only digits and '.' from s, dropping currency symbols and
// separators.
func money(s string) *float64 {
	var sb strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			sb.WriteRune(r)
		}
	}
	return decimal(strings.Trim(sb.String(), "."))
}

// minutes parses "<n> min" style text into a duration.
func minutes(s string) *time.Duration {
	n, ok := firstInt(s)
	if !ok {
		return nil
	}
	d := time.Duration(n) * time.Minute
	return &d
}

// runtime parses the runtime formats the site uses: "142 min", "2h 22min",
// "PT2H22M" and bare minute counts.
func runtime(s string) *time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, p := range []*regexp.Regexp{isoDurationPattern, hourMinutePattern} {
		m := p.FindStringSubmatch(s)
		if m == nil || (m[1] == "" && m[2] == "") {
			continue
		}
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		d := time.Duration(h)*time.Hour + time.Duration(mins)*time.Minute
		return &d
	}
	return minutes(s)
}

// releaseDate parses "2 February 2010 (USA)" into a date. The country
// suffix is optional.
func releaseDate(s string) *time.Time {
	s = collapse(s)
	if m := releaseDatePattern.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// splitList splits a separated list and drops empty entries.
func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := collapse(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
