package extract

import (
	"strings"

	"github.com/IshaanNene/ReelGoat/internal/catalog"
	"github.com/IshaanNene/ReelGoat/internal/parser"
)

// CreditRole is the record list a credits table is filed under.
type CreditRole int

const (
	RoleOther CreditRole = iota
	RoleDirector
	RoleWriter
	RoleCast
	RoleProducer
	RoleComposer
)

// creditHeadings is checked in order; the first keyword contained in a
// table heading decides its role. "Cast " keeps its trailing space so that
// "Casting By" falls through to other crew.
var creditHeadings = []struct {
	keyword string
	role    CreditRole
}{
	{"Directed", RoleDirector},
	{"Writing", RoleWriter},
	{"Cast ", RoleCast},
	{"Produced", RoleProducer},
	{"Music by", RoleComposer},
}

const (
	creditTablesQuery = `//table[@class="simpleTable simpleCreditsTable"]/tbody | //table[@class="cast_list"]`
	creditCellsQuery  = `.//tr/td[@class="name"] | .//tr/td[@itemprop="actor"]`
)

// RoleForHeading classifies a credits table heading.
func RoleForHeading(heading string) CreditRole {
	for _, h := range creditHeadings {
		if strings.Contains(heading, h.keyword) {
			return h.role
		}
	}
	return RoleOther
}

// Credits extracts the full-credits page into a record holding only the
// credit lists.
func Credits(doc *parser.Node) *catalog.Movie {
	m := &catalog.Movie{}
	for _, table := range doc.FindAll(creditTablesQuery) {
		var credits []catalog.Credit
		for _, cell := range table.FindAll(creditCellsQuery) {
			name := collapse(cell.Text())
			if name == "" {
				continue
			}
			c := catalog.Credit{Name: name}
			if a := cell.Find(`.//a[@href]`); a != nil {
				c.ID = personID(a.Attr("href"))
			}
			credits = append(credits, c)
		}
		if len(credits) == 0 {
			continue
		}

		switch RoleForHeading(creditHeading(table)) {
		case RoleDirector:
			m.Directors = append(m.Directors, credits...)
		case RoleWriter:
			m.Writers = append(m.Writers, credits...)
		case RoleCast:
			m.Cast = append(m.Cast, credits...)
		case RoleProducer:
			m.Producers = append(m.Producers, credits...)
		case RoleComposer:
			m.Composers = append(m.Composers, credits...)
		default:
			m.OtherCrew = append(m.OtherCrew, credits...)
		}
	}
	return m
}

// creditHeading finds the h4 that labels a credits table: the table's own
// preceding sibling, or for a tbody the one preceding its table. Only
// newlines are removed, so a bare "Cast" heading does not contain "Cast ".
func creditHeading(table *parser.Node) string {
	prev := table.PrevElement()
	if prev.Tag() != "h4" {
		prev = table.Parent().PrevElement()
	}
	return strings.ReplaceAll(prev.RawText(), "\n", "")
}
