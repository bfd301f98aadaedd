package catalog

import (
	"fmt"
	"strings"
)

// Scale identifies a regional content rating system.
type Scale string

const (
	ScaleUS Scale = "US"
	ScaleNZ Scale = "NZ"
)

// Classification is one code within a rating scale, e.g. {US, PG13}.
type Classification struct {
	Scale Scale  `json:"scale" bson:"scale"`
	Code  string `json:"code"  bson:"code"`
}

type classificationMeta struct {
	code  string
	short string
	long  string
}

// scaleOrder is the resolution order for ParseClassification.
var scaleOrder = []Scale{ScaleUS, ScaleNZ}

var classifications = map[Scale][]classificationMeta{
	ScaleUS: {
		{"G", "General Audiences", "All ages admitted. Nothing that would offend parents for viewing by children."},
		{"PG", "Parental Guidance", `Some material may not be suitable for children. Parents urged to give "parental guidance". May contain some material parents might not like for their young children.`},
		{"PG13", "Parental Guidance 13", "Some material may be inappropriate for children under 13. Parents are urged to be cautious. Some material may be inappropriate for pre-teenagers."},
		{"R", "Restricted", "Under 17 requires accompanying parent or adult guardian. Contains some adult material. Parents are urged to learn more about the film before taking their young children with them."},
		{"NC17", "Adults Only", "No One 17 and Under Admitted. Clearly adult. Children are not admitted."},
	},
	ScaleNZ: {
		{"G", "General", "Suitable for General Audiences. Anyone can be shown or sold this. G films should have very low levels of things like frightening scenes. However, not all G level films are intended for family audiences and it is always a good idea to look at reviews and plot information before taking children to any film"},
		{"PG", "Parental Guidance", "Parental Guidance Recommended for Younger Viewers. Films and games with a PG label can be sold, hired, or shown to anyone. The PG label means guidance from a parent or guardian is recommended for younger viewers. It is important to remember that PG films can be aimed at an adult audience and to be aware of the content of a film if you are taking children to it"},
		{"M", "Mature", "Films and games with an M label can be sold, hired, or shown to anyone. Films with an M label are more suitable for mature audiences. When considering whether to let a child see an M-rated film, it's a good idea to find out what the film is about and to always remember to check the descriptive note."},
		{"R13", "Restricted 13", "Restricted to people over the age of 13"},
		{"R15", "Restricted 15", "Restricted to people over the age of 15"},
		{"R16", "Restricted 16", "Restricted to people over the age of 16"},
		{"R18", "Restricted 18", "Restricted to people over the age of 18"},
	},
}

// ParseClassification resolves a rating label such as "PG-13" or "R16".
// Hyphens and surrounding whitespace are ignored and scales are tried in
// order (US, then NZ). Unrecognized labels return false.
func ParseClassification(label string) (*Classification, bool) {
	code := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(label), "-", ""))
	if code == "" {
		return nil, false
	}
	for _, s := range scaleOrder {
		for _, m := range classifications[s] {
			if m.code == code {
				return &Classification{Scale: s, Code: m.code}, true
			}
		}
	}
	return nil, false
}

// Describe returns the short label and long description of c. Both are
// empty if c is not a registered classification.
func Describe(c Classification) (short, long string) {
	for _, m := range classifications[c.Scale] {
		if m.code == c.Code {
			return m.short, m.long
		}
	}
	return "", ""
}

func (c Classification) String() string {
	return fmt.Sprintf("%s:%s", c.Scale, c.Code)
}
