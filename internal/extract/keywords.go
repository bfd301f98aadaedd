package extract

import (
	"strconv"

	"github.com/IshaanNene/ReelGoat/internal/catalog"
	"github.com/IshaanNene/ReelGoat/internal/parser"
)

// Keywords extracts the plot keyword page. A keyword without vote text
// keeps zero counts.
func Keywords(doc *parser.Node) []catalog.Keyword {
	var out []catalog.Keyword
	for _, cell := range doc.FindAll(`//td[@class="soda sodavote"]`) {
		text := collapse(cell.Find(`div[@class="sodatext"]/a`).Text())
		if text == "" {
			continue
		}
		k := catalog.Keyword{Text: text}
		votes := collapse(cell.Find(`div/div[@class="interesting-count-text"]/a`).Text())
		if match := keywordVotesPattern.FindStringSubmatch(votes); match != nil {
			k.Helpful, _ = strconv.Atoi(match[1])
			k.Total, _ = strconv.Atoi(match[2])
		}
		out = append(out, k)
	}
	return out
}
