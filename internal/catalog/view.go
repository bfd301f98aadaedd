package catalog

import (
	"fmt"
	"strings"

	"github.com/IshaanNene/ReelGoat/internal/types"
)

// ViewKind selects a list layout. Each layout has its own page size and
// node selector.
type ViewKind int

const (
	Compact ViewKind = iota
	Grid
	Detail
)

type viewMeta struct {
	name     string
	interval int
	query    string
}

var views = map[ViewKind]viewMeta{
	Compact: {name: "compact", interval: 250, query: `//tr[@data-item-id]`},
	Grid:    {name: "grid", interval: 100, query: `//div[@class="list_item grid"]`},
	Detail:  {name: "detail", interval: 100, query: `//div[@class="list_item odd"] | //div[@class="list_item even"]`},
}

// Views returns every known view in declaration order.
func Views() []ViewKind {
	return []ViewKind{Compact, Grid, Detail}
}

// String returns the lowercase wire name of the view.
func (v ViewKind) String() string {
	if m, ok := views[v]; ok {
		return m.name
	}
	return fmt.Sprintf("view(%d)", int(v))
}

// Valid reports whether v is a registered view.
func (v ViewKind) Valid() bool {
	_, ok := views[v]
	return ok
}

// IntervalFor returns the number of items a list page of the given view
// holds, or 0 for an unknown view.
func IntervalFor(v ViewKind) int {
	return views[v].interval
}

// QueryFor returns the XPath selecting one node per item for the given view,
// or "" for an unknown view.
func QueryFor(v ViewKind) string {
	return views[v].query
}

// ParseView resolves a case-insensitive view name.
func ParseView(name string) (ViewKind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, v := range Views() {
		if views[v].name == n {
			return v, nil
		}
	}
	return 0, &types.ConfigError{
		Field: "pagination.view",
		Value: name,
		Err:   fmt.Errorf("unknown view (valid: compact, grid, detail)"),
	}
}
