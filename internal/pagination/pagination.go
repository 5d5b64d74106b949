// Package pagination holds the request/response shapes shared by every
// resource listing: skip/take slicing, per-field sort directions, and the
// scatter-match pattern used for text filters.
package pagination

import "strings"

// Direction orders a single sort field.
type Direction string

const (
	ASC  Direction = "asc"
	DESC Direction = "desc"
)

// Asc and Desc are convenience pointers for building sort structs.
func Asc() *Direction  { d := ASC; return &d }
func Desc() *Direction { d := DESC; return &d }

func (d Direction) SQL() string {
	if d == DESC {
		return "DESC"
	}
	return "ASC"
}

// Args slices the ordered full match set. Both values are validated
// non-negative at the transport boundary.
type Args struct {
	Skip int
	Take int
}

// Page is one slice of matching nodes plus the count of all matches
// ignoring Skip/Take. Nodes is never nil.
type Page[T any] struct {
	Nodes      []T `json:"nodes"`
	TotalCount int `json:"total_count"`
}

// ScatterPattern turns a query into a LIKE pattern where every rune of the
// query must appear in order with anything allowed between: "abc" becomes
// "%a%b%c%" and matches "a_b_c"-shaped values. SQLite LIKE is
// case-insensitive for ASCII, which gives the scatter match its
// case-insensitivity.
func ScatterPattern(query string) string {
	var b strings.Builder
	b.WriteByte('%')
	for _, r := range query {
		b.WriteRune(r)
		b.WriteByte('%')
	}
	return b.String()
}
