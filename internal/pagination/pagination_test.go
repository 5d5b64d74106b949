package pagination

import "testing"

func TestScatterPattern(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"", "%"},
		{"a", "%a%"},
		{"abc", "%a%b%c%"},
		{"tUn", "%t%U%n%"},
		{"héllo", "%h%é%l%l%o%"},
	}
	for _, tc := range cases {
		if got := ScatterPattern(tc.query); got != tc.want {
			t.Errorf("ScatterPattern(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestDirectionSQL(t *testing.T) {
	if ASC.SQL() != "ASC" {
		t.Errorf("ASC.SQL() = %q", ASC.SQL())
	}
	if DESC.SQL() != "DESC" {
		t.Errorf("DESC.SQL() = %q", DESC.SQL())
	}
	if Direction("").SQL() != "ASC" {
		t.Errorf("zero direction should default to ASC")
	}
}
