package trakt

import (
	"encoding/json"
	"net/url"
	"testing"
)

func TestPresent(t *testing.T) {
	var nilPtr *int
	zero := 0
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, false},
		{"empty string", "", false},
		{"false", false, false},
		{"empty slice", []string{}, false},
		{"nil pointer", nilPtr, false},
		{"zero int", 0, true},
		{"zero float", 0.0, true},
		{"zero json number", json.Number("0"), true},
		{"pointer to zero", &zero, true},
		{"true", true, true},
		{"string", "x", true},
		{"list", []string{"a"}, true},
		{"map", map[string]any{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := present(tt.v); got != tt.want {
				t.Errorf("present(%#v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, false},
		{"empty string", "", false},
		{"false", false, false},
		{"zero int", 0, false},
		{"zero int64", int64(0), false},
		{"zero uint", uint(0), false},
		{"zero float", 0.0, false},
		{"zero json number", json.Number("0"), false},
		{"one", 1, true},
		{"negative float", -0.5, true},
		{"json number", json.Number("7"), true},
		{"empty list", []any{}, true},
		{"empty map", map[string]any{}, true},
		{"string", "hi", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truthy(tt.v); got != tt.want {
				t.Errorf("truthy(%#v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	n := 42
	tests := []struct {
		v    any
		want string
	}{
		{"abc", "abc"},
		{12, "12"},
		{int64(-3), "-3"},
		{1.5, "1.5"},
		{float64(2), "2"},
		{json.Number("1390"), "1390"},
		{true, "true"},
		{[]string{"a", "b"}, "a,b"},
		{[]any{"x", 2, 0.25}, "x,2,0.25"},
		{[]int{1, 2, 3}, "1,2,3"},
		{&n, "42"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.v); got != tt.want {
			t.Errorf("formatValue(%#v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestEncodeComponent(t *testing.T) {
	tests := map[string]string{
		"tron legacy": "tron%20legacy",
		"a/b":         "a%2Fb",
		"x=y&z":       "x%3Dy%26z",
		"1+1":         "1%2B1",
		"what?":       "what%3F",
		"plain-text_": "plain-text_",
		"it's (a)!*~": "it's%20(a)!*~",
		"100%":        "100%25",
	}
	for in, want := range tests {
		got := encodeComponent(in)
		if got != want {
			t.Errorf("encodeComponent(%q) = %q, want %q", in, got, want)
		}
		if back, err := url.QueryUnescape(got); err != nil || back != in {
			t.Errorf("QueryUnescape(%q) = %q, %v; want %q", got, back, err, in)
		}
	}
}

func TestParams_Lookup(t *testing.T) {
	p := Params{"id": 0, "name": "", "flag": false, "title": "x"}

	if v, ok := p.Lookup("id"); !ok || v != 0 {
		t.Errorf("Lookup(id) = %v, %v", v, ok)
	}
	for _, name := range []string{"name", "flag", "missing"} {
		if _, ok := p.Lookup(name); ok {
			t.Errorf("Lookup(%s) reported present", name)
		}
	}

	if (Params{}).pagination() {
		t.Error("pagination() true without the parameter")
	}
	if (Params{ParamPagination: false}).pagination() {
		t.Error("pagination() true for false")
	}
	if !(Params{ParamPagination: true}).pagination() {
		t.Error("pagination() false for true")
	}
	var nilParams Params
	if _, ok := nilParams.Lookup("id"); ok {
		t.Error("Lookup on nil Params reported present")
	}
}

func TestFilters_Params(t *testing.T) {
	f := Filters{
		Query:  "tron",
		Years:  "2010-2012",
		Genres: []string{"action", "sci-fi"},
		Status: []string{"ended"},
	}
	got := f.Params()
	want := Params{
		"query":  "tron",
		"years":  "2010-2012",
		"genres": "action,sci-fi",
		"status": "ended",
	}
	if len(got) != len(want) {
		t.Fatalf("Params() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Params()[%s] = %v, want %v", k, got[k], v)
		}
	}

	if p := (Filters{}).Params(); len(p) != 0 {
		t.Errorf("empty Filters.Params() = %v", p)
	}
}

func TestFilters_With(t *testing.T) {
	base := Params{"type": "movie", "query": "old", "page": 2}
	merged := Filters{Query: "new", Genres: []string{"drama"}}.With(base)

	if merged["query"] != "new" || merged["genres"] != "drama" || merged["type"] != "movie" || merged["page"] != 2 {
		t.Errorf("With() = %v", merged)
	}
	if base["query"] != "old" {
		t.Error("With() modified its argument")
	}

	ep := Endpoint{Method: "GET", URL: "/search/:type?query", Opts: Options{Pagination: true}}
	got, err := Bind(ep, merged)
	if err != nil {
		t.Fatal(err)
	}
	if want := "/search/movie?query=new&genres=drama&page=2"; got != want {
		t.Errorf("Bind() = %q, want %q", got, want)
	}
}
