package trakt

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDefaultSanitizer(t *testing.T) {
	tests := map[string]string{
		"Tron":                           "Tron",
		"<b>Tron</b>":                    "Tron",
		"<script>alert(1)</script>Legacy": "Legacy",
		`<a href="javascript:x">link</a>`: "link",
	}
	for in, want := range tests {
		if got := DefaultSanitizer(in); got != want {
			t.Errorf("DefaultSanitizer(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitize(t *testing.T) {
	in := map[string]any{
		"<k>":     "<i>v</i>",
		"n":       json.Number("3"),
		"ok":      true,
		"missing": nil,
		"list":    []any{"a", map[string]any{"deep": "b"}, 1.5},
	}

	got := Sanitize(in, strings.ToUpper)
	want := map[string]any{
		"<k>":     "<I>V</I>",
		"n":       json.Number("3"),
		"ok":      true,
		"missing": nil,
		"list":    []any{"A", map[string]any{"deep": "B"}, 1.5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sanitize() = %#v, want %#v", got, want)
	}
	if in["<k>"] != "<i>v</i>" {
		t.Error("Sanitize() modified its input")
	}
}

func TestSanitize_NilFunc(t *testing.T) {
	in := []any{"<b>x</b>"}
	got := Sanitize(in, nil)
	if !reflect.DeepEqual(got, in) {
		t.Errorf("Sanitize(nil fn) = %#v", got)
	}
}
