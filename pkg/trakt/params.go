package trakt

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
)

// Params are the values passed to a method call: path placeholders,
// declared query names, filters, page/limit, extended and the per-call
// "pagination" override.
//
// A value of 0 is present. nil, "" and false are absent.
type Params map[string]any

// Reserved parameter names.
const (
	ParamPage       = "page"
	ParamLimit      = "limit"
	ParamExtended   = "extended"
	ParamPagination = "pagination"
)

// filterNames is the fixed allow-list of filter query parameters, in the
// order they are appended.
var filterNames = []string{
	"query", "years", "genres", "languages", "countries",
	"runtimes", "ratings", "certifications", "networks", "status",
}

// Lookup returns the named value and whether it is present.
func (p Params) Lookup(name string) (any, bool) {
	v, ok := p[name]
	if !ok || !present(v) {
		return nil, false
	}
	return v, true
}

// pagination reports whether the call asked for a pagination envelope.
func (p Params) pagination() bool {
	_, ok := p.Lookup(ParamPagination)
	return ok
}

// present reports whether v counts as supplied. Numeric zero is a real
// value (an id of 0), unlike nil, "" and false.
func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return present(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		return rv.Len() > 0
	}
	return true
}

// truthy mirrors the body pruning rule: zero numbers are dropped there,
// empty collections are kept.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// formatValue renders a parameter the way it appears in a URL. Lists are
// joined with commas.
func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case []string:
		return strings.Join(t, ",")
	case fmt.Stringer:
		return t.String()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = formatValue(rv.Index(i).Interface())
		}
		return strings.Join(parts, ",")
	case reflect.Pointer:
		if rv.IsNil() {
			return ""
		}
		return formatValue(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

// componentUnescaper undoes the escapes url.QueryEscape applies that
// encodeURIComponent does not.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent percent-encodes s like encodeURIComponent: reserved
// characters are escaped, a space becomes %20, and A-Z a-z 0-9 - _ . ! ~ * ' ( )
// are left as is.
func encodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// Filters is a typed form of the filter allow-list.
type Filters struct {
	Query          string   `schema:"query,omitempty"`
	Years          string   `schema:"years,omitempty"`
	Genres         []string `schema:"genres,omitempty"`
	Languages      []string `schema:"languages,omitempty"`
	Countries      []string `schema:"countries,omitempty"`
	Runtimes       string   `schema:"runtimes,omitempty"`
	Ratings        string   `schema:"ratings,omitempty"`
	Certifications []string `schema:"certifications,omitempty"`
	Networks       []string `schema:"networks,omitempty"`
	Status         []string `schema:"status,omitempty"`
}

var filterEncoder = schema.NewEncoder()

// Params converts the filters into call parameters. Multi-valued filters
// become comma-joined lists.
func (f Filters) Params() Params {
	vals := url.Values{}
	if err := filterEncoder.Encode(f, vals); err != nil {
		// Filters only has string and []string fields.
		panic(fmt.Sprintf("trakt: encode filters: %v", err))
	}
	p := make(Params, len(vals))
	for k, v := range vals {
		p[k] = strings.Join(v, ",")
	}
	return p
}

// With returns a copy of p with the filters merged in. Filter values win.
func (f Filters) With(p Params) Params {
	out := make(Params, len(p)+len(filterNames))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range f.Params() {
		out[k] = v
	}
	return out
}
