package trakt

import (
	"net/url"
	"slices"
	"strings"
)

// Bind resolves an endpoint's URL template against params and returns the
// path plus an optional "?"-prefixed query string. It does not touch the
// network and returns the same string for the same inputs.
func Bind(ep Endpoint, params Params) (string, error) {
	pathPart, queryPart, _ := strings.Cut(ep.URL, "?")

	var query []string
	seen := map[string]bool{}
	add := func(name string, v any) {
		entry := name + "=" + encodeComponent(formatValue(v))
		if seen[entry] {
			return
		}
		seen[entry] = true
		query = append(query, entry)
	}

	for _, name := range queryNames(queryPart) {
		if v, ok := params.Lookup(name); ok {
			add(name, v)
		}
	}

	segments := strings.Split(pathPart, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		name, isParam := strings.CutPrefix(seg, ":")
		if !isParam {
			out = append(out, seg)
			continue
		}
		v, ok := params.Lookup(name)
		if !ok {
			if ep.IsOptional(name) {
				continue
			}
			return "", &BindingError{Param: name}
		}
		out = append(out, url.PathEscape(formatValue(v)))
	}

	for _, name := range filterNames {
		if v, ok := params.Lookup(name); ok {
			add(name, v)
		}
	}

	if ep.Opts.Pagination {
		for _, name := range []string{ParamPage, ParamLimit} {
			if v, ok := params.Lookup(name); ok {
				add(name, v)
			}
		}
	}

	if ep.Opts.Extended {
		if v, ok := params.Lookup(ParamExtended); ok {
			add(ParamExtended, v)
		}
	}

	path := strings.Join(out, "/")
	if len(query) == 0 {
		return path, nil
	}
	return path + "?" + strings.Join(query, "&"), nil
}

// queryNames lists the query parameter names declared after "?", accepting
// both "a&b" and "a=&b=".
func queryNames(queryPart string) []string {
	if queryPart == "" {
		return nil
	}
	var names []string
	for _, p := range strings.Split(queryPart, "&") {
		name, _, _ := strings.Cut(p, "=")
		if name != "" && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

// placeholders lists the ":name" segments of an endpoint's path.
func placeholders(ep Endpoint) []string {
	pathPart, _, _ := strings.Cut(ep.URL, "?")
	var names []string
	for _, seg := range strings.Split(pathPart, "/") {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			names = append(names, name)
		}
	}
	return names
}
