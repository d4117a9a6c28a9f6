package trakt

import (
	"context"
	"maps"
	"slices"
	"strings"
)

// Method is one callable API endpoint. It owns a private copy of its
// endpoint, so changes to the table it was built from do not affect it.
type Method struct {
	name     string
	endpoint Endpoint
	client   *Client
}

// Name returns the method's canonical path, e.g. "shows/summary".
func (m *Method) Name() string {
	return m.name
}

// Endpoint returns a copy of the method's endpoint.
func (m *Method) Endpoint() Endpoint {
	return m.endpoint.Clone()
}

// Call invokes the endpoint with params.
func (m *Method) Call(ctx context.Context, params Params) (*Result, error) {
	return m.client.call(ctx, m, params)
}

// URL binds params without sending anything.
func (m *Method) URL(params Params) (string, error) {
	return m.client.bind(m, params)
}

// Namespace is a node of the method tree. A node can hold a method and
// child namespaces at the same time.
type Namespace struct {
	name     string
	path     string
	children map[string]*Namespace
	method   *Method
}

func newNamespace(name, path string) *Namespace {
	return &Namespace{name: name, path: path, children: map[string]*Namespace{}}
}

// Name returns the last path segment of the node ("" for the root).
func (n *Namespace) Name() string {
	if n == nil {
		return ""
	}
	return n.name
}

// Path returns the node's full path.
func (n *Namespace) Path() string {
	if n == nil {
		return ""
	}
	return n.path
}

// Sub returns the named child, or nil.
func (n *Namespace) Sub(name string) *Namespace {
	if n == nil {
		return nil
	}
	return n.children[name]
}

// Method returns the method stored at the named child, or nil.
func (n *Namespace) Method(name string) *Method {
	return n.Sub(name).Callable()
}

// Callable returns the method stored at this node, or nil.
func (n *Namespace) Callable() *Method {
	if n == nil {
		return nil
	}
	return n.method
}

// Children returns the names of the child namespaces, sorted.
func (n *Namespace) Children() []string {
	if n == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(n.children))
}

// Lookup walks a "/" or "." separated path from n.
func (n *Namespace) Lookup(path string) *Namespace {
	cur := n
	for _, seg := range splitPath(path) {
		cur = cur.Sub(seg)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// MethodName returns the canonical name of a table key, so that
// "/shows/summary" and "shows.summary" both become "shows/summary".
func MethodName(key string) string {
	return strings.Join(splitPath(key), "/")
}

func splitPath(key string) []string {
	return strings.FieldsFunc(key, func(r rune) bool { return r == '/' || r == '.' })
}

// buildNamespace creates one method per table entry, creating intermediate
// namespaces as needed.
func buildNamespace(c *Client, t Table) (*Namespace, map[string]*Method) {
	root := newNamespace("", "")
	methods := make(map[string]*Method, len(t))
	for _, key := range t.Keys() {
		segs := splitPath(key)
		if len(segs) == 0 {
			continue
		}
		node := root
		for i, seg := range segs {
			child, ok := node.children[seg]
			if !ok {
				child = newNamespace(seg, strings.Join(segs[:i+1], "/"))
				node.children[seg] = child
			}
			node = child
		}
		m := &Method{
			name:     node.path,
			endpoint: t[key].Clone(),
			client:   c,
		}
		node.method = m
		methods[m.name] = m
	}
	return root, methods
}
