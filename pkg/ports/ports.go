// Package ports derives the output ports a node exposes. Dynamic ports come
// from the shape of the node's JSON payload; fixed ports come from its kind.
package ports

import (
	"sort"

	"github.com/tidwall/gjson"

	"github.com/the-dev-tools/jsonflow/pkg/jsonpath"
	"github.com/the-dev-tools/jsonflow/pkg/jsonvalue"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

// Port is one output handle. Path doubles as the handle id.
type Port struct {
	Path      string `json:"path"`
	Label     string `json:"label"`
	Container bool   `json:"container,omitempty"`
	Depth     int    `json:"depth"`
}

// Expanded is the set of container paths whose children are shown. It is
// view state held per node by the host and never written into node data.
type Expanded map[string]bool

// Toggle flips path and returns its new state.
func (e Expanded) Toggle(path string) bool {
	if e[path] {
		delete(e, path)
		return false
	}
	e[path] = true
	return true
}

func (e Expanded) Expand(path string)   { e[path] = true }
func (e Expanded) Collapse(path string) { delete(e, path) }
func (e Expanded) Has(path string) bool { return e[path] }

// NewExpanded builds a set from paths.
func NewExpanded(paths ...string) Expanded {
	e := make(Expanded, len(paths))
	for _, p := range paths {
		e.Expand(p)
	}
	return e
}

// Derive lists the top-level keys of raw in document order, recursing into
// expanded containers. Arrays are described by their first element, whose
// keys appear under "key[0].sub". Malformed or empty text yields no ports.
func Derive(raw string, expanded Expanded) []Port {
	if !gjson.Valid(raw) {
		return nil
	}
	doc := gjson.Parse(raw)
	var out []Port
	switch {
	case doc.IsObject():
		walk(doc, "", 0, expanded, &out)
	case doc.IsArray():
		if first := doc.Get("0"); first.IsObject() {
			walk(first, jsonpath.Index("", 0), 0, expanded, &out)
		}
	}
	return out
}

func walk(obj gjson.Result, parent string, depth int, expanded Expanded, out *[]Port) {
	obj.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		path := jsonpath.Join(parent, k)
		label := k
		if depth == 0 {
			label = path
		}
		container := value.IsObject() || value.IsArray()
		*out = append(*out, Port{Path: path, Label: label, Container: container, Depth: depth})

		if !container || !expanded.Has(path) {
			return true
		}
		if value.IsArray() {
			if first := value.Get("0"); first.IsObject() {
				walk(first, jsonpath.Index(path, 0), depth+1, expanded, out)
			}
			return true
		}
		walk(value, path, depth+1, expanded, out)
		return true
	})
}

// ForNode returns the output ports of n.
func ForNode(n mflow.Node, expanded Expanded) []Port {
	switch n.Kind {
	case mflow.NodeKindResponseEvaluator:
		return Derive(jsonvalue.Text(n.Data[mflow.DataKeyResponse]), expanded)
	case mflow.NodeKindFetch:
		return responsePorts(n.Data)
	case mflow.NodeKindLoop:
		return []Port{fixed(mflow.DataKeyResponse)}
	case mflow.NodeKindTextSource, mflow.NodeKindStart:
		return []Port{fixed(mflow.HandleOut)}
	case mflow.NodeKindValidity:
		count := n.Data.InputCount()
		out := make([]Port, count)
		for i := range out {
			out[i] = fixed(mflow.OutHandle(i))
		}
		return out
	default:
		return nil
	}
}

func fixed(id string) Port {
	return Port{Path: id, Label: id}
}

func responsePorts(data mflow.NodeData) []Port {
	var idx []int
	for k := range data {
		if i, ok := mflow.ParseResponseKey(k); ok {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	out := make([]Port, len(idx))
	for j, i := range idx {
		out[j] = fixed(mflow.ResponseKey(i))
	}
	return out
}

// Inputs returns the fixed input handles of n.
func Inputs(n mflow.Node) []string {
	switch n.Kind {
	case mflow.NodeKindFetch:
		return []string{mflow.HandleEndpoint}
	case mflow.NodeKindLoop:
		return []string{mflow.HandleArray}
	case mflow.NodeKindEquality:
		return []string{mflow.HandleInput}
	case mflow.NodeKindResponseEvaluator:
		return []string{mflow.HandleTop}
	case mflow.NodeKindValidity:
		count := n.Data.InputCount()
		out := make([]string, count)
		for i := range out {
			out[i] = mflow.InputHandle(i)
		}
		return out
	default:
		return nil
	}
}
