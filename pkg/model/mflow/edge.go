//nolint:revive // exported
package mflow

import (
	"errors"
	"strconv"
	"strings"
)

// Fixed handle names. Dynamic handles are path expressions.
const (
	HandleTop      = "top"
	HandleArray    = "array"
	HandleEndpoint = "endpoint"
	HandleInput    = "input"
	HandleOut      = "out"
)

// InputHandle and OutHandle name the indexed ports of a validity node.
func InputHandle(i int) string { return HandleInput + "_" + strconv.Itoa(i) }

func OutHandle(i int) string { return HandleOut + "_" + strconv.Itoa(i) }

// ParseInputHandle reports the index of an "input_<i>" handle.
func ParseInputHandle(h string) (int, bool) {
	rest, ok := strings.CutPrefix(h, HandleInput+"_")
	if !ok || rest == "" || rest[0] < '0' || rest[0] > '9' {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil || strconv.Itoa(i) != rest {
		return 0, false
	}
	return i, true
}

var ErrEdgeNotFound = errors.New("edge not found")

type Edge struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	Target       string `json:"target" yaml:"target"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
}

func NewEdge(id, source, sourceHandle, target, targetHandle string) Edge {
	return Edge{
		ID:           id,
		Source:       source,
		SourceHandle: sourceHandle,
		Target:       target,
		TargetHandle: targetHandle,
	}
}

// HandleDirection selects which end of an edge a handle belongs to.
type HandleDirection int8

const (
	HandleSource HandleDirection = iota
	HandleTarget
)

// Touches reports whether the edge is attached to nodeID's handle on the given side.
func (e Edge) Touches(nodeID, handle string, dir HandleDirection) bool {
	if dir == HandleSource {
		return e.Source == nodeID && e.SourceHandle == handle
	}
	return e.Target == nodeID && e.TargetHandle == handle
}

// Flow is the node/edge snapshot exchanged with hosts.
type Flow struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

func (f Flow) Clone() Flow {
	out := Flow{
		Nodes: make([]Node, len(f.Nodes)),
		Edges: append([]Edge(nil), f.Edges...),
	}
	for i, n := range f.Nodes {
		out.Nodes[i] = n.Clone()
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	return out
}

func (f Flow) NodeByID(id string) (Node, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
