//nolint:revive // exported
package mflow

import (
	"fmt"
	"strconv"
	"strings"
)

type NodeKind string

const (
	NodeKindStart             NodeKind = "start"
	NodeKindTextSource        NodeKind = "text"
	NodeKindFetch             NodeKind = "fetch"
	NodeKindResponseEvaluator NodeKind = "evaluator"
	NodeKindValidity          NodeKind = "validity"
	NodeKindEquality          NodeKind = "equality"
	NodeKindLoop              NodeKind = "loop"
)

var NodeKinds = []NodeKind{
	NodeKindStart,
	NodeKindTextSource,
	NodeKindFetch,
	NodeKindResponseEvaluator,
	NodeKindValidity,
	NodeKindEquality,
	NodeKindLoop,
}

func ParseNodeKind(s string) (NodeKind, error) {
	for _, k := range NodeKinds {
		if string(k) == strings.ToLower(strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown node kind %q", s)
}

type NodeState = int8

const (
	NODE_STATE_UNSPECIFIED NodeState = 0
	NODE_STATE_RUNNING     NodeState = 1
	NODE_STATE_SUCCESS     NodeState = 2
	NODE_STATE_FAILURE     NodeState = 3
	NODE_STATE_CANCELED    NodeState = 4
)

func StringNodeState(a NodeState) string {
	return [...]string{"Unspecified", "Running", "Success", "Failure", "Canceled"}[a]
}

func StringNodeStateWithIcons(a NodeState) string {
	return [...]string{"🔄 Starting", "⏳ Running", "✅ Success", "❌ Failed", "Canceled"}[a]
}

// Conventional data bag keys.
const (
	DataKeyResponse     = "response"
	DataKeyLabel        = "label"
	DataKeyStatus       = "status"
	DataKeyInputs       = "inputs"
	DataKeyStatuses     = "statuses"
	DataKeyKey          = "key"
	DataKeyExpectedType = "expectedType"
)

const responseKeyPrefix = "response_"

// ResponseKey names the i-th indexed output of a multi-output node.
func ResponseKey(i int) string {
	return responseKeyPrefix + strconv.Itoa(i)
}

// ParseResponseKey reports the index of a "response_<i>" key.
func ParseResponseKey(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, responseKeyPrefix)
	if !ok || rest == "" || rest[0] < '0' || rest[0] > '9' {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NodeData is the open data bag of a node.
type NodeData map[string]any

type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Kind     NodeKind `json:"kind" yaml:"kind"`
	Position Position `json:"position" yaml:"position"`
	Data     NodeData `json:"data,omitempty" yaml:"data,omitempty"`
}

// String returns the string stored under key, if any.
func (d NodeData) String(key string) (string, bool) {
	if d == nil {
		return "", false
	}
	s, ok := d[key].(string)
	return s, ok
}

// Response returns the node's primary JSON output.
func (d NodeData) Response() string {
	s, _ := d.String(DataKeyResponse)
	return s
}

// Int reads an integer that may have been decoded as float64, int or json text.
func (d NodeData) Int(key string) (int, bool) {
	if d == nil {
		return 0, false
	}
	switch v := d[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		i, err := strconv.Atoi(v)
		return i, err == nil
	}
	return 0, false
}

// InputCount is the number of input_<i> ports on a validity node, never below 1.
func (d NodeData) InputCount() int {
	n, ok := d.Int(DataKeyInputs)
	if !ok || n < 1 {
		return 1
	}
	return n
}

func (d NodeData) Clone() NodeData {
	if d == nil {
		return nil
	}
	return NodeData(cloneMap(d))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep copies maps and slices of a decoded JSON value.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case NodeData:
		return NodeData(cloneMap(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return val
	}
}

func (n Node) Clone() Node {
	n.Data = n.Data.Clone()
	return n
}
