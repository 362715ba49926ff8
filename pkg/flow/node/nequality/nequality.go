//nolint:revive // exported
package nequality

import (
	"context"
	"fmt"

	"github.com/the-dev-tools/jsonflow/pkg/errmap"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node"
	"github.com/the-dev-tools/jsonflow/pkg/jsonpath"
	"github.com/the-dev-tools/jsonflow/pkg/jsonvalue"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
	"github.com/the-dev-tools/jsonflow/pkg/upstream"
)

const (
	StatusAllEqual = "all equal"
	StatusMismatch = "mismatch"
)

const DefaultExpectedType = jsonvalue.TypeString

var expectedTypes = map[string]bool{
	jsonvalue.TypeString:  true,
	jsonvalue.TypeNumber:  true,
	jsonvalue.TypeBoolean: true,
}

type NodeEquality struct{}

func New() *NodeEquality {
	return &NodeEquality{}
}

func (n NodeEquality) Kind() mflow.NodeKind {
	return mflow.NodeKindEquality
}

// Run checks that every element of the upstream array is an object whose
// value at data.key has data.expectedType.
func (n NodeEquality) Run(ctx context.Context, req *node.FlowNodeRequest) node.FlowNodeResult {
	self, err := req.Node()
	if err != nil {
		return node.Failed(err)
	}
	key, _ := self.Data.String(mflow.DataKeyKey)
	expected, _ := self.Data.String(mflow.DataKeyExpectedType)
	if expected == "" {
		expected = DefaultExpectedType
	}
	if !expectedTypes[expected] {
		return node.Failed(errmap.ShapeMismatch(fmt.Sprintf("unknown expected type %q", expected)))
	}

	in, err := upstream.ResolveInput(req.Graph, req.NodeID, mflow.HandleInput)
	if err != nil {
		return node.Failed(err)
	}
	doc, err := in.Parse()
	if err != nil {
		if errmap.Is(err, errmap.CodeMissingConnection) {
			return node.Failed(err)
		}
		return node.Failed(errmap.ParseFailure("invalid JSON", err))
	}
	v, ok := jsonpath.Resolve(doc, in.Path)
	if !ok {
		return node.Failed(errmap.ShapeMismatch("no valid array"))
	}
	orderRaw, _ := jsonpath.ResolveRaw([]byte(in.Raw), in.Path)
	arr, ok := jsonvalue.FirstArray(v, orderRaw)
	if !ok {
		return node.Failed(errmap.ShapeMismatch("no valid array"))
	}

	if !AllMatch(arr, key, expected) {
		return node.Failed(errmap.ValidationFailure(StatusMismatch))
	}
	return node.FlowNodeResult{Status: StatusAllEqual}
}

// AllMatch reports whether every element is an object with a key of the
// expected JSON type. A missing key is a mismatch.
func AllMatch(arr []any, key, expected string) bool {
	for _, e := range arr {
		obj, ok := e.(map[string]any)
		if !ok {
			return false
		}
		v, ok := obj[key]
		if !ok || jsonvalue.TypeOf(v) != expected {
			return false
		}
	}
	return true
}
