//nolint:revive // exported
package ntext

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/the-dev-tools/jsonflow/pkg/errmap"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node"
	"github.com/the-dev-tools/jsonflow/pkg/jsonvalue"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

var lineSeparator = regexp.MustCompile(`[\n,]+`)

type NodeText struct{}

func New() *NodeText {
	return &NodeText{}
}

func (n NodeText) Kind() mflow.NodeKind {
	return mflow.NodeKindTextSource
}

func (n NodeText) Run(ctx context.Context, req *node.FlowNodeRequest) node.FlowNodeResult {
	self, err := req.Node()
	if err != nil {
		return node.Failed(err)
	}
	texts, err := Texts(self.Data[mflow.DataKeyLabel])
	if err != nil {
		return node.Failed(err)
	}
	lines := Lines(texts)
	return node.FlowNodeResult{Status: fmt.Sprintf("%d line(s)", len(lines))}
}

// Texts flattens a label into its strings. A label is a string, a list or an
// object; non-string entries of a list or object are skipped. Object values
// are taken in key order. A missing label is empty.
func Texts(label any) ([]string, error) {
	switch v := label.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out, nil
	case map[string]any:
		out := make([]string, 0, len(v))
		for _, k := range jsonvalue.SortedKeys(v) {
			if s, ok := v[k].(string); ok {
				out = append(out, s)
			}
		}
		return out, nil
	case mflow.NodeData:
		return Texts(map[string]any(v))
	default:
		return nil, errmap.ShapeMismatch("label is not text")
	}
}

// Lines splits texts on newlines and commas and drops blank entries.
func Lines(texts []string) []string {
	var out []string
	for _, t := range texts {
		for _, part := range lineSeparator.Split(t, -1) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
