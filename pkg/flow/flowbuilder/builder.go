//nolint:revive // exported
package flowbuilder

import (
	"fmt"
	"log/slog"

	"github.com/the-dev-tools/jsonflow/pkg/flow/node"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node/nequality"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node/nevaluator"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node/nfetch"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node/nloop"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node/nstart"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node/ntext"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node/nvalidity"
	"github.com/the-dev-tools/jsonflow/pkg/httpclient"
	"github.com/the-dev-tools/jsonflow/pkg/idwrap"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

type Builder struct {
	HttpClient httpclient.HttpClient
	Logger     *slog.Logger
}

func New(client httpclient.HttpClient, logger *slog.Logger) *Builder {
	return &Builder{HttpClient: client, Logger: logger}
}

// Registry returns the handler for every node kind.
func (b *Builder) Registry() node.Registry {
	return node.NewRegistry(
		nstart.New(),
		ntext.New(),
		nfetch.New(b.HttpClient),
		nevaluator.New(),
		nloop.New(),
		nvalidity.New(),
		nequality.New(),
	)
}

// NewNode creates a node with an id of the form <kind>_<ulid> and the kind's
// default data.
func NewNode(kind mflow.NodeKind, pos mflow.Position) mflow.Node {
	return mflow.Node{
		ID:       idwrap.NewPrefixed(string(kind)),
		Kind:     kind,
		Position: pos,
		Data:     defaultData(kind),
	}
}

func defaultData(kind mflow.NodeKind) mflow.NodeData {
	switch kind {
	case mflow.NodeKindTextSource:
		return mflow.NodeData{mflow.DataKeyLabel: ""}
	case mflow.NodeKindValidity:
		return mflow.NodeData{mflow.DataKeyInputs: 1}
	case mflow.NodeKindEquality:
		return mflow.NodeData{mflow.DataKeyKey: "", mflow.DataKeyExpectedType: nequality.DefaultExpectedType}
	default:
		return mflow.NodeData{}
	}
}

func edge(source, sourceHandle, target, targetHandle string) mflow.Edge {
	return mflow.NewEdge(idwrap.NewPrefixed("edge"), source, sourceHandle, target, targetHandle)
}

// PresetURL is the sample endpoint placed in the preset's text node.
const PresetURL = "https://jsonplaceholder.typicode.com/users"

// PresetGetFlow builds the canned fetch pipeline anchored at (x, y): start,
// text -> fetch -> evaluator, a loop and a validity check on the evaluator's
// element ports and an equality check on the raw fetch output.
func PresetGetFlow(x, y float64) mflow.Flow {
	at := func(dx, dy float64) mflow.Position { return mflow.Position{X: x + dx, Y: y + dy} }

	start := NewNode(mflow.NodeKindStart, at(-300, 0))
	text := NewNode(mflow.NodeKindTextSource, at(0, 0))
	text.Data[mflow.DataKeyLabel] = PresetURL
	fetch := NewNode(mflow.NodeKindFetch, at(300, 0))
	eval := NewNode(mflow.NodeKindResponseEvaluator, at(600, 0))
	loop := NewNode(mflow.NodeKindLoop, at(900, -200))
	valid := NewNode(mflow.NodeKindValidity, at(900, 0))
	equal := NewNode(mflow.NodeKindEquality, at(900, 200))
	equal.Data[mflow.DataKeyKey] = "email"

	return mflow.Flow{
		Nodes: []mflow.Node{start, text, fetch, eval, loop, valid, equal},
		Edges: []mflow.Edge{
			edge(start.ID, mflow.HandleOut, text.ID, ""),
			edge(text.ID, mflow.HandleOut, fetch.ID, mflow.HandleEndpoint),
			edge(fetch.ID, mflow.ResponseKey(0), eval.ID, mflow.HandleTop),
			edge(eval.ID, "[0].id", loop.ID, mflow.HandleArray),
			edge(eval.ID, "[0].email", valid.ID, mflow.InputHandle(0)),
			edge(fetch.ID, mflow.ResponseKey(0), equal.ID, mflow.HandleInput),
		},
	}
}

// Describe is a one-line summary used by hosts when listing a flow.
func Describe(flow mflow.Flow) string {
	return fmt.Sprintf("%d node(s), %d edge(s)", len(flow.Nodes), len(flow.Edges))
}
