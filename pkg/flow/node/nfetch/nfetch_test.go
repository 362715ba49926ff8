package nfetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/jsonflow/pkg/errmap"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node"
	"github.com/the-dev-tools/jsonflow/pkg/flow/node/nfetch"
	"github.com/the-dev-tools/jsonflow/pkg/flowgraph"
	"github.com/the-dev-tools/jsonflow/pkg/httpclient"
	"github.com/the-dev-tools/jsonflow/pkg/jsonvalue"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

func setup(label any, extra mflow.NodeData) *node.FlowNodeRequest {
	data := mflow.NodeData{}
	for k, v := range extra {
		data[k] = v
	}
	g := flowgraph.New(mflow.Flow{
		Nodes: []mflow.Node{
			{ID: "text", Kind: mflow.NodeKindTextSource, Data: mflow.NodeData{"label": label}},
			{ID: "fetch", Kind: mflow.NodeKindFetch, Data: data},
		},
		Edges: []mflow.Edge{mflow.NewEdge("e", "text", "out", "fetch", mflow.HandleEndpoint)},
	})
	return &node.FlowNodeRequest{Graph: g, NodeID: "fetch"}
}

func TestURLs(t *testing.T) {
	got, err := nfetch.URLs("https://a.test/x, ftp://nope\n http://b.test ,not a url")
	require.NoError(t, err)
	require.Equal(t, []string{"https://a.test/x", "http://b.test"}, got)

	got, err = nfetch.URLs([]any{"https://a.test", "https://b.test,https://c.test"})
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestRunSequentialOrderPreserved(t *testing.T) {
	var (
		mu       sync.Mutex
		inFlight int
		maxSeen  int
		order    []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		inFlight++
		maxSeen = max(maxSeen, inFlight)
		order = append(order, r.URL.Path)
		mu.Unlock()
		defer func() {
			mu.Lock()
			inFlight--
			mu.Unlock()
		}()

		switch r.URL.Path {
		case "/slow-fail":
			time.Sleep(50 * time.Millisecond)
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `"}`))
		}
	}))
	defer srv.Close()

	label := strings.Join([]string{srv.URL + "/one", srv.URL + "/slow-fail", srv.URL + "/three"}, "\n")
	req := setup(label, mflow.NodeData{"response_7": "stale"})

	res := nfetch.New(httpclient.New(0)).Run(context.Background(), req)
	require.Equal(t, "fetched 3 URL(s), 1 failed", res.Status)
	require.True(t, errmap.Is(res.Err, errmap.CodeTransportFailure))
	require.Equal(t, 1, maxSeen)
	require.Equal(t, []string{"/one", "/slow-fail", "/three"}, order)

	n, ok := req.Graph.Node("fetch")
	require.True(t, ok)
	require.JSONEq(t, `{"path":"/one"}`, n.Data["response_0"].(string))
	require.JSONEq(t, `{"error":"HTTP 500"}`, n.Data["response_1"].(string))
	require.JSONEq(t, `{"path":"/three"}`, n.Data["response_2"].(string))
	require.NotContains(t, n.Data, "response_7")
}

func TestRunInvalidBodyAndTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	addr := srv.URL
	srv.Close()

	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer live.Close()

	req := setup(live.URL+","+addr, nil)
	res := nfetch.New(nil).Run(context.Background(), req)
	require.Equal(t, "fetched 2 URL(s), 2 failed", res.Status)

	n, _ := req.Graph.Node("fetch")
	require.JSONEq(t, `{"error":"invalid JSON body"}`, n.Data["response_0"].(string))

	v, err := jsonvalue.Parse(n.Data["response_1"].(string))
	require.NoError(t, err)
	msg := v.(map[string]any)["error"].(string)
	require.NotEmpty(t, msg)
}

func TestRunNoURLs(t *testing.T) {
	res := nfetch.New(nil).Run(context.Background(), setup("just words", nil))
	require.True(t, errmap.Is(res.Err, errmap.CodeMissingConnection))
	require.Equal(t, "no URLs", res.Status)
}

func TestRunNoConnection(t *testing.T) {
	g := flowgraph.New(mflow.Flow{Nodes: []mflow.Node{{ID: "fetch", Kind: mflow.NodeKindFetch}}})
	res := nfetch.New(nil).Run(context.Background(), &node.FlowNodeRequest{Graph: g, NodeID: "fetch"})
	require.Equal(t, "no connection", res.Status)
}

func TestRunCanceledKeepsPositions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := setup("https://a.test,https://b.test", nil)
	res := nfetch.New(nil).Run(ctx, req)
	require.ErrorIs(t, res.Err, context.Canceled)

	n, _ := req.Graph.Node("fetch")
	require.Contains(t, n.Data, "response_0")
	require.Contains(t, n.Data, "response_1")
}

func TestLateWriteToDeletedNode(t *testing.T) {
	req := setup("", nil)
	release := make(chan struct{})
	arrived := make(chan struct{})
	var once sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(arrived) })
		<-release
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	req.Graph.UpdateNodeData("text", func(d mflow.NodeData) { d["label"] = srv.URL })

	done := make(chan node.FlowNodeResult)
	go func() { done <- nfetch.New(nil).Run(context.Background(), req) }()

	<-arrived
	require.True(t, req.Graph.RemoveNode("fetch"))
	close(release)

	res := <-done
	require.NoError(t, res.Err)
	_, ok := req.Graph.Node("fetch")
	require.False(t, ok)
}
