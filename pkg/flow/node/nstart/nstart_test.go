package nstart_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/jsonflow/pkg/flow/node/nstart"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

func TestStart(t *testing.T) {
	n := nstart.New()
	require.Equal(t, mflow.NodeKindStart, n.Kind())
	res := n.Run(context.Background(), nil)
	require.NoError(t, res.Err)
	require.Equal(t, nstart.StatusStarted, res.Status)
}
