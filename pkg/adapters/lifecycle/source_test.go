package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notekeeper/pkg/adapters/lifecycle"
	"github.com/aretw0/notekeeper/pkg/core"
)

func TestSource_BridgesMutations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mutations := make(chan core.Mutation, 2)
	src := lifecycle.NewSource(mutations)
	require.NoError(t, src.Start(ctx))

	mutations <- core.Mutation{Type: core.MutationSetToken, Timestamp: 1}

	select {
	case e := <-src.Events():
		assert.Equal(t, "setToken@1", e.String())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for bridged event")
	}

	close(mutations)
	select {
	case _, open := <-src.Events():
		assert.False(t, open, "output closes when the input closes")
	case <-time.After(time.Second):
		t.Fatal("output was not closed")
	}
}

func TestSource_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := lifecycle.NewSource(make(chan core.Mutation))
	require.NoError(t, src.Start(ctx))

	cancel()
	select {
	case _, open := <-src.Events():
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("output was not closed after cancel")
	}
}
