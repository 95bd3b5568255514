package forum

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoaderWalk(t *testing.T) {
	t.Run("expands stub subtrees", func(t *testing.T) {
		fake := NewFake()
		fake.Children["stub1"] = []*Comment{
			{ID: "c3", Author: "cleo"},
			{ID: "stub2", Stub: true},
		}
		fake.Children["stub2"] = []*Comment{{ID: "c4", Author: "dave"}}
		roots := []*Comment{
			{ID: "c1", Author: "ann", Replies: []*Comment{
				{ID: "c2", Author: "bob"},
				{ID: "stub1", Stub: true},
			}},
		}

		loader := NewLoader(fake)
		got := loader.Walk(context.Background(), roots)

		ids := map[string]bool{}
		for _, c := range got {
			ids[c.ID] = true
		}
		require.Equal(t, map[string]bool{"c1": true, "c2": true, "c3": true, "c4": true}, ids)
	})

	t.Run("exhausted stubs are memoized per run", func(t *testing.T) {
		fake := NewFake()
		fake.DeadStubs["gone"] = true
		roots := []*Comment{{ID: "gone", Stub: true}}

		loader := NewLoader(fake)
		require.Empty(t, loader.Walk(context.Background(), roots))
		require.Equal(t, expandAttempts, fake.ExpandCalls["gone"],
			"retries must be bounded")

		require.Empty(t, loader.Walk(context.Background(), roots))
		require.Equal(t, expandAttempts, fake.ExpandCalls["gone"],
			"an exhausted target must not be fetched again this run")

		fresh := NewLoader(fake)
		fresh.Walk(context.Background(), roots)
		require.Equal(t, 2*expandAttempts, fake.ExpandCalls["gone"],
			"a new run retries previously exhausted targets")
	})
}
