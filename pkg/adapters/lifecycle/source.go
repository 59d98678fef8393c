package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/notekeeper/pkg/core"
)

type storeSource struct {
	mutations <-chan core.Mutation
	out       chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits store mutations.
// It bridges the typed mutation channel to the generic lifecycle Event interface.
func NewSource(mutations <-chan core.Mutation) lifecycle.Source {
	return &storeSource{
		mutations: mutations,
		out:       make(chan lifecycle.Event),
	}
}

func (s *storeSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *storeSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case m, ok := <-s.mutations:
				if !ok {
					return nil
				}
				// core.Mutation implements lifecycle.Event (has String())
				select {
				case s.out <- m:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
