// Package hooks provides default Hooks implementations.
package hooks

import (
	"context"

	"github.com/arloliu/subpoll/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks in the poll loop.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, string, int) error              = (*NopHooks)(nil).OnPositionAdvanced
	_ func(context.Context, types.State, types.State) error = (*NopHooks)(nil).OnStateChanged
	_ func(context.Context, error) error                    = (*NopHooks)(nil).OnError
)

// NewNop creates a new no-op hooks implementation.
//
// Returns:
//   - types.Hooks: Hooks with no-op implementations
func NewNop() types.Hooks {
	h := &NopHooks{}

	return types.Hooks{
		OnPositionAdvanced: h.OnPositionAdvanced,
		OnStateChanged:     h.OnStateChanged,
		OnError:            h.OnError,
	}
}

// Fill returns a copy of hooks where every nil callback is replaced by a no-op.
//
// Parameters:
//   - hooks: User supplied hooks (may be nil)
//
// Returns:
//   - types.Hooks: Hooks safe to call without nil checks
func Fill(hooks *types.Hooks) types.Hooks {
	filled := NewNop()
	if hooks == nil {
		return filled
	}
	if hooks.OnPositionAdvanced != nil {
		filled.OnPositionAdvanced = hooks.OnPositionAdvanced
	}
	if hooks.OnStateChanged != nil {
		filled.OnStateChanged = hooks.OnStateChanged
	}
	if hooks.OnError != nil {
		filled.OnError = hooks.OnError
	}

	return filled
}

// OnPositionAdvanced is a no-op implementation.
func (h *NopHooks) OnPositionAdvanced(_ context.Context, _ string, _ int) error {
	return nil
}

// OnStateChanged is a no-op implementation.
func (h *NopHooks) OnStateChanged(_ context.Context, _, _ types.State) error {
	return nil
}

// OnError is a no-op implementation.
func (h *NopHooks) OnError(_ context.Context, _ error) error {
	return nil
}
