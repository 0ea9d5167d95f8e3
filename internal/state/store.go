// Package state persists the per-symbol signal state between scans.
package state

import (
	"context"

	"VCPSentinel/internal/model"
)

// Store loads and saves symbol states. Implementations are safe for
// concurrent use.
type Store interface {
	// Load returns the stored state, or false if the symbol is unknown.
	Load(ctx context.Context, symbol string) (model.SymbolState, bool, error)
	Save(ctx context.Context, s model.SymbolState) error
	// All returns every stored state sorted by symbol.
	All(ctx context.Context) ([]model.SymbolState, error)
	Close() error
}
