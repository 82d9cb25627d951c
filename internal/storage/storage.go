// Package storage journals detected opportunities. The journal is
// write-only: scan results are served from memory, storage exists for
// offline analysis.
package storage

import (
	"context"

	"github.com/dpereira/kalshi-poly-arb/pkg/types"
)

// Storage is the interface for journaling detected opportunities.
type Storage interface {
	// StoreOpportunity journals one detected opportunity.
	StoreOpportunity(ctx context.Context, opp *types.Opportunity) error

	// Close closes the storage connection.
	Close() error
}
