package payment

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrBrokenLineage = errors.New("lineage contains an entry whose correction chain does not reach the root")

// Lineage is an original entry plus every correction chained to it
type Lineage struct {
	Root           *Entry
	Entries        []*Entry // Root first, then corrections in creation order
	EffectiveValue decimal.Decimal
}

// NewLineage assembles a lineage from its entries, verifying that every
// correction's chain of CorrectionOf references terminates at the root.
func NewLineage(rootID uuid.UUID, entries []*Entry) (*Lineage, error) {
	byID := make(map[uuid.UUID]*Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	root, ok := byID[rootID]
	if !ok || root.IsCorrection() || !root.IsRoot() {
		return nil, fmt.Errorf("%w: root %s missing", ErrBrokenLineage, rootID)
	}

	for _, e := range entries {
		if !chainTerminatesAt(byID, e, rootID) {
			return nil, fmt.Errorf("%w: entry %s", ErrBrokenLineage, e.ID)
		}
	}

	ordered := make([]*Entry, 0, len(entries))
	ordered = append(ordered, root)
	for _, e := range entries {
		if e.ID != rootID {
			ordered = append(ordered, e)
		}
	}

	return &Lineage{
		Root:           root,
		Entries:        ordered,
		EffectiveValue: EffectiveValue(ordered),
	}, nil
}

// EffectiveValue sums the amounts of a lineage's entries
func EffectiveValue(entries []*Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

// chainTerminatesAt follows CorrectionOf references from e. A chain longer
// than the lineage itself can only be a cycle.
func chainTerminatesAt(byID map[uuid.UUID]*Entry, e *Entry, rootID uuid.UUID) bool {
	current := e
	for steps := 0; steps <= len(byID); steps++ {
		if current.CorrectionOf == nil {
			return current.ID == rootID
		}
		next, ok := byID[*current.CorrectionOf]
		if !ok {
			return false
		}
		current = next
	}
	return false
}
