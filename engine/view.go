package engine

import "github.com/spektr-org/retailscope/ledger"

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns the ledger. It reads through this interface.
//
// Implementations:
//   SliceView: wraps []ledger.LineItem
//   SubView:   filtered subset or group (indices into parent, zero-copy)
//
// Views are read-only, so one ledger can back any number of concurrent
// queries without locking.
// ============================================================================

// RecordView provides indexed access to line items.
type RecordView interface {
	Len() int
	At(index int) ledger.LineItem
}

// ============================================================================
// SLICE VIEW
// ============================================================================

// SliceView wraps a []ledger.LineItem slice as a RecordView.
type SliceView struct {
	items []ledger.LineItem
}

// NewSliceView creates a RecordView over items. The slice is referenced,
// not copied; callers must not modify it afterwards.
func NewSliceView(items []ledger.LineItem) RecordView {
	return &SliceView{items: items}
}

func (v *SliceView) Len() int { return len(v.items) }

func (v *SliceView) At(i int) ledger.LineItem { return v.items[i] }

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a subset of a parent RecordView.
// Holds indices into the parent, no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) At(i int) ledger.LineItem { return v.parent.At(v.indices[i]) }

// emptyView backs groups synthesized by bucket completion.
var emptyView RecordView = &SliceView{}
