// Package order assigns fractional positions to tasks within a board column.
//
// Positions are float64 values. Inserting between two neighbours takes the
// midpoint; when the gap has become too narrow to split, the whole column is
// renormalised to evenly spaced values and the caller persists the new
// sibling positions together with the move.
package order

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	// DefaultSpacing is the distance between neighbours after renormalising,
	// and the step used when appending or prepending. A power of two keeps
	// repeated halving exact for longer.
	DefaultSpacing = 1024.0

	// DefaultMinGap is the narrowest gap that will still be split.
	DefaultMinGap = 1e-9
)

// Hint errors. Callers map these to a validation failure.
var (
	ErrUnknownSibling = errors.New("sibling is not in the destination column")
	ErrSelfReference  = errors.New("task cannot be positioned relative to itself")
	ErrInvertedHints  = errors.New("after_id must sort before before_id")
	ErrNotAdjacent    = errors.New("after_id and before_id must be neighbours")
)

// HintError identifies which ordering hint was rejected.
type HintError struct {
	Field string // before_id or after_id
	ID    string
	Err   error
}

func (e *HintError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.ID, e.Err)
}

func (e *HintError) Unwrap() error { return e.Err }

// Sibling is a task already placed in the destination column.
type Sibling struct {
	ID    string
	Order float64
}

// Placement is the result of positioning one task.
type Placement struct {
	Order float64
	// Rebalanced lists siblings whose order changed because the column was
	// renormalised. Empty when the new position fit in the existing gap.
	Rebalanced []Sibling
}

// Options tunes the assigner.
type Options struct {
	Spacing float64
	MinGap  float64
}

// DefaultOptions returns the default spacing and gap.
func DefaultOptions() Options {
	return Options{Spacing: DefaultSpacing, MinGap: DefaultMinGap}
}

// Assigner computes positions. It holds no state beyond its options and is
// safe for concurrent use.
type Assigner struct {
	opts Options
}

// NewAssigner creates an Assigner, filling unset options with defaults.
func NewAssigner(opts Options) *Assigner {
	if opts.Spacing <= 0 || math.IsInf(opts.Spacing, 0) || math.IsNaN(opts.Spacing) {
		opts.Spacing = DefaultSpacing
	}
	if opts.MinGap <= 0 || math.IsNaN(opts.MinGap) {
		opts.MinGap = DefaultMinGap
	}
	return &Assigner{opts: opts}
}

// Place positions movingID in a column holding siblings.
//
// beforeID names the sibling that should end up immediately after the moved
// task, afterID the one immediately before it. Either or both may be empty;
// with neither the task is appended. siblings must not include movingID and
// need not be sorted.
func (a *Assigner) Place(movingID string, siblings []Sibling, beforeID, afterID string) (Placement, error) {
	if beforeID != "" && beforeID == movingID {
		return Placement{}, &HintError{Field: "before_id", ID: beforeID, Err: ErrSelfReference}
	}
	if afterID != "" && afterID == movingID {
		return Placement{}, &HintError{Field: "after_id", ID: afterID, Err: ErrSelfReference}
	}

	sorted := Sorted(siblings)
	index := make(map[string]int, len(sorted))
	for i, s := range sorted {
		index[s.ID] = i
	}

	bi, ai := -1, -1
	if beforeID != "" {
		i, ok := index[beforeID]
		if !ok {
			return Placement{}, &HintError{Field: "before_id", ID: beforeID, Err: ErrUnknownSibling}
		}
		bi = i
	}
	if afterID != "" {
		i, ok := index[afterID]
		if !ok {
			return Placement{}, &HintError{Field: "after_id", ID: afterID, Err: ErrUnknownSibling}
		}
		ai = i
	}

	// slot is the index the moved task takes in the sorted column; lo and hi
	// are the neighbour indices bounding it (-1 when absent).
	var slot, lo, hi int
	switch {
	case bi >= 0 && ai >= 0:
		if ai >= bi {
			return Placement{}, &HintError{Field: "after_id", ID: afterID, Err: ErrInvertedHints}
		}
		if bi != ai+1 {
			return Placement{}, &HintError{Field: "after_id", ID: afterID, Err: ErrNotAdjacent}
		}
		slot, lo, hi = ai+1, ai, bi
	case bi >= 0:
		slot, lo, hi = bi, bi-1, bi
	case ai >= 0:
		slot, lo, hi = ai+1, ai, ai+1
		if hi >= len(sorted) {
			hi = -1
		}
	default:
		slot, lo, hi = len(sorted), len(sorted)-1, -1
	}

	if v, ok := a.between(sorted, lo, hi); ok {
		return Placement{Order: v}, nil
	}
	return a.rebalance(sorted, slot), nil
}

// between tries to find a value strictly inside the gap bounded by the
// neighbours at lo and hi.
func (a *Assigner) between(sorted []Sibling, lo, hi int) (float64, bool) {
	switch {
	case lo >= 0 && hi >= 0:
		l, h := sorted[lo].Order, sorted[hi].Order
		if !(h-l >= a.opts.MinGap) {
			return 0, false
		}
		mid := l + (h-l)/2
		return mid, l < mid && mid < h
	case lo >= 0:
		l := sorted[lo].Order
		v := l + a.opts.Spacing
		return v, v > l && !math.IsInf(v, 0)
	case hi >= 0:
		h := sorted[hi].Order
		v := h - a.opts.Spacing
		return v, v < h && !math.IsInf(v, 0)
	default:
		return a.opts.Spacing, true
	}
}

// rebalance renormalises the column with a hole at slot for the moved task.
func (a *Assigner) rebalance(sorted []Sibling, slot int) Placement {
	p := Placement{Order: float64(slot+1) * a.opts.Spacing}
	for i, s := range sorted {
		pos := i
		if i >= slot {
			pos = i + 1
		}
		v := float64(pos+1) * a.opts.Spacing
		if v != s.Order {
			p.Rebalanced = append(p.Rebalanced, Sibling{ID: s.ID, Order: v})
		}
	}
	return p
}

// Sorted returns a copy of siblings in display order. Ties on Order, which
// can appear after concurrent inserts, are broken by ID.
func Sorted(siblings []Sibling) []Sibling {
	out := make([]Sibling, len(siblings))
	copy(out, siblings)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}
