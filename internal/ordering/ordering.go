// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

// Package ordering keeps sibling sequences dense: after every insert, remove
// or move, each element's position equals its zero-based index.
//
// # Index convention
//
// Move interprets targetIndex against the sequence with the moved element
// already removed (post-removal indexing). For [a b c d], Move(a, 2) yields
// [b c a d]: after removing a the sequence is [b c d], and a lands at index 2
// of that. Callers that think in pre-removal terms must subtract one when
// moving an element to a higher index within the same container.
//
// Out-of-range indexes are clamped, never rejected.
package ordering

import (
	"cmp"
	"slices"
)

// Positioned is satisfied by a pointer to an orderable entity. T is the value
// type held in the slice.
type Positioned[T any] interface {
	*T
	OrderKey() string
	GetPosition() int
	SetPosition(int)
}

// ClampIndex limits i to [0, n].
func ClampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// Resequence rewrites positions in place to match slice order and returns
// how many elements changed. A dense sequence is left untouched.
func Resequence[T any, P Positioned[T]](seq []T) int {
	changed := 0
	for i := range seq {
		p := P(&seq[i])
		if p.GetPosition() != i {
			p.SetPosition(i)
			changed++
		}
	}
	return changed
}

// IsDense reports whether positions are exactly 0..len-1 in slice order.
func IsDense[T any, P Positioned[T]](seq []T) bool {
	for i := range seq {
		if P(&seq[i]).GetPosition() != i {
			return false
		}
	}
	return true
}

// IndexOf returns the slice index of the element with key id, or -1.
func IndexOf[T any, P Positioned[T]](seq []T, id string) int {
	for i := range seq {
		if P(&seq[i]).OrderKey() == id {
			return i
		}
	}
	return -1
}

// SortByPosition orders a sequence read from storage. Ties, which only occur
// in damaged data, break on key so the result is deterministic.
func SortByPosition[T any, P Positioned[T]](seq []T) {
	slices.SortStableFunc(seq, func(a, b T) int {
		if c := cmp.Compare(P(&a).GetPosition(), P(&b).GetPosition()); c != 0 {
			return c
		}
		return cmp.Compare(P(&a).OrderKey(), P(&b).OrderKey())
	})
}

// Insert returns a new sequence with elem placed at the clamped targetIndex
// and every position rewritten. The input slice is not modified.
func Insert[T any, P Positioned[T]](seq []T, elem T, targetIndex int) []T {
	idx := ClampIndex(targetIndex, len(seq))
	out := make([]T, 0, len(seq)+1)
	out = append(out, seq[:idx]...)
	out = append(out, elem)
	out = append(out, seq[idx:]...)
	Resequence[T, P](out)
	return out
}

// Remove returns a new sequence without the element keyed id, re-sequenced,
// along with the removed element. ok is false when id is absent, in which
// case the original sequence is returned unchanged.
func Remove[T any, P Positioned[T]](seq []T, id string) (out []T, removed T, ok bool) {
	idx := IndexOf[T, P](seq, id)
	if idx < 0 {
		return seq, removed, false
	}
	removed = seq[idx]
	out = make([]T, 0, len(seq)-1)
	out = append(out, seq[:idx]...)
	out = append(out, seq[idx+1:]...)
	Resequence[T, P](out)
	return out, removed, true
}

// Move relocates the element keyed id to targetIndex using post-removal
// indexing. ok is false when id is absent.
func Move[T any, P Positioned[T]](seq []T, id string, targetIndex int) ([]T, bool) {
	rest, elem, ok := Remove[T, P](seq, id)
	if !ok {
		return seq, false
	}
	return Insert[T, P](rest, elem, targetIndex), true
}

// Transfer moves the element keyed id from src into dst at targetIndex and
// re-sequences both. ok is false when id is not in src.
func Transfer[T any, P Positioned[T]](src, dst []T, id string, targetIndex int) (newSrc, newDst []T, moved T, ok bool) {
	newSrc, moved, ok = Remove[T, P](src, id)
	if !ok {
		return src, dst, moved, false
	}
	newDst = Insert[T, P](dst, moved, targetIndex)
	moved = newDst[IndexOf[T, P](newDst, id)]
	return newSrc, newDst, moved, true
}
