package engine

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"resourcedb/src/document"
)

// SortStrategy selects the algorithm used to order a collection.
type SortStrategy string

const (
	// SortNative is a stable library sort.
	SortNative SortStrategy = "native"
	// SortPartition is an in-place partition-exchange sort.
	SortPartition SortStrategy = "partition"
)

func ParseSortStrategy(s string) (SortStrategy, error) {
	switch st := SortStrategy(s); st {
	case SortNative, SortPartition:
		return st, nil
	}
	return "", fmt.Errorf("unknown sort strategy %q", s)
}

// SortKey is the display text of the sort attribute of one resource.
type SortKey struct {
	Text    string
	Present bool
}

type keyClass int

const (
	classAbsent keyClass = iota
	classNumeric
	classText
)

func (k SortKey) class() (keyClass, float64) {
	if !k.Present {
		return classAbsent, 0
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(k.Text), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return classNumeric, f
	}
	return classText, 0
}

// CompareKeys orders absent keys first, then keys that read as numbers in
// numeric order, then everything else in lexical order.
func CompareKeys(a, b SortKey) int {
	ca, fa := a.class()
	cb, fb := b.class()
	if ca != cb {
		return cmp.Compare(ca, cb)
	}

	switch ca {
	case classNumeric:
		return cmp.Compare(fa, fb)
	case classText:
		return strings.Compare(a.Text, b.Text)
	}
	return 0
}

// sortArena holds the resources being sorted together with their keys and
// their positions before the sort. Every exchange goes through swap so the
// three stay aligned.
type sortArena struct {
	keys      []SortKey
	resources []*Resource
	positions []int
}

func newSortArena(resources []*Resource, path document.Path) *sortArena {
	a := &sortArena{
		keys:      make([]SortKey, len(resources)),
		resources: resources,
		positions: make([]int, len(resources)),
	}
	for i, r := range resources {
		text, ok := document.ResolvePath(r.Data, path)
		a.keys[i] = SortKey{Text: text, Present: ok}
		a.positions[i] = i
	}
	return a
}

func (a *sortArena) swap(i, j int) {
	a.keys[i], a.keys[j] = a.keys[j], a.keys[i]
	a.resources[i], a.resources[j] = a.resources[j], a.resources[i]
	a.positions[i], a.positions[j] = a.positions[j], a.positions[i]
}

// partition takes the last element of the range as pivot P. Keys left of
// the returned index are < P, keys right of it are >= P.
func (a *sortArena) partition(low, high int) int {
	pivot := a.keys[high]
	i := low - 1
	for j := low; j < high; j++ {
		if CompareKeys(a.keys[j], pivot) < 0 {
			i++
			a.swap(i, j)
		}
	}
	a.swap(i+1, high)
	return i + 1
}

// quicksort sorts with an explicit stack of index ranges, then puts runs of
// equal keys back in their original relative order.
func (a *sortArena) quicksort() {
	type span struct{ low, high int }

	stack := []span{{0, len(a.keys) - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		p := a.partition(s.low, s.high)
		if p-1 > s.low {
			stack = append(stack, span{s.low, p - 1})
		}
		if p+1 < s.high {
			stack = append(stack, span{p + 1, s.high})
		}
	}

	a.settleTies()
}

// settleTies orders every run of equal keys by original position.
func (a *sortArena) settleTies() {
	for low := 0; low < len(a.keys); {
		high := low + 1
		for high < len(a.keys) && CompareKeys(a.keys[low], a.keys[high]) == 0 {
			high++
		}
		if high-low > 1 {
			order := make([]int, high-low)
			for i := range order {
				order[i] = low + i
			}
			slices.SortFunc(order, func(i, j int) int {
				return cmp.Compare(a.positions[i], a.positions[j])
			})
			a.permute(low, order)
		}
		low = high
	}
}

// stable sorts with the standard library on an index permutation.
func (a *sortArena) stable() {
	order := make([]int, len(a.keys))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(i, j int) int {
		return CompareKeys(a.keys[i], a.keys[j])
	})
	a.permute(0, order)
}

// permute rewrites the range starting at low so that its k-th element is
// the one previously at order[k].
func (a *sortArena) permute(low int, order []int) {
	keys := make([]SortKey, len(order))
	resources := make([]*Resource, len(order))
	positions := make([]int, len(order))
	for to, from := range order {
		keys[to] = a.keys[from]
		resources[to] = a.resources[from]
		positions[to] = a.positions[from]
	}
	copy(a.keys[low:], keys)
	copy(a.resources[low:], resources)
	copy(a.positions[low:], positions)
}

// Keys returns the sort key of every resource, in collection order.
func (c *Collection) Keys(attribute string) []SortKey {
	return newSortArena(c.Resources, document.Path{attribute}).keys
}

// SortWith orders the collection by the value at path using strategy. Each
// key is resolved once. Equal keys keep their relative order under both
// strategies. reverse flips the result after sorting.
func (c *Collection) SortWith(strategy SortStrategy, path document.Path, reverse bool) {
	if len(c.Resources) > 1 {
		arena := newSortArena(c.Resources, path)
		if strategy == SortPartition {
			arena.quicksort()
		} else {
			arena.stable()
		}
	}

	if reverse {
		c.Reverse()
	}
}

// Sort orders the collection by a top-level attribute with the stable
// native strategy.
func (c *Collection) Sort(attribute string, reverse bool) {
	c.SortWith(SortNative, document.Path{attribute}, reverse)
}

// PartitionSort orders the collection by a top-level attribute with the
// partition-exchange strategy.
func (c *Collection) PartitionSort(attribute string, reverse bool) {
	c.SortWith(SortPartition, document.Path{attribute}, reverse)
}
