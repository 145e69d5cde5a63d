package domain

import (
	"cmp"
	"slices"
)

// MergeResult is the outcome of merging one fetched page.
type MergeResult[T Record] struct {
	Items   []T
	Updated int
	New     int
}

// MergePage merges a freshly fetched page into an existing collection.
//
// Incoming items whose identity already exists are counted as updated when
// their citation value differs, and the existing item is kept when it does
// not. Anything else is new. When offset is 0 the page is treated as ground
// truth and the result holds only the incoming items. For later pages the
// existing items that were not re-observed are appended after them.
// Duplicate identities inside one page keep their first occurrence.
func MergePage[T Record](existing, incoming []T, offset int) MergeResult[T] {
	byKey := make(map[string]T, len(existing))
	for _, item := range existing {
		if _, dup := byKey[item.IdentityKey()]; !dup {
			byKey[item.IdentityKey()] = item
		}
	}

	result := MergeResult[T]{Items: make([]T, 0, len(incoming))}
	emitted := make(map[string]struct{}, len(incoming))

	for _, item := range incoming {
		key := item.IdentityKey()
		if _, dup := emitted[key]; dup {
			continue
		}
		emitted[key] = struct{}{}

		old, found := byKey[key]
		if !found {
			result.Items = append(result.Items, item)
			result.New++
			continue
		}
		delete(byKey, key)

		if citationsDiffer(old, item) {
			result.Items = append(result.Items, item)
			result.Updated++
		} else {
			result.Items = append(result.Items, old)
		}
	}

	if offset == 0 {
		return result
	}

	for _, item := range existing {
		key := item.IdentityKey()
		if _, left := byKey[key]; left {
			result.Items = append(result.Items, item)
			delete(byKey, key)
		}
	}
	return result
}

func citationsDiffer[T Record](a, b T) bool {
	av, aok := a.CitationValue()
	bv, bok := b.CitationValue()
	return aok != bok || av != bv
}

// PublicationChange is a publication whose citation count moved.
type PublicationChange struct {
	Publication Publication
	OldCount    int
	NewCount    int
}

// Delta is NewCount - OldCount.
func (c PublicationChange) Delta() int {
	return c.NewCount - c.OldCount
}

// PublicationChanges is the diff between two observations of a profile.
type PublicationChanges struct {
	// Increased is sorted by delta, largest first.
	Increased []PublicationChange
	Decreased []PublicationChange
	New       []Publication
}

// HasChanges reports whether anything moved.
func (c PublicationChanges) HasChanges() bool {
	return len(c.Increased) > 0 || len(c.Decreased) > 0 || len(c.New) > 0
}

// TotalNewCitations sums the positive deltas.
func (c PublicationChanges) TotalNewCitations() int {
	total := 0
	for _, inc := range c.Increased {
		total += inc.Delta()
	}
	return total
}

// ComparePublications diffs two observations keyed by identity.
// Publications absent from newer are ignored.
func ComparePublications(older, newer []Publication) PublicationChanges {
	prev := make(map[string]Publication, len(older))
	for _, p := range older {
		prev[p.IdentityKey()] = p
	}

	var changes PublicationChanges
	for _, p := range newer {
		old, found := prev[p.IdentityKey()]
		if !found {
			changes.New = append(changes.New, p)
			continue
		}
		oldCount, newCount := old.Citations(), p.Citations()
		switch {
		case newCount > oldCount:
			changes.Increased = append(changes.Increased, PublicationChange{Publication: p, OldCount: oldCount, NewCount: newCount})
		case newCount < oldCount:
			changes.Decreased = append(changes.Decreased, PublicationChange{Publication: p, OldCount: oldCount, NewCount: newCount})
		}
	}

	slices.SortStableFunc(changes.Increased, func(a, b PublicationChange) int {
		return cmp.Compare(b.Delta(), a.Delta())
	})
	return changes
}
