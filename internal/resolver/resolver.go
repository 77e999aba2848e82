// Package resolver turns overlapping candidate custody events into a
// non-overlapping schedule by precedence.
package resolver

import (
	"sort"

	"github.com/custodycal/custody-engine/internal/domain"
)

// Overlaps reports whether two half-open intervals share any instant.
// Intervals that only touch do not overlap.
func Overlaps(a, b domain.CustodyEvent) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// Resolve accepts candidates greedily in precedence order: lower priority
// first, input order among equal priorities. A candidate is accepted only if
// it overlaps no accepted event. The result is ordered by start, then ID.
// Candidates is not modified.
func Resolve(candidates []domain.CustodyEvent) []domain.CustodyEvent {
	ordered := make([]domain.CustodyEvent, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority.Precedes(ordered[j].Priority)
	})

	accepted := make([]domain.CustodyEvent, 0, len(ordered))
	for _, c := range ordered {
		if !c.Start.Before(c.End) {
			continue
		}
		if clashes(accepted, c) {
			continue
		}
		accepted = insert(accepted, c)
	}
	return accepted
}

// clashes checks c against accepted, which is kept sorted by start.
func clashes(accepted []domain.CustodyEvent, c domain.CustodyEvent) bool {
	// First accepted event ending after c starts; earlier ones cannot overlap
	// because accepted intervals are disjoint and sorted.
	i := sort.Search(len(accepted), func(i int) bool { return accepted[i].End.After(c.Start) })
	return i < len(accepted) && Overlaps(accepted[i], c)
}

func insert(accepted []domain.CustodyEvent, c domain.CustodyEvent) []domain.CustodyEvent {
	i := sort.Search(len(accepted), func(i int) bool { return less(c, accepted[i]) })
	accepted = append(accepted, domain.CustodyEvent{})
	copy(accepted[i+1:], accepted[i:])
	accepted[i] = c
	return accepted
}

func less(a, b domain.CustodyEvent) bool {
	if !a.Start.Equal(b.Start) {
		return a.Start.Before(b.Start)
	}
	return a.ID < b.ID
}

// Dropped returns the candidates that are not in accepted, matched by ID, in
// candidate order.
func Dropped(candidates, accepted []domain.CustodyEvent) []domain.CustodyEvent {
	kept := make(map[string]bool, len(accepted))
	for _, e := range accepted {
		kept[e.ID] = true
	}
	var out []domain.CustodyEvent
	for _, c := range candidates {
		if !kept[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// Blocker returns the accepted event that displaced c, if any.
func Blocker(accepted []domain.CustodyEvent, c domain.CustodyEvent) (domain.CustodyEvent, bool) {
	for _, a := range accepted {
		if Overlaps(a, c) {
			return a, true
		}
	}
	return domain.CustodyEvent{}, false
}
