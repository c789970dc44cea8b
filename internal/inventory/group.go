// Package inventory holds the pure functions that turn a flat item list
// into the views the application shows: grouped boxes, filtered and sorted
// item lists, summary stats and exports.
package inventory

import "github.com/vbonduro/storagescout/internal/domain"

// GroupIntoBoxes partitions items by BoxID. Boxes appear in the order their
// first item appears, items keep their relative order, and each box takes
// the location of its first item.
func GroupIntoBoxes(items []domain.Item) []domain.Box {
	boxes := make([]domain.Box, 0)
	index := make(map[string]int)

	for _, it := range items {
		i, ok := index[it.BoxID]
		if !ok {
			i = len(boxes)
			index[it.BoxID] = i
			boxes = append(boxes, domain.Box{ID: it.BoxID, Location: it.Location})
		}
		boxes[i].Items = append(boxes[i].Items, it)
	}

	return boxes
}

// Stats summarises a set of boxes.
type Stats struct {
	TotalBoxes int `json:"totalBoxes"`
	TotalItems int `json:"totalItems"`
	Locations  int `json:"locations"`
}

// ComputeStats counts boxes, items and distinct non-empty item locations.
func ComputeStats(boxes []domain.Box) Stats {
	locations := make(map[string]struct{})
	stats := Stats{TotalBoxes: len(boxes)}

	for _, b := range boxes {
		stats.TotalItems += len(b.Items)
		for _, it := range b.Items {
			if it.Location != "" {
				locations[it.Location] = struct{}{}
			}
		}
	}
	stats.Locations = len(locations)

	return stats
}
