package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/storagescout/internal/domain"
)

var base = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func item(id, box, name, location string, age time.Duration) domain.Item {
	return domain.Item{
		ID:        id,
		BoxID:     box,
		Name:      name,
		Location:  location,
		CreatedAt: base.Add(-age),
	}
}

func ids(items []domain.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestGroupIntoBoxes(t *testing.T) {
	t.Run("empty input yields empty result", func(t *testing.T) {
		boxes := GroupIntoBoxes(nil)
		assert.NotNil(t, boxes)
		assert.Empty(t, boxes)
	})

	t.Run("first seen order and first item location", func(t *testing.T) {
		items := []domain.Item{
			item("1", "B", "Lamp", "Garage", 0),
			item("2", "A", "Books", "Attic", 0),
			item("3", "B", "Cables", "Basement", 0),
			item("4", "C", "Skis", "", 0),
			item("5", "A", "Maps", "Attic", 0),
		}

		boxes := GroupIntoBoxes(items)

		require.Len(t, boxes, 3)
		assert.Equal(t, "B", boxes[0].ID)
		assert.Equal(t, "Garage", boxes[0].Location)
		assert.Equal(t, []string{"1", "3"}, ids(boxes[0].Items))
		assert.Equal(t, "A", boxes[1].ID)
		assert.Equal(t, []string{"2", "5"}, ids(boxes[1].Items))
		assert.Equal(t, "C", boxes[2].ID)
		assert.Equal(t, "", boxes[2].Location)
	})

	t.Run("partition covers every item exactly once", func(t *testing.T) {
		items := []domain.Item{
			item("1", "X", "a", "", 0),
			item("2", "Y", "b", "", 0),
			item("3", "X", "c", "", 0),
			item("4", "Z", "d", "", 0),
		}

		total := 0
		seen := map[string]bool{}
		for _, b := range GroupIntoBoxes(items) {
			for _, it := range b.Items {
				assert.Equal(t, b.ID, it.BoxID)
				assert.False(t, seen[it.ID])
				seen[it.ID] = true
				total++
			}
		}
		assert.Equal(t, len(items), total)
	})

	t.Run("result is rebuilt each call", func(t *testing.T) {
		items := []domain.Item{item("1", "A", "a", "Shed", 0)}
		first := GroupIntoBoxes(items)
		first[0].Items[0].Name = "changed"

		second := GroupIntoBoxes(items)
		assert.Equal(t, "a", second[0].Items[0].Name)
		assert.Equal(t, "a", items[0].Name)
	})
}

func TestComputeStats(t *testing.T) {
	items := []domain.Item{
		item("1", "A", "a", "Garage", 0),
		item("2", "A", "b", "Attic", 0),
		item("3", "B", "c", "Garage", 0),
		item("4", "C", "d", "", 0),
	}

	stats := ComputeStats(GroupIntoBoxes(items))

	assert.Equal(t, Stats{TotalBoxes: 3, TotalItems: 4, Locations: 2}, stats)
	assert.Equal(t, Stats{}, ComputeStats(nil))
}
