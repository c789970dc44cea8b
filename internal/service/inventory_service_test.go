package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/storagescout/internal/db"
	"github.com/vbonduro/storagescout/internal/domain"
	"github.com/vbonduro/storagescout/internal/inventory"
	"github.com/vbonduro/storagescout/internal/store"
	"github.com/vbonduro/storagescout/internal/vision"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// stubSuggester satisfies vision.Suggester.
type stubSuggester struct {
	suggestion *vision.Suggestion
	err        error
	gotMIME    string
	gotBytes   []byte
}

func (s *stubSuggester) Suggest(_ context.Context, r io.Reader, mimeType string) (*vision.Suggestion, error) {
	s.gotMIME = mimeType
	s.gotBytes, _ = io.ReadAll(r)
	return s.suggestion, s.err
}

// failingDeletes wraps a repository and fails Delete for chosen ids.
type failingDeletes struct {
	itemRepository
	fail map[string]error
}

func (f failingDeletes) Delete(ctx context.Context, ownerID, id string) error {
	if err, ok := f.fail[id]; ok {
		return err
	}
	return f.itemRepository.Delete(ctx, ownerID, id)
}

func newTestService(t *testing.T) *InventoryService {
	t.Helper()
	return newTestServiceWith(t, &stubSuggester{})
}

func newTestServiceWith(t *testing.T, suggester vision.Suggester) *InventoryService {
	t.Helper()
	sqlDB, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return NewInventoryService(store.NewItemStore(sqlDB), store.NewLabelStore(sqlDB), suggester, discardLogger)
}

func mustCreate(t *testing.T, svc *InventoryService, box, name, location string) *domain.Item {
	t.Helper()
	item, err := svc.CreateItem(context.Background(), domain.NewItem{
		UserID: "alice", BoxID: box, Name: name, Location: location,
	})
	require.NoError(t, err)
	return item
}

func TestCreateItemTrimsAndValidates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, domain.NewItem{UserID: "alice", BoxID: " box-1 ", Name: "  Tent ", Location: " Garage"})
	require.NoError(t, err)
	assert.Equal(t, "Tent", item.Name)
	assert.Equal(t, "box-1", item.BoxID)
	assert.Equal(t, "Garage", item.Location)

	_, err = svc.CreateItem(ctx, domain.NewItem{UserID: "alice", BoxID: "box-1", Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidItem)

	_, err = svc.CreateItem(ctx, domain.NewItem{UserID: "alice", BoxID: "", Name: "Rope"})
	assert.ErrorIs(t, err, domain.ErrInvalidItem)
}

func TestListItemsFiltersAndSorts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, "A", "banana crate", "Garage")
	mustCreate(t, svc, "B", "Apple peeler", "Kitchen")
	mustCreate(t, svc, "A", "cherry pitter", "Kitchen")

	got, err := svc.ListItems(ctx, "alice", inventory.DefaultQuery())
	require.NoError(t, err)
	assert.Equal(t, []string{"cherry pitter", "Apple peeler", "banana crate"}, names(got))

	got, err = svc.ListItems(ctx, "alice", inventory.Query{Sort: inventory.SortByName, Dir: inventory.Asc})
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple peeler", "banana crate", "cherry pitter"}, names(got))

	got, err = svc.ListItems(ctx, "alice", inventory.Query{Text: "kitchen", Sort: inventory.SortByName, Dir: inventory.Desc})
	require.NoError(t, err)
	assert.Equal(t, []string{"cherry pitter", "Apple peeler"}, names(got))
}

func TestListBoxes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, "A", "Tent", "Garage")
	mustCreate(t, svc, "B", "Books", "Attic")
	mustCreate(t, svc, "A", "Stove", "Shed")
	require.NoError(t, svc.SetBoxLabel(ctx, "alice", "A", "Camping"))

	view, err := svc.ListBoxes(ctx, "alice", "")
	require.NoError(t, err)
	require.Len(t, view.Boxes, 2)

	assert.Equal(t, "A", view.Boxes[0].ID)
	assert.Equal(t, "Camping", view.Boxes[0].Label)
	assert.Equal(t, "Shed", view.Boxes[0].Location)
	assert.Len(t, view.Boxes[0].Items, 2)

	assert.Equal(t, "B", view.Boxes[1].ID)
	assert.Empty(t, view.Boxes[1].Label)

	assert.Equal(t, inventory.Stats{TotalBoxes: 2, TotalItems: 3, Locations: 3}, view.Stats)

	view, err = svc.ListBoxes(ctx, "alice", "books")
	require.NoError(t, err)
	require.Len(t, view.Boxes, 1)
	assert.Equal(t, "B", view.Boxes[0].ID)
	assert.Equal(t, 1, view.Stats.TotalItems)
}

func TestListBoxesEmpty(t *testing.T) {
	svc := newTestService(t)

	view, err := svc.ListBoxes(context.Background(), "nobody", "")
	require.NoError(t, err)
	assert.NotNil(t, view.Boxes)
	assert.Empty(t, view.Boxes)
	assert.Equal(t, inventory.Stats{}, view.Stats)
}

func TestGetBox(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, "A", "Tent", "Garage")
	mustCreate(t, svc, "A", "Stove", "Shed")
	mustCreate(t, svc, "B", "Books", "Attic")
	require.NoError(t, svc.SetBoxLabel(ctx, "alice", "A", "Camping"))

	box, err := svc.GetBox(ctx, "alice", "A", inventory.DefaultQuery())
	require.NoError(t, err)
	assert.Equal(t, "A", box.ID)
	assert.Equal(t, "Camping", box.Label)
	assert.Equal(t, "Shed", box.Location)
	assert.Equal(t, []string{"Stove", "Tent"}, names(box.Items))

	empty, err := svc.GetBox(ctx, "alice", "fresh-box", inventory.DefaultQuery())
	require.NoError(t, err)
	assert.Equal(t, "fresh-box", empty.ID)
	assert.Empty(t, empty.Label)
	assert.Empty(t, empty.Location)
	assert.Empty(t, empty.Items)
}

func TestUpdateItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	item := mustCreate(t, svc, "A", "Lamp", "Attic")

	name := "  Desk lamp "
	tags := []string{"lighting"}
	got, err := svc.UpdateItem(ctx, "alice", item.ID, domain.ItemPatch{Name: &name, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", got.Name)
	assert.Equal(t, []string{"lighting"}, got.Tags)

	blank := " "
	_, err = svc.UpdateItem(ctx, "alice", item.ID, domain.ItemPatch{Name: &blank})
	assert.ErrorIs(t, err, domain.ErrInvalidItem)

	_, err = svc.UpdateItem(ctx, "alice", item.ID, domain.ItemPatch{BoxID: &blank})
	assert.ErrorIs(t, err, domain.ErrBoxIDRequired)

	_, err = svc.UpdateItem(ctx, "alice", "missing", domain.ItemPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestMoveItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	item := mustCreate(t, svc, "A", "Lamp", "Attic")

	moved, err := svc.MoveItem(ctx, "alice", item.ID, " B ")
	require.NoError(t, err)
	assert.Equal(t, "B", moved.BoxID)

	box, err := svc.GetBox(ctx, "alice", "B", inventory.DefaultQuery())
	require.NoError(t, err)
	assert.Len(t, box.Items, 1)

	_, err = svc.MoveItem(ctx, "alice", item.ID, "B")
	assert.ErrorIs(t, err, domain.ErrSameBox)

	_, err = svc.MoveItem(ctx, "alice", item.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrBoxIDRequired)

	_, err = svc.MoveItem(ctx, "alice", "missing", "C")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)

	_, err = svc.MoveItem(ctx, "bob", item.ID, "C")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestDeleteItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	item := mustCreate(t, svc, "A", "Lamp", "Attic")

	require.NoError(t, svc.DeleteItem(ctx, "alice", item.ID))
	assert.ErrorIs(t, svc.DeleteItem(ctx, "alice", item.ID), domain.ErrItemNotFound)
}

func TestDeleteItemsContinuesPastFailures(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a := mustCreate(t, svc, "A", "one", "")
	b := mustCreate(t, svc, "A", "two", "")
	c := mustCreate(t, svc, "A", "three", "")

	boom := errors.New("disk on fire")
	svc.items = failingDeletes{itemRepository: svc.items, fail: map[string]error{b.ID: boom}}

	deleted, err := svc.DeleteItems(ctx, "alice", []string{a.ID, "already-gone", b.ID, c.ID})
	assert.Equal(t, 2, deleted)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	left, err := svc.ListItems(ctx, "alice", inventory.DefaultQuery())
	require.NoError(t, err)
	assert.Equal(t, []string{"two"}, names(left))
}

func TestDeleteItemsAllMissing(t *testing.T) {
	svc := newTestService(t)

	deleted, err := svc.DeleteItems(context.Background(), "alice", []string{"x", "y"})
	assert.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestSetBoxLabel(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SetBoxLabel(ctx, "alice", "  ", "Tools"), domain.ErrBoxIDRequired)

	require.NoError(t, svc.SetBoxLabel(ctx, "alice", "A", "Tools"))
	box, err := svc.GetBox(ctx, "alice", "A", inventory.DefaultQuery())
	require.NoError(t, err)
	assert.Equal(t, "Tools", box.Label)

	require.NoError(t, svc.SetBoxLabel(ctx, "alice", "A", ""))
	box, err = svc.GetBox(ctx, "alice", "A", inventory.DefaultQuery())
	require.NoError(t, err)
	assert.Empty(t, box.Label)
}

func TestExportCSV(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "A", "Tent", "Garage")
	mustCreate(t, svc, "B", "Books, old", "Attic")

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, "alice", &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Name", records[0][0])
	assert.Equal(t, "Books, old", records[1][0])
	assert.Equal(t, "Tent", records[2][0])
}

func TestExportXLSX(t *testing.T) {
	svc := newTestService(t)
	mustCreate(t, svc, "A", "Tent", "Garage")

	var buf bytes.Buffer
	require.NoError(t, svc.ExportXLSX(context.Background(), "alice", &buf))
	assert.Equal(t, "PK", buf.String()[:2])
}

func TestSuggestItem(t *testing.T) {
	stub := &stubSuggester{suggestion: &vision.Suggestion{Name: "Hammer", Description: "Claw hammer"}}
	svc := newTestServiceWith(t, stub)

	got, err := svc.SuggestItem(context.Background(), []byte("jpegdata"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "Hammer", got.Name)
	assert.Equal(t, "image/jpeg", stub.gotMIME)
	assert.Equal(t, []byte("jpegdata"), stub.gotBytes)
}

func TestSuggestItemDisabled(t *testing.T) {
	sqlDB, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	svc := NewInventoryService(store.NewItemStore(sqlDB), store.NewLabelStore(sqlDB), nil, discardLogger)

	_, err = svc.SuggestItem(context.Background(), []byte("x"), "image/png")
	assert.ErrorIs(t, err, vision.ErrDisabled)
}

func TestNewBoxID(t *testing.T) {
	svc := newTestService(t)
	a, b := svc.NewBoxID(), svc.NewBoxID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func names(items []domain.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}
