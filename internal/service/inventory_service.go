package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vbonduro/storagescout/internal/boxid"
	"github.com/vbonduro/storagescout/internal/domain"
	"github.com/vbonduro/storagescout/internal/inventory"
	"github.com/vbonduro/storagescout/internal/vision"
)

// itemRepository is the subset of store.ItemStore that InventoryService requires.
type itemRepository interface {
	Create(ctx context.Context, in domain.NewItem) (*domain.Item, error)
	GetByID(ctx context.Context, ownerID, id string) (*domain.Item, error)
	List(ctx context.Context, ownerID string) ([]domain.Item, error)
	ListByBox(ctx context.Context, ownerID, boxID string) ([]domain.Item, error)
	Update(ctx context.Context, ownerID, id string, patch domain.ItemPatch) error
	Delete(ctx context.Context, ownerID, id string) error
}

// labelRepository is satisfied by store.LabelStore and cache.LabelCache.
type labelRepository interface {
	Get(ctx context.Context, ownerID, boxID string) (string, bool, error)
	Set(ctx context.Context, ownerID, boxID, name string) error
	List(ctx context.Context, ownerID string) (map[string]string, error)
}

type InventoryService struct {
	items     itemRepository
	labels    labelRepository
	suggester vision.Suggester
	logger    *slog.Logger
}

func NewInventoryService(
	items itemRepository,
	labels labelRepository,
	suggester vision.Suggester,
	logger *slog.Logger,
) *InventoryService {
	if suggester == nil {
		suggester = vision.Disabled{}
	}
	return &InventoryService{
		items:     items,
		labels:    labels,
		suggester: suggester,
		logger:    logger,
	}
}

// BoxSummary is a box with its label, if any.
type BoxSummary struct {
	domain.Box
	Label string
}

type BoxesView struct {
	Boxes []BoxSummary
	Stats inventory.Stats
}

type BoxDetail struct {
	ID       string
	Label    string
	Location string
	Items    []domain.Item
}

// ListItems returns the owner's items filtered by q.Text and then sorted.
func (s *InventoryService) ListItems(ctx context.Context, ownerID string, q inventory.Query) ([]domain.Item, error) {
	items, err := s.items.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return inventory.Apply(items, q), nil
}

// ListBoxes groups the owner's items matching query into boxes. Boxes are
// ordered by their most recently added item.
func (s *InventoryService) ListBoxes(ctx context.Context, ownerID, query string) (*BoxesView, error) {
	items, err := s.items.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	labels, err := s.labels.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	boxes := inventory.GroupIntoBoxes(inventory.FilterItems(items, query))
	summaries := make([]BoxSummary, 0, len(boxes))
	for _, b := range boxes {
		summaries = append(summaries, BoxSummary{Box: b, Label: labels[b.ID]})
	}

	return &BoxesView{Boxes: summaries, Stats: inventory.ComputeStats(boxes)}, nil
}

// GetBox returns the box with its items filtered and sorted by q. A box
// with no items is still returned; boxes exist as soon as a label is
// printed.
func (s *InventoryService) GetBox(ctx context.Context, ownerID, boxID string, q inventory.Query) (*BoxDetail, error) {
	items, err := s.items.ListByBox(ctx, ownerID, boxID)
	if err != nil {
		return nil, err
	}
	label, _, err := s.labels.Get(ctx, ownerID, boxID)
	if err != nil {
		return nil, err
	}

	detail := &BoxDetail{ID: boxID, Label: label, Items: inventory.Apply(items, q)}
	if boxes := inventory.GroupIntoBoxes(items); len(boxes) > 0 {
		detail.Location = boxes[0].Location
	}
	return detail, nil
}

func (s *InventoryService) NewBoxID() string {
	return boxid.New()
}

func (s *InventoryService) CreateItem(ctx context.Context, in domain.NewItem) (*domain.Item, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.BoxID = strings.TrimSpace(in.BoxID)
	in.Location = strings.TrimSpace(in.Location)
	in.Description = strings.TrimSpace(in.Description)

	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidItem)
	}
	if in.BoxID == "" {
		return nil, fmt.Errorf("%w: box id is required", domain.ErrInvalidItem)
	}

	item, err := s.items.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("item created", "item_id", item.ID, "box_id", item.BoxID)
	return item, nil
}

// UpdateItem applies patch and returns the updated item.
func (s *InventoryService) UpdateItem(ctx context.Context, ownerID, id string, patch domain.ItemPatch) (*domain.Item, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", domain.ErrInvalidItem)
		}
		patch.Name = &name
	}
	if patch.BoxID != nil {
		box := strings.TrimSpace(*patch.BoxID)
		if box == "" {
			return nil, domain.ErrBoxIDRequired
		}
		patch.BoxID = &box
	}

	if err := s.items.Update(ctx, ownerID, id, patch); err != nil {
		return nil, err
	}
	return s.getItem(ctx, ownerID, id)
}

// MoveItem puts the item in another box.
func (s *InventoryService) MoveItem(ctx context.Context, ownerID, id, targetBoxID string) (*domain.Item, error) {
	item, err := s.getItem(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	target, err := inventory.ValidateMove(item.BoxID, targetBoxID)
	if err != nil {
		return nil, err
	}

	if err := s.items.Update(ctx, ownerID, id, domain.ItemPatch{BoxID: &target}); err != nil {
		return nil, err
	}
	s.logger.Info("item moved", "item_id", id, "from_box", item.BoxID, "to_box", target)

	item.BoxID = target
	return item, nil
}

func (s *InventoryService) DeleteItem(ctx context.Context, ownerID, id string) error {
	return s.items.Delete(ctx, ownerID, id)
}

// DeleteItems deletes every id it can and reports how many went. Ids that
// no longer exist are skipped; other failures are collected.
func (s *InventoryService) DeleteItems(ctx context.Context, ownerID string, ids []string) (int, error) {
	var (
		deleted int
		errs    []error
	)
	for _, id := range ids {
		err := s.items.Delete(ctx, ownerID, id)
		switch {
		case err == nil:
			deleted++
		case errors.Is(err, domain.ErrItemNotFound):
		default:
			errs = append(errs, fmt.Errorf("item %s: %w", id, err))
		}
	}
	if len(errs) > 0 {
		s.logger.Warn("batch delete incomplete", "deleted", deleted, "failed", len(errs))
	}
	return deleted, errors.Join(errs...)
}

// SetBoxLabel names a box. A blank name removes the label.
func (s *InventoryService) SetBoxLabel(ctx context.Context, ownerID, boxID, name string) error {
	boxID = strings.TrimSpace(boxID)
	if boxID == "" {
		return domain.ErrBoxIDRequired
	}
	return s.labels.Set(ctx, ownerID, boxID, name)
}

func (s *InventoryService) ExportCSV(ctx context.Context, ownerID string, w io.Writer) error {
	items, err := s.ListItems(ctx, ownerID, inventory.DefaultQuery())
	if err != nil {
		return err
	}
	return inventory.WriteCSV(w, items)
}

func (s *InventoryService) ExportXLSX(ctx context.Context, ownerID string, w io.Writer) error {
	items, err := s.ListItems(ctx, ownerID, inventory.DefaultQuery())
	if err != nil {
		return err
	}
	return inventory.WriteXLSX(w, items)
}

// SuggestItem asks the vision backend to name the item in a photo.
func (s *InventoryService) SuggestItem(ctx context.Context, imageData []byte, mimeType string) (*vision.Suggestion, error) {
	s.logger.Info("item suggestion started", "mime_type", mimeType, "bytes", len(imageData))
	suggestion, err := s.suggester.Suggest(ctx, bytes.NewReader(imageData), mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest item: %w", err)
	}
	return suggestion, nil
}

func (s *InventoryService) getItem(ctx context.Context, ownerID, id string) (*domain.Item, error) {
	item, err := s.items.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrItemNotFound
	}
	return item, nil
}
