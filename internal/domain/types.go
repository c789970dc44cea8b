package domain

import (
	"errors"
	"time"
)

var (
	ErrItemNotFound  = errors.New("item not found")
	ErrInvalidItem   = errors.New("invalid item")
	ErrBoxIDRequired = errors.New("target box id is required")
	ErrSameBox       = errors.New("item is already in this box")
)

// Item is one inventory record. BoxID ties it to a physical box; there is
// no requirement that any other item shares the box.
type Item struct {
	ID          string
	UserID      string
	BoxID       string
	Name        string
	Description string
	Location    string
	ImageURL    string
	Tags        []string
	CreatedAt   time.Time
}

// NewItem carries the caller-supplied fields for a create.
type NewItem struct {
	UserID      string
	BoxID       string
	Name        string
	Description string
	Location    string
	ImageURL    string
	Tags        []string
}

// ItemPatch is a partial update. Nil fields are left unchanged.
type ItemPatch struct {
	Name        *string
	Description *string
	Location    *string
	BoxID       *string
	ImageURL    *string
	Tags        *[]string
}

func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Location == nil &&
		p.BoxID == nil && p.ImageURL == nil && p.Tags == nil
}

// Box is derived from items sharing a BoxID. It is never stored.
type Box struct {
	ID       string
	Items    []Item
	Location string
}

type BoxLabel struct {
	BoxID  string
	Name   string
	UserID string
}
