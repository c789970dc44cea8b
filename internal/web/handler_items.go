package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/storagescout/internal/domain"
	"github.com/vbonduro/storagescout/internal/inventory"
)

type itemResponse struct {
	ID          string    `json:"id"`
	BoxID       string    `json:"boxId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}

func toItemResponse(it domain.Item) itemResponse {
	return itemResponse{
		ID:          it.ID,
		BoxID:       it.BoxID,
		Name:        it.Name,
		Description: it.Description,
		Location:    it.Location,
		ImageURL:    it.ImageURL,
		Tags:        it.Tags,
		CreatedAt:   it.CreatedAt,
	}
}

func toItemResponses(items []domain.Item) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResponse(it))
	}
	return out
}

type createItemRequest struct {
	BoxID       string   `json:"boxId" validate:"required,max=200"`
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	Location    string   `json:"location" validate:"required,max=200"`
	ImageURL    string   `json:"imageUrl" validate:"max=2048"`
	Tags        []string `json:"tags" validate:"max=50,dive,max=64"`
}

type updateItemRequest struct {
	BoxID       *string   `json:"boxId" validate:"omitempty,max=200"`
	Name        *string   `json:"name" validate:"omitempty,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	Location    *string   `json:"location" validate:"omitempty,max=200"`
	ImageURL    *string   `json:"imageUrl" validate:"omitempty,max=2048"`
	Tags        *[]string `json:"tags" validate:"omitempty,max=50,dive,max=64"`
}

type moveItemRequest struct {
	BoxID string `json:"boxId" validate:"required,max=200"`
}

type batchDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500,dive,required"`
}

// parseQuery reads q, sort and dir. Missing sort and dir default to newest
// first; unknown values are rejected.
func parseQuery(r *http.Request) (inventory.Query, bool) {
	q := inventory.DefaultQuery()
	v := r.URL.Query()
	q.Text = v.Get("q")

	if raw := v.Get("sort"); raw != "" {
		field, ok := inventory.ParseSortField(raw)
		if !ok {
			return q, false
		}
		q.Sort = field
		if field != inventory.SortByDate {
			q.Dir = inventory.Asc
		}
	}
	if raw := v.Get("dir"); raw != "" {
		dir, ok := inventory.ParseDirection(raw)
		if !ok {
			return q, false
		}
		q.Dir = dir
	}
	return q, true
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	q, ok := parseQuery(r)
	if !ok {
		s.jsonError(w, http.StatusBadRequest, "invalid sort or dir")
		return
	}

	items, err := s.inventory.ListItems(r.Context(), ownerFrom(r.Context()), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": toItemResponses(items)}, s.logger)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[createItemRequest](s, w, r)
	if !ok {
		return
	}

	item, err := s.inventory.CreateItem(r.Context(), domain.NewItem{
		UserID:      ownerFrom(r.Context()),
		BoxID:       req.BoxID,
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
		Tags:        req.Tags,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(*item), s.logger)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[updateItemRequest](s, w, r)
	if !ok {
		return
	}

	item, err := s.inventory.UpdateItem(r.Context(), ownerFrom(r.Context()), chi.URLParam(r, "id"), domain.ItemPatch{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		BoxID:       req.BoxID,
		ImageURL:    req.ImageURL,
		Tags:        req.Tags,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(*item), s.logger)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.inventory.DeleteItem(r.Context(), ownerFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveItem(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[moveItemRequest](s, w, r)
	if !ok {
		return
	}

	item, err := s.inventory.MoveItem(r.Context(), ownerFrom(r.Context()), chi.URLParam(r, "id"), req.BoxID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(*item), s.logger)
}

func (s *Server) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[batchDeleteRequest](s, w, r)
	if !ok {
		return
	}

	deleted, err := s.inventory.DeleteItems(r.Context(), ownerFrom(r.Context()), req.IDs)
	if err != nil {
		s.logger.Error("batch delete failed", "deleted", deleted, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"deleted": deleted,
			"error":   "some items could not be deleted",
		}, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted}, s.logger)
}
