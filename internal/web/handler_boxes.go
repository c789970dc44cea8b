package web

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/storagescout/internal/boxid"
	"github.com/vbonduro/storagescout/internal/scan/qr"
	"github.com/vbonduro/storagescout/internal/service"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024

	// untitledBox is shown for boxes that have no label.
	untitledBox = "Box Contents"
)

type boxSummaryResponse struct {
	ID        string         `json:"id"`
	Label     string         `json:"label,omitempty"`
	Location  string         `json:"location"`
	ItemCount int            `json:"itemCount"`
	Items     []itemResponse `json:"items"`
}

type boxDetailResponse struct {
	ID       string         `json:"id"`
	Label    string         `json:"label,omitempty"`
	Title    string         `json:"title"`
	Location string         `json:"location"`
	Items    []itemResponse `json:"items"`
}

func toBoxDetailResponse(b *service.BoxDetail) boxDetailResponse {
	title := b.Label
	if title == "" {
		title = untitledBox
	}
	return boxDetailResponse{
		ID:       b.ID,
		Label:    b.Label,
		Title:    title,
		Location: b.Location,
		Items:    toItemResponses(b.Items),
	}
}

type setLabelRequest struct {
	Name string `json:"name" validate:"max=200"`
}

func (s *Server) handleListBoxes(w http.ResponseWriter, r *http.Request) {
	view, err := s.inventory.ListBoxes(r.Context(), ownerFrom(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	boxes := make([]boxSummaryResponse, 0, len(view.Boxes))
	for _, b := range view.Boxes {
		boxes = append(boxes, boxSummaryResponse{
			ID:        b.ID,
			Label:     b.Label,
			Location:  b.Location,
			ItemCount: len(b.Items),
			Items:     toItemResponses(b.Items),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"boxes": boxes, "stats": view.Stats}, s.logger)
}

func (s *Server) handleNewBox(w http.ResponseWriter, r *http.Request) {
	id := s.inventory.NewBoxID()
	writeJSON(w, http.StatusCreated, map[string]string{
		"boxId": id,
		"url":   boxid.PayloadURL(s.cfg.PublicBaseURL, id),
		"qr":    "/boxes/" + id + "/qr.png",
	}, s.logger)
}

func (s *Server) handleGetBox(w http.ResponseWriter, r *http.Request) {
	q, ok := parseQuery(r)
	if !ok {
		s.jsonError(w, http.StatusBadRequest, "invalid sort or dir")
		return
	}

	box, err := s.inventory.GetBox(r.Context(), ownerFrom(r.Context()), chi.URLParam(r, "id"), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBoxDetailResponse(box), s.logger)
}

func (s *Server) handleSetLabel(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[setLabelRequest](s, w, r)
	if !ok {
		return
	}

	if err := s.inventory.SetBoxLabel(r.Context(), ownerFrom(r.Context()), chi.URLParam(r, "id"), req.Name); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBoxQR renders the printable label for a box. The code encodes the
// box URL so that phone cameras open the box page directly.
func (s *Server) handleBoxQR(w http.ResponseWriter, r *http.Request) {
	id, ok := boxid.Extract(chi.URLParam(r, "id"))
	if !ok {
		s.jsonError(w, http.StatusBadRequest, "invalid box id")
		return
	}

	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minQRSize || n > maxQRSize {
			s.jsonError(w, http.StatusBadRequest, "size must be between 64 and 1024")
			return
		}
		size = n
	}

	var buf bytes.Buffer
	if err := qr.WritePNG(&buf, boxid.PayloadURL(s.cfg.PublicBaseURL, id), size); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("write qr failed", "box_id", id, "error", err)
	}
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "csv", "text/csv; charset=utf-8", s.inventory.ExportCSV)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", s.inventory.ExportXLSX)
}
