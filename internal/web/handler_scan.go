package web

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	_ "golang.org/x/image/webp"
)

const defaultScanTimeout = time.Minute

type scanFrameResponse struct {
	Kind  string             `json:"kind"`
	BoxID string             `json:"boxId,omitempty"`
	Box   *boxDetailResponse `json:"box,omitempty"`
}

// handleScanFrame decodes one uploaded camera frame. It answers 422 when the
// frame holds no QR code.
func (s *Server) handleScanFrame(w http.ResponseWriter, r *http.Request) {
	data, _, ok := s.readImageUpload(w, r)
	if !ok {
		return
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		s.jsonError(w, http.StatusUnsupportedMediaType, "failed to decode image")
		return
	}

	result, err := s.scanner.ResolveFrame(r.Context(), ownerFrom(r.Context()), img)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if !result.Outcome.Accepted {
		writeJSON(w, http.StatusOK, scanFrameResponse{Kind: "rejected"}, s.logger)
		return
	}
	box := toBoxDetailResponse(result.Box)
	writeJSON(w, http.StatusOK, scanFrameResponse{
		Kind:  "accepted",
		BoxID: result.Outcome.BoxID,
		Box:   &box,
	}, s.logger)
}

// handleScanSession scans the configured camera until a box label is read.
// The session ends with the request, so a client that disconnects releases
// the camera.
func (s *Server) handleScanSession(w http.ResponseWriter, r *http.Request) {
	if !s.scanner.HasCamera() {
		s.jsonError(w, http.StatusServiceUnavailable, "no camera configured")
		return
	}

	timeout := s.cfg.ScanTimeout
	if timeout <= 0 {
		timeout = defaultScanTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	box, err := s.scanner.ScanBox(ctx, ownerFrom(r.Context()))
	if err != nil {
		if r.Context().Err() != nil {
			s.logger.Info("scan session abandoned by client")
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			s.jsonError(w, http.StatusGatewayTimeout, "no box label found before timeout")
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBoxDetailResponse(box), s.logger)
}
