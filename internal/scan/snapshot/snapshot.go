// Package snapshot implements scan.Camera for network cameras that serve a
// still image at a fixed URL.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/vbonduro/storagescout/internal/scan"
)

const maxSnapshotSize = 20 * 1024 * 1024

var errStreamClosed = errors.New("stream closed")

type Camera struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewCamera(url string, logger *slog.Logger) *Camera {
	return &Camera{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// RequestStream checks the camera answers before handing out a stream. A
// 401 or 403 is reported as scan.ErrPermissionDenied. The facing hint is
// ignored since a network camera has a single lens.
func (c *Camera) RequestStream(ctx context.Context, facing scan.Facing) (scan.Stream, error) {
	c.logger.Debug("requesting camera stream", "url", c.url, "facing", string(facing))

	resp, err := c.get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", scan.ErrCameraUnavailable, err)
	}
	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxSnapshotSize)); err != nil {
		c.logger.Debug("failed to drain probe response", "error", err)
	}
	closeBody(resp, c.logger)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: camera returned %d", scan.ErrPermissionDenied, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: camera returned %d", scan.ErrCameraUnavailable, resp.StatusCode)
	}

	return &stream{camera: c}, nil
}

func (c *Camera) get(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach camera: %w", err)
	}
	return resp, nil
}

type stream struct {
	camera *Camera
	closed atomic.Bool
}

func (s *stream) Frame(ctx context.Context) (image.Image, error) {
	if s.closed.Load() {
		return nil, errStreamClosed
	}

	resp, err := s.camera.get(ctx)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp, s.camera.logger)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera returned %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxSnapshotSize))
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return img, nil
}

func (s *stream) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.camera.client.CloseIdleConnections()
	}
	return nil
}

func closeBody(resp *http.Response, logger *slog.Logger) {
	if err := resp.Body.Close(); err != nil {
		logger.Error("failed to close response body", "error", err)
	}
}
