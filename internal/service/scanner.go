package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/vbonduro/storagescout/internal/inventory"
	"github.com/vbonduro/storagescout/internal/scan"
)

var ErrNoCamera = errors.New("no camera configured")

// Scanner resolves QR box labels, either from a live camera session or
// from a single uploaded frame, to the box contents.
type Scanner struct {
	inventory *InventoryService
	camera    scan.Camera
	decoder   scan.Decoder
	opts      scan.Options
	logger    *slog.Logger
}

// NewScanner returns a Scanner. camera may be nil, in which case only
// ResolveFrame is available.
func NewScanner(inv *InventoryService, camera scan.Camera, decoder scan.Decoder, opts scan.Options, logger *slog.Logger) *Scanner {
	return &Scanner{
		inventory: inv,
		camera:    camera,
		decoder:   decoder,
		opts:      opts,
		logger:    logger,
	}
}

func (sc *Scanner) HasCamera() bool {
	return sc.camera != nil
}

// ScanBox runs a scan session until a box label is read or ctx ends, then
// returns that box newest items first.
func (sc *Scanner) ScanBox(ctx context.Context, ownerID string) (*BoxDetail, error) {
	if sc.camera == nil {
		return nil, ErrNoCamera
	}

	session := scan.NewSession(sc.camera, sc.decoder, sc.opts, sc.logger)
	defer func() {
		if err := session.Close(); err != nil {
			sc.logger.Warn("failed to close scan session", "error", err)
		}
	}()

	boxID, err := session.Run(ctx)
	if err != nil {
		return nil, err
	}
	sc.logger.Info("box scanned", "box_id", boxID)

	return sc.inventory.GetBox(ctx, ownerID, boxID, inventory.DefaultQuery())
}

// FrameResult is the verdict on one uploaded frame. Box is set when the
// code resolved to a box id.
type FrameResult struct {
	Outcome scan.Outcome
	Box     *BoxDetail
}

// ResolveFrame decodes a single image the same way a live session treats a
// frame. It returns scan.ErrNoCode when the image holds no QR code.
func (sc *Scanner) ResolveFrame(ctx context.Context, ownerID string, img image.Image) (*FrameResult, error) {
	payload, err := sc.decoder.Decode(scan.Downscale(img, sc.opts.MaxWidth))
	if err != nil {
		if errors.Is(err, scan.ErrNoCode) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	outcome := scan.Resolve(payload)
	if sc.opts.Observer != nil {
		sc.opts.Observer.ObserveOutcome(outcome.Accepted)
	}
	if !outcome.Accepted {
		return &FrameResult{Outcome: outcome}, nil
	}

	box, err := sc.inventory.GetBox(ctx, ownerID, outcome.BoxID, inventory.DefaultQuery())
	if err != nil {
		return nil, err
	}
	return &FrameResult{Outcome: outcome, Box: box}, nil
}
