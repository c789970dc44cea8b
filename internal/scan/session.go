package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Session scans one camera until a box id is found. A Session runs at most
// one scan at a time; after Close it cannot be run again.
type Session struct {
	camera  Camera
	decoder Decoder
	opts    Options
	logger  *slog.Logger

	mu      sync.Mutex
	status  Status
	stream  Stream
	running bool
	cancel  context.CancelFunc
	closed  bool
}

func NewSession(camera Camera, decoder Decoder, opts Options, logger *slog.Logger) *Session {
	def := DefaultOptions()
	if opts.Interval <= 0 {
		opts.Interval = def.Interval
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = def.MaxWidth
	}
	if opts.SuccessDelay < 0 {
		opts.SuccessDelay = 0
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.Facing == "" {
		opts.Facing = def.Facing
	}
	return &Session{
		camera:  camera,
		decoder: decoder,
		opts:    opts,
		logger:  logger,
	}
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Run acquires the camera and samples frames until a code resolves to a box
// id, which it returns. A code that does not resolve puts the session in
// the invalid-format error state and scanning resumes after RetryDelay.
// Permission denial and other camera failures end the run; calling Run
// again retries. Cancelling ctx or calling Close ends the run early.
func (s *Session) Run(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrSessionClosed
	}
	if s.running {
		s.mu.Unlock()
		return "", ErrSessionBusy
	}
	ctx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.releaseStream()
		s.mu.Lock()
		s.running = false
		s.cancel = nil
		s.mu.Unlock()
	}()

	for {
		s.transition(Status{State: StateRequestingPermission})

		stream, err := s.camera.RequestStream(ctx, s.opts.Facing)
		if err != nil {
			if ctx.Err() != nil {
				return "", s.stopped(ctx)
			}
			if errors.Is(err, ErrPermissionDenied) {
				s.transition(Status{State: StateError, Error: ErrorPermissionDenied})
				return "", err
			}
			s.transition(Status{State: StateError, Error: ErrorCameraUnavailable})
			if !errors.Is(err, ErrCameraUnavailable) {
				err = fmt.Errorf("%w: %w", ErrCameraUnavailable, err)
			}
			return "", err
		}
		if !s.holdStream(stream) {
			s.closeStream(stream)
			return "", s.stopped(ctx)
		}
		s.transition(Status{State: StateScanning})

		payload, err := s.scanFrames(ctx, stream)
		s.releaseStream()
		if err != nil {
			return "", s.stopped(ctx)
		}

		outcome := Resolve(payload)
		if s.opts.Observer != nil {
			s.opts.Observer.ObserveOutcome(outcome.Accepted)
		}

		if outcome.Accepted {
			s.transition(Status{State: StateSuccess, BoxID: outcome.BoxID})
			if err := sleep(ctx, s.opts.SuccessDelay); err != nil {
				return "", s.stopped(ctx)
			}
			return outcome.BoxID, nil
		}

		s.logger.Info("scanned code is not a box id", "payload_len", len(payload))
		s.transition(Status{State: StateError, Error: ErrorInvalidFormat})
		if err := sleep(ctx, s.opts.RetryDelay); err != nil {
			return "", s.stopped(ctx)
		}
	}
}

// Close stops any running scan and releases the camera. It is safe to call
// more than once and from any goroutine.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel := s.cancel
	stream := s.stream
	s.stream = nil
	s.status = Status{State: StateIdle}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.notify(Status{State: StateIdle})

	if stream != nil {
		if err := stream.Close(); err != nil {
			return fmt.Errorf("failed to release camera stream: %w", err)
		}
	}
	return nil
}

func (s *Session) scanFrames(ctx context.Context, stream Stream) (string, error) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			if payload, ok := s.sampleFrame(ctx, stream); ok {
				return payload, nil
			}
		}
	}
}

// sampleFrame reports false for every failure: capture errors, empty
// frames and decoder panics all mean "try the next tick".
func (s *Session) sampleFrame(ctx context.Context, stream Stream) (payload string, found bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("decoder panicked", "panic", r)
			payload, found = "", false
		}
		if s.opts.Observer != nil {
			s.opts.Observer.ObserveFrame(found)
		}
	}()

	frame, err := stream.Frame(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Debug("frame capture failed", "error", err)
		}
		return "", false
	}

	payload, err = s.decoder.Decode(Downscale(frame, s.opts.MaxWidth))
	if err != nil {
		if !errors.Is(err, ErrNoCode) {
			s.logger.Debug("frame decode failed", "error", err)
		}
		return "", false
	}
	return payload, true
}

func (s *Session) transition(next Status) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	prev := s.status
	s.status = next
	s.mu.Unlock()

	s.logger.Debug("scan state changed",
		"from", prev.State.String(),
		"to", next.State.String(),
		"error", next.Error.String(),
	)
	s.notify(next)
}

func (s *Session) notify(st Status) {
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveTransition(st)
	}
}

// stopped settles the session after an early exit and reports why.
func (s *Session) stopped(ctx context.Context) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}
	s.transition(Status{State: StateIdle})
	return ctx.Err()
}

func (s *Session) holdStream(stream Stream) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.stream = stream
	return true
}

func (s *Session) releaseStream() {
	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.mu.Unlock()
	if stream != nil {
		s.closeStream(stream)
	}
}

func (s *Session) closeStream(stream Stream) {
	if err := stream.Close(); err != nil {
		s.logger.Warn("failed to release camera stream", "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
