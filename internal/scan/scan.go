// Package scan drives a camera through the QR box-scan state machine:
// acquire a stream, sample frames on a fixed period, decode them, and
// resolve the first decoded payload to a box identifier.
package scan

import (
	"context"
	"errors"
	"image"
	"time"
)

var (
	ErrPermissionDenied  = errors.New("camera permission denied")
	ErrCameraUnavailable = errors.New("camera unavailable")
	ErrNoCode            = errors.New("no code found in frame")
	ErrSessionBusy       = errors.New("scan session already running")
	ErrSessionClosed     = errors.New("scan session closed")
)

// Facing selects which camera to use on devices with more than one.
type Facing string

const (
	FacingEnvironment Facing = "environment"
	FacingUser        Facing = "user"
)

// Camera hands out frame streams. Implementations return an error wrapping
// ErrPermissionDenied when access is refused.
type Camera interface {
	RequestStream(ctx context.Context, facing Facing) (Stream, error)
}

// Stream is a live camera feed. Close releases the underlying device.
type Stream interface {
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// Decoder finds a QR code in a frame and returns its text. It returns
// ErrNoCode when the frame holds no readable code.
type Decoder interface {
	Decode(img image.Image) (string, error)
}

// Observer receives session events. Calls are made synchronously from the
// goroutine running the session.
type Observer interface {
	ObserveTransition(to Status)
	ObserveFrame(found bool)
	ObserveOutcome(accepted bool)
}

type State int

const (
	StateIdle State = iota
	StateRequestingPermission
	StateScanning
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequestingPermission:
		return "requesting-permission"
	case StateScanning:
		return "scanning"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrorKind qualifies StateError.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorPermissionDenied
	ErrorCameraUnavailable
	ErrorInvalidFormat
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return ""
	case ErrorPermissionDenied:
		return "permission-denied"
	case ErrorCameraUnavailable:
		return "camera-unavailable"
	case ErrorInvalidFormat:
		return "invalid-format"
	default:
		return "unknown"
	}
}

// Status is a snapshot of a session. BoxID is set only in StateSuccess and
// Error only in StateError.
type Status struct {
	State State
	Error ErrorKind
	BoxID string
}

type Options struct {
	// Interval between frame samples.
	Interval time.Duration
	// MaxWidth frames are scaled down to before decoding.
	MaxWidth int
	// SuccessDelay is held in StateSuccess before the id is returned.
	SuccessDelay time.Duration
	// RetryDelay is held after an unrecognised code before scanning again.
	RetryDelay time.Duration
	Facing     Facing
	Observer   Observer
}

func DefaultOptions() Options {
	return Options{
		Interval:     80 * time.Millisecond,
		MaxWidth:     640,
		SuccessDelay: 500 * time.Millisecond,
		RetryDelay:   2 * time.Second,
		Facing:       FacingEnvironment,
	}
}
