package snapshot

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/storagescout/internal/scan"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	img.SetGray(1, 1, color.Gray{Y: 200})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRequestStreamAndFrame(t *testing.T) {
	body := pngBytes(t, 64, 48)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	cam := NewCamera(srv.URL, discardLogger)
	st, err := cam.RequestStream(context.Background(), scan.FacingEnvironment)
	require.NoError(t, err)

	frame, err := st.Frame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), frame.Bounds())
	assert.Equal(t, int32(2), hits.Load())

	require.NoError(t, st.Close())
	require.NoError(t, st.Close())
	_, err = st.Frame(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestRequestStreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, scan.ErrPermissionDenied},
		{"forbidden", http.StatusForbidden, scan.ErrPermissionDenied},
		{"server error", http.StatusInternalServerError, scan.ErrCameraUnavailable},
		{"not found", http.StatusNotFound, scan.ErrCameraUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := NewCamera(srv.URL, discardLogger).RequestStream(context.Background(), scan.FacingUser)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRequestStreamUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewCamera(url, discardLogger).RequestStream(context.Background(), scan.FacingEnvironment)
	assert.ErrorIs(t, err, scan.ErrCameraUnavailable)
}

func TestFrameRejectsGarbage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte("probe"))
			return
		}
		_, _ = w.Write([]byte("not an image"))
	}))
	defer srv.Close()

	st, err := NewCamera(srv.URL, discardLogger).RequestStream(context.Background(), scan.FacingEnvironment)
	require.NoError(t, err)
	defer st.Close()

	_, err = st.Frame(context.Background())
	assert.Error(t, err)
}
