package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

type exportFunc func(ctx context.Context, ownerID string, w io.Writer) error

// export renders the whole inventory into memory first so a failure can
// still be reported as an error status.
func (s *Server) export(w http.ResponseWriter, r *http.Request, ext, contentType string, render exportFunc) {
	var buf bytes.Buffer
	if err := render(r.Context(), ownerFrom(r.Context()), &buf); err != nil {
		s.writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("inventory-%s.%s", time.Now().UTC().Format(time.DateOnly), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("write export failed", "format", ext, "error", err)
	}
}
