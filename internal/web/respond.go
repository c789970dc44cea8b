package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vbonduro/storagescout/internal/domain"
	"github.com/vbonduro/storagescout/internal/scan"
	"github.com/vbonduro/storagescout/internal/service"
	"github.com/vbonduro/storagescout/internal/vision"
)

const maxJSONBody = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg}, s.logger)
}

// writeError maps err onto a status code. Server-side failures are logged
// and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.jsonError(w, status, "internal error")
		return
	}
	s.jsonError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidItem),
		errors.Is(err, domain.ErrBoxIDRequired),
		errors.Is(err, scan.ErrNoCode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSameBox),
		errors.Is(err, scan.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, scan.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, scan.ErrCameraUnavailable),
		errors.Is(err, service.ErrNoCamera),
		errors.Is(err, vision.ErrDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// decodeValid decodes the JSON body into T and validates it. On failure it
// writes the response and returns false.
func decodeValid[T any](s *Server, w http.ResponseWriter, r *http.Request) (*T, bool) {
	var req T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}
	if err := validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": validationFields(err),
		}, s.logger)
		return nil, false
	}
	return &req, true
}

func validationFields(err error) map[string]string {
	fields := make(map[string]string)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fields
	}
	for _, fe := range ve {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "this field is required"
		case "max":
			fields[fe.Field()] = fmt.Sprintf("maximum length is %s", fe.Param())
		case "min":
			fields[fe.Field()] = fmt.Sprintf("minimum length is %s", fe.Param())
		default:
			fields[fe.Field()] = fmt.Sprintf("failed on '%s'", fe.Tag())
		}
	}
	return fields
}
