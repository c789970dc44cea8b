// Package boxid turns decoded QR payloads into box identifiers.
package boxid

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	uuidPattern   = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	simplePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,}$`)
)

// Extract returns the box identifier carried by raw, or false when raw does
// not carry one. A UUID found anywhere in the text wins, with its original
// casing. Otherwise the whole trimmed text is accepted if it is at least
// three characters of letters, digits, '-' or '_'.
func Extract(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", false
	}

	if id := uuidPattern.FindString(text); id != "" {
		return id, true
	}

	if simplePattern.MatchString(text) {
		return text, true
	}

	return "", false
}

// New mints a fresh box identifier.
func New() string {
	return uuid.NewString()
}

// PayloadURL is the text printed into a box's QR label. Extract recovers id
// from it.
func PayloadURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/box/" + id
}
