package inventory

import (
	"strings"

	"github.com/vbonduro/storagescout/internal/domain"
)

// FilterItems keeps the items where the trimmed, case-folded query is a
// substring of the name, description, location, box id or any tag. A blank
// query returns items unchanged.
func FilterItems(items []domain.Item, query string) []domain.Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}

	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if matches(it, q) {
			out = append(out, it)
		}
	}
	return out
}

func matches(it domain.Item, q string) bool {
	for _, field := range []string{it.Name, it.Description, it.Location, it.BoxID} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, tag := range it.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// ParseTags splits a comma separated tag list, trimming each tag and
// dropping empty ones.
func ParseTags(s string) []string {
	var tags []string
	for _, part := range strings.Split(s, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ValidateMove checks that target names a box other than the current one
// and returns the trimmed target.
func ValidateMove(current, target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", domain.ErrBoxIDRequired
	}
	if target == current {
		return "", domain.ErrSameBox
	}
	return target, nil
}
