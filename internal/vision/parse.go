package vision

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	openingFence = regexp.MustCompile("^```(?:json)?\\s*")
	closingFence = regexp.MustCompile("\\s*```$")
)

// ParseSuggestion reads the model's JSON answer, tolerating a markdown code
// fence around it.
func ParseSuggestion(raw string) (*Suggestion, error) {
	text := strings.TrimSpace(raw)
	text = openingFence.ReplaceAllString(text, "")
	text = closingFence.ReplaceAllString(text, "")

	var body struct {
		ItemName        string `json:"itemName"`
		ItemDescription string `json:"itemDescription"`
	}
	if err := json.Unmarshal([]byte(text), &body); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion: %w", err)
	}

	name := strings.TrimSpace(body.ItemName)
	if name == "" {
		return nil, fmt.Errorf("failed to parse suggestion: missing itemName")
	}

	return &Suggestion{
		Name:        name,
		Description: strings.TrimSpace(body.ItemDescription),
		RawResponse: raw,
	}, nil
}
