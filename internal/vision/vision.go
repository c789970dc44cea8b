package vision

import (
	"context"
	"errors"
	"io"
)

var ErrDisabled = errors.New("vision backend disabled")

// SuggestionPrompt is the shared prompt used by all vision adapters.
const SuggestionPrompt = `You are an expert at identifying objects. Analyze this image and respond with ONLY a JSON object (no markdown, no code fences) with these fields:
- "itemName": a concise name for the item
- "itemDescription": a brief descriptive summary of the item`

// Suggester proposes a name and description for the item in a photo.
type Suggester interface {
	Suggest(ctx context.Context, r io.Reader, mimeType string) (*Suggestion, error)
}

type Suggestion struct {
	Name        string
	Description string
	RawResponse string
}

// Disabled is the Suggester used when no backend is configured.
type Disabled struct{}

func (Disabled) Suggest(context.Context, io.Reader, string) (*Suggestion, error) {
	return nil, ErrDisabled
}
