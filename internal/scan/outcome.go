package scan

import "github.com/vbonduro/storagescout/internal/boxid"

// Outcome is the verdict on one decoded payload.
type Outcome struct {
	Accepted bool
	BoxID    string
}

func Resolve(payload string) Outcome {
	id, ok := boxid.Extract(payload)
	return Outcome{Accepted: ok, BoxID: id}
}
