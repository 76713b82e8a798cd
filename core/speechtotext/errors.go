package speechtotext

import "errors"

// ErrCaptureUnavailable is returned when speech capture cannot start at all,
// e.g. missing credentials or no audio input.
var ErrCaptureUnavailable = errors.New("speech capture unavailable")
