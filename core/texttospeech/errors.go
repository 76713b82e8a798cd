package texttospeech

import "errors"

// ErrPlayback marks failures to produce or play speech.
var ErrPlayback = errors.New("speech playback failed")
