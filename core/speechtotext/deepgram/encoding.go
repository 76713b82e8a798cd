package deepgram

import (
	"errors"
	"fmt"
	"slices"

	"github.com/koscakluka/ema-vision/core/audio"
)

var errUnsupportedEncoding = errors.New("unsupported capture encoding")

var listenSampleRates = []int{8000, 16000, 24000, 32000, 48000}

// listenEncoding is the encoding and sample_rate pair sent to the listen
// endpoint for raw microphone audio.
type listenEncoding struct {
	name       string
	sampleRate int
}

func newListenEncoding(info audio.EncodingInfo) (listenEncoding, error) {
	if !slices.Contains(listenSampleRates, info.SampleRate) {
		return listenEncoding{}, fmt.Errorf("%w: sample rate %d", errUnsupportedEncoding, info.SampleRate)
	}

	encoding := listenEncoding{sampleRate: info.SampleRate}
	switch info.Format {
	case audio.EncodingLinear16:
		encoding.name = "linear16"
	case audio.EncodingALaw:
		encoding.name = "alaw"
	case audio.EncodingMulaw:
		encoding.name = "mulaw"
	default:
		return listenEncoding{}, fmt.Errorf("%w: format %q", errUnsupportedEncoding, info.Format.Name())
	}

	// Companded telephony audio is only accepted at 8 kHz.
	if encoding.name != "linear16" && info.SampleRate != 8000 {
		return listenEncoding{}, fmt.Errorf("%w: %s needs 8000 Hz, got %d", errUnsupportedEncoding, encoding.name, info.SampleRate)
	}
	return encoding, nil
}
