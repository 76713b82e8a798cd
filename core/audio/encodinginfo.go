package audio

import (
	"fmt"
	"mime"
	"strconv"
	"strings"
)

const (
	DefaultSampleRate = 16000
	DefaultFormat     = "linear16"
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: EncodingLinear16}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

func (e EncodingInfo) SilenceValue() byte {
	switch e.Format {
	case EncodingALaw:
		return 0x55
	case EncodingMulaw:
		return 0xFF
	case EncodingLinear16:
		return 0
	}

	return 0
}

// BytesPerSecond returns the mono byte rate, or 0 for unknown formats.
func (e EncodingInfo) BytesPerSecond() int {
	size := e.Format.ByteSize()
	if size <= 0 {
		return 0
	}
	return e.SampleRate * size
}

// MIMEType renders the encoding the way Gemini reports raw PCM, e.g.
// "audio/L16;codec=pcm;rate=24000".
func (e EncodingInfo) MIMEType() string {
	switch e.Format {
	case EncodingLinear16:
		return "audio/L16;codec=pcm;rate=" + strconv.Itoa(e.SampleRate)
	case EncodingMulaw:
		return "audio/basic;rate=" + strconv.Itoa(e.SampleRate)
	case EncodingALaw:
		return "audio/x-alaw-basic;rate=" + strconv.Itoa(e.SampleRate)
	}
	return ""
}

// EncodingFromMIMEType parses raw PCM mime types such as
// "audio/L16;codec=pcm;rate=24000" or "audio/pcm;rate=16000".
func EncodingFromMIMEType(mimeType string) (EncodingInfo, error) {
	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return EncodingInfo{}, fmt.Errorf("invalid audio mime type %q: %w", mimeType, err)
	}

	info := EncodingInfo{}
	switch strings.ToLower(mediaType) {
	case "audio/l16", "audio/pcm":
		info.Format = EncodingLinear16
	case "audio/basic", "audio/mulaw":
		info.Format = EncodingMulaw
	case "audio/x-alaw-basic", "audio/alaw":
		info.Format = EncodingALaw
	default:
		return EncodingInfo{}, fmt.Errorf("unsupported audio mime type %q", mediaType)
	}

	if rate, ok := params["rate"]; ok {
		if info.SampleRate, err = strconv.Atoi(rate); err != nil {
			return EncodingInfo{}, fmt.Errorf("invalid sample rate %q: %w", rate, err)
		}
	} else {
		info.SampleRate = DefaultSampleRate
	}

	return info, nil
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
	EncodingLinear16 encodingFormat = "linear16"
)
