package audio

import "testing"

func TestEncodingFromMIMEType(t *testing.T) {
	testCases := []struct {
		name     string
		mimeType string
		expected EncodingInfo
	}{
		{name: "gemini pcm", mimeType: "audio/L16;codec=pcm;rate=24000", expected: EncodingInfo{SampleRate: 24000, Format: EncodingLinear16}},
		{name: "pcm without rate", mimeType: "audio/pcm", expected: EncodingInfo{SampleRate: DefaultSampleRate, Format: EncodingLinear16}},
		{name: "mulaw", mimeType: "audio/basic;rate=8000", expected: EncodingInfo{SampleRate: 8000, Format: EncodingMulaw}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := EncodingFromMIMEType(testCase.mimeType)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != testCase.expected {
				t.Fatalf("expected %+v, got %+v", testCase.expected, got)
			}
		})
	}
}

func TestEncodingFromMIMETypeRejectsCompressedAudio(t *testing.T) {
	if _, err := EncodingFromMIMEType("audio/mpeg"); err == nil {
		t.Fatalf("expected an error for compressed audio")
	}
}

func TestMIMETypeRoundTripsLinear16(t *testing.T) {
	info := EncodingInfo{SampleRate: 24000, Format: EncodingLinear16}

	got, err := EncodingFromMIMEType(info.MIMEType())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != info {
		t.Fatalf("expected %+v, got %+v", info, got)
	}
	if info.BytesPerSecond() != 48000 {
		t.Fatalf("expected 48000 bytes per second, got %d", info.BytesPerSecond())
	}
}
