package miniaudio

import (
	"context"
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-vision/core/audio"
)

const (
	defaultCaptureSampleRate  = audio.DefaultSampleRate
	defaultPlaybackSampleRate = 24000
)

// Client owns one malgo context with a capture and a playback device. It
// satisfies the deepgram capture AudioInput and the texttospeech AudioOutput.
type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playbackClient
	captureClient
}

type options struct {
	captureSampleRate  int
	playbackSampleRate int
}

type Option func(*options)

func WithCaptureSampleRate(sampleRate int) Option {
	return func(o *options) { o.captureSampleRate = sampleRate }
}

func WithPlaybackSampleRate(sampleRate int) Option {
	return func(o *options) { o.playbackSampleRate = sampleRate }
}

func NewClient(opts ...Option) (*Client, error) {
	o := options{
		captureSampleRate:  defaultCaptureSampleRate,
		playbackSampleRate: defaultPlaybackSampleRate,
	}
	for _, opt := range opts {
		opt(&o)
	}

	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {})
	if err != nil {
		return nil, fmt.Errorf("malgo InitContext failed: %w", err)
	}

	client := Client{audioContext: audioCtx}

	if err := client.playbackClient.Init(audioCtx, o.playbackSampleRate); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}

	if err := client.playbackClient.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	if err := client.captureClient.Init(audioCtx, o.captureSampleRate); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture client: %w", err)
	}

	return &client, nil
}

func (c *Client) StartCapture(_ context.Context, onAudio func(audio []byte)) error {
	return c.captureClient.Start(onAudio)
}

func (c *Client) StopCapture() error {
	return c.captureClient.Stop()
}

func (c *Client) CaptureEncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: c.captureClient.sampleRate,
		Format:     audio.EncodingLinear16,
	}
}

func (c *Client) Close() {
	_ = c.captureClient.Uninit()
	_ = c.playbackClient.Uninit()
	if c.audioContext != nil {
		_ = c.audioContext.Uninit()
		c.audioContext.Free()
	}
}

func (c *Client) SendAudio(audio []byte) error {
	return c.playbackClient.SendAudio(audio)
}

func (c *Client) ClearBuffer() {
	c.playbackClient.ClearBuffer()
}

func (c *Client) Mark(mark string, callback func(string)) error {
	return c.playbackClient.Mark(mark, callback)
}

// EncodingInfo describes the playback device.
func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: c.playbackClient.sampleRate,
		Format:     audio.EncodingLinear16,
	}
}
