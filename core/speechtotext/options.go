package speechtotext

// ListenOptions holds the callbacks of one listening session. Unset
// callbacks are simply not called, and providers may skip the work behind
// them.
type ListenOptions struct {
	OnSpeechStarted func()
	OnSpeechEnded   func()

	// OnInterim receives the running transcript of the session, words that
	// may still change included.
	OnInterim func(transcript string)
	// OnSegment receives every finalized piece of speech, in order.
	OnSegment func(segment string)
	// OnFinal receives the full transcript at most once per session.
	OnFinal func(transcript string)
}

type ListenOption func(*ListenOptions)

func NewListenOptions(opts ...ListenOption) ListenOptions {
	options := ListenOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithSpeechStartedCallback(callback func()) ListenOption {
	return func(o *ListenOptions) {
		o.OnSpeechStarted = callback
	}
}

func WithSpeechEndedCallback(callback func()) ListenOption {
	return func(o *ListenOptions) {
		o.OnSpeechEnded = callback
	}
}

func WithInterimCallback(callback func(transcript string)) ListenOption {
	return func(o *ListenOptions) {
		o.OnInterim = callback
	}
}

func WithSegmentCallback(callback func(segment string)) ListenOption {
	return func(o *ListenOptions) {
		o.OnSegment = callback
	}
}

func WithFinalCallback(callback func(transcript string)) ListenOption {
	return func(o *ListenOptions) {
		o.OnFinal = callback
	}
}
