package remote

// Request is the body accepted by the speech endpoint.
type Request struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId,omitempty"`
}

// Response carries the synthesized audio. AudioBytes is base64 on the wire.
type Response struct {
	AudioBytes []byte `json:"audioBytes"`
	MIMEType   string `json:"mimeType"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	ErrorMessage string `json:"errorMessage"`
}
