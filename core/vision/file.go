package vision

import (
	"net/http"
	"os"
	"time"
)

// FileFrameSource reads the frame from an image file that a camera process
// keeps overwriting. The file modification time is the capture time.
type FileFrameSource struct {
	path   string
	maxAge time.Duration
	now    func() time.Time
}

func NewFileFrameSource(path string, maxAge time.Duration) *FileFrameSource {
	return &FileFrameSource{path: path, maxAge: maxAge, now: time.Now}
}

func (f *FileFrameSource) CurrentFrame() (Frame, bool) {
	info, err := os.Stat(f.path)
	if err != nil {
		logger.Debug("frame file not available", "path", f.path, "error", err)
		return Frame{}, false
	}
	if f.maxAge > 0 && f.now().Sub(info.ModTime()) > f.maxAge {
		return Frame{}, false
	}

	data, err := os.ReadFile(f.path)
	if err != nil || len(data) == 0 {
		logger.Debug("failed to read frame file", "path", f.path, "error", err)
		return Frame{}, false
	}

	return Frame{
		Data:       data,
		MIMEType:   http.DetectContentType(data),
		CapturedAt: info.ModTime(),
	}, true
}
