// File: internal/automation/sink.go
package automation

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ScreenshotSink stores named checkpoint captures. The automation decides
// when and what to capture; the sink decides where it lives.
type ScreenshotSink interface {
	// Save persists one capture and returns its destination path.
	Save(step string, png []byte) (string, error)
}

// FileSink writes screenshots to a directory with timestamped names.
type FileSink struct {
	Dir string
}

// Save writes the capture as screenshot_<step>_<timestamp>.png.
func (s *FileSink) Save(step string, png []byte) (string, error) {
	name := fmt.Sprintf("screenshot_%s_%s.png", step, time.Now().Format("20060102_150405"))
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("writing screenshot %s: %w", path, err)
	}
	return path, nil
}

// NopSink discards captures. Used in tests.
type NopSink struct{}

func (NopSink) Save(step string, _ []byte) (string, error) { return step, nil }
