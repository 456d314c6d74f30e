package report

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/PentesterFlow/harspec/internal/errors"
)

// Writer defines the interface for report writers.
type Writer interface {
	// WriteReport writes the complete run report
	WriteReport(r *RunReport) error

	// Close closes the writer
	Close() error
}

// JSONWriter writes reports in JSON format.
type JSONWriter struct {
	mu     sync.Mutex
	writer io.Writer
	pretty bool
	closed bool
}

// NewJSONWriter creates a new JSON report writer.
func NewJSONWriter(w io.Writer, pretty bool) *JSONWriter {
	return &JSONWriter{writer: w, pretty: pretty}
}

// WriteReport writes the complete run report.
func (j *JSONWriter) WriteReport(r *RunReport) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}

	var data []byte
	var err error
	if j.pretty {
		data, err = json.MarshalIndent(r, "", "  ")
	} else {
		data, err = json.Marshal(r)
	}
	if err != nil {
		return err
	}

	if _, err := j.writer.Write(data); err != nil {
		return err
	}
	_, err = j.writer.Write([]byte("\n"))
	return err
}

// Close closes the writer.
func (j *JSONWriter) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.closed = true
	if closer, ok := j.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// WriteFile writes a pretty-printed report to a file.
func WriteFile(path string, r *RunReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewIO(path, "write_report", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.NewIO(path, "write_report", err)
	}
	defer file.Close()

	w := NewJSONWriter(file, true)
	if err := w.WriteReport(r); err != nil {
		return errors.NewIO(path, "write_report", err)
	}
	return nil
}
