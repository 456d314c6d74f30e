package capture

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/PentesterFlow/harspec/internal/errors"
)

// CreatorName identifies this tool in written HAR documents.
const CreatorName = "harspec"

// CreatorVersion is stamped into written HAR documents.
var CreatorVersion = "1.0.0"

// BuildDocument reconstructs a HAR document from an exchange sequence.
// Used to persist sanitized copies in a format structurally identical to
// the input.
func BuildDocument(exchanges []*Exchange) *Document {
	entries := make([]*Entry, 0, len(exchanges))
	for _, ex := range exchanges {
		entries = append(entries, toEntry(ex))
	}
	return &Document{
		Log: &Log{
			Version: "1.2",
			Creator: Creator{Name: CreatorName, Version: CreatorVersion},
			Entries: entries,
		},
	}
}

func toEntry(ex *Exchange) *Entry {
	req := &Request{
		Method:      ex.Method,
		URL:         ex.RebuildURL(),
		HTTPVersion: ex.HTTPVersion,
		Headers:     append([]Param(nil), ex.RequestHeaders...),
		QueryString: append([]Param(nil), ex.Query...),
		HeadersSize: -1,
		BodySize:    int(ex.RequestBody.Size),
	}
	if req.Headers == nil {
		req.Headers = []Param{}
	}
	if req.QueryString == nil {
		req.QueryString = []Param{}
	}
	if ex.RequestBody.Text != "" || ex.RequestBody.MimeType != "" {
		req.PostData = &PostData{
			MimeType: ex.RequestBody.MimeType,
			Text:     ex.RequestBody.Text,
		}
	}

	content := &Content{
		Size:     ex.ResponseBody.Size,
		MimeType: ex.ResponseBody.MimeType,
		Text:     ex.ResponseBody.Text,
		Encoding: ex.ResponseBody.Encoding,
	}
	// Bodies decoded from base64 at load time are re-encoded so the written
	// document matches the input's shape.
	if content.Encoding == "base64" && !ex.ResponseBody.Opaque {
		content.Text = base64.StdEncoding.EncodeToString([]byte(ex.ResponseBody.Text))
	}

	resp := &Response{
		Status:      ex.Status,
		StatusText:  ex.StatusText,
		HTTPVersion: ex.HTTPVersion,
		Headers:     append([]Param(nil), ex.ResponseHeaders...),
		Content:     content,
		HeadersSize: -1,
		BodySize:    int(ex.ResponseBody.Size),
	}
	if resp.Headers == nil {
		resp.Headers = []Param{}
	}

	return &Entry{
		StartedDateTime: ex.StartedAt,
		Time:            ex.TimeMillis,
		Request:         req,
		Response:        resp,
	}
}

// RebuildURL reassembles the URL from parsed parts so sanitized query values
// are reflected in the written URL, not just the queryString list.
func (ex *Exchange) RebuildURL() string {
	if ex.Scheme == "" || ex.Host == "" {
		return ex.URL
	}
	u := url.URL{Scheme: ex.Scheme, Host: ex.Host, Path: ex.Path}
	if len(ex.Query) > 0 {
		q := url.Values{}
		for _, p := range ex.Query {
			q.Add(p.Name, p.Value)
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Write writes the exchanges as an indented HAR document.
func Write(w io.Writer, exchanges []*Exchange) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(BuildDocument(exchanges))
}

// WriteFile writes the exchanges as a HAR file, creating the directory if
// needed.
func WriteFile(path string, exchanges []*Exchange) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewIO(path, "write_har", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.NewIO(path, "write_har", err)
	}
	defer file.Close()

	if err := Write(file, exchanges); err != nil {
		return errors.NewIO(path, "write_har", err)
	}
	return nil
}
