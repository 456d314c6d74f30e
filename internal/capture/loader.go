package capture

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"os"
	"strings"

	"github.com/PentesterFlow/harspec/internal/errors"
)

// Load reads a HAR file and returns its exchanges in capture order.
// Recoverable per-entry problems are recorded on warns; a missing log/entries
// structure is a fatal MalformedCapture error.
func Load(path string, warns *errors.Collector) ([]*Exchange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO(path, "read_capture", err)
	}
	return Parse(data, path, warns)
}

// Parse parses HAR JSON into exchanges. The source name is used in errors
// and warnings only.
func Parse(data []byte, source string, warns *errors.Collector) ([]*Exchange, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewMalformedCapture(source, "not valid JSON", err)
	}
	if doc.Log == nil {
		return nil, errors.NewMalformedCapture(source, "missing top-level log object", nil)
	}
	if doc.Log.Entries == nil {
		return nil, errors.NewMalformedCapture(source, "log has no entries list", nil)
	}

	exchanges := make([]*Exchange, 0, len(doc.Log.Entries))
	for i, entry := range doc.Log.Entries {
		ex, ok := fromEntry(entry, i, source, warns)
		if !ok {
			continue
		}
		exchanges = append(exchanges, ex)
	}
	return exchanges, nil
}

// fromEntry normalizes one HAR entry. Entries missing a request or response
// are skipped with a warning rather than aborting the whole capture.
func fromEntry(entry *Entry, index int, source string, warns *errors.Collector) (*Exchange, bool) {
	if entry == nil || entry.Request == nil || entry.Request.URL == "" {
		if warns != nil {
			warns.Addf(errors.MalformedCapture, source, index, "entry has no usable request, skipped")
		}
		return nil, false
	}

	ex := &Exchange{
		Index:       index,
		Capture:     source,
		Method:      entry.Request.Method,
		URL:         entry.Request.URL,
		HTTPVersion: entry.Request.HTTPVersion,
		StartedAt:   entry.StartedDateTime,
		TimeMillis:  entry.Time,
	}
	if ex.Method == "" {
		ex.Method = "GET"
	}

	if u, err := url.Parse(entry.Request.URL); err == nil {
		ex.Scheme = u.Scheme
		ex.Host = u.Host
		ex.Path = u.Path
		if ex.Path == "" {
			ex.Path = "/"
		}
	}

	ex.RequestHeaders = Headers(append([]Param(nil), entry.Request.Headers...))
	ex.Query = queryParams(entry.Request)

	if pd := entry.Request.PostData; pd != nil {
		ex.RequestBody = Body{
			MimeType: pd.MimeType,
			Text:     pd.Text,
			Size:     int64(len(pd.Text)),
		}
	}

	if resp := entry.Response; resp != nil {
		ex.Status = resp.Status
		ex.StatusText = resp.StatusText
		ex.ResponseHeaders = Headers(append([]Param(nil), resp.Headers...))
		if resp.HTTPVersion != "" {
			ex.HTTPVersion = resp.HTTPVersion
		}
		if resp.Content != nil {
			ex.ResponseBody = decodeContent(resp.Content, index, source, warns)
		}
	}

	return ex, true
}

// queryParams prefers the explicit queryString list and falls back to
// parsing the URL, preserving first-seen order in both cases.
func queryParams(req *Request) []Param {
	if len(req.QueryString) > 0 {
		return append([]Param(nil), req.QueryString...)
	}
	u, err := url.Parse(req.URL)
	if err != nil || u.RawQuery == "" {
		return nil
	}
	var params []Param
	for _, pair := range splitQuery(u.RawQuery) {
		params = append(params, pair)
	}
	return params
}

// splitQuery parses a raw query string preserving parameter order, which
// url.Values would lose.
func splitQuery(raw string) []Param {
	var out []Param
	for len(raw) > 0 {
		key := raw
		if i := strings.IndexAny(raw, "&;"); i >= 0 {
			key, raw = raw[:i], raw[i+1:]
		} else {
			raw = ""
		}
		if key == "" {
			continue
		}
		value := ""
		if i := strings.IndexByte(key, '='); i >= 0 {
			key, value = key[:i], key[i+1:]
		}
		k, err1 := url.QueryUnescape(key)
		v, err2 := url.QueryUnescape(value)
		if err1 != nil {
			k = key
		}
		if err2 != nil {
			v = value
		}
		out = append(out, Param{Name: k, Value: v})
	}
	return out
}

// decodeContent decodes response content. Base64 is decoded in place; any
// other declared encoding leaves the body opaque with a warning so schema
// inference skips just this one exchange.
func decodeContent(c *Content, index int, source string, warns *errors.Collector) Body {
	body := Body{
		MimeType: c.MimeType,
		Text:     c.Text,
		Encoding: c.Encoding,
		Size:     c.Size,
	}

	switch c.Encoding {
	case "":
	case "base64":
		decoded, err := base64.StdEncoding.DecodeString(c.Text)
		if err != nil {
			body.Opaque = true
			if warns != nil {
				warns.Add(errors.NewBodyEncoding(source, index, "base64 (undecodable)"))
			}
			break
		}
		body.Text = string(decoded)
	default:
		body.Opaque = true
		if warns != nil {
			warns.Add(errors.NewBodyEncoding(source, index, c.Encoding))
		}
	}

	return body
}
