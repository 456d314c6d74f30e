package capture

// HAR 1.2 wire format. Only the fields the analyzer consumes are modeled;
// unknown fields are ignored on load and omitted on write.

// Document is the top-level HAR structure.
type Document struct {
	Log *Log `json:"log"`
}

// Log holds the HAR log metadata and entries.
type Log struct {
	Version string   `json:"version"`
	Creator Creator  `json:"creator"`
	Entries []*Entry `json:"entries"`
}

// Creator identifies the tool that generated the HAR.
type Creator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Entry is a single HTTP request/response pair.
type Entry struct {
	StartedDateTime string    `json:"startedDateTime,omitempty"`
	Time            float64   `json:"time"`
	Request         *Request  `json:"request"`
	Response        *Response `json:"response"`
}

// Request is the HTTP request half of an entry.
type Request struct {
	Method      string    `json:"method"`
	URL         string    `json:"url"`
	HTTPVersion string    `json:"httpVersion,omitempty"`
	Headers     []Param   `json:"headers"`
	QueryString []Param   `json:"queryString"`
	PostData    *PostData `json:"postData,omitempty"`
	HeadersSize int       `json:"headersSize"`
	BodySize    int       `json:"bodySize"`
}

// PostData is the request body.
type PostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// Response is the HTTP response half of an entry.
type Response struct {
	Status      int      `json:"status"`
	StatusText  string   `json:"statusText"`
	HTTPVersion string   `json:"httpVersion,omitempty"`
	Headers     []Param  `json:"headers"`
	Content     *Content `json:"content"`
	RedirectURL string   `json:"redirectURL"`
	HeadersSize int      `json:"headersSize"`
	BodySize    int      `json:"bodySize"`
}

// Content is the response body content.
type Content struct {
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text,omitempty"`
	Encoding string `json:"encoding,omitempty"`
}
