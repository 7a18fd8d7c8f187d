package httpd

import "strconv"

const (
	MethodGet  = "GET"
	MethodPost = "POST"

	Version11 = "HTTP/1.1"
)

// Header is a single header line. Name is kept as received.
type Header struct {
	Name  string
	Value string
}

// Not map[string]string: order and duplicates are preserved, lookups are
// first-match-wins on the exact name.
type Headers []Header

func (hs Headers) Get(name string) (string, bool) {
	for _, h := range hs {
		if h.Name == name {
			return h.Value, true
		}
	}
	return "", false
}

// All returns every value for name in received order.
func (hs Headers) All(name string) []string {
	var vs []string
	for _, h := range hs {
		if h.Name == name {
			vs = append(vs, h.Value)
		}
	}
	return vs
}

type Request struct {
	Method  string
	URI     string
	Version string
	Headers Headers
	Body    []byte // only read for POST
}

type Response struct {
	Version string
	Status  int
	Phrase  string
	Headers Headers
	Body    []byte
}

var statusPhrases = map[int]string{
	200: "OK",
	201: "Created",
	400: "Bad Request",
	404: "Not Found",
	500: "Internal Server Error",
}

func statusPhrase(status int) string {
	if p, ok := statusPhrases[status]; ok {
		return p
	}
	return "Status " + strconv.Itoa(status)
}

// NewResponse returns a body-less response with the given status.
func NewResponse(status int) *Response {
	return &Response{
		Version: Version11,
		Status:  status,
		Phrase:  statusPhrase(status),
	}
}

func (res *Response) AddHeader(name, value string) {
	res.Headers = append(res.Headers, Header{name, value})
}

// SetBody stores body and appends a Content-Length matching it. An empty
// contentType emits no Content-Type header.
func (res *Response) SetBody(contentType string, body []byte) {
	if contentType != "" {
		res.AddHeader("Content-Type", contentType)
	}
	res.AddHeader("Content-Length", strconv.Itoa(len(body)))
	res.Body = body
}

func ResponseOK() *Response            { return NewResponse(200) }
func ResponseCreated() *Response       { return NewResponse(201) }
func ResponseBadRequest() *Response    { return NewResponse(400) }
func ResponseNotFound() *Response      { return NewResponse(404) }
func ResponseInternalError() *Response { return NewResponse(500) }
