package httpd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	// ErrMalformedRequest covers absent, truncated or unparsable requests.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrRequestTooLarge is a malformed request that exceeded a size limit.
	ErrRequestTooLarge = fmt.Errorf("%w: too large", ErrMalformedRequest)

	// the peer closed the connection before sending a single byte
	errPeerClosed = errors.New("peer closed connection")
)

const (
	defaultMaxHeaderBytes = 8 << 10
	defaultMaxBodyBytes   = 32 << 20
)

type baseReader struct {
	r        *bufio.Reader
	maxBytes int // limit for the start line and header block, 0 means none
	read     int
}

func newBufioReader(r io.Reader) *bufio.Reader {
	if casted, ok := r.(*bufio.Reader); ok {
		return casted
	}
	return bufio.NewReader(r)
}

// similar to readLineSlice() in net/textproto/reader.go
func (r *baseReader) readLine() (string, error) {
	var line []byte
	for {
		l, more, err := r.r.ReadLine()
		if err != nil {
			return "", err
		}
		r.read += len(l)
		if r.maxBytes > 0 && r.read > r.maxBytes {
			return "", ErrRequestTooLarge
		}
		if line == nil && !more {
			r.read += 2
			return string(l), nil
		}
		line = append(line, l...)
		if !more {
			break
		}
	}
	r.read += 2
	return string(line), nil
}

func (r *baseReader) readHeaders() (Headers, error) {
	var headers Headers
	for {
		line, err := r.readLine()
		if err != nil {
			return nil, malformed("failed to read headers", err)
		}
		if len(line) == 0 {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: invalid header line %q", ErrMalformedRequest, line)
		}
		headers = append(headers, Header{name, strings.TrimSpace(value)})
	}
	return headers, nil
}

// malformed wraps a read error. Running out of input in the middle of a
// request is a parse failure; size violations already are one. Other I/O
// errors (deadlines, resets) are passed through.
func malformed(what string, err error) error {
	if errors.Is(err, ErrMalformedRequest) {
		return err
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: %s: %w", ErrMalformedRequest, what, io.ErrUnexpectedEOF)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func contentLength(h Headers) (int, bool, error) {
	cls, ok := h.Get("Content-Length")
	if !ok {
		return 0, false, nil
	}
	cl, err := strconv.Atoi(cls)
	if err != nil || cl < 0 {
		return 0, true, fmt.Errorf("%w: invalid Content-Length %q", ErrMalformedRequest, cls)
	}
	return cl, true, nil
}

// RequestReader reads one HTTP/1.1 request: request line, headers and, for
// POST, exactly Content-Length body bytes.
type RequestReader struct {
	baseReader
	maxBody int
	req     *Request
	reqCh   chan *Request
	errCh   chan error
}

func NewRequestReader(r io.Reader, maxHeaderBytes, maxBodyBytes int) *RequestReader {
	return &RequestReader{
		baseReader: baseReader{r: newBufioReader(r), maxBytes: maxHeaderBytes},
		maxBody:    maxBodyBytes,
		req:        &Request{},
		reqCh:      make(chan *Request, 1),
		errCh:      make(chan error, 1),
	}
}

// Start reads in its own goroutine; the result arrives on exactly one of
// RequestReceived or ErrorOccurred. Both are buffered so an abandoned
// reader never leaks.
func (r *RequestReader) Start() {
	go func() {
		req, err := r.ReadRequest()
		if err != nil {
			r.errCh <- err
			return
		}
		r.reqCh <- req
	}()
}

func (r *RequestReader) RequestReceived() <-chan *Request {
	return r.reqCh
}

func (r *RequestReader) ErrorOccurred() <-chan error {
	return r.errCh
}

// ReadRequest reads synchronously.
func (r *RequestReader) ReadRequest() (*Request, error) {
	if err := r.readRequestLine(); err != nil {
		return nil, err
	}
	if err := r.readRequestHeaders(); err != nil {
		return nil, err
	}
	if r.req.Method == MethodPost {
		if err := r.readRequestBody(); err != nil {
			return nil, err
		}
	}
	return r.req, nil
}

func (r *RequestReader) readRequestLine() error {
	if _, err := r.r.Peek(1); err == io.EOF {
		return errPeerClosed
	}
	rl, err := r.readLine()
	if err != nil {
		return malformed("failed to read request line", err)
	}
	fields := strings.Fields(rl)
	if len(fields) < 3 {
		return fmt.Errorf("%w: invalid request line %q", ErrMalformedRequest, rl)
	}
	if !strings.HasPrefix(fields[1], "/") {
		return fmt.Errorf("%w: invalid request target %q", ErrMalformedRequest, fields[1])
	}
	r.req.Method = fields[0]
	r.req.URI = fields[1]
	r.req.Version = fields[2]
	return nil
}

func (r *RequestReader) readRequestHeaders() error {
	headers, err := r.readHeaders()
	if err == nil {
		r.req.Headers = headers
	}
	return err
}

func (r *RequestReader) readRequestBody() error {
	cl, ok, err := contentLength(r.req.Headers)
	if err != nil {
		return err
	}
	if !ok || cl == 0 {
		r.req.Body = []byte{}
		return nil
	}
	if r.maxBody > 0 && cl > r.maxBody {
		return fmt.Errorf("%w: body of %d bytes", ErrRequestTooLarge, cl)
	}
	body := make([]byte, cl)
	if _, err := io.ReadFull(r.r, body); err != nil {
		return malformed("failed to read body", err)
	}
	r.req.Body = body
	return nil
}

// ResponseReader reads an HTTP response. The connection carries one
// response only, so a body without Content-Length runs to EOF.
type ResponseReader struct {
	baseReader
	res *Response
}

func NewResponseReader(r io.Reader) *ResponseReader {
	return &ResponseReader{
		baseReader: baseReader{r: newBufioReader(r)},
		res:        &Response{},
	}
}

func ReadResponse(r io.Reader) (*Response, error) {
	return NewResponseReader(r).ReadResponse()
}

func (r *ResponseReader) ReadResponse() (*Response, error) {
	if err := r.readStatusLine(); err != nil {
		return nil, err
	}
	if err := r.readResponseHeaders(); err != nil {
		return nil, err
	}
	if err := r.readResponseBody(); err != nil {
		return nil, err
	}
	return r.res, nil
}

func parseStatusCode(ss string) (int, error) {
	status, err := strconv.Atoi(ss)
	first := status / 100
	if err != nil || (first < 1 || first > 5) {
		return 0, fmt.Errorf("invalid status code: %s", ss)
	}
	return status, nil
}

func (r *ResponseReader) readStatusLine() error {
	sl, err := r.readLine()
	if err != nil {
		return fmt.Errorf("failed to read status line: %w", err)
	}
	fields := strings.Split(sl, " ")
	if len(fields) < 3 {
		return fmt.Errorf("invalid status line: %s", sl)
	}
	r.res.Version = fields[0]
	r.res.Status, err = parseStatusCode(fields[1])
	if err != nil {
		return err
	}
	r.res.Phrase = strings.Join(fields[2:], " ")
	return nil
}

func (r *ResponseReader) readResponseHeaders() error {
	headers, err := r.readHeaders()
	if err == nil {
		r.res.Headers = headers
	}
	return err
}

func (r *ResponseReader) readResponseBody() error {
	cl, ok, err := contentLength(r.res.Headers)
	if err != nil {
		return err
	}
	if !ok {
		body, err := io.ReadAll(r.r)
		if err != nil {
			return fmt.Errorf("failed to read body: %w", err)
		}
		r.res.Body = body
		return nil
	}
	body := make([]byte, cl)
	if _, err := io.ReadFull(r.r, body); err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	r.res.Body = body
	return nil
}
