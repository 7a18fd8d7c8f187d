package httpd

import (
	"bytes"
	"fmt"
	"io"
	"unicode"
)

func capitalizeHeader(h string) string {
	ret := make([]rune, 0, len(h))
	cap := true
	for _, r := range h {
		if cap && unicode.IsLetter(r) {
			ret = append(ret, unicode.ToUpper(r))
			cap = false
		} else {
			ret = append(ret, r)
		}
		if r == '-' {
			cap = true
		}
	}
	return string(ret)
}

func writeHeaders(b *bytes.Buffer, hs Headers) {
	for _, h := range hs {
		fmt.Fprintf(b, "%s: %s\r\n", capitalizeHeader(h.Name), h.Value)
	}
	b.WriteString("\r\n")
}

// Bytes encodes res for the wire. A body-less response ends right after
// the blank line.
func (res *Response) Bytes() []byte {
	b := new(bytes.Buffer)
	fmt.Fprintf(b, "%s %d %s\r\n", res.Version, res.Status, res.Phrase)
	writeHeaders(b, res.Headers)
	b.Write(res.Body)
	return b.Bytes()
}

func (req *Request) Bytes() []byte {
	b := new(bytes.Buffer)
	fmt.Fprintf(b, "%s %s %s\r\n", req.Method, req.URI, req.Version)
	writeHeaders(b, req.Headers)
	b.Write(req.Body)
	return b.Bytes()
}

// WriteRequest and WriteResponse issue a single Write per message.

func WriteRequest(w io.Writer, req *Request) error {
	_, err := w.Write(req.Bytes())
	return err
}

func WriteResponse(w io.Writer, res *Response) error {
	_, err := w.Write(res.Bytes())
	return err
}
