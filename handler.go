package httpd

import (
	"errors"
	"fmt"
	"strings"
)

var errMissingPathSegment = errors.New("missing path segment")

// Serve runs the handler selected by route. The returned response always
// carries the status to send; a non-nil error is the underlying cause,
// meant for logging only.
func Serve(route Route, req *Request, store *FileStore) (*Response, error) {
	switch route.Kind {
	case RouteRoot:
		return ResponseOK(), nil
	case RouteEcho:
		return serveEcho(route.Value, route.Gzip)
	case RouteUserAgent:
		return serveUserAgent(route.Value), nil
	case RouteFileRead:
		return serveFileRead(store, route.Value)
	case RouteFileWrite:
		return serveFileWrite(store, route.Value, req.Body, route.Length)
	case RouteBadRequest:
		return ResponseBadRequest(), errMissingPathSegment
	}
	return ResponseNotFound(), nil
}

func serveEcho(s string, gzip bool) (*Response, error) {
	res := ResponseOK()
	if !gzip {
		res.SetBody("text/plain", []byte(s))
		return res, nil
	}
	body, err := Gzip([]byte(s))
	if err != nil {
		return ResponseInternalError(), fmt.Errorf("gzip: %w", err)
	}
	res.AddHeader("Content-Encoding", "gzip")
	res.SetBody("", body)
	return res, nil
}

func serveUserAgent(ua string) *Response {
	res := ResponseOK()
	res.SetBody("text/plain", []byte(strings.TrimSpace(ua)))
	return res
}

func serveFileRead(store *FileStore, name string) (*Response, error) {
	b, err := store.Read(name)
	if err != nil {
		return ResponseNotFound(), err
	}
	res := ResponseOK()
	res.SetBody("application/octet-stream", b)
	return res, nil
}

// serveFileWrite stores only the first declared bytes of body, even when
// more arrived.
func serveFileWrite(store *FileStore, name string, body []byte, declared int) (*Response, error) {
	if name == "" {
		return ResponseBadRequest(), errMissingPathSegment
	}
	if declared < len(body) {
		body = body[:declared]
	}
	if err := store.Write(name, body); err != nil {
		if errors.Is(err, ErrStorageUnconfigured) {
			return ResponseInternalError(), err
		}
		return ResponseNotFound(), err
	}
	return ResponseCreated(), nil
}
