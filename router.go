package httpd

import "strings"

type RouteKind int

const (
	RouteNotFound RouteKind = iota
	RouteRoot
	RouteEcho
	RouteUserAgent
	RouteFileRead
	RouteFileWrite
	RouteBadRequest
)

var routeNames = [...]string{
	RouteNotFound:   "not-found",
	RouteRoot:       "root",
	RouteEcho:       "echo",
	RouteUserAgent:  "user-agent",
	RouteFileRead:   "file-read",
	RouteFileWrite:  "file-write",
	RouteBadRequest: "bad-request",
}

func (k RouteKind) String() string {
	if int(k) < len(routeNames) {
		return routeNames[k]
	}
	return "unknown"
}

// Route is the result of matching a request. Which fields are meaningful
// depends on Kind:
//
//	RouteEcho       Value (echoed text), Gzip
//	RouteUserAgent  Value (raw User-Agent, may be empty)
//	RouteFileRead   Value (file name)
//	RouteFileWrite  Value (file name), Length (declared Content-Length)
type Route struct {
	Kind   RouteKind
	Value  string
	Gzip   bool
	Length int
}

const (
	echoPrefix  = "/echo/"
	filesPrefix = "/files/"
)

// Dispatch matches req against the fixed route table. First match wins.
func Dispatch(req *Request) Route {
	path := req.URI
	switch {
	case req.Method == MethodGet && path == "/":
		return Route{Kind: RouteRoot}
	case req.Method == MethodPost && strings.HasPrefix(path, filesPrefix):
		name := strings.TrimPrefix(path, filesPrefix)
		if name == "" {
			return Route{Kind: RouteBadRequest}
		}
		cl, _, _ := contentLength(req.Headers)
		return Route{Kind: RouteFileWrite, Value: name, Length: cl}
	case req.Method == MethodGet && strings.HasPrefix(path, echoPrefix):
		return Route{
			Kind:  RouteEcho,
			Value: strings.TrimPrefix(path, echoPrefix),
			Gzip:  acceptsGzip(req.Headers),
		}
	case req.Method == MethodGet && path == "/user-agent":
		ua, _ := req.Headers.Get("User-Agent")
		return Route{Kind: RouteUserAgent, Value: ua}
	case req.Method == MethodGet && strings.HasPrefix(path, filesPrefix):
		return Route{Kind: RouteFileRead, Value: strings.TrimPrefix(path, filesPrefix)}
	}
	return Route{Kind: RouteNotFound}
}

// acceptsGzip is a substring match over every Accept-Encoding value, so
// "x-gzip" counts too.
func acceptsGzip(hs Headers) bool {
	for _, v := range hs.All("Accept-Encoding") {
		if strings.Contains(v, "gzip") {
			return true
		}
	}
	return false
}
