package httpd

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func newTestStore(t *testing.T) *FileStore {
	return &FileStore{Root: t.TempDir() + "/"}
}

func header(res *Response, name string) string {
	v, _ := res.Headers.Get(name)
	return v
}

func TestServeRoot(t *testing.T) {
	res, err := Serve(Route{Kind: RouteRoot}, &Request{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ExpectEqual(t, "HTTP/1.1 200 OK\r\n\r\n", string(res.Bytes()))
}

func TestServeEcho(t *testing.T) {
	for _, s := range []string{"abc", "", "ünïcode"} {
		res, err := Serve(Route{Kind: RouteEcho, Value: s}, &Request{}, nil)
		if err != nil {
			t.Fatal(err)
		}
		ExpectEqual(t, "200", strconv.Itoa(res.Status))
		ExpectEqual(t, "text/plain", header(res, "Content-Type"))
		ExpectEqual(t, strconv.Itoa(len(s)), header(res, "Content-Length"))
		ExpectEqual(t, s, string(res.Body))
	}
}

func TestServeEchoGzip(t *testing.T) {
	res, err := Serve(Route{Kind: RouteEcho, Value: "abc", Gzip: true}, &Request{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ExpectEqual(t, "200", strconv.Itoa(res.Status))
	ExpectEqual(t, "gzip", header(res, "Content-Encoding"))
	ExpectEqual(t, strconv.Itoa(len(res.Body)), header(res, "Content-Length"))
	if _, ok := res.Headers.Get("Content-Type"); ok {
		t.Error("compressed echo carries a Content-Type")
	}
	ExpectEqual(t, "abc", gunzip(t, res.Body))
}

func TestServeUserAgent(t *testing.T) {
	res, _ := Serve(Route{Kind: RouteUserAgent, Value: "  foo/1.0 "}, &Request{}, nil)
	ExpectEqual(t, "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 7\r\n\r\nfoo/1.0", string(res.Bytes()))

	res, _ = Serve(Route{Kind: RouteUserAgent}, &Request{}, nil)
	ExpectEqual(t, "0", header(res, "Content-Length"))
}

func TestServeFileWriteThenRead(t *testing.T) {
	store := newTestStore(t)
	req := &Request{Body: []byte("hello")}
	res, err := Serve(Route{Kind: RouteFileWrite, Value: "a.txt", Length: 5}, req, store)
	if err != nil {
		t.Fatal(err)
	}
	ExpectEqual(t, "HTTP/1.1 201 Created\r\n\r\n", string(res.Bytes()))

	res, err = Serve(Route{Kind: RouteFileRead, Value: "a.txt"}, &Request{}, store)
	if err != nil {
		t.Fatal(err)
	}
	ExpectEqual(t, "200", strconv.Itoa(res.Status))
	ExpectEqual(t, "application/octet-stream", header(res, "Content-Type"))
	ExpectEqual(t, "5", header(res, "Content-Length"))
	ExpectEqual(t, "hello", string(res.Body))
}

func TestServeFileWriteTruncatesToDeclaredLength(t *testing.T) {
	store := newTestStore(t)
	req := &Request{Body: []byte("hello")}
	if _, err := Serve(Route{Kind: RouteFileWrite, Value: "a.txt", Length: 3}, req, store); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(filepath.Join(store.Root, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	ExpectEqual(t, "hel", string(b))
}

func TestServeFileWriteOverwrites(t *testing.T) {
	store := newTestStore(t)
	Serve(Route{Kind: RouteFileWrite, Value: "a.txt", Length: 5}, &Request{Body: []byte("hello")}, store)
	Serve(Route{Kind: RouteFileWrite, Value: "a.txt", Length: 2}, &Request{Body: []byte("hi")}, store)
	b, _ := os.ReadFile(filepath.Join(store.Root, "a.txt"))
	ExpectEqual(t, "hi", string(b))
}

func TestServeFileWriteErrors(t *testing.T) {
	res, err := Serve(Route{Kind: RouteFileWrite, Value: "a.txt"}, &Request{}, &FileStore{})
	ExpectEqual(t, "500", strconv.Itoa(res.Status))
	if !errors.Is(err, ErrStorageUnconfigured) {
		t.Errorf("got %v, want ErrStorageUnconfigured", err)
	}

	res, err = Serve(Route{Kind: RouteFileWrite, Value: "no/such/dir/a.txt"}, &Request{}, newTestStore(t))
	ExpectEqual(t, "HTTP/1.1 404 Not Found\r\n\r\n", string(res.Bytes()))
	if err == nil {
		t.Error("expected the create failure as cause")
	}

	res, _ = Serve(Route{Kind: RouteBadRequest}, &Request{}, newTestStore(t))
	ExpectEqual(t, "HTTP/1.1 400 Bad Request\r\n\r\n", string(res.Bytes()))
}

func TestServeFileReadMissing(t *testing.T) {
	res, err := Serve(Route{Kind: RouteFileRead, Value: "missing.txt"}, &Request{}, newTestStore(t))
	ExpectEqual(t, "HTTP/1.1 404 Not Found\r\n\r\n", string(res.Bytes()))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v, want os.ErrNotExist", err)
	}

	res, err = Serve(Route{Kind: RouteFileRead, Value: "a.txt"}, &Request{}, &FileStore{})
	ExpectEqual(t, "404", strconv.Itoa(res.Status))
	if !errors.Is(err, ErrStorageUnconfigured) {
		t.Errorf("got %v, want ErrStorageUnconfigured", err)
	}
}

func TestServeFileReadBinary(t *testing.T) {
	store := newTestStore(t)
	bin := []byte{0xff, 0xfe, 0x00, 0x01}
	if err := os.WriteFile(filepath.Join(store.Root, "bin"), bin, 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Serve(Route{Kind: RouteFileRead, Value: "bin"}, &Request{}, store)
	ExpectEqual(t, "404", strconv.Itoa(res.Status))
	if !errors.Is(err, ErrNotText) {
		t.Errorf("got %v, want ErrNotText", err)
	}

	store.AllowBinary = true
	res, err = Serve(Route{Kind: RouteFileRead, Value: "bin"}, &Request{}, store)
	if err != nil {
		t.Fatal(err)
	}
	ExpectEqual(t, "200", strconv.Itoa(res.Status))
	ExpectEqual(t, string(bin), string(res.Body))
}

func TestServeNotFound(t *testing.T) {
	res, err := Serve(Route{Kind: RouteNotFound}, &Request{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ExpectEqual(t, "HTTP/1.1 404 Not Found\r\n\r\n", string(res.Bytes()))
}
