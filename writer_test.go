package httpd

import (
	"bytes"
	"testing"
)

func TestWriteRequest(t *testing.T) {
	req := &Request{
		Method:  "POST",
		URI:     "/files/a.txt",
		Version: "HTTP/1.1",
		Headers: Headers{
			{"Host", "localhost"},
			{"content-length", "5"},
		},
		Body: []byte("hello"),
	}
	expect := "POST /files/a.txt HTTP/1.1\r\nHost: localhost\r\nContent-Length: 5\r\n\r\nhello"
	w := new(bytes.Buffer)
	if err := WriteRequest(w, req); err != nil {
		t.Fatal(err)
	}
	ExpectEqual(t, expect, w.String())
}

func TestWriteResponse(t *testing.T) {
	res := ResponseOK()
	res.SetBody("text/plain", []byte("abc"))
	expect := "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 3\r\n\r\nabc"
	w := new(bytes.Buffer)
	if err := WriteResponse(w, res); err != nil {
		t.Fatal(err)
	}
	ExpectEqual(t, expect, w.String())
}

func TestWriteResponseWithoutBody(t *testing.T) {
	ExpectEqual(t, "HTTP/1.1 200 OK\r\n\r\n", string(ResponseOK().Bytes()))
	ExpectEqual(t, "HTTP/1.1 201 Created\r\n\r\n", string(ResponseCreated().Bytes()))
	ExpectEqual(t, "HTTP/1.1 400 Bad Request\r\n\r\n", string(ResponseBadRequest().Bytes()))
	ExpectEqual(t, "HTTP/1.1 404 Not Found\r\n\r\n", string(ResponseNotFound().Bytes()))
	ExpectEqual(t, "HTTP/1.1 500 Internal Server Error\r\n\r\n", string(ResponseInternalError().Bytes()))
}

func TestCapitalizeHeader(t *testing.T) {
	ExpectEqual(t, "Content-Length", capitalizeHeader("content-length"))
	ExpectEqual(t, "User-Agent", capitalizeHeader("User-Agent"))
	ExpectEqual(t, "X-1-Abc", capitalizeHeader("x-1-abc"))
}
