package main

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/klauspost/compress/gzip"

	"github.com/sndbox/httpd"
)

const probeUserAgent = "httpprobe/1.0"

type prober struct {
	addr    string
	timeout time.Duration
	name    string // file written and read back
	payload []byte
}

// roundTrip sends req on a fresh connection; the server answers once and
// closes.
func (p *prober) roundTrip(req *httpd.Request) (*httpd.Response, error) {
	conn, err := net.DialTimeout("tcp", p.addr, p.timeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(p.timeout))

	if err := httpd.WriteRequest(conn, req); err != nil {
		return nil, err
	}
	return httpd.ReadResponse(conn)
}

func newRequest(method, uri string, headers ...httpd.Header) *httpd.Request {
	return &httpd.Request{
		Method:  method,
		URI:     uri,
		Version: httpd.Version11,
		Headers: append(httpd.Headers{{Name: "Host", Value: "localhost"}}, headers...),
	}
}

func expectStatus(res *httpd.Response, status int) error {
	if res.Status != status {
		return fmt.Errorf("got status %d %s, want %d", res.Status, res.Phrase, status)
	}
	return nil
}

func expectBody(res *httpd.Response, body []byte) error {
	if !bytes.Equal(res.Body, body) {
		return fmt.Errorf("got body of %d bytes, want %d bytes", len(res.Body), len(body))
	}
	return nil
}

func expectHeader(res *httpd.Response, name, value string) error {
	if v, _ := res.Headers.Get(name); v != value {
		return fmt.Errorf("got %s %q, want %q", name, v, value)
	}
	return nil
}

type check struct {
	name string
	run  func(p *prober) error
}

var checks = []check{
	{"root", func(p *prober) error {
		res, err := p.roundTrip(newRequest(httpd.MethodGet, "/"))
		if err != nil {
			return err
		}
		if len(res.Headers) != 0 {
			return fmt.Errorf("got %d headers, want none", len(res.Headers))
		}
		return firstErr(expectStatus(res, 200), expectBody(res, nil))
	}},
	{"echo", func(p *prober) error {
		res, err := p.roundTrip(newRequest(httpd.MethodGet, "/echo/"+p.name))
		if err != nil {
			return err
		}
		return firstErr(
			expectStatus(res, 200),
			expectHeader(res, "Content-Type", "text/plain"),
			expectBody(res, []byte(p.name)))
	}},
	{"echo-gzip", func(p *prober) error {
		res, err := p.roundTrip(newRequest(httpd.MethodGet, "/echo/"+p.name,
			httpd.Header{Name: "Accept-Encoding", Value: "gzip"}))
		if err != nil {
			return err
		}
		if err := firstErr(expectStatus(res, 200), expectHeader(res, "Content-Encoding", "gzip")); err != nil {
			return err
		}
		zr, err := gzip.NewReader(bytes.NewReader(res.Body))
		if err != nil {
			return err
		}
		plain, err := io.ReadAll(zr)
		if err != nil {
			return err
		}
		if string(plain) != p.name {
			return fmt.Errorf("got %q after gunzip, want %q", plain, p.name)
		}
		return nil
	}},
	{"user-agent", func(p *prober) error {
		res, err := p.roundTrip(newRequest(httpd.MethodGet, "/user-agent",
			httpd.Header{Name: "User-Agent", Value: probeUserAgent}))
		if err != nil {
			return err
		}
		return firstErr(expectStatus(res, 200), expectBody(res, []byte(probeUserAgent)))
	}},
	{"file-write", func(p *prober) error {
		req := newRequest(httpd.MethodPost, "/files/"+p.name,
			httpd.Header{Name: "Content-Length", Value: strconv.Itoa(len(p.payload))})
		req.Body = p.payload
		res, err := p.roundTrip(req)
		if err != nil {
			return err
		}
		return expectStatus(res, 201)
	}},
	{"file-read", func(p *prober) error {
		res, err := p.roundTrip(newRequest(httpd.MethodGet, "/files/"+p.name))
		if err != nil {
			return err
		}
		return firstErr(
			expectStatus(res, 200),
			expectHeader(res, "Content-Type", "application/octet-stream"),
			expectBody(res, p.payload))
	}},
	{"file-missing", func(p *prober) error {
		res, err := p.roundTrip(newRequest(httpd.MethodGet, "/files/"+p.name+".missing"))
		if err != nil {
			return err
		}
		return firstErr(expectStatus(res, 404), expectBody(res, nil))
	}},
	{"not-found", func(p *prober) error {
		res, err := p.roundTrip(newRequest(httpd.MethodGet, "/nope"))
		if err != nil {
			return err
		}
		return expectStatus(res, 404)
	}},
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// runChecks writes one line per check and returns the number of failures.
func runChecks(p *prober, out io.Writer) int {
	pass := color.New(color.FgGreen, color.Bold).SprintFunc()
	fail := color.New(color.FgRed, color.Bold).SprintFunc()

	failed := 0
	for _, c := range checks {
		if err := c.run(p); err != nil {
			failed++
			fmt.Fprintf(out, "%s %-12s %v\n", fail("FAIL"), c.name, err)
			continue
		}
		fmt.Fprintf(out, "%s %s\n", pass("PASS"), c.name)
	}
	return failed
}
