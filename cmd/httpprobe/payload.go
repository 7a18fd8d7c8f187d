package main

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

var units = map[byte]int{
	'k': 1000,
	'm': 1000 * 1000,
	'g': 1000 * 1000 * 1000,
}

func sizeToInt(s string) (int, error) {
	if len(s) == 0 {
		return 0, fmt.Errorf("invalid size")
	}
	var err error
	var m, sz int
	m, ok := units[s[len(s)-1]]
	if ok {
		sz, err = strconv.Atoi(s[:len(s)-1])
	} else {
		m = 1
		sz, err = strconv.Atoi(s)
	}
	if err != nil {
		return 0, err
	}
	if sz < 0 {
		return 0, fmt.Errorf("invalid size: %s", s)
	}
	return sz * m, nil
}

// asciiChunk produces printable ASCII (no newlines), so the payload stays
// valid UTF-8 and is served back by GET /files/.
type asciiChunk struct {
	w           io.Writer
	totalLength int
	wroteSoFar  int
	nextAscii   byte
	posInBuf    int
	buf         [4096]byte
}

func newAsciiChunk(w io.Writer, totalLength int) *asciiChunk {
	c := &asciiChunk{w: w, totalLength: totalLength}
	c.prepareBuf()
	return c
}

func (c *asciiChunk) prepareBuf() {
	for i := 0; i < len(c.buf); i++ {
		for {
			c.nextAscii = (c.nextAscii + 1) % 128
			if strconv.IsPrint(rune(c.nextAscii)) {
				break
			}
		}
		c.buf[i] = c.nextAscii
	}
}

// Writes a chunk of printable []byte, returns the number of byte written.
func (c *asciiChunk) writeNext() int {
	if c.wroteSoFar >= c.totalLength {
		return 0
	}
	n := min(c.totalLength-c.wroteSoFar, len(c.buf)-c.posInBuf)
	m, err := c.w.Write(c.buf[c.posInBuf : c.posInBuf+n])
	if err != nil {
		c.wroteSoFar = c.totalLength
		return 0
	}
	c.wroteSoFar += m
	c.posInBuf = (c.posInBuf + m) % len(c.buf)
	return m
}

func asciiPayload(size int) []byte {
	buf := new(bytes.Buffer)
	chunk := newAsciiChunk(buf, size)
	for n := chunk.writeNext(); n > 0; n = chunk.writeNext() {
	}
	return buf.Bytes()
}
