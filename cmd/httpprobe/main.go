package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

var (
	addr    = flag.String("addr", "127.0.0.1:4221", "server address")
	size    = flag.String("size", "1k", "payload size for the file checks, e.g. 30, 100k, 6m")
	name    = flag.String("name", "httpprobe.txt", "file name used for the file checks")
	timeout = flag.Duration("timeout", 5*time.Second, "per request timeout")
)

func main() {
	flag.Parse()

	sz, err := sizeToInt(*size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "httpprobe: %v\n", err)
		os.Exit(2)
	}
	p := &prober{
		addr:    *addr,
		timeout: *timeout,
		name:    *name,
		payload: asciiPayload(sz),
	}
	if failed := runChecks(p, os.Stdout); failed > 0 {
		fmt.Fprintf(os.Stderr, "httpprobe: %d of %d checks failed\n", failed, len(checks))
		os.Exit(1)
	}
}
