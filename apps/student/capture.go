package main

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/trezcool/mahudhurio/core/attendance"
)

// stdinCapture reads decoded frame payloads line by line.
// It stands in for a camera on headless machines.
type stdinCapture struct {
	mu      sync.Mutex
	in      io.Reader
	stopped bool
}

func openStdinCapture() (attendance.Capture, error) {
	return &stdinCapture{in: os.Stdin}, nil
}

func (c *stdinCapture) Start(onDecode func(string), onError func(error)) error {
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			c.mu.Lock()
			stopped := c.stopped
			c.mu.Unlock()
			if stopped {
				return
			}
			onDecode(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			onError(err)
		}
	}()
	return nil
}

func (c *stdinCapture) Stop() error {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	return nil
}

func (c *stdinCapture) Release() error { return nil }
