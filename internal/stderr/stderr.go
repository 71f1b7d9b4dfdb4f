//go:build !windows

// Package stderr captures output that C libraries (ALSA, the speaker
// backend) write directly to file descriptor 2, bypassing os.Stderr, and
// forwards it to the log so it cannot corrupt the TUI.
package stderr

import (
	"bufio"
	"os"
	"strings"
	"sync"
	"syscall"

	"go.uber.org/zap"
)

// Capture redirects fd 2 into the log until Stop.
type Capture struct {
	origStderr int
	pipeRead   *os.File
	pipeWrite  *os.File
	done       chan struct{}
	stopOnce   sync.Once
}

// Start begins capturing stderr. It must run before the audio output is
// initialized. On error nothing is redirected and the program can continue.
func Start(logger *zap.Logger) (*Capture, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	orig, err := syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return nil, err
	}

	if err := syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		syscall.Close(orig)
		r.Close()
		w.Close()
		return nil, err
	}

	c := &Capture{
		origStderr: orig,
		pipeRead:   r,
		pipeWrite:  w,
		done:       make(chan struct{}),
	}
	go c.forward(logger)
	return c, nil
}

func (c *Capture) forward(logger *zap.Logger) {
	defer close(c.done)
	scanner := bufio.NewScanner(c.pipeRead)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			logger.Warn("native stderr", zap.String("line", line))
		}
	}
}

// WriteOriginal writes directly to the original stderr, bypassing capture.
func (c *Capture) WriteOriginal(msg string) {
	_, _ = syscall.Write(c.origStderr, []byte(msg))
}

// Stop restores the original stderr and drains pending lines.
func (c *Capture) Stop() {
	c.stopOnce.Do(func() {
		_ = syscall.Dup2(c.origStderr, int(os.Stderr.Fd()))
		_ = syscall.Close(c.origStderr)
		c.pipeWrite.Close()
		<-c.done
		c.pipeRead.Close()
	})
}
