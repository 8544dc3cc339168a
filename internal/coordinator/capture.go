package coordinator

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// capture tees logcat lines into a file. Lines arrive on the reader
// goroutine while close may come from the interaction goroutine. A nil
// capture discards everything.
type capture struct {
	path string

	mu     sync.Mutex
	f      *os.File
	w      *bufio.Writer
	closed bool
}

func newCapture(dir, serialNo string, now time.Time) (*capture, error) {
	name := "logcat_" + safeName(serialNo) + "_" + now.Format("20060102_150405") + ".txt"
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "create logcat capture")
	}
	return &capture{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

func (c *capture) write(line string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.w.WriteString(line)
	c.w.WriteByte('\n')
}

func (c *capture) close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.w.Flush()
	c.f.Close()
}

// safeName keeps serials like "192.168.1.20:5555" usable as file names.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}
