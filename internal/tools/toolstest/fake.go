// Package toolstest provides an in-memory tools.Executor for tests.
package toolstest

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/buckleypaul/adbdeck/internal/tools"
)

// Call records one Run or Start invocation.
type Call struct {
	Name string
	Args []string
}

// Line returns the call as a space-joined command line.
func (c Call) Line() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Response is what Run returns for a matching command line.
type Response struct {
	Result tools.Result
	Err    error
	Delay  time.Duration
}

// Fake is a scripted Executor. Responses are keyed by the full command
// line ("adb -s X reboot"); unknown commands succeed with empty output.
type Fake struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []Call
	streams   []*Stream

	// StartErr, when set, is returned by every Start call.
	StartErr error
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{responses: map[string]Response{}}
}

// On scripts the response for a command line.
func (f *Fake) On(line string, resp Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[line] = resp
	return f
}

// Calls returns a copy of every recorded invocation.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Lines returns the recorded invocations as command lines.
func (f *Fake) Lines() []string {
	var lines []string
	for _, c := range f.Calls() {
		lines = append(lines, c.Line())
	}
	return lines
}

// Streams returns every process handed out by Start.
func (f *Fake) Streams() []*Stream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Stream(nil), f.streams...)
}

func (f *Fake) record(name string, args []string) Call {
	c := Call{Name: name, Args: append([]string(nil), args...)}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	return c
}

// Run implements tools.Executor.
func (f *Fake) Run(ctx context.Context, name string, args ...string) (tools.Result, error) {
	c := f.record(name, args)

	f.mu.Lock()
	resp, ok := f.responses[c.Line()]
	f.mu.Unlock()
	if !ok {
		return tools.Result{}, nil
	}

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return tools.Result{ExitCode: -1}, tools.ErrTimeout
			}
			return tools.Result{ExitCode: -1}, ctx.Err()
		}
	}
	return resp.Result, resp.Err
}

// Start implements tools.Executor. The returned Stream stays open until
// the context is cancelled or Close is called.
func (f *Fake) Start(ctx context.Context, name string, args ...string) (tools.Process, error) {
	f.record(name, args)
	if f.StartErr != nil {
		return nil, f.StartErr
	}

	pr, pw := io.Pipe()
	s := &Stream{r: pr, w: pw, exited: make(chan struct{})}
	f.mu.Lock()
	f.streams = append(f.streams, s)
	f.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.exited:
		}
	}()
	return s, nil
}

// Stream is a fake long-lived process whose stdout is fed by the test.
type Stream struct {
	r *io.PipeReader
	w *io.PipeWriter

	once   sync.Once
	exited chan struct{}
}

// Stdout implements tools.Process.
func (s *Stream) Stdout() io.Reader { return s.r }

// Wait implements tools.Process.
func (s *Stream) Wait() error {
	<-s.exited
	return nil
}

// Emit writes one line to the process stdout. It blocks until read.
func (s *Stream) Emit(line string) error {
	_, err := io.WriteString(s.w, line+"\n")
	return err
}

// Close simulates the process exiting.
func (s *Stream) Close() {
	s.once.Do(func() {
		s.w.Close()
		close(s.exited)
	})
}

// Exited reports whether the process has exited.
func (s *Stream) Exited() bool {
	select {
	case <-s.exited:
		return true
	default:
		return false
	}
}
