// Package logcat streams `adb logcat` output from one device at a time.
package logcat

import (
	"bufio"
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/buckleypaul/adbdeck/internal/tools"
)

// ErrAlreadyStreaming is returned by Start while another stream is active.
var ErrAlreadyStreaming = errors.New("a logcat stream is already running")

const maxLineSize = 1 << 20

// Exit describes a stream that ended on its own.
type Exit struct {
	Serial   string
	Lines    int
	Duration time.Duration
	Err      error
}

type session struct {
	serial  string
	cancel  context.CancelFunc
	started time.Time
}

// Streamer owns the single logcat process. Start and Stop are meant to be
// called from the interaction goroutine; callbacks run on the reader
// goroutine.
type Streamer struct {
	exec tools.Executor

	mu      sync.Mutex
	current *session
	wg      sync.WaitGroup
}

// NewStreamer returns a Streamer that launches adb through exec.
func NewStreamer(exec tools.Executor) *Streamer {
	return &Streamer{exec: exec}
}

// Start launches `adb -s <serial> logcat` and calls onLine for every line
// of output. onExit is called once if the process ends without Stop being
// called; a stopped stream reports nothing further.
func (s *Streamer) Start(serial string, onLine func(string), onExit func(Exit)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return ErrAlreadyStreaming
	}

	ctx, cancel := context.WithCancel(context.Background())
	proc, err := s.exec.Start(ctx, tools.ADB, "-s", serial, "logcat")
	if err != nil {
		cancel()
		return errors.Wrapf(err, "start logcat for %s", serial)
	}

	sess := &session{serial: serial, cancel: cancel, started: time.Now()}
	s.current = sess
	log.Info().Str("serial", serial).Msg("logcat started")

	s.wg.Add(1)
	go s.read(sess, proc, onLine, onExit)
	return nil
}

// Stop terminates the active stream. It does not wait for the process to
// exit and is a no-op when nothing is streaming.
func (s *Streamer) Stop() {
	s.mu.Lock()
	sess := s.current
	s.current = nil
	s.mu.Unlock()

	if sess == nil {
		return
	}
	sess.cancel()
	log.Info().Str("serial", sess.serial).Dur("duration", time.Since(sess.started)).Msg("logcat stopped")
}

// Active reports whether a stream is running.
func (s *Streamer) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Serial returns the device of the active stream, or "".
func (s *Streamer) Serial() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.serial
}

// Wait blocks until every reader goroutine has reaped its process.
func (s *Streamer) Wait() {
	s.wg.Wait()
}

func (s *Streamer) read(sess *session, proc tools.Process, onLine func(string), onExit func(Exit)) {
	defer s.wg.Done()

	lines := 0
	scanner := bufio.NewScanner(proc.Stdout())
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines++
		if onLine != nil {
			onLine(scanner.Text())
		}
	}
	err := proc.Wait()
	if err == nil {
		err = scanner.Err()
	}

	s.mu.Lock()
	natural := s.current == sess
	if natural {
		s.current = nil
	}
	s.mu.Unlock()

	if !natural {
		return
	}
	sess.cancel()
	log.Warn().Err(err).Str("serial", sess.serial).Int("lines", lines).Msg("logcat exited")
	if onExit != nil {
		onExit(Exit{Serial: sess.serial, Lines: lines, Duration: time.Since(sess.started), Err: err})
	}
}
