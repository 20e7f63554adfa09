// Copyright © 2024 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package uci implements a client for chess engines speaking the
// Universal Chess Interface protocol.
package uci

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Config describes how to start an engine process.
type Config struct {
	Name string `yaml:"name"`
	Cmd  string `yaml:"cmd"`
	Dir  string `yaml:"dir"`
	Arg  string `yaml:"arg"`

	// Options are sent with setoption before the first game.
	Options map[string]string `yaml:"options"`
}

// SyncTimeout is how long the engine gets to respond to a handshake or
// to isready before it is considered dead.
const SyncTimeout = 5 * time.Second

var (
	ErrReadTimeout = errors.New("engine: read i/o timeout")
	ErrClosed      = errors.New("engine: closed")
)

// Start starts the engine process described by the config and performs
// the protocol handshake with it.
func Start(config Config) (*Engine, error) {
	process := exec.Command(config.Cmd, strings.Fields(config.Arg)...)
	process.Dir = config.Dir

	stdin, err := process.StdinPipe()
	if err != nil {
		return nil, err
	}

	stdout, err := process.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if err := process.Start(); err != nil {
		return nil, fmt.Errorf("engine: starting %s: %w", config.Cmd, err)
	}

	engine := NewEngine(config.Name, stdin, stdout)
	engine.process = process

	if err := engine.Initialize(); err != nil {
		_ = engine.Close()
		return nil, err
	}

	for name, value := range config.Options {
		if err := engine.SetOption(name, value); err != nil {
			_ = engine.Close()
			return nil, err
		}
	}

	if err := engine.NewGame(); err != nil {
		_ = engine.Close()
		return nil, err
	}

	return engine, nil
}

// NewEngine creates an engine client which writes its commands to w and
// reads the engine's responses from r. No handshake is performed.
func NewEngine(name string, w io.Writer, r io.Reader) *Engine {
	engine := &Engine{
		name:   name,
		writer: bufio.NewWriter(w),
		closer: w,
		lines:  make(chan string),
		done:   make(chan struct{}),
		grace:  SyncTimeout,
	}

	go engine.read(bufio.NewReader(r))
	return engine
}

// Engine is a client for a single UCI engine. It is not safe for use by
// multiple goroutines at once.
type Engine struct {
	name string

	process *exec.Cmd

	writer *bufio.Writer
	closer io.Writer

	lines chan string
	done  chan struct{}
	once  sync.Once

	// grace is how long the engine may take to answer a synchronous
	// command, or to finish a search after its budget has run out.
	grace time.Duration

	err error
}

func (engine *Engine) read(reader *bufio.Reader) {
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			engine.err = err
			close(engine.lines)
			return
		}

		line = strings.Trim(line, " \n\t\r")
		logrus.Tracef("(%s)> %s", engine.name, line)

		select {
		case engine.lines <- line:
		case <-engine.done:
			return
		}
	}
}

// Name returns the display name of the engine.
func (engine *Engine) Name() string {
	return engine.name
}

// Initialize performs the uci/uciok handshake.
func (engine *Engine) Initialize() error {
	if err := engine.Write("uci"); err != nil {
		return err
	}

	_, err := engine.Await("^uciok", engine.grace)
	return err
}

// Synchronize waits for the engine to complete some time consuming task
// and synchronizes the interface with it.
func (engine *Engine) Synchronize() error {
	if err := engine.Write("isready"); err != nil {
		return err
	}

	_, err := engine.Await("^readyok", engine.grace)
	return err
}

// NewGame prepares the engine for a new game of chess.
func (engine *Engine) NewGame() error {
	if err := engine.Write("ucinewgame"); err != nil {
		return err
	}

	return engine.Synchronize()
}

// SetOption sets the value of an engine option.
func (engine *Engine) SetOption(name, value string) error {
	return engine.Write("setoption name %s value %s", name, value)
}

// Go asks the engine to search the given position within the limit and
// returns the last search information it reported along with its move.
// A search which overruns the limit is stopped and its output discarded,
// and an engine which doesn't stop is closed.
func (engine *Engine) Go(fen string, limit Limit) (Info, error) {
	if err := engine.Write("position fen %s", fen); err != nil {
		return Info{}, err
	}

	if err := engine.Write("go %s", limit); err != nil {
		return Info{}, err
	}

	timer := time.NewTimer(limit.timeout(engine.grace))
	defer timer.Stop()

	var info Info
	for {
		line, err := engine.next(timer)
		if err != nil {
			if errors.Is(err, ErrReadTimeout) {
				engine.abandon()
			}

			return info, err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "info":
			info.parse(fields[1:])
		case "bestmove":
			if len(fields) < 2 {
				return info, fmt.Errorf("engine: malformed bestmove %q", line)
			}

			info.BestMove = fields[1]
			return info, nil
		}
	}
}

// abandon stops the current search and reads up to its bestmove so that
// the next search doesn't see it.
func (engine *Engine) abandon() {
	if err := engine.Write("stop"); err == nil {
		if _, err := engine.Await("^bestmove", engine.grace); err == nil {
			return
		}
	}

	logrus.Warnf("(%s) engine did not stop searching, closing it", engine.name)
	_ = engine.Close()
}

// Close asks the engine to quit and releases its process. It is safe to
// call Close more than once.
func (engine *Engine) Close() error {
	engine.once.Do(func() {
		// a dead engine can't be asked to quit
		_ = engine.Write("quit")
		close(engine.done)

		if closer, ok := engine.closer.(io.Closer); ok {
			_ = closer.Close()
		}

		if engine.process != nil {
			_ = engine.process.Process.Kill()
			_ = engine.process.Wait()
		}
	})

	return nil
}

// Await is a utility function which waits for a particular string from
// the engine with a fixed timeout.
func (engine *Engine) Await(pattern string, timeout time.Duration) (string, error) {
	regex := regexp.MustCompile(pattern)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		line, err := engine.next(timer)
		if err != nil {
			return "", err
		}

		if regex.MatchString(line) {
			// line is the expected line
			return line, nil
		}
	}
}

func (engine *Engine) next(timer *time.Timer) (string, error) {
	select {
	case <-timer.C:
		return "", ErrReadTimeout

	case <-engine.done:
		return "", ErrClosed

	case line, ok := <-engine.lines:
		if !ok {
			if engine.err != nil && engine.err != io.EOF {
				return "", fmt.Errorf("engine: %w", engine.err)
			}

			return "", ErrClosed
		}

		return line, nil
	}
}

// Write sends a single command to the engine.
func (engine *Engine) Write(format string, a ...any) error {
	command := fmt.Sprintf(format, a...)
	logrus.Tracef("(%s)< %s", engine.name, command)

	if _, err := fmt.Fprintln(engine.writer, command); err != nil {
		return err
	}

	return engine.writer.Flush()
}
