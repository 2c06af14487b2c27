/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/GRAYgoose124/wikicrawler/arbiter"
	"github.com/GRAYgoose124/wikicrawler/core"

	"go.uber.org/zap"
)

// Stdio is a fairly simple Couplings that uses stdin for input and
// stdout for output.
type Stdio struct {
	// In is coupled to Prompt input.
	In io.Reader

	// Out is coupled to Prompt output.
	Out io.Writer

	// ShellExpand enables input to include inline shell commands
	// delimited by '<<' and '>>'.  Use at your own risk, of
	// course!
	ShellExpand bool

	// Timestamps prepends a timestamp to each output line.
	Timestamps bool

	// EchoInput writes input lines (prepended with "input") to
	// the output.
	EchoInput bool

	// Tags prefixes tags indicating type of output ("input",
	// "result", "none", "error").
	Tags bool

	// PadTags adds some padding to tags.
	PadTags bool

	// Interactive marks requests as interactive so that pages and
	// analyses are displayed as they are visited.
	Interactive bool

	// InputEOF will be closed on EOF from stdin or on "quit".
	InputEOF chan bool

	WG sync.WaitGroup

	logger *zap.Logger
}

// NewStdio creates a new Stdio.
//
// In and Out are initialized with os.Stdin and os.Stdout
// respectively.
func NewStdio(shellExpand bool, logger *zap.Logger) *Stdio {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stdio{
		In:          os.Stdin,
		Out:         os.Stdout,
		ShellExpand: shellExpand,
		Interactive: true,
		InputEOF:    make(chan bool),
		logger:      logger.Named("stdio"),
	}
}

// Start does nothing.
func (s *Stdio) Start(ctx context.Context) error {
	return nil
}

// Stop waits until output is complete or was terminated via its
// context.
func (s *Stdio) Stop(ctx context.Context) error {
	s.WG.Wait()
	return nil
}

func quits(line string) bool {
	switch strings.TrimSpace(line) {
	case "quit", "exit":
		return true
	}
	return false
}

func (s *Stdio) printf(tag, format string, args ...interface{}) {
	if s.PadTags {
		tag = fmt.Sprintf("% 10s", tag)
	}
	if s.Tags {
		format = tag + " " + format
	}
	if s.Timestamps {
		ts := fmt.Sprintf("%-31s", core.Timestamp())
		format = ts + " " + format
	}

	fmt.Fprintf(s.Out, format, args...)
}

// IO returns channels for reading from stdin and writing to stdout.
//
// Lines starting with '#' and blank lines are ignored.
func (s *Stdio) IO(ctx context.Context) (chan *Request, chan *Response, chan bool, error) {
	in := make(chan *Request)
	done := make(chan bool)

	// The reader isn't waited on since a read can't be interrupted.
	go func() {
		stdin := bufio.NewReader(s.In)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			line, err := stdin.ReadString('\n')
			if (err == io.EOF && strings.TrimSpace(line) == "") || quits(line) {
				close(done)
				close(s.InputEOF)
				return
			}
			if err != nil && err != io.EOF {
				s.logger.Error("stdin error", zap.Error(err))
				close(done)
				close(s.InputEOF)
				return
			}
			if s.EchoInput {
				s.printf("input", "%s\n", strings.TrimRight(line, "\n"))
			}
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "#") || line == "" {
				continue
			}
			if s.ShellExpand {
				expanded, xerr := ShellExpand(ctx, line)
				if xerr != nil {
					s.printf("error", "%s\n", xerr)
					continue
				}
				line = expanded
			}

			select {
			case <-ctx.Done():
				return
			case in <- &Request{From: "stdin", Line: line, Interactive: s.Interactive}:
			}
			if err == io.EOF {
				close(done)
				close(s.InputEOF)
				return
			}
		}
	}()

	out := make(chan *Response)

	s.WG.Add(1)
	go func() {
		defer s.WG.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case r, ok := <-out:
				if !ok || r == nil {
					return
				}
				s.print(r)
			}
		}
	}()

	return in, out, done, nil
}

func (s *Stdio) print(r *Response) {
	res := r.Result
	if res == nil {
		return
	}
	switch res.Kind {
	case arbiter.None:
		switch {
		case r.Recording:
			s.printf("recording", "%s\n", r.Line)
		case res.Text != "":
			s.printf("none", "%s\n", res.Text)
		}
	case arbiter.Failure:
		s.printf("error", "%s\n", res.Text)
	case arbiter.Success:
		if res.Text != "" {
			s.printf("result", "%s\n", res.Text)
		}
	default:
		s.printf("result", "%s\n", res)
	}
}
