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
	"context"

	"github.com/GRAYgoose124/wikicrawler/arbiter"

	"go.uber.org/zap"
)

// Loop is the single writer of a Prompt's Session.
//
// Every Request from the Couplings and from the Schedules is executed
// in turn.
type Loop struct {
	Prompt *arbiter.Prompt

	// Schedules is optional.
	Schedules *Schedules

	// HaltOnInputEOF stops the Loop when the Couplings' input is
	// exhausted.
	HaltOnInputEOF bool

	logger *zap.Logger
}

// NewLoop makes a Loop that halts on input EOF.
func NewLoop(p *arbiter.Prompt, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		Prompt:         p,
		HaltOnInputEOF: true,
		logger:         logger.Named("sio"),
	}
}

// Run starts the Couplings and processes Requests until the context
// is done or (with HaltOnInputEOF) input is exhausted.
//
// The Couplings are stopped before Run returns.
func (l *Loop) Run(ctx context.Context, c Couplings) error {
	if err := c.Start(ctx); err != nil {
		return err
	}
	in, out, done, err := c.IO(ctx)
	if err != nil {
		return err
	}

	var scheduled chan *Request
	if l.Schedules != nil {
		scheduled = l.Schedules.Requests()
	}

	l.logger.Debug("loop starting")
LOOP:
	for {
		select {
		case <-done:
			if l.HaltOnInputEOF {
				l.logger.Debug("loop shutting down (input done)")
				break LOOP
			}
			done = nil
		case <-ctx.Done():
			l.logger.Debug("loop shutting down (ctx.Done)")
			break LOOP
		case req := <-scheduled:
			l.process(ctx, req, out)
		case req := <-in:
			if req == nil {
				break LOOP
			}
			l.process(ctx, req, out)
		}
	}
	close(out)

	l.logger.Debug("loop done")
	return c.Stop(context.Background())
}

func (l *Loop) process(ctx context.Context, req *Request, out chan *Response) {
	l.logger.Debug("request", zap.String("from", req.From), zap.String("line", req.Line))
	r := &Response{
		To:     req.From,
		Line:   req.Line,
		Result: l.Prompt.Execute(ctx, req.Line, req.Interactive),
	}
	r.Recording = l.Prompt.Recording()
	l.logger.Debug("response", zap.String("to", r.To), zap.String("result", JShort(r.Result)))
	select {
	case <-ctx.Done():
	case out <- r:
	}
}
